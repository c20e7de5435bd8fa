package capability

import "testing"

func TestActionsTable(t *testing.T) {
	tests := []struct {
		name         string
		role         Role
		isRegistered bool
		want         []Action
		loginFirst   []Action
	}{
		{
			name: "guest",
			role: RoleGuest,
			want: []Action{ActionView, ActionRegister},
			// Guests may click Register but land on the login page.
			loginFirst: []Action{ActionRegister},
		},
		{
			name: "client not registered",
			role: RoleClient,
			want: []Action{ActionView, ActionRegister},
		},
		{
			name:         "client registered",
			role:         RoleClient,
			isRegistered: true,
			want:         []Action{ActionView},
		},
		{
			name: "coach behaves like client",
			role: RoleCoach,
			want: []Action{ActionView, ActionRegister},
		},
		{
			name:         "admin",
			role:         RoleAdmin,
			isRegistered: false,
			want:         []Action{ActionView, ActionUpdate, ActionDelete},
		},
		{
			name:         "admin ignores isRegistered",
			role:         RoleAdmin,
			isRegistered: true,
			want:         []Action{ActionView, ActionUpdate, ActionDelete},
		},
		{
			name: "unknown role treated as guest",
			role: Role("SUPERUSER"),
			want: []Action{ActionView, ActionRegister},
			loginFirst: []Action{ActionRegister},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Actions(tt.role, tt.isRegistered)

			for _, a := range []Action{ActionView, ActionRegister, ActionUpdate, ActionDelete} {
				want := containsAction(tt.want, a)
				if got.Has(a) != want {
					t.Fatalf("Has(%v) = %v, want %v", a, got.Has(a), want)
				}
				wantLogin := containsAction(tt.loginFirst, a)
				if got.RequiresLogin(a) != wantLogin {
					t.Fatalf("RequiresLogin(%v) = %v, want %v", a, got.RequiresLogin(a), wantLogin)
				}
			}

			list := got.List()
			if len(list) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", list, tt.want)
			}
			for i := range list {
				if list[i] != tt.want[i] {
					t.Fatalf("List() = %v, want %v", list, tt.want)
				}
			}
		})
	}
}

func containsAction(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

func TestForRole(t *testing.T) {
	admin := ForRole(RoleAdmin)
	for _, c := range []Capability{CapCreateAcademy, CapUpdateAcademy, CapDeleteAcademy, CapCreateProgram, CapUpdateProgram, CapDeleteProgram, CapListSupport, CapReplySupport} {
		if !admin.Has(c) {
			t.Fatalf("admin mask missing capability %d", c)
		}
	}
	if admin.Has(CapRegisterProgram) {
		t.Fatal("admins must not carry the register capability")
	}

	client := ForRole(RoleClient)
	if !client.Has(CapRegisterProgram) || !client.Has(CapViewOwnSupport) {
		t.Fatal("client mask missing client capabilities")
	}
	if client.Has(CapDeleteProgram) {
		t.Fatal("client mask must not carry admin capabilities")
	}

	guest := ForRole(RoleGuest)
	if guest.Raw() != 0 {
		t.Fatalf("guest mask = %#x, want empty", guest.Raw())
	}

	unknown := ForRole(Role("whatever"))
	if unknown.Raw() != 0 {
		t.Fatalf("unknown role mask = %#x, want empty", unknown.Raw())
	}
}

func TestMaskBounds(t *testing.T) {
	var m Mask
	m.Set(Capability(-1))
	m.Set(capCount)
	if m.Raw() != 0 {
		t.Fatalf("out-of-range Set mutated mask: %#x", m.Raw())
	}
	if m.Has(Capability(-1)) || m.Has(capCount) {
		t.Fatal("out-of-range Has must report false")
	}

	m.Set(CapDeleteProgram)
	m.Clear(CapDeleteProgram)
	if m.Has(CapDeleteProgram) {
		t.Fatal("Clear did not clear the bit")
	}
}
