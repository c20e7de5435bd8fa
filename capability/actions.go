package capability

// Action is a catalog-card affordance.
type Action int

const (
	// ActionView opens the item detail view. Always visible.
	ActionView Action = iota
	// ActionRegister enrolls the current user into a program.
	ActionRegister
	// ActionUpdate opens the admin edit form.
	ActionUpdate
	// ActionDelete deletes the item after confirmation.
	ActionDelete
)

// ActionSet is the computed set of visible actions for one catalog item
// plus the subset that must redirect an unauthenticated visitor to the
// login page instead of executing.
type ActionSet struct {
	visible    uint8
	loginFirst uint8
}

// Has reports whether the action is visible.
func (s ActionSet) Has(a Action) bool {
	return s.visible&(1<<uint8(a)) != 0
}

// RequiresLogin reports whether invoking the action must redirect to
// the login page first (guest clicking a gated control).
func (s ActionSet) RequiresLogin(a Action) bool {
	return s.loginFirst&(1<<uint8(a)) != 0
}

// List returns the visible actions in display order.
func (s ActionSet) List() []Action {
	var out []Action
	for _, a := range []Action{ActionView, ActionRegister, ActionUpdate, ActionDelete} {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *ActionSet) show(a Action) {
	s.visible |= 1 << uint8(a)
}

func (s *ActionSet) gate(a Action) {
	s.show(a)
	s.loginFirst |= 1 << uint8(a)
}

// Actions computes the visible action set for a catalog item as a pure
// function of the current role and the item's isRegistered flag.
//
// Guests see View plus a Register control that redirects to login.
// Clients see View plus Register until they are registered. Admins see
// View, Update, and Delete, and never Register.
func Actions(role Role, isRegistered bool) ActionSet {
	var s ActionSet
	s.show(ActionView)

	switch {
	case role.IsAdmin():
		s.show(ActionUpdate)
		s.show(ActionDelete)
	case role.IsClient():
		if !isRegistered {
			s.show(ActionRegister)
		}
	default:
		s.gate(ActionRegister)
	}

	return s
}
