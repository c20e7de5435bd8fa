package capability

// Role is the backend's role string for an authenticated user. The
// zero value [RoleGuest] represents an unauthenticated visitor.
type Role string

const (
	// RoleGuest is the unauthenticated visitor pseudo-role.
	RoleGuest Role = ""
	// RoleClient is a registered platform user who can enroll in programs.
	RoleClient Role = "CLIENT"
	// RoleCoach is a coaching-staff user; catalog-wise it behaves like a client.
	RoleCoach Role = "COACH"
	// RoleClinic is a clinic-operator user; catalog-wise it behaves like a client.
	RoleClinic Role = "CLINIC"
	// RoleSupport is a support-staff user; catalog-wise it behaves like a client.
	RoleSupport Role = "SUPPORT"
	// RoleAdmin is the platform administrator role.
	RoleAdmin Role = "ADMIN"
)

// IsAdmin reports whether the role carries the admin capability set.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsClient reports whether the role is any authenticated non-admin role.
func (r Role) IsClient() bool {
	switch r {
	case RoleClient, RoleCoach, RoleClinic, RoleSupport:
		return true
	}
	return false
}

// IsGuest reports whether the role represents an unauthenticated visitor.
func (r Role) IsGuest() bool {
	return !r.IsAdmin() && !r.IsClient()
}

var adminMask = buildMask(
	CapCreateAcademy,
	CapUpdateAcademy,
	CapDeleteAcademy,
	CapCreateProgram,
	CapUpdateProgram,
	CapDeleteProgram,
	CapListSupport,
	CapReplySupport,
)

var clientMask = buildMask(
	CapRegisterProgram,
	CapViewOwnSupport,
)

func buildMask(caps ...Capability) Mask {
	var m Mask
	for _, c := range caps {
		m.Set(c)
	}
	return m
}

// ForRole resolves the capability [Mask] for a role. Unknown role
// strings resolve to the guest (empty) mask.
func ForRole(r Role) Mask {
	switch {
	case r.IsAdmin():
		return adminMask
	case r.IsClient():
		return clientMask
	}
	return 0
}
