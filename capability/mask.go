package capability

// Capability names a single gated affordance. Values are bit positions
// within a [Mask].
type Capability int

const (
	// CapCreateAcademy is an admin-only capability gating academy creation.
	CapCreateAcademy Capability = iota
	// CapUpdateAcademy is an admin-only capability gating academy edits.
	CapUpdateAcademy
	// CapDeleteAcademy is an admin-only capability gating academy deletion.
	CapDeleteAcademy
	// CapCreateProgram is an admin-only capability gating program creation.
	CapCreateProgram
	// CapUpdateProgram is an admin-only capability gating program edits.
	CapUpdateProgram
	// CapDeleteProgram is an admin-only capability gating program deletion.
	CapDeleteProgram
	// CapListSupport is an admin-only capability gating the support inbox.
	CapListSupport
	// CapReplySupport is an admin-only capability gating support replies.
	CapReplySupport
	// CapRegisterProgram gates program enrollment for client-side roles.
	CapRegisterProgram
	// CapViewOwnSupport gates the "my support requests" view.
	CapViewOwnSupport

	capCount
)

// Mask is a 64-bit capability bitmask.
type Mask uint64

func (m *Mask) Has(c Capability) bool {
	if c < 0 || c >= capCount {
		return false
	}
	return (*m & (1 << c)) != 0
}

func (m *Mask) Set(c Capability) {
	if c < 0 || c >= capCount {
		return
	}
	*m |= (1 << c)
}

func (m *Mask) Clear(c Capability) {
	if c < 0 || c >= capCount {
		return
	}
	*m &^= (1 << c)
}

func (m *Mask) Raw() uint64 {
	return uint64(*m)
}
