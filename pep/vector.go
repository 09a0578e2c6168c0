package pep

// Machine vectors, as offsets below the burn address of the operating
// system. With the standard burn address of 0xFFFF the trap handler address
// is at 0xFFFE and the system stack pointer at 0xFFF6.
const (
	VECTOR_USER_STACK   = uint16(11) // Initial user stack pointer.
	VECTOR_SYSTEM_STACK = uint16(9)  // System stack pointer, used by traps.
	VECTOR_CHAR_IN      = uint16(7)  // Address of the input port.
	VECTOR_CHAR_OUT     = uint16(5)  // Address of the output port.
	VECTOR_LOADER       = uint16(3)  // Loader entry point.
	VECTOR_TRAP         = uint16(1)  // Trap handler entry point.
)

const (
	BURN_ADDRESS = uint16(0xFFFF) // Standard burn address.
	CHAR_IN      = uint16(0xFC15) // Standard input port.
	CHAR_OUT     = uint16(0xFC16) // Standard output port.
)

// Vector returns the address of a machine vector for a given burn address.
func Vector(burn uint16, offset uint16) uint16 {
	return burn - offset
}
