package pep

// StatusBit names one of the five status flags.
type StatusBit int

const (
	STATUS_N = StatusBit(iota)
	STATUS_Z
	STATUS_V
	STATUS_C
	STATUS_S
)

// Status flag masks within the NZVCS status byte.
const (
	C_MASK    = uint8(0x01)
	V_MASK    = uint8(0x02)
	Z_MASK    = uint8(0x04)
	N_MASK    = uint8(0x08)
	S_MASK    = uint8(0x10)
	NZVC_MASK = N_MASK | Z_MASK | V_MASK | C_MASK
)

var statusMasks = [...]uint8{N_MASK, Z_MASK, V_MASK, C_MASK, S_MASK}
var statusNames = [...]string{"N", "Z", "V", "C", "S"}

// Mask of the bit in the status byte.
func (sb StatusBit) Mask() uint8 {
	if sb < 0 || int(sb) >= len(statusMasks) {
		return 0
	}
	return statusMasks[sb]
}

func (sb StatusBit) String() string {
	if sb < 0 || int(sb) >= len(statusNames) {
		return "?"
	}
	return statusNames[sb]
}

// StatusBits lists the flags in NZVCS order.
var StatusBits = [...]StatusBit{STATUS_N, STATUS_Z, STATUS_V, STATUS_C, STATUS_S}

// ParseStatusBit returns the status bit with the given name.
func ParseStatusBit(name string) (sb StatusBit, ok bool) {
	for n, str := range statusNames {
		if str == name {
			return StatusBit(n), true
		}
	}
	return
}

// FormatStatus renders the status byte as NZVC letters, lower case when clear.
func FormatStatus(status uint8) string {
	out := []byte("nzvc")
	for n, sb := range StatusBits[:4] {
		if status&sb.Mask() != 0 {
			out[n] -= 'a' - 'A'
		}
	}
	return string(out)
}
