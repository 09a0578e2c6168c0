// Package bus models the handshake of the Pep/9 main memory bus.
//
// A memory transaction takes three cycles of a continuously asserted
// MemRead or MemWrite: two wait states, then the ready state in which the
// data is valid. Changing the memory address register during a transaction
// restarts it.
package bus

// State of the main bus.
type State int

const (
	IDLE              = State(iota) // No transaction.
	READ_FIRST_WAIT                 // Read, first wait state.
	READ_SECOND_WAIT                // Read, second wait state.
	READ_READY                      // Read data is valid.
	WRITE_FIRST_WAIT                // Write, first wait state.
	WRITE_SECOND_WAIT               // Write, second wait state.
	WRITE_READY                     // Write is committed.
)

var stateNames = [...]string{
	"Idle",
	"ReadFirstWait",
	"ReadSecondWait",
	"ReadReady",
	"WriteFirstWait",
	"WriteSecondWait",
	"WriteReady",
}

func (state State) String() string {
	if state < IDLE || state > WRITE_READY {
		return "?"
	}
	return stateNames[state]
}

// IsRead is true for the states of a read transaction.
func (state State) IsRead() bool {
	return state >= READ_FIRST_WAIT && state <= READ_READY
}

// IsWrite is true for the states of a write transaction.
func (state State) IsWrite() bool {
	return state >= WRITE_FIRST_WAIT && state <= WRITE_READY
}

// Next computes the bus state for the next cycle. marChanged is true when
// the memory address register is clocked to a new value this cycle; read
// and write are the MemRead and MemWrite control lines.
//
// A transaction cannot begin in the cycle that changes the address. Once
// ready, the state holds for as long as the same line stays asserted and
// the address is unchanged.
func Next(state State, marChanged bool, read bool, write bool) State {
	switch state {
	case IDLE:
		if marChanged {
			return IDLE
		}
	case READ_FIRST_WAIT, READ_SECOND_WAIT, READ_READY:
		if read {
			switch {
			case marChanged:
				return READ_FIRST_WAIT
			case state == READ_FIRST_WAIT:
				return READ_SECOND_WAIT
			default:
				return READ_READY
			}
		}
	case WRITE_FIRST_WAIT, WRITE_SECOND_WAIT, WRITE_READY:
		if write {
			switch {
			case marChanged:
				return WRITE_FIRST_WAIT
			case state == WRITE_FIRST_WAIT:
				return WRITE_SECOND_WAIT
			default:
				return WRITE_READY
			}
		}
	default:
		return IDLE
	}

	switch {
	case read:
		return READ_FIRST_WAIT
	case write:
		return WRITE_FIRST_WAIT
	}

	return IDLE
}
