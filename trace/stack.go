package trace

const (
	STACK_LIMIT = 4096 // Maximum tracked call depth.
)

// Frame is an unreturned call.
type Frame struct {
	Caller uint16 // Address of the call instruction.
	Return uint16 // Address the call returns to.
	Trap   bool   // Set if the call was a trap.
}

// CallStack follows the calls and traps of a traced program.
type CallStack struct {
	Data []Frame
}

func (s *CallStack) Push(frame Frame) (ok bool) {
	if s.Full() {
		return
	}
	s.Data = append(s.Data, frame)
	return true
}

func (s *CallStack) Pop() (frame Frame, ok bool) {
	frame, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *CallStack) Empty() bool {
	return len(s.Data) == 0
}

func (s *CallStack) Full() bool {
	return len(s.Data) == STACK_LIMIT
}

func (s *CallStack) Depth() int {
	return len(s.Data)
}

func (s *CallStack) Peek() (frame Frame, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *CallStack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
