package models

// Stackframe is one pending dispatch: a stub hit that has not returned to the guest yet.
type Stackframe struct {
	PC, SP uint64
	Ret    uint64
	Name   string
}

// Callstack tracks nested dispatches. It grows when a handler calls back into guest code
// that reaches another stub.
type Callstack struct {
	Stack []Stackframe
}

func (s *Callstack) Len() int    { return len(s.Stack) }
func (s *Callstack) Empty() bool { return len(s.Stack) == 0 }

func (s *Callstack) Push(f Stackframe) {
	s.Stack = append(s.Stack, f)
}

// Peek returns the innermost frame, or a zero frame when empty.
func (s *Callstack) Peek() (f Stackframe) {
	if n := len(s.Stack); n > 0 {
		f = s.Stack[n-1]
	}
	return f
}

func (s *Callstack) Pop() Stackframe {
	f := s.Peek()
	if n := len(s.Stack); n > 0 {
		s.Stack = s.Stack[:n-1]
	}
	return f
}

// Frames returns a copy, innermost last.
func (s *Callstack) Frames() []Stackframe {
	return append([]Stackframe(nil), s.Stack...)
}
