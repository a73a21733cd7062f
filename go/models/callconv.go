package models

type CallConv int

const (
	Stdcall CallConv = iota
	Cdecl
	Fastcall
	Thiscall
	Win64
)

func (c CallConv) String() string {
	switch c {
	case Stdcall:
		return "stdcall"
	case Cdecl:
		return "cdecl"
	case Fastcall:
		return "fastcall"
	case Thiscall:
		return "thiscall"
	case Win64:
		return "win64"
	}
	return "unknown"
}

// ConvSpec is the argument layout of a calling convention on one architecture.
// Arguments fill Regs first, then the stack above the return address and Shadow bytes.
type ConvSpec struct {
	Regs          []int
	Shadow        uint64
	CalleeCleanup bool
}

// StackArgs is how many of n arguments are passed on the stack.
func (s *ConvSpec) StackArgs(n int) int {
	if n <= len(s.Regs) {
		return 0
	}
	return n - len(s.Regs)
}
