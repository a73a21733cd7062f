package dispatch

import (
	"fmt"
	"strings"
)

// Event describes a call that reached the generic fallback.
type Event struct {
	// Owner is the module for imports, the interface for COM methods, or "" if unknown.
	Owner string
	// Name is the symbol or slot name, "" if unknown.
	Name string
	// Index is the vtable slot, -1 for imports or when it could not be recovered.
	Index int
	Args  []uint64

	Addr   uint64
	Return uint64
}

func (e Event) String() string {
	owner, name := e.Owner, e.Name
	if owner == "" {
		owner = "?"
	}
	if name == "" {
		name = "?"
	}
	args := make([]string, len(e.Args))
	for i, v := range e.Args {
		args[i] = fmt.Sprintf("0x%x", v)
	}
	s := fmt.Sprintf("%s.%s(%s)", owner, name, strings.Join(args, ", "))
	if e.Index >= 0 {
		s += fmt.Sprintf(" [slot %d]", e.Index)
	}
	return s
}
