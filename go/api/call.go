package api

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/wincorn/go/emu"
)

// GuestCaller runs guest code synchronously from inside a handler.
type GuestCaller interface {
	CallGuest(fn uint64, conv CallConv, args ...uint64) (uint64, error)
}

// Call is the state of one dispatched call, handed to hooks and handlers.
type Call struct {
	Emu    *emu.Emu
	Module string
	Symbol string
	// Desc is nil when the call has no registered implementation.
	Desc *Descriptor
	Conv CallConv
	// Args is the raw argument vector, receiver included for interface methods.
	Args      []uint64
	CharWidth int

	Stub       uint64
	ReturnAddr uint64
	MaxString  int
	Log        *zap.Logger

	Guest    GuestCaller
	original Impl
}

func (c *Call) Name() string {
	return c.Module + "!" + c.Symbol
}

func (c *Call) String() string {
	return fmt.Sprintf("%s(%d args) from %#x", c.Name(), len(c.Args), c.ReturnAddr)
}

// Arg returns argument i, or 0 past the end of the vector.
func (c *Call) Arg(i int) uint64 {
	if i < 0 || i >= len(c.Args) {
		return 0
	}
	return c.Args[i]
}

func (c *Call) width() int {
	if c.CharWidth == 0 {
		return 1
	}
	return c.CharWidth
}

// Str reads argument i as a string in the call's character width.
func (c *Call) Str(i int) (string, error) {
	return ReadString(c.Emu, c.Arg(i), c.width(), c.MaxString)
}

func (c *Call) AStr(i int) (string, error) {
	return ReadString(c.Emu, c.Arg(i), 1, c.MaxString)
}

func (c *Call) WStr(i int) (string, error) {
	return ReadString(c.Emu, c.Arg(i), 2, c.MaxString)
}

// WriteStr writes s at addr in the call's character width.
func (c *Call) WriteStr(addr uint64, s string) (int, error) {
	return WriteString(c.Emu, addr, s, c.width())
}

// WriteStrN writes at most max units of s plus terminator at addr in the call's
// character width, returning the units written.
func (c *Call) WriteStrN(addr uint64, s string, max int) (int, error) {
	return WriteStringN(c.Emu, addr, s, c.width(), max)
}

func (c *Call) WritePtr(addr, val uint64) error {
	if err := c.Emu.WritePtr(addr, val); err != nil {
		return MarshalErr("pointer", addr, err)
	}
	return nil
}

func (c *Call) WriteUint32(addr uint64, val uint32) error {
	if err := c.Emu.WriteUint32(addr, val); err != nil {
		return MarshalErr("dword", addr, err)
	}
	return nil
}

func (c *Call) ReadGUIDBytes(addr uint64) ([]byte, error) {
	b, err := c.Emu.MemRead(addr, 16)
	if err != nil {
		return nil, MarshalErr("guid", addr, err)
	}
	return b, nil
}

// VarArgs re-reads a variadic call once its format string is known. fmtIndex is the
// format argument; the fixed prefix comes from the descriptor arity. It returns the
// format and the values after the prefix. The prefix values are read the same way
// both times, so they never change.
func (c *Call) VarArgs(fmtIndex int) (string, []uint64, error) {
	prefix := len(c.Args)
	if c.Desc != nil {
		prefix = c.Desc.Arity.N
	}
	if fmtIndex >= prefix {
		return "", nil, errors.Wrapf(ErrBadArity, "format argument %d outside prefix of %d", fmtIndex, prefix)
	}
	format, err := c.Str(fmtIndex)
	if err != nil {
		return "", nil, err
	}
	k := CountFormatArgs(format)
	if prefix+k > MaxArgs {
		k = MaxArgs - prefix
	}
	args, err := ReadArgs(c.Emu, c.Conv, prefix+k)
	if err != nil {
		return "", nil, err
	}
	c.Args = args
	return format, args[prefix:], nil
}

// VaList reads k values from a guest va_list.
func (c *Call) VaList(ptr uint64, k int) ([]uint64, error) {
	if k == 0 {
		return nil, nil
	}
	bsz := c.Emu.PtrSize()
	buf, err := c.Emu.MemRead(ptr, uint64(k*bsz))
	if err != nil {
		return nil, MarshalErr("va_list", ptr, err)
	}
	ret := make([]uint64, k)
	for i := range ret {
		ret[i] = c.Emu.UnpackAddr(buf[i*bsz:])
	}
	return ret, nil
}

// Sprintf formats with the call's string width.
func (c *Call) Sprintf(format string, args []uint64) (string, error) {
	f := &Formatter{
		Wide:    c.width() == 2,
		PtrSize: c.Emu.PtrSize(),
		ReadStr: func(addr uint64, width int) (string, error) {
			return ReadString(c.Emu, addr, width, c.MaxString)
		},
	}
	return f.Format(format, args)
}

// CallGuest runs guest code at fn and returns its result. The dispatcher keeps
// this call pending while the guest runs.
func (c *Call) CallGuest(fn uint64, conv CallConv, args ...uint64) (uint64, error) {
	if c.Guest == nil {
		return 0, ErrNoGuestCall
	}
	return c.Guest.CallGuest(fn, conv, args...)
}

// SetOriginal sets what Original runs. The dispatcher points it at the built-in
// handler, or the generic fallback when there is none.
func (c *Call) SetOriginal(fn Impl) {
	c.original = fn
}

// Original runs the built-in behavior from inside a hook.
func (c *Call) Original() (uint64, error) {
	if c.original == nil {
		return 0, ErrNoImpl
	}
	return c.original(c)
}
