package cpu

import (
	"github.com/pkg/errors"
)

type codeHook struct {
	begin, end uint64
	cb         func(Cpu, uint64, uint32)
}

// begin > end hooks every address, as in Unicorn
func (h *codeHook) covers(addr uint64) bool {
	return h.begin > h.end || addr >= h.begin && addr <= h.end
}

// Hooks dispatches code hooks for Cpu implementations that don't have native hook support.
type Hooks struct {
	cpu  Cpu
	code []*codeHook
}

func NewHooks(c Cpu) *Hooks {
	return &Hooks{cpu: c}
}

func (h *Hooks) HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (Hook, error) {
	if htype != HOOK_CODE {
		return nil, errors.Errorf("unsupported hook type: %d", htype)
	}
	fn, ok := cb.(func(Cpu, uint64, uint32))
	if !ok {
		return nil, errors.Errorf("bad code hook callback: %T", cb)
	}
	hh := &codeHook{begin: begin, end: end, cb: fn}
	h.code = append(h.code, hh)
	return hh, nil
}

func (h *Hooks) HookDel(hook Hook) error {
	for i, v := range h.code {
		if v == hook {
			h.code = append(h.code[:i:i], h.code[i+1:]...)
			return nil
		}
	}
	return errors.New("hook not found")
}

// OnCode fires every code hook covering addr. Callbacks may add hooks while this runs.
func (h *Hooks) OnCode(addr uint64, size uint32) {
	hooks := h.code
	for _, v := range hooks {
		if v.covers(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}
