package emu

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/models"
)

// PushCall builds the frame a caller leaves behind for fn: register arguments,
// stack arguments right to left, shadow space, then the return address.
func (e *Emu) PushCall(conv models.CallConv, ret uint64, args ...uint64) error {
	spec, err := e.arch.Spec(conv)
	if err != nil {
		return err
	}
	for i := 0; i < len(args) && i < len(spec.Regs); i++ {
		if err := e.RegWrite(spec.Regs[i], args[i]); err != nil {
			return err
		}
	}
	for i := len(args) - 1; i >= len(spec.Regs); i-- {
		if _, err := e.Push(args[i]); err != nil {
			return err
		}
	}
	if spec.Shadow > 0 {
		sp, err := e.SP()
		if err != nil {
			return err
		}
		if err := e.RegWrite(e.arch.SP, sp-spec.Shadow); err != nil {
			return err
		}
	}
	_, err = e.Push(ret)
	return err
}

// Invoke calls fn the way guest code would and runs until it returns to ret.
// Caller-cleanup stack space is released afterwards.
func (e *Emu) Invoke(fn, ret uint64, conv models.CallConv, args ...uint64) (uint64, error) {
	spec, err := e.arch.Spec(conv)
	if err != nil {
		return 0, err
	}
	if err := e.PushCall(conv, ret, args...); err != nil {
		return 0, errors.Wrap(err, "failed to build call frame")
	}
	if err := e.Start(fn, ret); err != nil {
		return 0, err
	}
	pc, err := e.PC()
	if err != nil {
		return 0, err
	}
	if pc != ret {
		return 0, errors.Errorf("call to %#x stopped at %#x", fn, pc)
	}
	if !spec.CalleeCleanup {
		sp, err := e.SP()
		if err != nil {
			return 0, err
		}
		pop := uint64(spec.StackArgs(len(args))*e.bsz) + spec.Shadow
		if err := e.RegWrite(e.arch.SP, sp+pop); err != nil {
			return 0, err
		}
	}
	return e.RegRead(e.arch.Ret)
}
