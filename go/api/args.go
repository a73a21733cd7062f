package api

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/emu"
)

// ReadArgs reads n native-width arguments for a call that has just reached a stub,
// with the return address on top of the stack. It never changes SP or any register.
func ReadArgs(e *emu.Emu, conv CallConv, n int) ([]uint64, error) {
	if n < 0 || n > MaxArgs {
		return nil, errors.Wrapf(ErrBadArity, "%d arguments", n)
	}
	arch := e.Arch()
	spec, err := arch.Spec(conv)
	if err != nil {
		return nil, err
	}
	args := make([]uint64, n)
	nreg := 0
	for ; nreg < n && nreg < len(spec.Regs); nreg++ {
		if args[nreg], err = e.RegRead(spec.Regs[nreg]); err != nil {
			return nil, CorruptionErr("argument register", err)
		}
	}
	if nreg == n {
		return args, nil
	}
	sp, err := e.SP()
	if err != nil {
		return nil, CorruptionErr("stack pointer", err)
	}
	bsz := e.PtrSize()
	base := sp + uint64(bsz) + spec.Shadow
	buf, err := e.MemRead(base, uint64((n-nreg)*bsz))
	if err != nil {
		return nil, MarshalErr("stack arguments", base, err)
	}
	for i := nreg; i < n; i++ {
		off := (i - nreg) * bsz
		args[i] = e.UnpackAddr(buf[off : off+bsz])
	}
	return args, nil
}

// ReturnAddr reads the return address on top of the stack.
func ReturnAddr(e *emu.Emu) (uint64, error) {
	sp, err := e.SP()
	if err != nil {
		return 0, CorruptionErr("stack pointer", err)
	}
	ra, err := e.ReadPtr(sp)
	if err != nil {
		return 0, CorruptionErr("return address", err)
	}
	return ra, nil
}

// Return completes a call: sets the return register, pops the return address into PC,
// and for callee-cleanup conventions drops the stack part of nargs arguments.
func Return(e *emu.Emu, conv CallConv, nargs int, ret uint64) error {
	arch := e.Arch()
	spec, err := arch.Spec(conv)
	if err != nil {
		return err
	}
	sp, err := e.SP()
	if err != nil {
		return CorruptionErr("stack pointer", err)
	}
	ra, err := e.ReadPtr(sp)
	if err != nil {
		return CorruptionErr("return address", err)
	}
	sp += uint64(e.PtrSize())
	if spec.CalleeCleanup {
		sp += uint64(spec.StackArgs(nargs) * e.PtrSize())
	}
	if err := e.RegWrite(arch.Ret, ret); err != nil {
		return CorruptionErr("return register", err)
	}
	if err := e.RegWrite(arch.SP, sp); err != nil {
		return CorruptionErr("stack pointer", err)
	}
	if err := e.RegWrite(arch.PC, ra); err != nil {
		return CorruptionErr("program counter", err)
	}
	return nil
}
