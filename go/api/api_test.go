package api

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/arch/x86_64"
	"github.com/lunixbochs/wincorn/go/emu"
	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/mock"
)

const retAddr = 0xdead0000

func newEmu(t *testing.T, arch *models.Arch) *emu.Emu {
	e := emu.New(mock.New(arch), arch, 0x10000)
	if err := e.MapStack(0x7f000000, 0x10000); err != nil {
		t.Fatal(err)
	}
	return e
}

// frame leaves e the way a guest call into a stub would
func frame(t *testing.T, e *emu.Emu, conv CallConv, args ...uint64) uint64 {
	sp, _ := e.SP()
	if err := e.PushCall(conv, retAddr, args...); err != nil {
		t.Fatal(err)
	}
	return sp
}

func TestReadArgsStdcall(t *testing.T) {
	e := newEmu(t, x86.Arch)
	frame(t, e, Stdcall, 1, 2, 3)
	sp, _ := e.SP()
	args, err := ReadArgs(e, Stdcall, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 3 || args[0] != 1 || args[1] != 2 || args[2] != 3 {
		t.Fatalf("bad args: %v", args)
	}
	if sp2, _ := e.SP(); sp2 != sp {
		t.Fatal("ReadArgs moved the stack pointer")
	}
	// a second read sees the same values
	again, _ := ReadArgs(e, Stdcall, 3)
	for i := range args {
		if again[i] != args[i] {
			t.Fatalf("unstable re-read: %v vs %v", args, again)
		}
	}
}

func TestReadArgsRegisters(t *testing.T) {
	e := newEmu(t, x86.Arch)
	frame(t, e, Fastcall, 10, 20, 30)
	args, err := ReadArgs(e, Fastcall, 3)
	if err != nil {
		t.Fatal(err)
	}
	if ecx, _ := e.RegRead(x86.ECX); ecx != 10 || args[0] != 10 || args[1] != 20 || args[2] != 30 {
		t.Fatalf("fastcall args: %v", args)
	}

	e = newEmu(t, x86.Arch)
	frame(t, e, Thiscall, 0x1000, 5)
	args, _ = ReadArgs(e, Thiscall, 2)
	if args[0] != 0x1000 || args[1] != 5 {
		t.Fatalf("thiscall args: %v", args)
	}
}

func TestReadArgsWin64(t *testing.T) {
	e := newEmu(t, x86_64.Arch)
	frame(t, e, Win64, 1, 2, 3, 4, 5, 6)
	args, err := ReadArgs(e, Stdcall, 6)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range args {
		if v != uint64(i+1) {
			t.Fatalf("x64 args: %v", args)
		}
	}
}

func TestReadArgsFault(t *testing.T) {
	e := newEmu(t, x86.Arch)
	e.RegWrite(x86.ESP, 0x7f00fff8)
	_, err := ReadArgs(e, Stdcall, 4)
	if !IsMarshal(err) {
		t.Fatalf("expected marshal error, got %v", err)
	}
	if IsCorruption(err) {
		t.Fatal("argument fault is not corruption")
	}
	if _, err := ReadArgs(e, Stdcall, MaxArgs+1); errors.Cause(err) != ErrBadArity {
		t.Fatalf("expected ErrBadArity, got %v", err)
	}
}

func TestReturn(t *testing.T) {
	for _, tc := range []struct {
		arch *models.Arch
		conv CallConv
		n    int
	}{
		{x86.Arch, Stdcall, 3},
		{x86.Arch, Cdecl, 3},
		{x86.Arch, Fastcall, 3},
		{x86_64.Arch, Win64, 6},
	} {
		e := newEmu(t, tc.arch)
		args := make([]uint64, tc.n)
		sp0 := frame(t, e, tc.conv, args...)
		spec, _ := tc.arch.Spec(tc.conv)
		if err := Return(e, tc.conv, tc.n, 42); err != nil {
			t.Fatal(err)
		}
		pc, _ := e.PC()
		ret, _ := e.RegRead(tc.arch.Ret)
		if pc != retAddr || ret != 42 {
			t.Fatalf("%s/%s: pc=%#x ret=%d", tc.arch.Name, tc.conv, pc, ret)
		}
		sp, _ := e.SP()
		want := sp0
		if !spec.CalleeCleanup {
			// the caller still owns its arguments and shadow space
			want -= uint64(spec.StackArgs(tc.n)*tc.arch.PtrSize()) + spec.Shadow
		}
		if sp != want {
			t.Fatalf("%s/%s: sp=%#x want %#x", tc.arch.Name, tc.conv, sp, want)
		}
	}
}

func TestReturnCorruption(t *testing.T) {
	e := newEmu(t, x86.Arch)
	e.RegWrite(x86.ESP, 0x100)
	err := Return(e, Stdcall, 1, 0)
	if !IsCorruption(err) {
		t.Fatalf("expected corruption, got %v", err)
	}
}

func TestErrorWalk(t *testing.T) {
	err := errors.Wrap(MarshalErr("string", 0x10, errors.New("boom")), "handler")
	if !IsMarshal(err) || IsCorruption(err) {
		t.Fatal("wrapped marshal error not recognized")
	}
	err = errors.Wrap(CorruptionErr("stack pointer", errors.New("boom")), "dispatch")
	if !IsCorruption(err) {
		t.Fatal("wrapped corruption not recognized")
	}
	if IsMarshal(nil) || IsCorruption(errors.New("plain")) {
		t.Fatal("false positive")
	}
}
