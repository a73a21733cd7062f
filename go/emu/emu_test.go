package emu

import (
	"testing"

	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/arch/x86_64"
	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/cpu"
	"github.com/lunixbochs/wincorn/go/models/mock"
)

func newEmu(t *testing.T, arch *models.Arch) (*Emu, *mock.Cpu) {
	c := mock.New(arch)
	e := New(c, arch, 0x10000)
	if err := e.MapStack(0x7f000000, 0x10000); err != nil {
		t.Fatal(err)
	}
	return e, c
}

func TestAlign(t *testing.T) {
	addr, size := align(0x1001, 0x10)
	if addr != 0x1000 || size != 0x1000 {
		t.Fatalf("align = %#x, %#x", addr, size)
	}
	addr, size = align(0x1ff0, 0x20)
	if addr != 0x1000 || size != 0x2000 {
		t.Fatalf("align across page = %#x, %#x", addr, size)
	}
}

func TestMapAllocFree(t *testing.T) {
	e, _ := newEmu(t, x86.Arch)
	a, err := e.Map(0x10, cpu.PROT_READ|cpu.PROT_EXEC, "api.stubs")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Alloc(0x2001, "heap")
	if err != nil {
		t.Fatal(err)
	}
	if a == b || b < a+PAGE_SIZE {
		t.Fatalf("allocations overlap: %#x %#x", a, b)
	}
	if e.Tag(a) != "api.stubs" || e.Tag(b+0x2000) != "heap" {
		t.Fatalf("bad tags: %q %q", e.Tag(a), e.Tag(b+0x2000))
	}
	if err := e.Free(a); err == nil {
		t.Fatal("Free of a non-Alloc mapping should fail")
	}
	if err := e.Free(b); err != nil {
		t.Fatal(err)
	}
	if _, err := e.MemRead(b, 1); err == nil {
		t.Fatal("freed memory is still mapped")
	}
	// freed space is reused
	c, _ := e.Alloc(0x10, "heap")
	if c != b {
		t.Fatalf("expected reuse of %#x, got %#x", b, c)
	}
}

func TestPtrAndStack(t *testing.T) {
	for _, arch := range []*models.Arch{x86.Arch, x86_64.Arch} {
		e, _ := newEmu(t, arch)
		sp0, _ := e.SP()
		if _, err := e.Push(0x1234); err != nil {
			t.Fatal(err)
		}
		sp1, _ := e.SP()
		if sp0-sp1 != uint64(arch.PtrSize()) {
			t.Fatalf("%s: push moved SP by %d", arch.Name, sp0-sp1)
		}
		v, err := e.Pop()
		if err != nil || v != 0x1234 {
			t.Fatalf("%s: pop = %#x, %v", arch.Name, v, err)
		}
		addr, _ := e.Alloc(8, "test")
		e.WritePtr(addr, 0xdeadbeef)
		if v, _ := e.ReadPtr(addr); v != 0xdeadbeef {
			t.Fatalf("%s: ReadPtr = %#x", arch.Name, v)
		}
	}
}

type sysTime struct {
	Year, Month uint16
}

func TestStrucAt(t *testing.T) {
	e, _ := newEmu(t, x86.Arch)
	addr, _ := e.Alloc(16, "struc")
	if err := e.StrucAt(addr).Pack(&sysTime{2024, 7}); err != nil {
		t.Fatal(err)
	}
	b, _ := e.MemRead(addr, 4)
	if b[0] != 0xe8 || b[1] != 0x07 || b[2] != 7 {
		t.Fatalf("bad packed bytes: % x", b)
	}
	var out sysTime
	if err := e.StrucAt(addr).Unpack(&out); err != nil {
		t.Fatal(err)
	}
	if out.Year != 2024 || out.Month != 7 {
		t.Fatalf("unpacked %+v", out)
	}
}

func TestInvokeStdcall(t *testing.T) {
	e, c := newEmu(t, x86.Arch)
	var got []uint64
	c.Funcs[0x5000] = func(c *mock.Cpu) error {
		a, _ := c.Arg(0)
		b, _ := c.Arg(1)
		got = []uint64{a, b}
		return c.Ret(a+b, 2)
	}
	sp0, _ := e.SP()
	ret, err := e.Invoke(0x5000, 0xdead0000, models.Stdcall, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if ret != 7 || len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("ret=%d args=%v", ret, got)
	}
	if sp, _ := e.SP(); sp != sp0 {
		t.Fatalf("stack not balanced: %#x != %#x", sp, sp0)
	}
}

func TestInvokeWin64(t *testing.T) {
	e, c := newEmu(t, x86_64.Arch)
	var fifth uint64
	c.Funcs[0x5000] = func(c *mock.Cpu) error {
		fifth, _ = c.Arg(4)
		first, _ := c.Arg(0)
		return c.Ret(first, 0)
	}
	sp0, _ := e.SP()
	ret, err := e.Invoke(0x5000, 0xdead0000, models.Win64, 1, 2, 3, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	if ret != 1 || fifth != 5 {
		t.Fatalf("ret=%d fifth=%d", ret, fifth)
	}
	if sp, _ := e.SP(); sp != sp0 {
		t.Fatalf("stack not balanced: %#x != %#x", sp, sp0)
	}
}

func TestIntercept(t *testing.T) {
	e, _ := newEmu(t, x86.Arch)
	var hit uint64
	if _, err := e.Intercept(0x9000, 0x9fff, func(addr uint64) {
		hit = addr
		e.RegWrite(x86.EIP, 0xdead0000)
	}); err != nil {
		t.Fatal(err)
	}
	if err := e.Start(0x9010, 0xdead0000); err != nil {
		t.Fatal(err)
	}
	if hit != 0x9010 {
		t.Fatalf("intercept saw %#x", hit)
	}
}
