package stubs

import (
	"fmt"
	"testing"

	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/emu"
	"github.com/lunixbochs/wincorn/go/models/mock"
)

func newTable(t *testing.T) (*Table, *mock.Cpu, *[]*Binding) {
	c := mock.New(x86.Arch)
	e := emu.New(c, x86.Arch, 0x10000)
	if err := e.MapStack(0x7f000000, 0x10000); err != nil {
		t.Fatal(err)
	}
	var hits []*Binding
	return New(e, func(b *Binding) { hits = append(hits, b) }), c, &hits
}

func TestGetIdempotent(t *testing.T) {
	tab, _, _ := newTable(t)
	a, err := tab.Get("KERNEL32.DLL", "Sleep")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := tab.Get("kernel32", "Sleep")
	if a != b {
		t.Fatalf("same symbol got two stubs: %#x %#x", a, b)
	}
	c, _ := tab.Get("kernel32", "GetTickCount")
	d, _ := tab.Get("user32", "Sleep")
	if c == a || d == a || c == d {
		t.Fatal("stub addresses are not unique")
	}
	if tab.Len() != 3 {
		t.Fatalf("Len() = %d", tab.Len())
	}
	bind, ok := tab.Resolve(a)
	if !ok || bind.Module != "kernel32" || bind.Symbol != "Sleep" || bind.Kind != Concrete {
		t.Fatalf("bad binding: %v", bind)
	}
	if _, ok := tab.Lookup("Kernel32.dll", "Sleep"); !ok {
		t.Fatal("Lookup missed existing stub")
	}
	if _, ok := tab.Lookup("kernel32", "ExitProcess"); ok {
		t.Fatal("Lookup created a stub")
	}
}

func TestSpecialStubs(t *testing.T) {
	tab, _, _ := newTable(t)
	g1, _ := tab.Generic()
	g2, _ := tab.Generic()
	r1, _ := tab.ReturnStub()
	r2, _ := tab.ReturnStub()
	if g1 != g2 || r1 != r2 || g1 == r1 {
		t.Fatal("generic and return stubs must each be singletons")
	}
	if b, _ := tab.Resolve(g1); b.Kind != Generic {
		t.Fatalf("generic stub kind = %s", b.Kind)
	}
	if b, _ := tab.Resolve(r1); b.Kind != Return {
		t.Fatalf("return stub kind = %s", b.Kind)
	}
}

func TestPageRollover(t *testing.T) {
	tab, _, _ := newTable(t)
	seen := make(map[uint64]bool)
	n := stubsPerPage + 5
	for i := 0; i < n; i++ {
		addr, err := tab.Get("test", fmt.Sprintf("fn%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if seen[addr] {
			t.Fatalf("address %#x handed out twice", addr)
		}
		seen[addr] = true
	}
	if len(tab.pages) != 2 {
		t.Fatalf("expected 2 stub pages, got %d", len(tab.pages))
	}
	bindings := tab.Bindings()
	if len(bindings) != n {
		t.Fatalf("got %d bindings", len(bindings))
	}
	for i := 1; i < len(bindings); i++ {
		if bindings[i].Addr <= bindings[i-1].Addr {
			t.Fatal("Bindings() not sorted")
		}
	}
}

func TestStubHook(t *testing.T) {
	tab, c, hits := newTable(t)
	addr, _ := tab.Get("kernel32", "Sleep")
	other, _ := tab.Get("kernel32", "GetTickCount")
	// a hook that returns straight to the caller
	ret := uint64(0x1000)
	tab.onCall = func(b *Binding) {
		*hits = append(*hits, b)
		c.Ret(0, 0)
	}
	tab.emu.Push(ret)
	if err := c.Start(addr, ret); err != nil {
		t.Fatal(err)
	}
	if len(*hits) != 1 || (*hits)[0].Addr != addr {
		t.Fatalf("hits: %v", *hits)
	}
	tab.emu.Push(ret)
	c.Start(other, ret)
	if len(*hits) != 2 || (*hits)[1].Symbol != "GetTickCount" {
		t.Fatalf("hits: %v", *hits)
	}
	code, _ := tab.emu.MemRead(addr, StubSize)
	for _, b := range code {
		if b != 0xc3 {
			t.Fatalf("stub code = %x", code)
		}
	}
	if tab.emu.Tag(addr) != "api.stubs" {
		t.Fatalf("stub page tag = %q", tab.emu.Tag(addr))
	}
}
