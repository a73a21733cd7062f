package api

import (
	"strings"
	"testing"

	"github.com/lunixbochs/wincorn/go/arch/x86"
)

func TestTrace(t *testing.T) {
	e := newEmu(t, x86.Arch)
	name := allocStr(t, e, "C:\\temp\\out.txt", 2)
	d := &Descriptor{
		Name:      "CreateFileW",
		Conv:      Stdcall,
		Arity:     Fixed(5),
		CharWidth: 2,
		Params:    Params("lpFileName:s", "dwAccess:x", "hTemplate:h", "bInherit:b", "nCount:d"),
		Impl:      ret(0),
	}
	c := &Call{
		Emu:       e,
		Module:    "kernel32",
		Symbol:    "CreateFileW",
		Desc:      d,
		Args:      []uint64{name, 0x40000000, 0x80, 1, 0xffffffff},
		CharWidth: 2,
	}
	want := `kernel32!CreateFileW(lpFileName=L"C:\\temp\\out.txt", dwAccess=0x40000000, hTemplate=h:0x80, bInherit=TRUE, nCount=-1)`
	if got := Trace(c, 0); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	want = `kernel32!CreateFileW(lpFileName=L"C:\\"..., dwAccess=0x40000000, hTemplate=h:0x80, bInherit=TRUE, nCount=-1) = 0x1`
	if got := TraceRet(c, 3, 1); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
	// strings are cut by character, never inside one
	c.Args[0] = allocStr(t, e, "日本語", 2)
	if got := Trace(c, 2); !strings.HasPrefix(got, `kernel32!CreateFileW(lpFileName=L"日本"...,`) {
		t.Fatalf("got %s", got)
	}
}

func TestTraceUnknown(t *testing.T) {
	e := newEmu(t, x86.Arch)
	c := &Call{Emu: e, Module: "foo", Symbol: "Bar", Args: []uint64{0, 0x1234}}
	if got := Trace(c, 30); got != "foo!Bar(0x0, 0x1234)" {
		t.Fatalf("got %s", got)
	}
	// unreadable strings fall back to the raw pointer, NULL prints as NULL
	c.Desc = &Descriptor{Name: "Bar", Params: Params("a:a", "b:w")}
	if got := Trace(c, 30); got != "foo!Bar(a=NULL, b=0x1234)" {
		t.Fatalf("got %s", got)
	}
}
