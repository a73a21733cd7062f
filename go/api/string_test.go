package api

import (
	"testing"

	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/emu"
)

func TestStringRoundTrip(t *testing.T) {
	e := newEmu(t, x86.Arch)
	addr, _ := e.Alloc(0x100, "strings")
	for _, width := range []int{1, 2} {
		n, err := WriteString(e, addr, "héllo", width)
		if err != nil {
			t.Fatal(err)
		}
		if width == 2 && n != 12 {
			t.Fatalf("wide write returned %d bytes", n)
		}
		s, err := ReadString(e, addr, width, 0)
		if err != nil {
			t.Fatal(err)
		}
		if s != "héllo" {
			t.Fatalf("width %d: read %q", width, s)
		}
	}
}

func TestStringNull(t *testing.T) {
	e := newEmu(t, x86.Arch)
	s, err := ReadString(e, 0, 2, 0)
	if s != "" || err != nil {
		t.Fatalf("NULL read = %q, %v", s, err)
	}
	n, err := WriteString(e, 0, "x", 1)
	if n != 0 || err != nil {
		t.Fatalf("NULL write = %d, %v", n, err)
	}
}

func TestStringPageEdge(t *testing.T) {
	e := newEmu(t, x86.Arch)
	addr, _ := e.Alloc(emu.PAGE_SIZE, "strings")
	// terminated right before the unmapped page that follows
	end := addr + emu.PAGE_SIZE
	e.MemWrite(end-4, []byte("abc\x00"))
	s, err := ReadString(e, end-4, 1, 0)
	if err != nil || s != "abc" {
		t.Fatalf("edge read = %q, %v", s, err)
	}
	// unterminated runs off the mapping
	e.MemWrite(end-4, []byte("abcd"))
	if _, err := ReadString(e, end-4, 1, 0); !IsMarshal(err) {
		t.Fatalf("expected marshal error, got %v", err)
	}
}

func TestStringSpansPages(t *testing.T) {
	e := newEmu(t, x86.Arch)
	addr, _ := e.Alloc(2*emu.PAGE_SIZE, "strings")
	start := addr + emu.PAGE_SIZE - 3
	WriteString(e, start, "wide string", 2)
	s, err := ReadString(e, start, 2, 0)
	if err != nil || s != "wide string" {
		t.Fatalf("odd-aligned wide read = %q, %v", s, err)
	}
}

func TestStringMax(t *testing.T) {
	e := newEmu(t, x86.Arch)
	addr, _ := e.Alloc(0x100, "strings")
	WriteString(e, addr, "truncate me", 1)
	s, _ := ReadString(e, addr, 1, 4)
	if s != "trun" {
		t.Fatalf("max not applied: %q", s)
	}
	if CharLen("héllo", 2) != 5 || CharLen("héllo", 1) != 5 || CharLen("😀", 2) != 2 {
		t.Fatal("bad CharLen")
	}
}

func TestAnsiCodePage(t *testing.T) {
	e := newEmu(t, x86.Arch)
	addr, _ := e.Alloc(0x100, "strings")
	if n, err := WriteString(e, addr, "é€", 1); err != nil || n != 3 {
		t.Fatalf("ansi write = %d, %v", n, err)
	}
	raw, _ := e.MemRead(addr, 3)
	if raw[0] != 0xe9 || raw[1] != 0x80 || raw[2] != 0 {
		t.Fatalf("ansi bytes % x", raw)
	}
	// outside the code page: one substitute byte per character
	buf, err := EncodeString("a😀", 1)
	if err != nil || len(buf) != 3 || buf[0] != 'a' || buf[1] != 0x1a {
		t.Fatalf("unsupported char = % x, %v", buf, err)
	}
}

func TestEncodeStringN(t *testing.T) {
	for _, tc := range []struct {
		s     string
		width int
		max   int
		n     int
	}{
		{"abcdef", 1, 3, 3},
		{"ab", 1, 3, 2},
		{"ééé", 1, 3, 3},
		{"abcdef", 2, 0, 0},
		{"😀😀😀", 2, 3, 2},
		{"😀😀😀", 2, 4, 4},
		{"a😀", 2, 2, 1},
	} {
		buf, n, err := EncodeStringN(tc.s, tc.width, tc.max)
		if err != nil {
			t.Fatal(err)
		}
		if n != tc.n || len(buf) != (n+1)*tc.width {
			t.Errorf("%q width %d max %d: n=%d len=%d", tc.s, tc.width, tc.max, n, len(buf))
		}
		for _, b := range buf[n*tc.width:] {
			if b != 0 {
				t.Errorf("%q: missing terminator", tc.s)
			}
		}
	}
}
