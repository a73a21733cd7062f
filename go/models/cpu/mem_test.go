package cpu

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestMemSpanningWrite(t *testing.T) {
	m := NewMem(32, binary.LittleEndian)
	if err := m.MemMapProt(0x1000, 0x1000, PROT_ALL); err != nil {
		t.Fatal(err)
	}
	if err := m.MemMapProt(0x2000, 0x1000, PROT_READ); err != nil {
		t.Fatal(err)
	}
	data := []byte("across the boundary")
	if err := m.MemWrite(0x1ff8, data); err != nil {
		t.Fatal(err)
	}
	out, err := m.MemRead(0x1ff8, uint64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("read %q, wanted %q", out, data)
	}
}

func TestMemUnmappedRead(t *testing.T) {
	m := NewMem(32, binary.LittleEndian)
	if err := m.MemMapProt(0x1000, 0x1000, PROT_ALL); err != nil {
		t.Fatal(err)
	}
	_, err := m.MemRead(0x1ffc, 8)
	merr, ok := err.(*MemError)
	if !ok {
		t.Fatalf("expected *MemError, got %v", err)
	}
	if merr.Enum != MEM_READ_UNMAPPED || merr.Addr != 0x1ffc {
		t.Fatalf("bad error: %v", merr)
	}
	if err := m.MemWrite(0, []byte{1}); err == nil {
		t.Fatal("write to null page should fail")
	}
}

func TestMemOverlap(t *testing.T) {
	m := NewMem(32, binary.LittleEndian)
	if err := m.MemMapProt(0x1000, 0x2000, PROT_ALL); err != nil {
		t.Fatal(err)
	}
	if err := m.MemMapProt(0x2000, 0x1000, PROT_ALL); err == nil {
		t.Fatal("overlapping map should fail")
	}
	if err := m.MemMapProt(0xfffff000, 0x2000, PROT_ALL); err == nil {
		t.Fatal("map past the top of a 32-bit space should fail")
	}
}

func TestMemUnmap(t *testing.T) {
	m := NewMem(64, binary.LittleEndian)
	m.MemMapProt(0x1000, 0x1000, PROT_ALL)
	m.MemMapProt(0x3000, 0x1000, PROT_ALL)
	if err := m.MemUnmap(0x1800, 0x100); err == nil {
		t.Fatal("partial unmap should fail")
	}
	if err := m.MemUnmap(0x1000, 0x1000); err != nil {
		t.Fatal(err)
	}
	if len(m.Pages()) != 1 || m.Pages()[0].Addr != 0x3000 {
		t.Fatalf("bad pages after unmap:\n%s", m.Pages())
	}
}

func TestMemUint(t *testing.T) {
	m := NewMem(32, binary.LittleEndian)
	m.MemMapProt(0x1000, 0x1000, PROT_ALL)
	if err := m.WriteUint(0x1010, 4, 0x11223344); err != nil {
		t.Fatal(err)
	}
	b, _ := m.MemRead(0x1010, 4)
	if !bytes.Equal(b, []byte{0x44, 0x33, 0x22, 0x11}) {
		t.Fatalf("bad byte order: % x", b)
	}
	v, err := m.ReadUint(0x1010, 2)
	if err != nil || v != 0x3344 {
		t.Fatalf("ReadUint = %#x, %v", v, err)
	}
	if err := m.WriteUint(0x1010, 3, 0); err == nil {
		t.Fatal("3-byte uint should be rejected")
	}
}
