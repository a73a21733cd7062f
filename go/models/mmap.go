package models

import (
	"fmt"

	"github.com/lunixbochs/wincorn/go/models/cpu"
)

// Mmap is a tagged region of guest memory: a stub page, a heap block, the stack.
// Tag only shows up in dumps.
type Mmap struct {
	Addr, Size uint64
	Prot       int
	Tag        string
}

func (m *Mmap) End() uint64 { return m.Addr + m.Size }

func (m *Mmap) Contains(addr uint64) bool {
	return addr >= m.Addr && addr < m.End()
}

func (m *Mmap) Overlaps(addr, size uint64) bool {
	return addr < m.End() && addr+size > m.Addr
}

func protString(prot int) string {
	b := []byte("---")
	if prot&cpu.PROT_READ != 0 {
		b[0] = 'r'
	}
	if prot&cpu.PROT_WRITE != 0 {
		b[1] = 'w'
	}
	if prot&cpu.PROT_EXEC != 0 {
		b[2] = 'x'
	}
	return string(b)
}

func (m *Mmap) String() string {
	s := fmt.Sprintf("%#x-%#x %s", m.Addr, m.End(), protString(m.Prot))
	if m.Tag != "" {
		s += " [" + m.Tag + "]"
	}
	return s
}

// MmapAddrSort orders mappings by start address.
type MmapAddrSort []*Mmap

func (m MmapAddrSort) Len() int           { return len(m) }
func (m MmapAddrSort) Less(i, j int) bool { return m[i].Addr < m[j].Addr }
func (m MmapAddrSort) Swap(i, j int)      { m[i], m[j] = m[j], m[i] }
