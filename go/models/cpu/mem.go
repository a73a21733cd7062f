package cpu

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// Mem is a sparse guest address space implementing the memory half of Cpu.
// Host-side reads and writes ignore protections, the same as Unicorn's.
type Mem struct {
	mask  uint64
	order binary.ByteOrder
	pages Pages
}

func NewMem(bits uint, order binary.ByteOrder) *Mem {
	return &Mem{
		mask:  ^uint64(0) >> (64 - bits),
		order: order,
	}
}

func (m *Mem) Pages() Pages {
	return m.pages
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if size == 0 {
		return errors.New("zero-size mapping")
	}
	if (addr+size-1)&m.mask != addr+size-1 {
		return errors.Errorf("region 0x%x-0x%x outside memory range", addr, addr+size)
	}
	for _, p := range m.pages {
		if p.Overlaps(addr, size) {
			return errors.Errorf("region 0x%x-0x%x overlaps %s", addr, addr+size, p)
		}
	}
	m.pages = append(m.pages, &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size)})
	sort.Sort(m.pages)
	return nil
}

// covered returns the pages spanning addr:addr+size, or nil if any byte is unmapped.
func (m *Mem) covered(addr, size uint64) Pages {
	i := m.pages.find(addr)
	if i < 0 {
		return nil
	}
	end := addr + size
	j := i
	for ; j < len(m.pages); j++ {
		if m.pages[j].End() >= end {
			return m.pages[i : j+1]
		}
		if j+1 < len(m.pages) && m.pages[j+1].Addr != m.pages[j].End() {
			break
		}
	}
	return nil
}

func (m *Mem) MemProt(addr, size uint64, prot int) error {
	pages := m.covered(addr, size)
	if pages == nil {
		return errors.Errorf("range 0x%x-0x%x not mapped", addr, addr+size)
	}
	for _, p := range pages {
		p.Prot = prot
	}
	return nil
}

// MemUnmap only removes whole mappings.
func (m *Mem) MemUnmap(addr, size uint64) error {
	tmp := make(Pages, 0, len(m.pages))
	found := false
	for _, p := range m.pages {
		if p.Addr >= addr && p.End() <= addr+size {
			found = true
			continue
		}
		if p.Overlaps(addr, size) {
			return errors.Errorf("unmap 0x%x-0x%x splits %s", addr, addr+size, p)
		}
		tmp = append(tmp, p)
	}
	if !found {
		return errors.Errorf("range 0x%x-0x%x not mapped", addr, addr+size)
	}
	m.pages = tmp
	return nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	pages := m.covered(addr, uint64(len(p)))
	if pages == nil {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_UNMAPPED}
	}
	for _, pg := range pages {
		n := copy(p, pg.Data[addr-pg.Addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	pages := m.covered(addr, uint64(len(p)))
	if pages == nil {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	}
	for _, pg := range pages {
		n := copy(pg.Data[addr-pg.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (m *Mem) ReadUint(addr uint64, size int) (uint64, error) {
	p, err := m.MemRead(addr, uint64(size))
	if err != nil {
		return 0, err
	}
	return UnpackUint(m.order, size, p)
}

func (m *Mem) WriteUint(addr uint64, size int, val uint64) error {
	buf, err := PackUint(m.order, size, val)
	if err != nil {
		return err
	}
	return m.MemWrite(addr, buf)
}
