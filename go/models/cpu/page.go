package cpu

import (
	"fmt"
	"sort"
	"strings"
)

// Page is one contiguous mapping owned by Mem.
type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte
}

func (p *Page) End() uint64 {
	return p.Addr + p.Size
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.End()
}

func (p *Page) Overlaps(addr, size uint64) bool {
	return addr < p.End() && addr+size > p.Addr
}

func (p *Page) String() string {
	prot := []byte("---")
	for i, c := range []byte("rwx") {
		if p.Prot&(1<<uint(i)) != 0 {
			prot[i] = c
		}
	}
	return fmt.Sprintf("0x%x-0x%x %s", p.Addr, p.End(), prot)
}

// Pages is kept sorted by address.
type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// index of the page containing addr, or -1
func (p Pages) find(addr uint64) int {
	i := sort.Search(len(p), func(i int) bool { return p[i].End() > addr })
	if i < len(p) && p[i].Contains(addr) {
		return i
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	if i := p.find(addr); i >= 0 {
		return p[i]
	}
	return nil
}
