package emu

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/cpu"
)

// Emu is the guest address space seen by the interception layer: tagged mappings,
// a page-granular allocator, pointer-width memory access and stack helpers.
type Emu struct {
	cpu.Cpu
	arch  *models.Arch
	bsz   int
	order binary.ByteOrder

	base   uint64
	memory []*models.Mmap
	allocs map[uint64]*models.Mmap
}

// New wraps c. base is where Map starts searching for free space.
func New(c cpu.Cpu, arch *models.Arch, base uint64) *Emu {
	if base == 0 {
		base = 0x10000
	}
	return &Emu{
		Cpu:    c,
		arch:   arch,
		bsz:    arch.PtrSize(),
		order:  binary.LittleEndian,
		base:   base,
		allocs: make(map[uint64]*models.Mmap),
	}
}

func (e *Emu) Arch() *models.Arch {
	return e.arch
}

func (e *Emu) PtrSize() int {
	return e.bsz
}

func (e *Emu) ByteOrder() binary.ByteOrder {
	return e.order
}

func (e *Emu) mapping(addr, size uint64) *models.Mmap {
	for _, m := range e.memory {
		if m.Overlaps(addr, size) {
			return m
		}
	}
	return nil
}

// Mmap maps a page-aligned region at exactly addr.
func (e *Emu) Mmap(addr, size uint64, prot int, tag string) (*models.Mmap, error) {
	addr, size = align(addr, size)
	if m := e.mapping(addr, size); m != nil {
		return nil, errors.Errorf("mmap 0x%x-0x%x overlaps %s", addr, addr+size, m)
	}
	if err := e.MemMapProt(addr, size, prot); err != nil {
		return nil, errors.Wrap(err, "MemMapProt() failed")
	}
	mmap := &models.Mmap{Addr: addr, Size: size, Prot: prot, Tag: tag}
	e.memory = append(e.memory, mmap)
	return mmap, nil
}

// Map finds a free page-aligned region at or above the search base.
func (e *Emu) Map(size uint64, prot int, tag string) (uint64, error) {
	_, size = align(0, size)
	limit := uint64(1) << uint(e.arch.Bits-1)
	for addr := e.base; addr+size <= limit; {
		m := e.mapping(addr, size)
		if m == nil {
			mmap, err := e.Mmap(addr, size, prot, tag)
			if err != nil {
				return 0, err
			}
			return mmap.Addr, nil
		}
		addr = m.Addr + m.Size
	}
	return 0, errors.Errorf("no room for 0x%x bytes", size)
}

// Alloc maps a read/write region that can later be released with Free.
func (e *Emu) Alloc(size uint64, tag string) (uint64, error) {
	if size == 0 {
		size = 1
	}
	addr, err := e.Map(size, cpu.PROT_READ|cpu.PROT_WRITE, tag)
	if err != nil {
		return 0, err
	}
	e.allocs[addr] = e.mapping(addr, 1)
	return addr, nil
}

func (e *Emu) Free(addr uint64) error {
	mmap, ok := e.allocs[addr]
	if !ok {
		return errors.Errorf("free of unallocated address %#x", addr)
	}
	if err := e.MemUnmap(mmap.Addr, mmap.Size); err != nil {
		return errors.Wrap(err, "MemUnmap() failed")
	}
	delete(e.allocs, addr)
	tmp := make([]*models.Mmap, 0, len(e.memory))
	for _, m := range e.memory {
		if m != mmap {
			tmp = append(tmp, m)
		}
	}
	e.memory = tmp
	return nil
}

// Mappings returns the current regions sorted by address.
func (e *Emu) Mappings() []*models.Mmap {
	ret := append([]*models.Mmap(nil), e.memory...)
	sort.Sort(models.MmapAddrSort(ret))
	return ret
}

func (e *Emu) Tag(addr uint64) string {
	if m := e.mapping(addr, 1); m != nil {
		return m.Tag
	}
	return ""
}

func (e *Emu) PackAddr(buf []byte, n uint64) ([]byte, error) {
	if len(buf) < e.bsz {
		return nil, errors.New("buffer too small")
	}
	if e.bsz == 8 {
		e.order.PutUint64(buf, n)
	} else {
		e.order.PutUint32(buf, uint32(n))
	}
	return buf[:e.bsz], nil
}

func (e *Emu) UnpackAddr(buf []byte) uint64 {
	if e.bsz == 8 {
		return e.order.Uint64(buf)
	}
	return uint64(e.order.Uint32(buf))
}

func (e *Emu) ReadPtr(addr uint64) (uint64, error) {
	var buf [8]byte
	if err := e.MemReadInto(buf[:e.bsz], addr); err != nil {
		return 0, err
	}
	return e.UnpackAddr(buf[:e.bsz]), nil
}

func (e *Emu) WritePtr(addr, val uint64) error {
	var tmp [8]byte
	buf, _ := e.PackAddr(tmp[:], val)
	return e.MemWrite(addr, buf)
}

func (e *Emu) ReadUint32(addr uint64) (uint32, error) {
	var buf [4]byte
	if err := e.MemReadInto(buf[:], addr); err != nil {
		return 0, err
	}
	return e.order.Uint32(buf[:]), nil
}

func (e *Emu) WriteUint32(addr uint64, val uint32) error {
	var buf [4]byte
	e.order.PutUint32(buf[:], val)
	return e.MemWrite(addr, buf[:])
}

func (e *Emu) StrucAt(addr uint64) *models.StrucStream {
	return &models.StrucStream{
		Stream: &models.MemIO{Cpu: e.Cpu, Addr: addr},
		Order:  e.order,
	}
}

func (e *Emu) PC() (uint64, error) { return e.RegRead(e.arch.PC) }
func (e *Emu) SP() (uint64, error) { return e.RegRead(e.arch.SP) }

func (e *Emu) Push(n uint64) (uint64, error) {
	sp, err := e.SP()
	if err != nil {
		return 0, err
	}
	sp -= uint64(e.bsz)
	if err := e.WritePtr(sp, n); err != nil {
		return 0, err
	}
	return sp, e.RegWrite(e.arch.SP, sp)
}

func (e *Emu) Pop() (uint64, error) {
	sp, err := e.SP()
	if err != nil {
		return 0, err
	}
	n, err := e.ReadPtr(sp)
	if err != nil {
		return 0, err
	}
	return n, e.RegWrite(e.arch.SP, sp+uint64(e.bsz))
}

// Intercept runs onCall before any instruction in begin:end executes.
func (e *Emu) Intercept(begin, end uint64, onCall func(addr uint64)) (cpu.Hook, error) {
	return e.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
		onCall(addr)
	}, begin, end)
}

// MapStack maps the guest stack and points SP near its top.
func (e *Emu) MapStack(base, size uint64) error {
	if _, err := e.Mmap(base, size, cpu.PROT_READ|cpu.PROT_WRITE, "stack"); err != nil {
		return err
	}
	return e.RegWrite(e.arch.SP, base+size-0x100)
}
