package mock

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/cpu"
)

// GuestFunc stands in for guest code at one address. It must leave PC pointing
// at the next address to run, usually by calling Ret.
type GuestFunc func(c *Cpu) error

// Cpu implements cpu.Cpu without executing instructions. Code hooks fire for each
// visited address; if no hook moved PC, the GuestFunc registered there runs.
type Cpu struct {
	*cpu.Mem
	*cpu.Regs
	hooks *cpu.Hooks

	Arch     *models.Arch
	Funcs    map[uint64]GuestFunc
	MaxSteps int
	Visited  []uint64

	stopped atomic.Bool
	depth   int
	closed  bool
}

func New(arch *models.Arch) *Cpu {
	c := &Cpu{
		Mem:      cpu.NewMem(uint(arch.Bits), binary.LittleEndian),
		Regs:     cpu.NewRegs(uint(arch.Bits), arch.RegEnums()),
		Arch:     arch,
		Funcs:    make(map[uint64]GuestFunc),
		MaxSteps: 10000,
	}
	c.hooks = cpu.NewHooks(c)
	return c
}

func (c *Cpu) HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (cpu.Hook, error) {
	return c.hooks.HookAdd(htype, cb, begin, end, extra...)
}

func (c *Cpu) HookDel(hook cpu.Hook) error {
	return c.hooks.HookDel(hook)
}

func (c *Cpu) Start(begin, until uint64) error {
	if c.closed {
		return errors.New("cpu closed")
	}
	if c.depth == 0 {
		c.stopped.Store(false)
	}
	c.depth++
	defer func() { c.depth-- }()

	pc := begin
	if err := c.RegWrite(c.Arch.PC, pc); err != nil {
		return err
	}
	for steps := 0; pc != until && !c.stopped.Load(); steps++ {
		if steps >= c.MaxSteps {
			return errors.Errorf("step limit reached at %#x", pc)
		}
		c.Visited = append(c.Visited, pc)
		c.hooks.OnCode(pc, 1)
		if c.stopped.Load() {
			break
		}
		next, err := c.RegRead(c.Arch.PC)
		if err != nil {
			return err
		}
		if next == pc {
			fn, ok := c.Funcs[pc]
			if !ok {
				return &cpu.MemError{Addr: pc, Size: 1, Enum: cpu.MEM_FETCH_UNMAPPED}
			}
			if err := fn(c); err != nil {
				return errors.Wrapf(err, "guest function at %#x", pc)
			}
			if next, err = c.RegRead(c.Arch.PC); err != nil {
				return err
			}
		}
		pc = next
	}
	return nil
}

func (c *Cpu) Stop() error {
	c.stopped.Store(true)
	return nil
}

func (c *Cpu) Stopped() bool {
	return c.stopped.Load()
}

func (c *Cpu) Close() error {
	c.closed = true
	return nil
}

func (c *Cpu) ptrSize() uint64 {
	return uint64(c.Arch.Bits / 8)
}

// Arg reads argument i of the current guest function under the stdcall or x64 layout.
func (c *Cpu) Arg(i int) (uint64, error) {
	spec, err := c.Arch.Spec(c.Arch.DefaultConv)
	if err != nil {
		return 0, err
	}
	if i < len(spec.Regs) {
		return c.RegRead(spec.Regs[i])
	}
	sp, err := c.RegRead(c.Arch.SP)
	if err != nil {
		return 0, err
	}
	bsz := c.ptrSize()
	addr := sp + bsz + spec.Shadow + uint64(i-len(spec.Regs))*bsz
	return c.ReadUint(addr, int(bsz))
}

// Ret returns val from the current guest function, popping the return address
// and then nstack stack slots.
func (c *Cpu) Ret(val uint64, nstack int) error {
	sp, err := c.RegRead(c.Arch.SP)
	if err != nil {
		return err
	}
	bsz := c.ptrSize()
	ra, err := c.ReadUint(sp, int(bsz))
	if err != nil {
		return err
	}
	if err := c.RegWrite(c.Arch.SP, sp+bsz+uint64(nstack)*bsz); err != nil {
		return err
	}
	if err := c.RegWrite(c.Arch.Ret, val); err != nil {
		return err
	}
	return c.RegWrite(c.Arch.PC, ra)
}
