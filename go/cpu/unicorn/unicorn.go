package unicorn

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/cpu"
)

var x86Regs = map[int]int{
	x86.EAX: uc.X86_REG_EAX, x86.ECX: uc.X86_REG_ECX, x86.EDX: uc.X86_REG_EDX, x86.EBX: uc.X86_REG_EBX,
	x86.ESP: uc.X86_REG_ESP, x86.EBP: uc.X86_REG_EBP, x86.ESI: uc.X86_REG_ESI, x86.EDI: uc.X86_REG_EDI,
	x86.EIP: uc.X86_REG_EIP, x86.EFLAGS: uc.X86_REG_EFLAGS,

	x86.RAX: uc.X86_REG_RAX, x86.RCX: uc.X86_REG_RCX, x86.RDX: uc.X86_REG_RDX, x86.RBX: uc.X86_REG_RBX,
	x86.RSP: uc.X86_REG_RSP, x86.RBP: uc.X86_REG_RBP, x86.RSI: uc.X86_REG_RSI, x86.RDI: uc.X86_REG_RDI,
	x86.R8: uc.X86_REG_R8, x86.R9: uc.X86_REG_R9, x86.R10: uc.X86_REG_R10, x86.R11: uc.X86_REG_R11,
	x86.R12: uc.X86_REG_R12, x86.R13: uc.X86_REG_R13, x86.R14: uc.X86_REG_R14, x86.R15: uc.X86_REG_R15,
	x86.RIP: uc.X86_REG_RIP, x86.RFLAGS: uc.X86_REG_EFLAGS,
}

type Builder struct {
	Arch *models.Arch
}

func (b *Builder) New() (cpu.Cpu, error) {
	var mode int
	switch b.Arch.Bits {
	case 32:
		mode = uc.MODE_32
	case 64:
		mode = uc.MODE_64
	default:
		return nil, errors.Errorf("unsupported word size: %d", b.Arch.Bits)
	}
	u, err := uc.NewUnicorn(uc.ARCH_X86, mode)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &UnicornCpu{Unicorn: u, regs: x86Regs}, nil
}

// UnicornCpu adapts uc.Unicorn to cpu.Cpu, translating register enums.
type UnicornCpu struct {
	uc.Unicorn
	regs map[int]int
}

func (u *UnicornCpu) Backend() interface{} {
	return u.Unicorn
}

func (u *UnicornCpu) reg(enum int) (int, error) {
	if r, ok := u.regs[enum]; ok {
		return r, nil
	}
	return 0, errors.Errorf("invalid register: %d", enum)
}

func (u *UnicornCpu) RegRead(enum int) (uint64, error) {
	r, err := u.reg(enum)
	if err != nil {
		return 0, err
	}
	return u.Unicorn.RegRead(r)
}

func (u *UnicornCpu) RegWrite(enum int, val uint64) error {
	r, err := u.reg(enum)
	if err != nil {
		return err
	}
	return u.Unicorn.RegWrite(r, val)
}

func (u *UnicornCpu) MemProt(addr, size uint64, prot int) error {
	return u.Unicorn.MemProtect(addr, size, prot)
}

func (u *UnicornCpu) ContextSave(reuse interface{}) (interface{}, error) {
	var ctx uc.Context
	if reuse != nil {
		var ok bool
		if ctx, ok = reuse.(uc.Context); !ok {
			return nil, errors.New("incorrect context type")
		}
	}
	return u.Unicorn.ContextSave(ctx)
}

func (u *UnicornCpu) ContextRestore(ctx interface{}) error {
	c, ok := ctx.(uc.Context)
	if !ok {
		return errors.New("incorrect context type")
	}
	return u.Unicorn.ContextRestore(c)
}

func (u *UnicornCpu) HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (cpu.Hook, error) {
	switch htype {
	case cpu.HOOK_BLOCK, cpu.HOOK_CODE:
		cbc, ok := cb.(func(cpu.Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad code hook callback: %T", cb)
		}
		wrap := func(_ uc.Unicorn, addr uint64, size uint32) { cbc(u, addr, size) }
		return u.Unicorn.HookAdd(htype, wrap, begin, end, extra...)
	}
	return nil, errors.Errorf("unsupported hook type: %d", htype)
}

func (u *UnicornCpu) HookDel(hh cpu.Hook) error {
	h, ok := hh.(uc.Hook)
	if !ok {
		return errors.New("not a unicorn hook")
	}
	return u.Unicorn.HookDel(h)
}
