package stubs

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/emu"
	"github.com/lunixbochs/wincorn/go/models/cpu"
)

// StubSize is the spacing between stub addresses. Each stub is a single ret
// instruction padded with more of the same; the code hook fires before it runs.
const StubSize = 8

const stubsPerPage = emu.PAGE_SIZE / StubSize

type Kind int

const (
	// Concrete stubs belong to one module!symbol.
	Concrete Kind = iota
	// Generic is shared by every vtable slot without a handler.
	Generic
	// Return is where guest callbacks return to.
	Return
)

func (k Kind) String() string {
	switch k {
	case Concrete:
		return "concrete"
	case Generic:
		return "generic"
	case Return:
		return "return"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Binding struct {
	Addr   uint64
	Module string
	Symbol string
	Kind   Kind
}

func (b *Binding) Name() string {
	return b.Module + "!" + b.Symbol
}

func (b *Binding) String() string {
	return fmt.Sprintf("0x%x %s (%s)", b.Addr, b.Name(), b.Kind)
}

// Table hands out stub addresses and reports when guest code reaches one.
// An address is never reused or rebound for the life of the table.
type Table struct {
	emu    *emu.Emu
	onCall func(b *Binding)

	byKey  map[string]*Binding
	byAddr map[uint64]*Binding
	pages  []uint64
	used   int

	generic *Binding
	ret     *Binding
}

func New(e *emu.Emu, onCall func(b *Binding)) *Table {
	return &Table{
		emu:    e,
		onCall: onCall,
		byKey:  make(map[string]*Binding),
		byAddr: make(map[uint64]*Binding),
	}
}

func key(module, symbol string) string {
	return api.NormalizeModule(module) + "!" + symbol
}

func (t *Table) mapPage() error {
	addr, err := t.emu.Map(emu.PAGE_SIZE, cpu.PROT_READ|cpu.PROT_EXEC, "api.stubs")
	if err != nil {
		return errors.Wrap(err, "failed to map stub page")
	}
	if err := t.emu.MemWrite(addr, bytes.Repeat([]byte{0xc3}, emu.PAGE_SIZE)); err != nil {
		return errors.Wrap(err, "failed to fill stub page")
	}
	if _, err := t.emu.Intercept(addr, addr+emu.PAGE_SIZE-1, t.hit); err != nil {
		return errors.Wrap(err, "failed to hook stub page")
	}
	t.pages = append(t.pages, addr)
	t.used = 0
	return nil
}

func (t *Table) alloc(module, symbol string, kind Kind) (*Binding, error) {
	if len(t.pages) == 0 || t.used == stubsPerPage {
		if err := t.mapPage(); err != nil {
			return nil, err
		}
	}
	addr := t.pages[len(t.pages)-1] + uint64(t.used*StubSize)
	t.used++
	b := &Binding{Addr: addr, Module: api.NormalizeModule(module), Symbol: symbol, Kind: kind}
	t.byAddr[addr] = b
	return b, nil
}

func (t *Table) hit(addr uint64) {
	if b, ok := t.byAddr[addr]; ok && t.onCall != nil {
		t.onCall(b)
	}
}

// Get returns the stub for module!symbol, creating it on first use.
func (t *Table) Get(module, symbol string) (uint64, error) {
	k := key(module, symbol)
	if b, ok := t.byKey[k]; ok {
		return b.Addr, nil
	}
	b, err := t.alloc(module, symbol, Concrete)
	if err != nil {
		return 0, err
	}
	t.byKey[k] = b
	return b.Addr, nil
}

// Generic returns the single stub shared by unimplemented interface methods.
func (t *Table) Generic() (uint64, error) {
	if t.generic == nil {
		b, err := t.alloc("com", "<generic>", Generic)
		if err != nil {
			return 0, err
		}
		t.generic = b
	}
	return t.generic.Addr, nil
}

// ReturnStub is the return address pushed for guest callbacks.
func (t *Table) ReturnStub() (uint64, error) {
	if t.ret == nil {
		b, err := t.alloc("api", "<return>", Return)
		if err != nil {
			return 0, err
		}
		t.ret = b
	}
	return t.ret.Addr, nil
}

func (t *Table) Resolve(addr uint64) (*Binding, bool) {
	b, ok := t.byAddr[addr]
	return b, ok
}

// Lookup finds an existing concrete stub without creating one.
func (t *Table) Lookup(module, symbol string) (*Binding, bool) {
	b, ok := t.byKey[key(module, symbol)]
	return b, ok
}

// Len counts every stub, including the generic and return stubs.
func (t *Table) Len() int {
	return len(t.byAddr)
}

func (t *Table) Bindings() []*Binding {
	ret := make([]*Binding, 0, len(t.byAddr))
	for _, b := range t.byAddr {
		ret = append(ret, b)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Addr < ret[j].Addr })
	return ret
}
