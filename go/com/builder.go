package com

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/emu"
	"github.com/lunixbochs/wincorn/go/stubs"
)

// Module is the registry module holding interface method handlers, keyed "<Iface>.<Method>".
const Module = "com"

// Instance is one built object: a vtable and the interface pointer that refers to it.
type Instance struct {
	Type *Interface
	// Base is the vtable address.
	Base uint64
	// Object is the interface pointer handed to the guest; it holds Base.
	Object uint64
	// Bound is the stub address written to each slot.
	Bound []uint64
}

// Builder lays out vtables in guest memory and points each slot at a stub.
type Builder struct {
	Catalog  *Catalog
	Stubs    *stubs.Table
	Registry *api.Registry
	Emu      *emu.Emu

	byVtable map[uint64]*Instance
}

func NewBuilder(cat *Catalog, st *stubs.Table, reg *api.Registry, e *emu.Emu) *Builder {
	return &Builder{
		Catalog:  cat,
		Stubs:    st,
		Registry: reg,
		Emu:      e,
		byVtable: make(map[uint64]*Instance),
	}
}

// resolve finds the stub for a slot: the most specific registered handler, else the generic stub.
func (b *Builder) resolve(iface *Interface, slot Slot, generic uint64) (uint64, error) {
	for _, key := range b.Catalog.Candidates(iface, slot) {
		if _, ok := b.Registry.Lookup(Module, key); ok {
			return b.Stubs.Get(Module, key)
		}
	}
	return generic, nil
}

func (b *Builder) Build(name string) (*Instance, error) {
	iface, err := b.Catalog.Get(name)
	if err != nil {
		return nil, err
	}
	generic, err := b.Stubs.Generic()
	if err != nil {
		return nil, err
	}
	bsz := b.Emu.PtrSize()
	inst := &Instance{Type: iface, Bound: make([]uint64, len(iface.Slots))}
	table := make([]byte, len(iface.Slots)*bsz)
	for i, slot := range iface.Slots {
		addr, err := b.resolve(iface, slot, generic)
		if err != nil {
			return nil, errors.Wrapf(err, "%s slot %d", name, i)
		}
		inst.Bound[i] = addr
		b.Emu.PackAddr(table[i*bsz:], addr)
	}
	inst.Base, err = b.Emu.Alloc(uint64(len(table)), "emu.COM."+name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate %s vtable", name)
	}
	if err := b.Emu.MemWrite(inst.Base, table); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s vtable", name)
	}
	inst.Object, err = b.Emu.Alloc(uint64(bsz), "emu.COM."+name+".object")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate %s object", name)
	}
	if err := b.Emu.WritePtr(inst.Object, inst.Base); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s object", name)
	}
	b.byVtable[inst.Base] = inst
	return inst, nil
}

// Lookup finds the instance built with the given vtable.
func (b *Builder) Lookup(vtable uint64) (*Instance, bool) {
	inst, ok := b.byVtable[vtable]
	return inst, ok
}

// Describe lets the dispatcher name generic slot hits.
func (b *Builder) Describe(vtable uint64) (string, []string, bool) {
	inst, ok := b.byVtable[vtable]
	if !ok {
		return "", nil, false
	}
	return inst.Type.Name, inst.Type.SlotNames(), true
}

// Len counts built instances.
func (b *Builder) Len() int {
	return len(b.byVtable)
}
