package com

import (
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"
)

var (
	ErrUnknownInterface = errors.New("unknown interface")
	ErrUnsupportedBase  = errors.New("unsupported base interface")
)

// Item is one entry of an interface definition: a method, or an embedded base
// whose slots are spliced in at that point.
type Item struct {
	name  string
	embed bool
}

func Method(name string) Item {
	return Item{name: name}
}

func Embed(base string) Item {
	return Item{name: base, embed: true}
}

type Def struct {
	Name  string
	Items []Item
}

func Define(name string, items ...Item) Def {
	return Def{Name: name, Items: items}
}

// Slot is one vtable entry. Owner is the interface that declared the method.
type Slot struct {
	Name  string
	Owner string
}

// Key is the handler name for this slot in its declaring interface.
func (s Slot) Key() string {
	return s.Owner + "." + s.Name
}

// Interface is a flattened interface: inherited slots first, in declaration order.
type Interface struct {
	Name string
	// Base is the first embedded interface, "" for a root interface.
	Base  string
	Slots []Slot
}

func (i *Interface) Offset(slot, ptrSize int) uint64 {
	return uint64(slot * ptrSize)
}

// Index returns the first slot named name, or -1.
func (i *Interface) Index(name string) int {
	for n, s := range i.Slots {
		if s.Name == name {
			return n
		}
	}
	return -1
}

func (i *Interface) SlotNames() []string {
	ret := make([]string, len(i.Slots))
	for n, s := range i.Slots {
		ret[n] = s.Name
	}
	return ret
}

type Catalog struct {
	ifaces map[string]*Interface
}

func NewCatalog() *Catalog {
	return &Catalog{ifaces: make(map[string]*Interface)}
}

// Define flattens def against the interfaces already in the catalog.
// Redefining a name replaces it for interfaces defined afterwards.
func (c *Catalog) Define(def Def) error {
	if def.Name == "" {
		return errors.New("interface definition has no name")
	}
	iface := &Interface{Name: def.Name}
	for _, item := range def.Items {
		if !item.embed {
			iface.Slots = append(iface.Slots, Slot{Name: item.name, Owner: def.Name})
			continue
		}
		base, ok := c.ifaces[item.name]
		if !ok {
			return errors.Wrapf(ErrUnsupportedBase, "%s embeds %s", def.Name, item.name)
		}
		if iface.Base == "" {
			iface.Base = base.Name
		}
		iface.Slots = append(iface.Slots, base.Slots...)
	}
	c.ifaces[def.Name] = iface
	return nil
}

func (c *Catalog) MustDefine(defs ...Def) {
	for _, def := range defs {
		if err := c.Define(def); err != nil {
			panic(err)
		}
	}
}

func (c *Catalog) Get(name string) (*Interface, error) {
	if iface, ok := c.ifaces[name]; ok {
		return iface, nil
	}
	return nil, errors.Wrap(ErrUnknownInterface, name)
}

func (c *Catalog) Names() []string {
	ret := make([]string, 0, len(c.ifaces))
	for name := range c.ifaces {
		ret = append(ret, name)
	}
	sort.Sort(sortorder.Natural(ret))
	return ret
}

// Ancestors returns name followed by its chain of first bases.
func (c *Catalog) Ancestors(name string) []string {
	var ret []string
	for name != "" {
		iface, ok := c.ifaces[name]
		if !ok {
			break
		}
		ret = append(ret, name)
		name = iface.Base
	}
	return ret
}

// Candidates lists the handler keys tried for slot in iface, most specific first,
// ending with the declaring interface.
func (c *Catalog) Candidates(iface *Interface, slot Slot) []string {
	var keys []string
	for _, name := range c.Ancestors(iface.Name) {
		keys = append(keys, name+"."+slot.Name)
		if name == slot.Owner {
			return keys
		}
	}
	// declared through a second embed, off the first-base chain
	return append(keys, slot.Key())
}
