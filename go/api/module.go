package api

import (
	"strings"
)

type ParamKind int

const (
	Hex ParamKind = iota
	Int
	Ptr
	Handle
	Bool
	// Str follows the descriptor's CharWidth; AStr and WStr are fixed.
	Str
	AStr
	WStr
)

type Param struct {
	Name string
	Kind ParamKind
}

var paramKinds = map[string]ParamKind{
	"x": Hex, "d": Int, "p": Ptr, "h": Handle, "b": Bool,
	"s": Str, "a": AStr, "w": WStr,
}

// Params parses "name:kind" pairs, kind being one of x d p h b s a w. A bare name is hex.
func Params(specs ...string) []Param {
	ret := make([]Param, len(specs))
	for i, s := range specs {
		name, kind, _ := strings.Cut(s, ":")
		ret[i] = Param{Name: name, Kind: paramKinds[kind]}
	}
	return ret
}

// Module collects the descriptors of one handler set before registration.
type Module struct {
	Name  string
	Descs []*Descriptor
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) Add(name string, conv CallConv, arity Arity, impl Impl, params ...string) *Descriptor {
	d := &Descriptor{Name: name, Conv: conv, Arity: arity, Impl: impl, Params: Params(params...)}
	m.Descs = append(m.Descs, d)
	return d
}

// AW adds stem+"A" with 1-byte strings and stem+"W" with UTF-16 strings, sharing impl.
func (m *Module) AW(stem string, conv CallConv, arity Arity, impl Impl, params ...string) {
	m.Add(stem+"A", conv, arity, impl, params...).CharWidth = 1
	m.Add(stem+"W", conv, arity, impl, params...).CharWidth = 2
}

// Ordinal adds an export reachable by ordinal, and by name if name is not empty.
func (m *Module) Ordinal(n int, name string, conv CallConv, arity Arity, impl Impl, params ...string) *Descriptor {
	d := m.Add(name, conv, arity, impl, params...)
	d.Ordinal = n
	return d
}
