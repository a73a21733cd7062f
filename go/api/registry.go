package api

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/models"
)

// Impl is a host-side implementation of one guest-visible function.
type Impl func(c *Call) (uint64, error)

// Descriptor describes one implemented symbol. It is not modified after registration.
type Descriptor struct {
	Name    string
	Ordinal int
	Conv    CallConv
	Arity   Arity
	Params  []Param
	// CharWidth is 1 for A functions, 2 for W functions, 0 if the function takes no strings.
	CharWidth int
	Impl      Impl
}

// Aliases returns every symbol d answers to: its name and its ordinal name.
func (d *Descriptor) Aliases() []string {
	var names []string
	if d.Name != "" {
		names = append(names, d.Name)
	}
	if d.Ordinal != 0 {
		names = append(names, OrdinalName(d.Ordinal))
	}
	return names
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s, %s)", d.Name, d.Conv, d.Arity)
}

// Validate rejects descriptors that could never be dispatched correctly.
// arch may be nil to skip the architecture checks.
func (d *Descriptor) Validate(arch *models.Arch) error {
	if d.Name == "" && d.Ordinal == 0 {
		return errors.New("descriptor needs a name or ordinal")
	}
	if d.Impl == nil {
		return errors.Wrap(ErrNoImpl, d.Name)
	}
	if d.Arity.N < 0 || d.Arity.N > MaxArgs {
		return errors.Wrapf(ErrBadArity, "%s takes %d arguments", d.Name, d.Arity.N)
	}
	if arch != nil {
		spec, err := arch.Spec(d.Conv)
		if err != nil {
			return errors.Wrap(err, d.Name)
		}
		if d.Arity.Variadic && spec.CalleeCleanup {
			return errors.Wrapf(ErrBadArity, "%s: variadic with callee cleanup", d.Name)
		}
	}
	if d.Arity.Variadic && d.Conv != Cdecl && d.Conv != Win64 {
		return errors.Wrapf(ErrBadArity, "%s: variadic functions must be cdecl, not %s", d.Name, d.Conv)
	}
	return nil
}

type moduleTable struct {
	byName map[string]*Descriptor
	byOrd  map[int]*Descriptor
}

// Registry holds the implemented symbols of every module for one session.
type Registry struct {
	modules map[string]*moduleTable
	// Arch, when set, rejects conventions it cannot dispatch.
	Arch *models.Arch
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*moduleTable)}
}

// NormalizeModule lowercases a module name and strips common image extensions.
func NormalizeModule(name string) string {
	name = strings.ToLower(name)
	for _, ext := range []string{".dll", ".drv", ".exe", ".sys"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// OrdinalName is the symbol a loader uses for an import by ordinal.
func OrdinalName(n int) string {
	return fmt.Sprintf("ordinal_%d", n)
}

func ParseOrdinal(sym string) (int, bool) {
	if !strings.HasPrefix(sym, "ordinal_") {
		return 0, false
	}
	n, err := strconv.Atoi(sym[len("ordinal_"):])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Register adds or replaces d in module. Replacing is keyed by name and by ordinal.
func (r *Registry) Register(module string, d *Descriptor) error {
	if err := d.Validate(r.Arch); err != nil {
		return err
	}
	module = NormalizeModule(module)
	t, ok := r.modules[module]
	if !ok {
		t = &moduleTable{
			byName: make(map[string]*Descriptor),
			byOrd:  make(map[int]*Descriptor),
		}
		r.modules[module] = t
	}
	if d.Name != "" {
		if old, ok := t.byName[d.Name]; ok && old.Ordinal != 0 && t.byOrd[old.Ordinal] == old {
			delete(t.byOrd, old.Ordinal)
		}
		t.byName[d.Name] = d
	}
	if d.Ordinal != 0 {
		if old, ok := t.byOrd[d.Ordinal]; ok && old.Name != "" && t.byName[old.Name] == old && old.Name != d.Name {
			delete(t.byName, old.Name)
		}
		t.byOrd[d.Ordinal] = d
	}
	return nil
}

// Install registers every descriptor of a handler set.
func (r *Registry) Install(m *Module) error {
	for _, d := range m.Descs {
		if err := r.Register(m.Name, d); err != nil {
			return errors.Wrapf(err, "module %s", m.Name)
		}
	}
	return nil
}

// Lookup finds sym by exact name, or by ordinal for "ordinal_N" symbols.
func (r *Registry) Lookup(module, sym string) (*Descriptor, bool) {
	t, ok := r.modules[NormalizeModule(module)]
	if !ok {
		return nil, false
	}
	if d, ok := t.byName[sym]; ok {
		return d, true
	}
	if n, ok := ParseOrdinal(sym); ok {
		d, ok := t.byOrd[n]
		return d, ok
	}
	return nil, false
}

func (r *Registry) Modules() []string {
	ret := make([]string, 0, len(r.modules))
	for name := range r.modules {
		ret = append(ret, name)
	}
	sort.Sort(sortorder.Natural(ret))
	return ret
}

// Symbols lists a module's symbols, ordinal-only entries as "ordinal_N".
func (r *Registry) Symbols(module string) []string {
	t, ok := r.modules[NormalizeModule(module)]
	if !ok {
		return nil
	}
	ret := make([]string, 0, len(t.byName))
	for name := range t.byName {
		ret = append(ret, name)
	}
	for n, d := range t.byOrd {
		if d.Name == "" {
			ret = append(ret, OrdinalName(n))
		}
	}
	sort.Sort(sortorder.Natural(ret))
	return ret
}
