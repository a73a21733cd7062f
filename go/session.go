package wincorn

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/com"
	"github.com/lunixbochs/wincorn/go/dispatch"
	"github.com/lunixbochs/wincorn/go/emu"
	"github.com/lunixbochs/wincorn/go/kernel/win32"
	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/cpu"
)

// Session owns everything needed to emulate one guest: the address space,
// handlers, hooks, stubs and COM objects. It is not safe for concurrent use.
type Session struct {
	Config     *models.Config
	Log        *zap.Logger
	Emu        *emu.Emu
	Registry   *api.Registry
	Hooks      *api.Hooks
	Dispatcher *dispatch.Dispatcher
	Catalog    *com.Catalog
	Objects    *com.Builder
	Env        *win32.Env
}

// NewSession maps the stack and installs the built-in handler sets on c.
// config and log may be nil.
func NewSession(c cpu.Cpu, arch *models.Arch, config *models.Config, log *zap.Logger) (*Session, error) {
	if config == nil {
		config = models.DefaultConfig()
	}
	if log == nil {
		log = dispatch.Logger()
	}
	e := emu.New(c, arch, config.MapBase)
	if err := e.MapStack(config.StackBase, config.StackSize); err != nil {
		return nil, errors.Wrap(err, "failed to map stack")
	}
	s := &Session{
		Config:   config,
		Log:      log,
		Emu:      e,
		Registry: api.NewRegistry(),
		Hooks:    &api.Hooks{},
		Catalog:  com.DefaultCatalog(),
	}
	s.Registry.Arch = arch
	s.Dispatcher = dispatch.New(e, s.Registry, s.Hooks, config, log)
	s.Objects = com.NewBuilder(s.Catalog, s.Dispatcher.Stubs, s.Registry, e)
	s.Dispatcher.Objects = s.Objects
	s.Env = win32.NewEnv(e, s.Objects)
	if err := win32.Install(s.Registry, s.Env); err != nil {
		return nil, err
	}
	return s, nil
}

// RegisterHandler adds or replaces the implementation of a module symbol.
// COM methods use module com.Module and "Iface.Method" names.
func (s *Session) RegisterHandler(module string, d *api.Descriptor) error {
	return s.Registry.Register(module, d)
}

// AddHook runs fn for every call whose module and symbol match the patterns.
// Hooks apply to calls made after AddHook returns, whenever the import was resolved.
func (s *Session) AddHook(module, symbol string, fn api.HookFunc) error {
	_, err := s.Hooks.Add(module, symbol, fn)
	return err
}

// CreateComInstance builds an object implementing iface and returns its interface pointer.
func (s *Session) CreateComInstance(iface string) (uint64, error) {
	inst, err := s.Objects.Build(iface)
	if err != nil {
		return 0, err
	}
	return inst.Object, nil
}

// ResolveImport returns the address a loader should write into an import slot.
// Symbols without a handler resolve too and reach the generic fallback.
func (s *Session) ResolveImport(module, symbol string) (uint64, error) {
	return s.Dispatcher.Stubs.Get(module, symbol)
}

// OnEvent adds a sink for calls that reached the generic fallback.
func (s *Session) OnEvent(fn func(dispatch.Event)) {
	s.Dispatcher.Subscribe(fn)
}

// LoadCode maps code at Config.CodeBase and returns its address.
func (s *Session) LoadCode(code []byte) (uint64, error) {
	size := uint64(len(code))
	mmap, err := s.Emu.Mmap(s.Config.CodeBase, size, cpu.PROT_ALL, "shellcode")
	if err != nil {
		return 0, errors.Wrap(err, "failed to map code")
	}
	if err := s.Emu.MemWrite(mmap.Addr, code); err != nil {
		return 0, errors.Wrap(err, "failed to write code")
	}
	return mmap.Addr, nil
}

// Run starts the guest at entry with until as its return address, and runs
// until the guest returns there, stops, or ctx is done. A fatal dispatch error
// takes precedence over the CPU's own error.
func (s *Session) Run(ctx context.Context, entry, until uint64) error {
	if _, err := s.Emu.Push(until); err != nil {
		return errors.Wrap(err, "failed to push return address")
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Emu.Stop()
		case <-done:
		}
	}()
	err := s.Emu.Start(entry, until)
	if ferr := s.Dispatcher.Err(); ferr != nil {
		return ferr
	}
	if err != nil {
		return errors.Wrap(err, "emulation failed")
	}
	return ctx.Err()
}

func (s *Session) Close() error {
	return s.Emu.Close()
}
