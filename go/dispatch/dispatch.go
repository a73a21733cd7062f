package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/emu"
	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/stubs"
)

const S_OK = 0

// ObjectLookup maps a vtable address back to the interface it was built for.
type ObjectLookup interface {
	Describe(vtable uint64) (iface string, slots []string, ok bool)
}

// Dispatcher runs host handlers when guest code reaches a stub.
type Dispatcher struct {
	Emu      *emu.Emu
	Stubs    *stubs.Table
	Registry *api.Registry
	Hooks    *api.Hooks
	Objects  ObjectLookup
	Config   *models.Config
	Log      *zap.Logger

	sinks    []func(Event)
	watchers []func(c *api.Call, ret uint64)
	frames   models.Callstack
	guest    int
	fatal    error
}

func New(e *emu.Emu, reg *api.Registry, hooks *api.Hooks, config *models.Config, log *zap.Logger) *Dispatcher {
	if config == nil {
		config = models.DefaultConfig()
	}
	if log == nil {
		log = Logger()
	}
	if hooks == nil {
		hooks = &api.Hooks{}
	}
	d := &Dispatcher{
		Emu:      e,
		Registry: reg,
		Hooks:    hooks,
		Config:   config,
		Log:      log,
	}
	d.Stubs = stubs.New(e, d.onCall)
	return d
}

// Subscribe adds a sink for generic fallback events.
func (d *Dispatcher) Subscribe(fn func(Event)) {
	d.sinks = append(d.sinks, fn)
}

// Watch adds a callback run after every dispatched call with its return value.
func (d *Dispatcher) Watch(fn func(c *api.Call, ret uint64)) {
	d.watchers = append(d.watchers, fn)
}

// Depth is the number of dispatches currently waiting on guest callbacks, plus the active one.
func (d *Dispatcher) Depth() int {
	return d.frames.Len()
}

func (d *Dispatcher) Frames() []models.Stackframe {
	return d.frames.Frames()
}

// Err returns the error that ended the session, if any.
func (d *Dispatcher) Err() error {
	return d.fatal
}

func (d *Dispatcher) fail(err error) {
	if d.fatal == nil {
		d.fatal = err
		d.Log.Error("emulation aborted", zap.Error(err))
	}
	d.Emu.Stop()
}

func (d *Dispatcher) onCall(b *stubs.Binding) {
	if d.fatal != nil {
		d.Emu.Stop()
		return
	}
	if b.Kind == stubs.Return {
		// CallGuest's Start ends here on its own
		if d.guest == 0 {
			pc, _ := d.Emu.PC()
			d.Log.Warn("guest returned to the callback trampoline outside a callback", zap.String("pc", hex(pc)))
			d.Emu.Stop()
		}
		return
	}
	if err := d.dispatch(b); err != nil {
		d.fail(err)
	}
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}

// dispatch handles one stub hit. A returned error is always fatal.
func (d *Dispatcher) dispatch(b *stubs.Binding) error {
	ra, err := api.ReturnAddr(d.Emu)
	if err != nil {
		return err
	}
	sp, err := d.Emu.SP()
	if err != nil {
		return err
	}
	c := &api.Call{
		Emu:        d.Emu,
		Module:     b.Module,
		Symbol:     b.Symbol,
		Conv:       models.Cdecl,
		Stub:       b.Addr,
		ReturnAddr: ra,
		MaxString:  d.Config.MaxStringLen,
		Log:        d.Log,
		Guest:      d,
	}
	// without a handler: fallback arity, no callee cleanup
	nargs := d.Config.FallbackArgs
	if b.Kind == stubs.Concrete {
		if desc, ok := d.Registry.Lookup(b.Module, b.Symbol); ok {
			c.Desc = desc
			c.Conv = desc.Conv
			c.CharWidth = desc.CharWidth
			nargs = desc.Arity.N
		}
	}
	d.frames.Push(models.Stackframe{PC: b.Addr, SP: sp, Ret: ra, Name: b.Name()})
	defer d.frames.Pop()

	var ret uint64
	c.Args, err = api.ReadArgs(d.Emu, c.Conv, nargs)
	if err == nil {
		ev := d.event(b, c)
		if b.Kind == stubs.Generic && ev.Owner != "" && ev.Name != "" {
			c.Symbol = ev.Owner + "." + ev.Name
		}
		ret, err = d.run(c, ev, b.Kind == stubs.Generic)
	}
	if err != nil {
		if api.IsCorruption(err) {
			return err
		}
		d.Log.Warn("call failed", zap.String("call", c.Name()), zap.String("from", hex(ra)), zap.Error(err))
		ret = d.Config.FaultReturn
	}
	if d.fatal != nil {
		return d.fatal
	}
	if d.Config.TraceCalls {
		d.Log.Debug(api.TraceRet(c, d.Config.Strsize, ret))
	}
	for _, fn := range d.watchers {
		fn(c, ret)
	}
	// variadic descriptors are cdecl, so the prefix is enough for cleanup
	return api.Return(d.Emu, c.Conv, nargs, ret)
}

// run executes hooks, then the handler or fallback. Panics become errors.
func (d *Dispatcher) run(c *api.Call, ev Event, generic bool) (ret uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in %s: %v", c.Name(), r)
		}
	}()
	impl := d.fallback(ev, generic)
	if c.Desc != nil {
		impl = c.Desc.Impl
	}
	c.SetOriginal(impl)

	override := false
	names := []string{c.Symbol}
	if c.Desc != nil {
		names = append(names, c.Desc.Aliases()...)
	}
	for _, rule := range d.Hooks.Match(c.Module, names...) {
		if v, ok := rule.Func(c); ok {
			ret, override = v, true
		}
	}
	if override {
		return ret, nil
	}
	return impl(c)
}

// event describes c for the fallback path. COM generic hits are resolved through the receiver.
func (d *Dispatcher) event(b *stubs.Binding, c *api.Call) Event {
	ev := Event{
		Owner:  b.Module,
		Name:   b.Symbol,
		Index:  -1,
		Args:   c.Args,
		Addr:   b.Addr,
		Return: c.ReturnAddr,
	}
	if b.Kind != stubs.Generic {
		return ev
	}
	ev.Owner, ev.Name = "", ""
	ev.Index = d.callSlot(c.ReturnAddr)
	if d.Objects == nil || len(c.Args) == 0 || c.Args[0] == 0 {
		return ev
	}
	vtable, err := d.Emu.ReadPtr(c.Args[0])
	if err != nil {
		return ev
	}
	iface, slots, ok := d.Objects.Describe(vtable)
	if !ok {
		return ev
	}
	ev.Owner = iface
	if ev.Index >= 0 && ev.Index < len(slots) {
		ev.Name = slots[ev.Index]
	} else {
		ev.Index = -1
	}
	return ev
}

func (d *Dispatcher) fallback(ev Event, generic bool) api.Impl {
	return func(c *api.Call) (uint64, error) {
		d.Log.Info("unhandled call",
			zap.String("owner", ev.Owner),
			zap.String("name", ev.Name),
			zap.Int("index", ev.Index),
			zap.Uint64s("args", ev.Args),
			zap.String("from", hex(ev.Return)),
		)
		for _, fn := range d.sinks {
			fn(ev)
		}
		if generic {
			return S_OK, nil
		}
		return d.Config.UnhandledReturn, nil
	}
}

// CallGuest runs guest code at fn from inside a handler and returns its result.
// Registers are restored afterwards; memory changes made by the guest are kept.
func (d *Dispatcher) CallGuest(fn uint64, conv api.CallConv, args ...uint64) (uint64, error) {
	if d.frames.Len() >= d.Config.MaxDepth {
		return 0, errors.Wrapf(api.ErrDepthLimit, "depth %d", d.frames.Len())
	}
	ret, err := d.Stubs.ReturnStub()
	if err != nil {
		return 0, err
	}
	saved, err := d.Emu.ContextSave(nil)
	if err != nil {
		return 0, api.CorruptionErr("context save", err)
	}
	d.guest++
	val, err := d.Emu.Invoke(fn, ret, conv, args...)
	d.guest--
	if d.fatal != nil {
		return 0, d.fatal
	}
	if rerr := d.Emu.ContextRestore(saved); rerr != nil {
		return 0, api.CorruptionErr("context restore", rerr)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "guest callback %#x", fn)
	}
	return val, nil
}
