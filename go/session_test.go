package wincorn

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/arch/x86_64"
	"github.com/lunixbochs/wincorn/go/com"
	"github.com/lunixbochs/wincorn/go/dispatch"
	"github.com/lunixbochs/wincorn/go/models"
	"github.com/lunixbochs/wincorn/go/models/mock"
)

func newSession(t *testing.T, arch *models.Arch) (*Session, *mock.Cpu, *observer.ObservedLogs) {
	c := mock.New(arch)
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := NewSession(c, arch, nil, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	return s, c, logs
}

func resolve(t *testing.T, s *Session, module, symbol string) uint64 {
	addr, err := s.ResolveImport(module, symbol)
	if err != nil {
		t.Fatal(err)
	}
	return addr
}

func TestRun(t *testing.T) {
	s, c, _ := newSession(t, x86.Arch)
	entry, err := s.LoadCode([]byte{0x90})
	if err != nil {
		t.Fatal(err)
	}
	sleep := resolve(t, s, "KERNEL32.dll", "Sleep")
	if again := resolve(t, s, "kernel32", "Sleep"); again != sleep {
		t.Fatalf("Sleep resolved to %#x and %#x", sleep, again)
	}
	ticks := resolve(t, s, "kernel32", "GetTickCount")
	regOpen := resolve(t, s, "advapi32", "RegOpenKeyExA")

	if err := s.AddHook("kernel32", "Get*", func(c *api.Call) (uint64, bool) {
		return 7, true
	}); err != nil {
		t.Fatal(err)
	}
	var events []dispatch.Event
	s.OnEvent(func(ev dispatch.Event) { events = append(events, ev) })

	var results []uint64
	c.Funcs[entry] = func(c *mock.Cpu) error {
		ret := entry + 0x10
		for _, call := range []struct {
			fn   uint64
			conv api.CallConv
			args []uint64
		}{
			{sleep, api.Stdcall, []uint64{10}},
			{ticks, api.Stdcall, nil},
			{regOpen, api.Cdecl, []uint64{0x80000002, 0, 0, 0x20019}},
		} {
			v, err := s.Emu.Invoke(call.fn, ret, call.conv, call.args...)
			if err != nil {
				return err
			}
			results = append(results, v)
		}
		return c.Ret(0, 0)
	}
	if err := s.Run(context.Background(), entry, 0xdead0000); err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[1] != 7 || results[2] != s.Config.UnhandledReturn {
		t.Fatalf("results: %x", results)
	}
	if s.Env.Ticks != 0x10000+10 {
		t.Fatalf("ticks %#x", s.Env.Ticks)
	}
	if len(events) != 1 || events[0].Owner != "advapi32" || events[0].Name != "RegOpenKeyExA" {
		t.Fatalf("events: %v", events)
	}
}

func TestRegisterHandler(t *testing.T) {
	s, _, _ := newSession(t, x86_64.Arch)
	err := s.RegisterHandler("kernel32.dll", &api.Descriptor{
		Name:  "Sleep",
		Conv:  api.Stdcall,
		Arity: api.Fixed(1),
		Impl:  func(c *api.Call) (uint64, error) { return c.Arg(0) * 2, nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	sleep := resolve(t, s, "kernel32", "Sleep")
	if ret, err := s.Emu.Invoke(sleep, 0xdead0000, api.Stdcall, 21); err != nil || ret != 42 {
		t.Fatalf("Sleep = %d, %v", ret, err)
	}
	if err := s.RegisterHandler("kernel32", &api.Descriptor{Name: "Broken", Conv: api.Stdcall}); err == nil {
		t.Fatal("registered a descriptor without an implementation")
	}
}

func TestCreateComInstance(t *testing.T) {
	s, _, _ := newSession(t, x86.Arch)
	obj, err := s.CreateComInstance("IWbemLocator")
	if err != nil {
		t.Fatal(err)
	}
	vtable, err := s.Emu.ReadPtr(obj)
	if err != nil {
		t.Fatal(err)
	}
	inst, ok := s.Objects.Lookup(vtable)
	if !ok || inst.Type.Name != "IWbemLocator" {
		t.Fatal("object not registered with the builder")
	}
	connect := resolve(t, s, com.Module, "IWbemLocator.ConnectServer")
	if inst.Bound[3] != connect {
		t.Fatalf("ConnectServer bound to %#x, want %#x", inst.Bound[3], connect)
	}
	if _, err := s.CreateComInstance("IMissing"); errors.Cause(err) != com.ErrUnknownInterface {
		t.Fatalf("expected ErrUnknownInterface, got %v", err)
	}
}

func TestRunFatal(t *testing.T) {
	s, c, logs := newSession(t, x86.Arch)
	entry, _ := s.LoadCode([]byte{0x90})
	s.RegisterHandler("kernel32", &api.Descriptor{
		Name:  "Sleep",
		Conv:  api.Stdcall,
		Arity: api.Fixed(1),
		Impl: func(c *api.Call) (uint64, error) {
			return 0, api.CorruptionErr("heap", errors.New("boom"))
		},
	})
	sleep := resolve(t, s, "kernel32", "Sleep")
	c.Funcs[entry] = func(c *mock.Cpu) error {
		// the stop leaves the inner call short of its return address
		s.Emu.Invoke(sleep, entry+0x10, api.Stdcall, 1)
		return nil
	}
	err := s.Run(context.Background(), entry, 0xdead0000)
	if !api.IsCorruption(err) {
		t.Fatalf("expected corruption, got %v", err)
	}
	if logs.FilterMessage("emulation aborted").Len() != 1 {
		t.Fatal("abort not logged")
	}
}

func TestRunCancel(t *testing.T) {
	s, c, _ := newSession(t, x86.Arch)
	entry, _ := s.LoadCode([]byte{0xeb, 0xfe})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Funcs[entry] = func(c *mock.Cpu) error {
		cancel()
		deadline := time.Now().Add(5 * time.Second)
		for !c.Stopped() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		// spin in place
		return nil
	}
	if err := s.Run(ctx, entry, 0xdead0000); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadCode(t *testing.T) {
	s, _, _ := newSession(t, x86.Arch)
	addr, err := s.LoadCode([]byte{0xcc, 0xc3})
	if err != nil {
		t.Fatal(err)
	}
	if addr != s.Config.CodeBase || s.Emu.Tag(addr) != "shellcode" {
		t.Fatalf("code at %#x tagged %q", addr, s.Emu.Tag(addr))
	}
	if b, _ := s.Emu.MemRead(addr, 2); b[0] != 0xcc || b[1] != 0xc3 {
		t.Fatalf("code bytes %x", b)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
