package cpu

import (
	"testing"
)

func TestCodeHookRange(t *testing.T) {
	h := NewHooks(nil)
	var hits []uint64
	hook, err := h.HookAdd(HOOK_CODE, func(_ Cpu, addr uint64, size uint32) {
		hits = append(hits, addr)
	}, 0x1000, 0x1fff)
	if err != nil {
		t.Fatal(err)
	}
	all := 0
	h.HookAdd(HOOK_CODE, func(_ Cpu, addr uint64, size uint32) { all++ }, 1, 0)

	h.OnCode(0x1000, 1)
	h.OnCode(0x2000, 1)
	h.OnCode(0x1fff, 1)
	if len(hits) != 2 || hits[0] != 0x1000 || hits[1] != 0x1fff {
		t.Fatalf("bad hits: %#x", hits)
	}
	if all != 3 {
		t.Fatalf("catch-all hook fired %d times", all)
	}
	if err := h.HookDel(hook); err != nil {
		t.Fatal(err)
	}
	h.OnCode(0x1000, 1)
	if len(hits) != 2 {
		t.Fatal("deleted hook still fired")
	}
	if err := h.HookDel(hook); err == nil {
		t.Fatal("double delete should fail")
	}
}

func TestHookTypes(t *testing.T) {
	h := NewHooks(nil)
	if _, err := h.HookAdd(HOOK_INTR, func(Cpu, uint32) {}, 1, 0); err == nil {
		t.Fatal("interrupt hooks are not supported")
	}
	if _, err := h.HookAdd(HOOK_CODE, func() {}, 1, 0); err == nil {
		t.Fatal("bad callback signature should fail")
	}
}

func TestHookAddDuringDispatch(t *testing.T) {
	h := NewHooks(nil)
	added := false
	h.HookAdd(HOOK_CODE, func(_ Cpu, addr uint64, size uint32) {
		if !added {
			added = true
			h.HookAdd(HOOK_CODE, func(Cpu, uint64, uint32) {}, 1, 0)
		}
	}, 1, 0)
	h.OnCode(0x1000, 1)
	if len(h.code) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(h.code))
	}
}
