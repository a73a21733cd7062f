package api

import (
	"testing"

	"github.com/pkg/errors"
)

func TestHooksOrder(t *testing.T) {
	var h Hooks
	nop := func(c *Call) (uint64, bool) { return 0, false }
	h.Add("KERNEL32.dll", "Create*", nop)
	h.Add("*", "*File*", nop)
	h.Add("", "Sleep", nop)
	h.Add("user32", "*", nop)

	rules := h.Match("kernel32", "CreateFileA")
	if len(rules) != 2 || rules[0].Index != 0 || rules[1].Index != 1 {
		t.Fatalf("bad match for CreateFileA: %v", rules)
	}
	if rules := h.Match("ntdll.dll", "Sleep"); len(rules) != 1 || rules[0].Index != 2 {
		t.Fatalf("bad match for Sleep: %v", rules)
	}
	if rules := h.Match("USER32.DLL", "MessageBoxW"); len(rules) != 1 || rules[0].Index != 3 {
		t.Fatalf("bad match for MessageBoxW: %v", rules)
	}
	if rules := h.Match("kernel32", "ExitProcess"); len(rules) != 0 {
		t.Fatalf("unexpected match: %v", rules)
	}
	// a rule matching several aliases is returned once
	if rules := h.Match("kernel32", "CreateFileA", "ordinal_5", "CreateFile"); len(rules) != 2 {
		t.Fatalf("aliases: %v", rules)
	}
	if rules := h.Match("ntdll", "", "Sleep"); len(rules) != 1 || rules[0].Index != 2 {
		t.Fatalf("empty alias: %v", rules)
	}
	if h.Len() != 4 {
		t.Fatal("bad hook count")
	}
}

func TestHooksBadPattern(t *testing.T) {
	var h Hooks
	if _, err := h.Add("kernel32", "[", func(*Call) (uint64, bool) { return 0, false }); errors.Cause(err) != ErrBadPattern {
		t.Fatalf("expected ErrBadPattern, got %v", err)
	}
	if _, err := h.Add("kernel32", "Sleep", nil); errors.Cause(err) != ErrBadPattern {
		t.Fatalf("expected ErrBadPattern for nil hook, got %v", err)
	}
	if h.Len() != 0 {
		t.Fatal("invalid hook was added")
	}
}
