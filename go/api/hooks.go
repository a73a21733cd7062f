package api

import (
	"path"

	"github.com/pkg/errors"
)

// HookFunc runs on every matching call. Returning true overrides the call's result.
type HookFunc func(c *Call) (ret uint64, override bool)

type HookRule struct {
	Module string
	Symbol string
	Func   HookFunc
	Index  int
}

// "" and "*" match anything; otherwise shell-style patterns such as "Create*" or "*Ex".
func matchPattern(pattern, s string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, _ := path.Match(pattern, s)
	return ok
}

func (r *HookRule) Matches(module, symbol string) bool {
	return matchPattern(r.Module, NormalizeModule(module)) && matchPattern(r.Symbol, symbol)
}

// Hooks is an append-only list of pattern hooks, matched in registration order.
type Hooks struct {
	rules []*HookRule
}

func (h *Hooks) Add(module, symbol string, fn HookFunc) (*HookRule, error) {
	if fn == nil {
		return nil, errors.Wrap(ErrBadPattern, "nil hook function")
	}
	module = NormalizeModule(module)
	for _, p := range []string{module, symbol} {
		if _, err := path.Match(p, ""); err != nil {
			return nil, errors.Wrapf(ErrBadPattern, "%q", p)
		}
	}
	rule := &HookRule{Module: module, Symbol: symbol, Func: fn, Index: len(h.rules)}
	h.rules = append(h.rules, rule)
	return rule, nil
}

// Match returns every rule matching module with any of symbols, oldest first.
// Each rule appears once. Pass every name an export goes by, such as its name and ordinal.
func (h *Hooks) Match(module string, symbols ...string) []*HookRule {
	var ret []*HookRule
	for _, r := range h.rules {
		for _, sym := range symbols {
			if sym != "" && r.Matches(module, sym) {
				ret = append(ret, r)
				break
			}
		}
	}
	return ret
}

func (h *Hooks) Len() int {
	return len(h.rules)
}
