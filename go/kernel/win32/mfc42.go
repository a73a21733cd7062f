package win32

import (
	"github.com/lunixbochs/wincorn/go/api"
)

// mfcObject stands in for the CWnd/CString style objects MFC hands back by pointer.
type mfcObject struct {
	Ordinal int
}

func (env *Env) mfc42() *api.Module {
	m := api.NewModule("mfc42")
	constant := func(v uint64) api.Impl {
		return func(c *api.Call) (uint64, error) { return v, nil }
	}
	object := func(n int) api.Impl {
		return func(c *api.Call) (uint64, error) {
			return env.Handles.New(&mfcObject{Ordinal: n}), nil
		}
	}
	m.Ordinal(1168, "", api.Stdcall, api.Fixed(0), constant(1))
	m.Ordinal(1169, "", api.Stdcall, api.Fixed(0), constant(0))
	m.Ordinal(1170, "", api.Stdcall, api.Fixed(0), constant(0))
	for n := 800; n <= 802; n++ {
		m.Ordinal(n, "", api.Stdcall, api.Fixed(0), object(n))
	}
	for n := 820; n <= 830; n++ {
		m.Ordinal(n, "", api.Stdcall, api.Fixed(0), object(n))
	}
	m.Ordinal(2514, "", api.Stdcall, api.Fixed(0), constant(1))
	m.Ordinal(2515, "", api.Stdcall, api.Fixed(0), constant(1))
	m.Ordinal(2516, "", api.Stdcall, api.Fixed(0), object(2516))
	m.Ordinal(2517, "", api.Stdcall, api.Fixed(0), object(2517))
	return m
}
