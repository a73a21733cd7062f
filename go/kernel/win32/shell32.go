package win32

import (
	"github.com/lunixbochs/wincorn/go/api"
)

func (env *Env) shell32() *api.Module {
	m := api.NewModule("shell32")
	m.Ordinal(680, "IsUserAnAdmin", api.Stdcall, api.Fixed(0), func(c *api.Call) (uint64, error) {
		return 1, nil
	})
	return m
}
