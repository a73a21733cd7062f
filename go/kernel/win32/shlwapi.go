package win32

import (
	"github.com/lunixbochs/wincorn/go/api"
)

func (env *Env) shlwapi() *api.Module {
	m := api.NewModule("shlwapi")
	m.AW("wnsprintf", api.Cdecl, api.Variadic(3), env.Wnsprintf, "pszDest:p", "cchDest:d", "pszFmt:s")
	return m
}

// Wnsprintf writes at most cchDest-1 characters plus the terminator.
func (env *Env) Wnsprintf(c *api.Call) (uint64, error) {
	format, args, err := c.VarArgs(2)
	if err != nil {
		return 0, err
	}
	cch := int(int32(c.Arg(1)))
	if cch <= 0 {
		return 0, nil
	}
	return env.sprintf(c, c.Arg(0), format, args, cch-1)
}
