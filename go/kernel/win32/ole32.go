package win32

import (
	"go.uber.org/zap"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/com"
)

func (env *Env) ole32() *api.Module {
	m := api.NewModule("ole32")
	m.Add("CoInitialize", api.Stdcall, api.Fixed(1), env.CoInitialize, "pvReserved:p")
	m.Add("CoInitializeEx", api.Stdcall, api.Fixed(2), env.CoInitialize, "pvReserved:p", "dwCoInit")
	m.Add("CoUninitialize", api.Stdcall, api.Fixed(0), env.CoUninitialize)
	m.Add("CoCreateInstance", api.Stdcall, api.Fixed(5), env.CoCreateInstance,
		"rclsid:p", "pUnkOuter:p", "dwClsContext", "riid:p", "ppv:p")
	m.Add("CoGetMalloc", api.Stdcall, api.Fixed(2), env.CoGetMalloc, "dwMemContext", "ppMalloc:p")
	m.Add("CoTaskMemAlloc", api.Stdcall, api.Fixed(1), env.CoTaskMemAlloc, "cb:d")
	m.Add("CoTaskMemFree", api.Stdcall, api.Fixed(1), env.CoTaskMemFree, "pv:p")
	return m
}

// CoInitialize returns S_FALSE once the apartment is already initialized.
func (env *Env) CoInitialize(c *api.Call) (uint64, error) {
	env.comInit++
	if env.comInit > 1 {
		return S_FALSE, nil
	}
	return S_OK, nil
}

func (env *Env) CoUninitialize(c *api.Call) (uint64, error) {
	if env.comInit > 0 {
		env.comInit--
	}
	return 0, nil
}

func (env *Env) readGUID(c *api.Call, addr uint64) (com.GUID, error) {
	b, err := c.ReadGUIDBytes(addr)
	if err != nil {
		return com.GUID{}, err
	}
	return com.GUIDFromBytes(b)
}

// newObject builds iface and stores its interface pointer at out.
func (env *Env) newObject(c *api.Call, iface string, out uint64) (*com.Instance, uint64, error) {
	if out == 0 {
		return nil, E_POINTER, nil
	}
	inst, err := env.Objects.Build(iface)
	if err != nil {
		return nil, 0, err
	}
	return inst, S_OK, c.WritePtr(out, inst.Object)
}

func (env *Env) CoCreateInstance(c *api.Call) (uint64, error) {
	clsid, err := env.readGUID(c, c.Arg(0))
	if err != nil {
		return 0, err
	}
	iid, err := env.readGUID(c, c.Arg(3))
	if err != nil {
		return 0, err
	}
	ppv := c.Arg(4)
	if ppv == 0 {
		return E_POINTER, nil
	}
	if c.Arg(1) != 0 {
		return CLASS_E_NOAGGREGATION, c.WritePtr(ppv, 0)
	}
	iface, ok := com.ResolveClass(clsid, iid)
	if !ok {
		c.Log.Info("unknown COM class", zap.Stringer("clsid", clsid), zap.Stringer("iid", iid))
		return REGDB_E_CLASSNOTREG, c.WritePtr(ppv, 0)
	}
	inst, hr, err := env.newObject(c, iface, ppv)
	if err != nil {
		return 0, err
	}
	c.Log.Debug("created COM object", zap.Stringer("clsid", clsid), zap.String("interface", iface),
		zap.Uint64("object", inst.Object))
	return hr, nil
}

func (env *Env) CoGetMalloc(c *api.Call) (uint64, error) {
	_, hr, err := env.newObject(c, "IMalloc", c.Arg(1))
	return hr, err
}

func (env *Env) taskAlloc(c *api.Call, size uint64) uint64 {
	addr, err := c.Emu.Alloc(size, "CoTaskMem")
	if err != nil {
		c.Log.Warn("task allocation failed", zap.Uint64("size", size), zap.Error(err))
		return 0
	}
	return addr
}

func (env *Env) taskFree(c *api.Call, addr uint64) {
	if addr == 0 {
		return
	}
	if err := c.Emu.Free(addr); err != nil {
		c.Log.Warn("task free failed", zap.Error(err))
	}
}

func (env *Env) CoTaskMemAlloc(c *api.Call) (uint64, error) {
	return env.taskAlloc(c, c.Arg(0)), nil
}

func (env *Env) CoTaskMemFree(c *api.Call) (uint64, error) {
	env.taskFree(c, c.Arg(0))
	return 0, nil
}
