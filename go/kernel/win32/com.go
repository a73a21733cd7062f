package win32

import (
	"go.uber.org/zap"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/com"
)

const (
	VT_BSTR = 8

	mockResponse = "Mock Response"
)

// HttpRequest is what the guest did with one IWinHttpRequest object.
type HttpRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Sent    bool
}

// Task is a scheduled task built through ITaskService.
type Task struct {
	Path    string
	Actions []*TaskAction
}

type TaskAction struct {
	Type      uint32
	Path      string
	Arguments string
}

type taskState struct {
	tasks   map[uint64]*Task
	actions map[uint64]*TaskAction
	// in registration order
	registered []*Task
}

// variantArgs is how many argument slots a by-value VARIANT takes.
func (env *Env) variantArgs() int {
	if env.Emu.PtrSize() == 8 {
		// passed by reference
		return 1
	}
	return 16 / 4
}

func (env *Env) comMethods() *api.Module {
	m := api.NewModule(com.Module)
	v := env.variantArgs()
	m.Add("IUnknown.QueryInterface", api.Stdcall, api.Fixed(3), env.QueryInterface, "this:p", "riid:p", "ppvObject:p")
	m.Add("IUnknown.AddRef", api.Stdcall, api.Fixed(1), env.AddRef, "this:p")
	m.Add("IUnknown.Release", api.Stdcall, api.Fixed(1), env.Release, "this:p")

	m.Add("IMalloc.Alloc", api.Stdcall, api.Fixed(2), func(c *api.Call) (uint64, error) {
		return env.taskAlloc(c, c.Arg(1)), nil
	}, "this:p", "cb:d")
	m.Add("IMalloc.Free", api.Stdcall, api.Fixed(2), func(c *api.Call) (uint64, error) {
		env.taskFree(c, c.Arg(1))
		return 0, nil
	}, "this:p", "pv:p")

	m.Add("IWbemLocator.ConnectServer", api.Stdcall, api.Fixed(9), env.ConnectServer,
		"this:p", "strNetworkResource:w", "strUser:w", "strPassword:w", "strLocale:w",
		"lSecurityFlags", "strAuthority:w", "pCtx:p", "ppNamespace:p")
	m.Add("IWbemServices.ExecQuery", api.Stdcall, api.Fixed(6), env.ExecQuery,
		"this:p", "strQueryLanguage:w", "strQuery:w", "lFlags", "pCtx:p", "ppEnum:p")

	m.Add("IWinHttpRequest.Open", api.Stdcall, api.Fixed(3+v), env.HttpOpen, "this:p", "Method:w", "Url:w")
	m.Add("IWinHttpRequest.SetRequestHeader", api.Stdcall, api.Fixed(3), env.HttpSetRequestHeader,
		"this:p", "Header:w", "Value:w")
	m.Add("IWinHttpRequest.Send", api.Stdcall, api.Fixed(1+v), env.HttpSend, "this:p")
	m.Add("IWinHttpRequest.get_Status", api.Stdcall, api.Fixed(2), env.HttpStatus, "this:p", "Status:p")
	m.Add("IWinHttpRequest.get_ResponseText", api.Stdcall, api.Fixed(2), env.HttpResponseText, "this:p", "Body:p")

	m.Add("ITaskService.Connect", api.Stdcall, api.Fixed(1+4*v), func(c *api.Call) (uint64, error) {
		return S_OK, nil
	}, "this:p")
	m.Add("ITaskService.GetFolder", api.Stdcall, api.Fixed(3), env.GetFolder, "this:p", "Path:w", "ppFolder:p")
	m.Add("ITaskService.NewTask", api.Stdcall, api.Fixed(3), env.NewTask, "this:p", "flags", "ppDefinition:p")
	m.Add("ITaskDefinition.get_Actions", api.Stdcall, api.Fixed(2), env.GetActions, "this:p", "ppActions:p")
	m.Add("IActionCollection.Create", api.Stdcall, api.Fixed(3), env.CreateAction, "this:p", "type:d", "ppAction:p")
	m.Add("IExecAction.put_Path", api.Stdcall, api.Fixed(2), env.putActionField(func(a *TaskAction, s string) {
		a.Path = s
	}), "this:p", "path:w")
	m.Add("IExecAction.put_Arguments", api.Stdcall, api.Fixed(2), env.putActionField(func(a *TaskAction, s string) {
		a.Arguments = s
	}), "this:p", "arguments:w")
	m.Add("ITaskFolder.RegisterTaskDefinition", api.Stdcall, api.Fixed(6+3*v), env.RegisterTaskDefinition,
		"this:p", "Path:w", "pDefinition:p", "flags")
	// interface strings are BSTRs
	for _, d := range m.Descs {
		d.CharWidth = 2
	}
	return m
}

func (env *Env) instance(c *api.Call, this uint64) (*com.Instance, bool) {
	if this == 0 {
		return nil, false
	}
	vtable, err := c.Emu.ReadPtr(this)
	if err != nil {
		return nil, false
	}
	return env.Objects.Lookup(vtable)
}

func (env *Env) implements(c *api.Call, this uint64, iface string) bool {
	inst, ok := env.instance(c, this)
	if !ok {
		return false
	}
	for _, name := range env.Objects.Catalog.Ancestors(inst.Type.Name) {
		if name == iface {
			return true
		}
	}
	return false
}

// QueryInterface hands back the receiver for interfaces it already implements
// and a fresh object for any other known IID.
func (env *Env) QueryInterface(c *api.Call) (uint64, error) {
	this, ppv := c.Arg(0), c.Arg(2)
	if ppv == 0 {
		return E_POINTER, nil
	}
	iid, err := env.readGUID(c, c.Arg(1))
	if err != nil {
		return 0, err
	}
	want, ok := com.Interfaces[iid]
	if !ok {
		return E_NOINTERFACE, c.WritePtr(ppv, 0)
	}
	if env.implements(c, this, want) {
		env.refs[this] = env.refCount(this) + 1
		return S_OK, c.WritePtr(ppv, this)
	}
	_, hr, err := env.newObject(c, want, ppv)
	return hr, err
}

func (env *Env) refCount(this uint64) uint32 {
	if n, ok := env.refs[this]; ok {
		return n
	}
	return 1
}

func (env *Env) AddRef(c *api.Call) (uint64, error) {
	n := env.refCount(c.Arg(0)) + 1
	env.refs[c.Arg(0)] = n
	return uint64(n), nil
}

// Release never frees the object; guests commonly keep using released pointers.
func (env *Env) Release(c *api.Call) (uint64, error) {
	n := env.refCount(c.Arg(0))
	if n > 0 {
		n--
	}
	env.refs[c.Arg(0)] = n
	return uint64(n), nil
}

func (env *Env) ConnectServer(c *api.Call) (uint64, error) {
	resource, _, err := strArg(c, 1)
	if err != nil {
		return 0, err
	}
	c.Log.Info("WMI connect", zap.String("resource", resource))
	_, hr, err := env.newObject(c, "IWbemServices", c.Arg(8))
	return hr, err
}

// ExecQuery records the query and fails it, so callers take their error path.
func (env *Env) ExecQuery(c *api.Call) (uint64, error) {
	query, _, err := strArg(c, 2)
	if err != nil {
		return 0, err
	}
	c.Log.Info("WMI query", zap.String("query", query))
	env.Queries = append(env.Queries, query)
	if c.Arg(5) != 0 {
		if err := c.WritePtr(c.Arg(5), 0); err != nil {
			return 0, err
		}
	}
	return WBEM_E_FAILED, nil
}

// allocBSTR stores s as a BSTR: a byte length prefix followed by the UTF-16 text.
func allocBSTR(c *api.Call, s string) (uint64, error) {
	buf, err := api.EncodeString(s, 2)
	if err != nil {
		return 0, err
	}
	addr, err := c.Emu.Alloc(uint64(4+len(buf)), "BSTR")
	if err != nil {
		return 0, err
	}
	if err := c.WriteUint32(addr, uint32(len(buf)-2)); err != nil {
		return 0, err
	}
	if err := c.Emu.MemWrite(addr+4, buf); err != nil {
		return 0, api.MarshalErr("BSTR", addr+4, err)
	}
	return addr + 4, nil
}

// variantString reads a VT_BSTR VARIANT starting at argument i.
func (env *Env) variantString(c *api.Call, i int) (string, bool, error) {
	var vt, bstr uint64
	if env.Emu.PtrSize() == 8 {
		ptr := c.Arg(i)
		if ptr == 0 {
			return "", false, nil
		}
		buf, err := c.Emu.MemRead(ptr, 16)
		if err != nil {
			return "", false, api.MarshalErr("VARIANT", ptr, err)
		}
		vt = uint64(c.Emu.ByteOrder().Uint16(buf))
		bstr = c.Emu.ByteOrder().Uint64(buf[8:])
	} else {
		vt = c.Arg(i) & 0xffff
		bstr = c.Arg(i + 2)
	}
	if vt != VT_BSTR || bstr == 0 {
		return "", false, nil
	}
	s, err := api.ReadString(c.Emu, bstr, 2, c.MaxString)
	return s, err == nil, err
}

func (env *Env) request(this uint64) *HttpRequest {
	req, ok := env.requests[this]
	if !ok {
		req = &HttpRequest{Headers: make(map[string]string)}
		env.requests[this] = req
	}
	return req
}

func (env *Env) HttpOpen(c *api.Call) (uint64, error) {
	method, _, err := strArg(c, 1)
	if err != nil {
		return 0, err
	}
	url, _, err := strArg(c, 2)
	if err != nil {
		return 0, err
	}
	req := &HttpRequest{Method: method, URL: url, Headers: make(map[string]string)}
	env.requests[c.Arg(0)] = req
	env.Requests = append(env.Requests, req)
	c.Log.Info("HTTP open", zap.String("method", method), zap.String("url", url))
	return S_OK, nil
}

func (env *Env) HttpSetRequestHeader(c *api.Call) (uint64, error) {
	header, _, err := strArg(c, 1)
	if err != nil {
		return 0, err
	}
	value, _, err := strArg(c, 2)
	if err != nil {
		return 0, err
	}
	env.request(c.Arg(0)).Headers[header] = value
	return S_OK, nil
}

func (env *Env) HttpSend(c *api.Call) (uint64, error) {
	body, _, err := env.variantString(c, 1)
	if err != nil {
		return 0, err
	}
	req := env.request(c.Arg(0))
	req.Body = body
	req.Sent = true
	c.Log.Info("HTTP send", zap.String("url", req.URL), zap.Int("body", len(body)))
	return S_OK, nil
}

func (env *Env) HttpStatus(c *api.Call) (uint64, error) {
	if c.Arg(1) == 0 {
		return E_POINTER, nil
	}
	return S_OK, c.WriteUint32(c.Arg(1), 200)
}

func (env *Env) HttpResponseText(c *api.Call) (uint64, error) {
	if c.Arg(1) == 0 {
		return E_POINTER, nil
	}
	bstr, err := allocBSTR(c, mockResponse)
	if err != nil {
		return E_OUTOFMEMORY, nil
	}
	return S_OK, c.WritePtr(c.Arg(1), bstr)
}

func (env *Env) GetFolder(c *api.Call) (uint64, error) {
	_, hr, err := env.newObject(c, "ITaskFolder", c.Arg(2))
	return hr, err
}

func (env *Env) NewTask(c *api.Call) (uint64, error) {
	inst, hr, err := env.newObject(c, "ITaskDefinition", c.Arg(2))
	if err == nil && inst != nil {
		env.tasks.tasks[inst.Object] = &Task{}
	}
	return hr, err
}

func (env *Env) GetActions(c *api.Call) (uint64, error) {
	inst, hr, err := env.newObject(c, "IActionCollection", c.Arg(1))
	if err == nil && inst != nil {
		if task, ok := env.tasks.tasks[c.Arg(0)]; ok {
			env.tasks.tasks[inst.Object] = task
		}
	}
	return hr, err
}

func (env *Env) CreateAction(c *api.Call) (uint64, error) {
	inst, hr, err := env.newObject(c, "IExecAction", c.Arg(2))
	if err == nil && inst != nil {
		action := &TaskAction{Type: uint32(c.Arg(1))}
		env.tasks.actions[inst.Object] = action
		if task, ok := env.tasks.tasks[c.Arg(0)]; ok {
			task.Actions = append(task.Actions, action)
		}
	}
	return hr, err
}

func (env *Env) putActionField(set func(*TaskAction, string)) api.Impl {
	return func(c *api.Call) (uint64, error) {
		s, _, err := strArg(c, 1)
		if err != nil {
			return 0, err
		}
		if action, ok := env.tasks.actions[c.Arg(0)]; ok {
			set(action, s)
		}
		return S_OK, nil
	}
}

func (env *Env) RegisterTaskDefinition(c *api.Call) (uint64, error) {
	path, _, err := strArg(c, 1)
	if err != nil {
		return 0, err
	}
	task, ok := env.tasks.tasks[c.Arg(2)]
	if !ok {
		task = &Task{}
	}
	task.Path = path
	env.tasks.registered = append(env.tasks.registered, task)
	c.Log.Info("scheduled task registered", zap.String("path", path), zap.Int("actions", len(task.Actions)))

	ppTask := c.Arg(len(c.Args) - 1)
	if ppTask == 0 {
		return S_OK, nil
	}
	_, hr, err := env.newObject(c, "IRegisteredTask", ppTask)
	return hr, err
}

// Tasks lists registered scheduled tasks.
func (env *Env) Tasks() []*Task {
	return env.tasks.registered
}
