package win32

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lunixbochs/wincorn/go/api"
)

const (
	WM_CREATE = 0x0001
	IDOK      = 1

	wsprintfMax = 1024
)

// WindowClass is a class registered by RegisterClass.
type WindowClass struct {
	Name    string
	Atom    uint64
	WndProc uint64
}

type Window struct {
	Class *WindowClass
	Title string
	// WndProc is zero for windows of classes never registered by the guest.
	WndProc uint64
	Parent  uint64
}

type wndClass32 struct {
	Style      uint32
	WndProc    uint32
	ClsExtra   int32
	WndExtra   int32
	Instance   uint32
	Icon       uint32
	Cursor     uint32
	Background uint32
	MenuName   uint32
	ClassName  uint32
}

type wndClass64 struct {
	Style      uint32
	Pad        []byte `struc:"[4]pad"`
	WndProc    uint64
	ClsExtra   int32
	WndExtra   int32
	Instance   uint64
	Icon       uint64
	Cursor     uint64
	Background uint64
	MenuName   uint64
	ClassName  uint64
}

type createStruct32 struct {
	CreateParams uint32
	Instance     uint32
	Menu         uint32
	Parent       uint32
	Cy, Cx, Y, X int32
	Style        int32
	Name         uint32
	Class        uint32
	ExStyle      uint32
}

type createStruct64 struct {
	CreateParams uint64
	Instance     uint64
	Menu         uint64
	Parent       uint64
	Cy, Cx, Y, X int32
	Style        int32
	Pad          []byte `struc:"[4]pad"`
	Name         uint64
	Class        uint64
	ExStyle      uint32
	Pad2         []byte `struc:"[4]pad"`
}

func (env *Env) user32() *api.Module {
	m := api.NewModule("user32")
	m.AW("wsprintf", api.Cdecl, api.Variadic(2), env.Wsprintf, "lpOut:p", "lpFmt:s")
	m.AW("wvsprintf", api.Stdcall, api.Fixed(3), env.Wvsprintf, "lpOut:p", "lpFmt:s", "arglist:p")
	m.AW("MessageBox", api.Stdcall, api.Fixed(4), env.MessageBox, "hWnd:h", "lpText:s", "lpCaption:s", "uType")
	m.AW("RegisterClass", api.Stdcall, api.Fixed(1), env.RegisterClass, "lpWndClass:p")
	m.AW("CreateWindowEx", api.Stdcall, api.Fixed(12), env.CreateWindowEx,
		"dwExStyle", "lpClassName:p", "lpWindowName:s", "dwStyle",
		"X:d", "Y:d", "nWidth:d", "nHeight:d",
		"hWndParent:h", "hMenu:h", "hInstance:h", "lpParam:p")
	m.AW("SendMessage", api.Stdcall, api.Fixed(4), env.SendMessage, "hWnd:h", "Msg", "wParam", "lParam")
	m.AW("CallWindowProc", api.Stdcall, api.Fixed(5), env.CallWindowProc,
		"lpPrevWndFunc:p", "hWnd:h", "Msg", "wParam", "lParam")
	m.AW("DefWindowProc", api.Stdcall, api.Fixed(4), env.DefWindowProc, "hWnd:h", "Msg", "wParam", "lParam")
	return m
}

func (env *Env) sprintf(c *api.Call, out uint64, format string, args []uint64, max int) (uint64, error) {
	s, err := c.Sprintf(format, args)
	if err != nil {
		return 0, err
	}
	n, err := c.WriteStrN(out, s, max)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (env *Env) Wsprintf(c *api.Call) (uint64, error) {
	format, args, err := c.VarArgs(1)
	if err != nil {
		return 0, err
	}
	return env.sprintf(c, c.Arg(0), format, args, wsprintfMax-1)
}

func (env *Env) Wvsprintf(c *api.Call) (uint64, error) {
	format, err := c.Str(1)
	if err != nil {
		return 0, err
	}
	args, err := c.VaList(c.Arg(2), api.CountFormatArgs(format))
	if err != nil {
		return 0, err
	}
	return env.sprintf(c, c.Arg(0), format, args, wsprintfMax-1)
}

func (env *Env) MessageBox(c *api.Call) (uint64, error) {
	text, _, err := strArg(c, 1)
	if err != nil {
		return 0, err
	}
	caption, _, err := strArg(c, 2)
	if err != nil {
		return 0, err
	}
	c.Log.Info("message box", zap.String("caption", caption), zap.String("text", text))
	env.Messages = append(env.Messages, text)
	return IDOK, nil
}

// readWndClass returns the window procedure and class name pointer of a WNDCLASS.
func (env *Env) readWndClass(c *api.Call, addr uint64) (uint64, uint64, error) {
	s := c.Emu.StrucAt(addr)
	if c.Emu.PtrSize() == 8 {
		var wc wndClass64
		if err := s.Unpack(&wc); err != nil {
			return 0, 0, api.MarshalErr("WNDCLASS", addr, err)
		}
		return wc.WndProc, wc.ClassName, nil
	}
	var wc wndClass32
	if err := s.Unpack(&wc); err != nil {
		return 0, 0, api.MarshalErr("WNDCLASS", addr, err)
	}
	return uint64(wc.WndProc), uint64(wc.ClassName), nil
}

func (env *Env) RegisterClass(c *api.Call) (uint64, error) {
	proc, namePtr, err := env.readWndClass(c, c.Arg(0))
	if err != nil {
		return 0, err
	}
	name, err := api.ReadString(c.Emu, namePtr, c.CharWidth, c.MaxString)
	if err != nil {
		return 0, err
	}
	class := &WindowClass{Name: name, Atom: env.nextAtom, WndProc: proc}
	env.nextAtom++
	env.classes[name] = class
	env.atoms[class.Atom] = class
	return class.Atom, nil
}

// Class finds a registered window class by name.
func (env *Env) Class(name string) (*WindowClass, bool) {
	class, ok := env.classes[name]
	return class, ok
}

func (env *Env) window(hwnd uint64) (*Window, bool) {
	obj, ok := env.Handles.Get(hwnd)
	if !ok {
		return nil, false
	}
	w, ok := obj.(*Window)
	return w, ok
}

func (env *Env) lookupClass(c *api.Call, arg uint64) (*WindowClass, error) {
	// MAKEINTATOM
	if arg <= 0xffff {
		if class, ok := env.atoms[arg]; ok {
			return class, nil
		}
		return &WindowClass{Atom: arg}, nil
	}
	name, err := api.ReadString(c.Emu, arg, c.CharWidth, c.MaxString)
	if err != nil {
		return nil, err
	}
	if class, ok := env.classes[name]; ok {
		return class, nil
	}
	return &WindowClass{Name: name}, nil
}

func (env *Env) packCreateStruct(c *api.Call, addr uint64) error {
	a := c.Args
	var cs interface{}
	if c.Emu.PtrSize() == 8 {
		cs = &createStruct64{
			CreateParams: a[11], Instance: a[10], Menu: a[9], Parent: a[8],
			Cy: int32(a[7]), Cx: int32(a[6]), Y: int32(a[5]), X: int32(a[4]),
			Style: int32(a[3]), Name: a[2], Class: a[1], ExStyle: uint32(a[0]),
		}
	} else {
		cs = &createStruct32{
			CreateParams: uint32(a[11]), Instance: uint32(a[10]), Menu: uint32(a[9]), Parent: uint32(a[8]),
			Cy: int32(a[7]), Cx: int32(a[6]), Y: int32(a[5]), X: int32(a[4]),
			Style: int32(a[3]), Name: uint32(a[2]), Class: uint32(a[1]), ExStyle: uint32(a[0]),
		}
	}
	if err := c.Emu.StrucAt(addr).Pack(cs); err != nil {
		return api.MarshalErr("CREATESTRUCT", addr, err)
	}
	return nil
}

// CreateWindowEx creates the window and, for guest-registered classes, delivers
// WM_CREATE to the class procedure before returning.
func (env *Env) CreateWindowEx(c *api.Call) (uint64, error) {
	class, err := env.lookupClass(c, c.Arg(1))
	if err != nil {
		return 0, err
	}
	title, _, err := strArg(c, 2)
	if err != nil {
		return 0, err
	}
	w := &Window{Class: class, Title: title, WndProc: class.WndProc, Parent: c.Arg(8)}
	hwnd := env.Handles.New(w)
	if w.WndProc == 0 {
		return hwnd, nil
	}
	cs, err := c.Emu.Alloc(80, "CREATESTRUCT")
	if err != nil {
		return 0, err
	}
	defer c.Emu.Free(cs)
	if err := env.packCreateStruct(c, cs); err != nil {
		return 0, err
	}
	ret, err := c.CallGuest(w.WndProc, api.Stdcall, hwnd, WM_CREATE, 0, cs)
	if err != nil {
		env.Handles.Close(hwnd)
		return 0, err
	}
	if int32(ret) == -1 {
		env.Handles.Close(hwnd)
		return 0, nil
	}
	return hwnd, nil
}

func (env *Env) SendMessage(c *api.Call) (uint64, error) {
	w, ok := env.window(c.Arg(0))
	if !ok {
		env.LastError = ERROR_INVALID_HANDLE
		return 0, nil
	}
	if w.WndProc == 0 {
		return 0, nil
	}
	return c.CallGuest(w.WndProc, api.Stdcall, c.Arg(0), c.Arg(1), c.Arg(2), c.Arg(3))
}

func (env *Env) CallWindowProc(c *api.Call) (uint64, error) {
	if c.Arg(0) == 0 {
		return 0, errors.New("CallWindowProc with NULL procedure")
	}
	return c.CallGuest(c.Arg(0), api.Stdcall, c.Arg(1), c.Arg(2), c.Arg(3), c.Arg(4))
}

func (env *Env) DefWindowProc(c *api.Call) (uint64, error) {
	return 0, nil
}
