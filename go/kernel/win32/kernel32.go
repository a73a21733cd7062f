package win32

import (
	"github.com/lunixbochs/wincorn/go/api"
)

type systemTime struct {
	Year, Month, DayOfWeek, Day         uint16
	Hour, Minute, Second, Milliseconds uint16
}

func (env *Env) kernel32() *api.Module {
	m := api.NewModule("kernel32")
	m.Add("Sleep", api.Stdcall, api.Fixed(1), env.Sleep, "dwMilliseconds:d")
	m.Add("GetTickCount", api.Stdcall, api.Fixed(0), env.GetTickCount)
	m.Add("GetSystemTime", api.Stdcall, api.Fixed(1), env.GetSystemTime, "lpSystemTime:p")
	m.Add("GetLastError", api.Stdcall, api.Fixed(0), env.GetLastError)
	m.Add("SetLastError", api.Stdcall, api.Fixed(1), env.SetLastError, "dwErrCode")
	m.AW("lstrlen", api.Stdcall, api.Fixed(1), env.Lstrlen, "lpString:s")
	m.AW("CreateEvent", api.Stdcall, api.Fixed(4), env.CreateEvent,
		"lpEventAttributes:p", "bManualReset:b", "bInitialState:b", "lpName:s")
	m.Add("CloseHandle", api.Stdcall, api.Fixed(1), env.CloseHandle, "hObject:h")
	m.AW("OutputDebugString", api.Stdcall, api.Fixed(1), env.OutputDebugString, "lpOutputString:s")
	m.Add("ExitProcess", api.Stdcall, api.Fixed(1), env.ExitProcess, "uExitCode:d")
	return m
}

// Sleep returns immediately but moves the tick counter forward.
func (env *Env) Sleep(c *api.Call) (uint64, error) {
	env.Ticks += uint32(c.Arg(0))
	return 0, nil
}

func (env *Env) GetTickCount(c *api.Call) (uint64, error) {
	env.Ticks++
	return uint64(env.Ticks), nil
}

func (env *Env) GetSystemTime(c *api.Call) (uint64, error) {
	now := env.Clock().UTC()
	st := &systemTime{
		Year:         uint16(now.Year()),
		Month:        uint16(now.Month()),
		DayOfWeek:    uint16(now.Weekday()),
		Day:          uint16(now.Day()),
		Hour:         uint16(now.Hour()),
		Minute:       uint16(now.Minute()),
		Second:       uint16(now.Second()),
		Milliseconds: uint16(now.Nanosecond() / 1e6),
	}
	if err := c.Emu.StrucAt(c.Arg(0)).Pack(st); err != nil {
		return 0, api.MarshalErr("SYSTEMTIME", c.Arg(0), err)
	}
	return 0, nil
}

func (env *Env) GetLastError(c *api.Call) (uint64, error) {
	return uint64(env.LastError), nil
}

func (env *Env) SetLastError(c *api.Call) (uint64, error) {
	env.LastError = uint32(c.Arg(0))
	return 0, nil
}

func (env *Env) Lstrlen(c *api.Call) (uint64, error) {
	s, ok, err := strArg(c, 0)
	if err != nil || !ok {
		return 0, err
	}
	return uint64(api.CharLen(s, c.CharWidth)), nil
}

func (env *Env) CreateEvent(c *api.Call) (uint64, error) {
	name, _, err := strArg(c, 3)
	if err != nil {
		return 0, err
	}
	ev := &Event{Name: name, Manual: c.Arg(1) != 0, Signaled: c.Arg(2) != 0}
	env.LastError = 0
	return env.Handles.New(ev), nil
}

func (env *Env) CloseHandle(c *api.Call) (uint64, error) {
	if !env.Handles.Close(c.Arg(0)) {
		env.LastError = ERROR_INVALID_HANDLE
		return 0, nil
	}
	return 1, nil
}

func (env *Env) OutputDebugString(c *api.Call) (uint64, error) {
	s, err := c.Str(0)
	if err != nil {
		return 0, err
	}
	c.Log.Info(s)
	return 0, nil
}

// ExitProcess stops emulation after the call returns.
func (env *Env) ExitProcess(c *api.Call) (uint64, error) {
	env.ExitCode = uint32(c.Arg(0))
	env.Exited = true
	return 0, c.Emu.Stop()
}
