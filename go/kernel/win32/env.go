package win32

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/com"
	"github.com/lunixbochs/wincorn/go/emu"
)

const (
	S_OK    = 0
	S_FALSE = 1

	E_NOINTERFACE         = 0x80004002
	E_POINTER             = 0x80004003
	E_OUTOFMEMORY         = 0x8007000e
	CLASS_E_NOAGGREGATION = 0x80040110
	REGDB_E_CLASSNOTREG   = 0x80040154
	WBEM_E_FAILED         = 0x80041001

	ERROR_INVALID_HANDLE = 6
)

// Event is a kernel event object created by CreateEvent.
type Event struct {
	Name     string
	Manual   bool
	Signaled bool
}

// Env is the per-session state behind the handler sets.
type Env struct {
	Emu     *emu.Emu
	Objects *com.Builder
	Handles *Handles
	Clock   func() time.Time

	LastError uint32
	Ticks     uint32
	ExitCode  uint32
	Exited    bool

	// MessageBox text, oldest first
	Messages []string
	Requests []*HttpRequest
	Queries  []string

	classes  map[string]*WindowClass
	atoms    map[uint64]*WindowClass
	nextAtom uint64
	refs     map[uint64]uint32
	comInit  int
	requests map[uint64]*HttpRequest
	tasks    taskState
}

func NewEnv(e *emu.Emu, objects *com.Builder) *Env {
	return &Env{
		Emu:      e,
		Objects:  objects,
		Handles:  NewHandles(),
		Clock:    time.Now,
		Ticks:    0x10000,
		classes:  make(map[string]*WindowClass),
		atoms:    make(map[uint64]*WindowClass),
		nextAtom: 0xc000,
		refs:     make(map[uint64]uint32),
		requests: make(map[uint64]*HttpRequest),
		tasks: taskState{
			tasks:   make(map[uint64]*Task),
			actions: make(map[uint64]*TaskAction),
		},
	}
}

// Modules returns every handler set, built for the session's pointer width.
func (env *Env) Modules() []*api.Module {
	return []*api.Module{
		env.kernel32(),
		env.user32(),
		env.shlwapi(),
		env.ole32(),
		env.shell32(),
		env.mfc42(),
		env.comMethods(),
	}
}

// Install registers every handler set in reg.
func Install(reg *api.Registry, env *Env) error {
	for _, m := range env.Modules() {
		if err := reg.Install(m); err != nil {
			return errors.Wrap(err, "failed to install handlers")
		}
	}
	return nil
}

// strArg reads argument i as a string, keeping NULL distinct from "".
func strArg(c *api.Call, i int) (string, bool, error) {
	if c.Arg(i) == 0 {
		return "", false, nil
	}
	s, err := c.Str(i)
	return s, true, err
}

// bool32 is the Win32 BOOL encoding.
func bool32(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
