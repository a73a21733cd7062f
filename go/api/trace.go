package api

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/lunixbochs/argjoy"
)

type (
	traceHex    uint64
	traceInt    int32
	tracePtr    uint64
	traceHandle uint64
	traceBool   bool
	traceStr    struct {
		addr uint64
		s    string
		err  error
	}
	traceAStr traceStr
	traceWStr traceStr
)

var traceTypes = map[ParamKind]reflect.Type{
	Hex:    reflect.TypeOf(traceHex(0)),
	Int:    reflect.TypeOf(traceInt(0)),
	Ptr:    reflect.TypeOf(tracePtr(0)),
	Handle: reflect.TypeOf(traceHandle(0)),
	Bool:   reflect.TypeOf(traceBool(false)),
	AStr:   reflect.TypeOf(traceAStr{}),
	WStr:   reflect.TypeOf(traceWStr{}),
}

type tracer struct {
	argjoy.Argjoy
	call    *Call
	strsize int
}

func newTracer(c *Call, strsize int) *tracer {
	t := &tracer{call: c, strsize: strsize}
	t.Register(t.codec)
	t.Register(argjoy.IntToInt)
	return t
}

func (t *tracer) readStr(v uint64, width int) traceStr {
	s, err := ReadString(t.call.Emu, v, width, t.strsize*4)
	return traceStr{addr: v, s: s, err: err}
}

func (t *tracer) codec(arg interface{}, vals []interface{}) error {
	v, ok := vals[0].(uint64)
	if !ok {
		return argjoy.NoMatch
	}
	switch a := arg.(type) {
	case *traceHex:
		*a = traceHex(v)
	case *traceInt:
		*a = traceInt(v)
	case *tracePtr:
		*a = tracePtr(v)
	case *traceHandle:
		*a = traceHandle(v)
	case *traceBool:
		*a = v != 0
	case *traceAStr:
		*a = traceAStr(t.readStr(v, 1))
	case *traceWStr:
		*a = traceWStr(t.readStr(v, 2))
	default:
		return argjoy.NoMatch
	}
	return nil
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func (t *tracer) repr(s traceStr, prefix string) string {
	if s.addr == 0 {
		return "NULL"
	}
	if s.err != nil {
		return hex(s.addr)
	}
	if t.strsize > 0 {
		if r := []rune(s.s); len(r) > t.strsize {
			return prefix + strconv.Quote(string(r[:t.strsize])) + "..."
		}
	}
	return prefix + strconv.Quote(s.s)
}

func (t *tracer) format(v interface{}) string {
	switch a := v.(type) {
	case traceHex:
		return hex(uint64(a))
	case traceInt:
		return strconv.Itoa(int(a))
	case tracePtr:
		if a == 0 {
			return "NULL"
		}
		return hex(uint64(a))
	case traceHandle:
		return fmt.Sprintf("h:%#x", uint64(a))
	case traceBool:
		if a {
			return "TRUE"
		}
		return "FALSE"
	case traceAStr:
		return t.repr(traceStr(a), "")
	case traceWStr:
		return t.repr(traceStr(a), "L")
	}
	return fmt.Sprintf("%v", v)
}

func (t *tracer) types() []reflect.Type {
	c := t.call
	n := len(c.Args)
	types := make([]reflect.Type, n)
	for i := range types {
		kind := Hex
		if c.Desc != nil && i < len(c.Desc.Params) {
			kind = c.Desc.Params[i].Kind
		}
		if kind == Str {
			kind = AStr
			if c.width() == 2 {
				kind = WStr
			}
		}
		types[i] = traceTypes[kind]
	}
	return types
}

func (t *tracer) args() string {
	c := t.call
	vals, err := t.Convert(t.types(), false, c.Args)
	if err != nil {
		return err.Error()
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		s := t.format(v.Interface())
		if c.Desc != nil && i < len(c.Desc.Params) {
			s = c.Desc.Params[i].Name + "=" + s
		}
		out[i] = s
	}
	return strings.Join(out, ", ")
}

// Trace renders c as module!Symbol(name=value, ...), reading string arguments
// and truncating them to strsize characters.
func Trace(c *Call, strsize int) string {
	return fmt.Sprintf("%s(%s)", c.Name(), newTracer(c, strsize).args())
}

func TraceRet(c *Call, strsize int, ret uint64) string {
	return fmt.Sprintf("%s = %s", Trace(c, strsize), hex(ret))
}
