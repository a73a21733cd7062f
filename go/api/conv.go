package api

import (
	"fmt"

	"github.com/lunixbochs/wincorn/go/models"
)

type CallConv = models.CallConv

const (
	Stdcall  = models.Stdcall
	Cdecl    = models.Cdecl
	Fastcall = models.Fastcall
	Thiscall = models.Thiscall
	Win64    = models.Win64
)

// MaxArgs bounds fixed arities and variadic re-reads.
const MaxArgs = 32

// Arity is either a fixed argument count or a variadic call with N fixed leading arguments.
type Arity struct {
	N        int
	Variadic bool
}

func Fixed(n int) Arity {
	return Arity{N: n}
}

func Variadic(prefix int) Arity {
	return Arity{N: prefix, Variadic: true}
}

func (a Arity) String() string {
	if a.Variadic {
		return fmt.Sprintf("%d+...", a.N)
	}
	return fmt.Sprintf("%d", a.N)
}
