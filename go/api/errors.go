package api

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrBadArity    = errors.New("invalid arity")
	ErrNoImpl      = errors.New("handler has no implementation")
	ErrBadPattern  = errors.New("invalid hook pattern")
	ErrDepthLimit  = errors.New("guest callback nesting limit reached")
	ErrNoGuestCall = errors.New("guest callbacks unavailable")
)

// MarshalError means guest memory for an argument or string could not be accessed.
// The call fails, the session keeps running.
type MarshalError struct {
	Op   string
	Addr uint64
	Err  error
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("marshal %s at %#x: %v", e.Op, e.Addr, e.Err)
}

func (e *MarshalError) Cause() error {
	return e.Err
}

// CorruptionError means the guest's stack or registers are unusable. It ends the session.
type CorruptionError struct {
	What string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("address space corrupted (%s): %v", e.What, e.Err)
}

func (e *CorruptionError) Cause() error {
	return e.Err
}

func MarshalErr(op string, addr uint64, err error) error {
	return &MarshalError{Op: op, Addr: addr, Err: err}
}

func CorruptionErr(what string, err error) error {
	return &CorruptionError{What: what, Err: err}
}

type causer interface {
	Cause() error
}

// errors.Cause would step past our own types, so walk the chain by hand.
func walk(err error, match func(error) bool) bool {
	for err != nil {
		if match(err) {
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}

func IsMarshal(err error) bool {
	return walk(err, func(e error) bool {
		_, ok := e.(*MarshalError)
		return ok
	})
}

func IsCorruption(err error) bool {
	return walk(err, func(e error) bool {
		_, ok := e.(*CorruptionError)
		return ok
	})
}
