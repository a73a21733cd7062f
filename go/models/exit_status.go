package models

import "fmt"

// ExitStatus is returned when the guest asked to exit, carrying its exit code.
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}
