package cpu

// hook and protection values match Unicorn's so backends can pass them through
// https://github.com/unicorn-engine/unicorn/blob/master/bindings/go/unicorn/unicorn_const.go
const (
	HOOK_INTR  = 1
	HOOK_CODE  = 4
	HOOK_BLOCK = 8
)

// MemError.Enum values
const (
	MEM_READ_UNMAPPED  = 19
	MEM_WRITE_UNMAPPED = 20
	MEM_FETCH_UNMAPPED = 21
)

const (
	PROT_NONE  = 0
	PROT_READ  = 1
	PROT_WRITE = 2
	PROT_EXEC  = 4
	PROT_ALL   = 7
)
