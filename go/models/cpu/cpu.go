package cpu

// Hook is an opaque handle returned by HookAdd and accepted by HookDel.
type Hook interface{}

// Cpu is the minimum surface the interception layer needs from a CPU emulator.
// The Unicorn backend and the in-memory mock both implement it.
type Cpu interface {
	// memory mapping
	MemMapProt(addr, size uint64, prot int) error
	MemProt(addr, size uint64, prot int) error
	MemUnmap(addr, size uint64) error

	// memory IO
	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error

	// register IO
	RegRead(reg int) (uint64, error)
	RegWrite(reg int, val uint64) error

	// execution
	Start(begin, until uint64) error
	Stop() error

	// HookAdd only needs to support HOOK_CODE with a func(Cpu, uint64, uint32) callback.
	HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (Hook, error)
	HookDel(hook Hook) error

	// save/restore register state around nested execution
	ContextSave(reuse interface{}) (interface{}, error)
	ContextRestore(ctx interface{}) error

	Close() error
}
