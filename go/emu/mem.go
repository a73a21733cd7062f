package emu

const PAGE_SIZE = 0x1000

func align(addr, size uint64) (uint64, uint64) {
	to := uint64(PAGE_SIZE)
	mask := ^(to - 1)
	right := (addr + size + to - 1) & mask
	addr &= mask
	return addr, right - addr
}
