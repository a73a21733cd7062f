package models

import (
	"github.com/lunixbochs/wincorn/go/models/cpu"
)

// MemIO is a cursor over guest memory usable as an io.ReadWriter.
type MemIO struct {
	Cpu  cpu.Cpu
	Addr uint64
}

func (m *MemIO) Read(p []byte) (int, error) {
	if err := m.Cpu.MemReadInto(p, m.Addr); err != nil {
		return 0, err
	}
	m.Addr += uint64(len(p))
	return len(p), nil
}

func (m *MemIO) Write(p []byte) (int, error) {
	if err := m.Cpu.MemWrite(m.Addr, p); err != nil {
		return 0, err
	}
	m.Addr += uint64(len(p))
	return len(p), nil
}
