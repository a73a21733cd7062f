package x86_64

import (
	"github.com/lunixbochs/wincorn/go/arch/x86"
	"github.com/lunixbochs/wincorn/go/models"
)

// every convention collapses to the Microsoft x64 ABI
var win64 = &models.ConvSpec{
	Regs:   []int{x86.RCX, x86.RDX, x86.R8, x86.R9},
	Shadow: 0x20,
}

var Arch = &models.Arch{
	Name: "x86_64",
	Bits: 64,

	PC:  x86.RIP,
	SP:  x86.RSP,
	Ret: x86.RAX,
	Regs: map[string]int{
		"rip":    x86.RIP,
		"rsp":    x86.RSP,
		"rbp":    x86.RBP,
		"rax":    x86.RAX,
		"rbx":    x86.RBX,
		"rcx":    x86.RCX,
		"rdx":    x86.RDX,
		"rsi":    x86.RSI,
		"rdi":    x86.RDI,
		"r8":     x86.R8,
		"r9":     x86.R9,
		"r10":    x86.R10,
		"r11":    x86.R11,
		"r12":    x86.R12,
		"r13":    x86.R13,
		"r14":    x86.R14,
		"r15":    x86.R15,
		"rflags": x86.RFLAGS,
	},

	DefaultConv: models.Win64,
	Conv: map[models.CallConv]*models.ConvSpec{
		models.Stdcall:  win64,
		models.Cdecl:    win64,
		models.Fastcall: win64,
		models.Thiscall: win64,
		models.Win64:    win64,
	},
}
