package x86

import (
	"github.com/lunixbochs/wincorn/go/models"
)

var Arch = &models.Arch{
	Name: "x86",
	Bits: 32,

	PC:  EIP,
	SP:  ESP,
	Ret: EAX,
	Regs: map[string]int{
		"eip":    EIP,
		"esp":    ESP,
		"ebp":    EBP,
		"eax":    EAX,
		"ebx":    EBX,
		"ecx":    ECX,
		"edx":    EDX,
		"esi":    ESI,
		"edi":    EDI,
		"eflags": EFLAGS,
	},

	DefaultConv: models.Stdcall,
	Conv: map[models.CallConv]*models.ConvSpec{
		models.Stdcall:  {CalleeCleanup: true},
		models.Cdecl:    {},
		models.Fastcall: {Regs: []int{ECX, EDX}, CalleeCleanup: true},
		models.Thiscall: {Regs: []int{ECX}, CalleeCleanup: true},
	},
}
