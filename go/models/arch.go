package models

import (
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/models/cpu"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// Arch describes one guest architecture: its registers and calling conventions.
type Arch struct {
	Name string
	Bits int
	PC   int
	SP   int
	Ret  int
	Regs map[string]int

	// Conv maps every supported calling convention to its layout.
	Conv        map[CallConv]*ConvSpec
	DefaultConv CallConv

	// sorted for RegDump
	regList regList
}

func (a *Arch) PtrSize() int {
	return a.Bits / 8
}

// Spec returns the argument layout of conv on this architecture.
func (a *Arch) Spec(conv CallConv) (*ConvSpec, error) {
	if spec, ok := a.Conv[conv]; ok {
		return spec, nil
	}
	return nil, errors.Errorf("calling convention %s not supported on %s", conv, a.Name)
}

// RegEnums lists every register enum, for register files that need them up front.
func (a *Arch) RegEnums() []int {
	enums := make([]int, 0, len(a.Regs))
	for _, e := range a.Regs {
		enums = append(enums, e)
	}
	sort.Ints(enums)
	return enums
}

func (a *Arch) RegDump(c cpu.Cpu) ([]RegVal, error) {
	if a.regList == nil {
		rl := make(regList, 0, len(a.Regs))
		for n, e := range a.Regs {
			rl = append(rl, Reg{e, n})
		}
		sort.Sort(rl)
		a.regList = rl
	}
	ret := make([]RegVal, len(a.regList))
	for i, r := range a.regList {
		val, err := c.RegRead(r.Enum)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}
