package main

import (
	"github.com/lunixbochs/wincorn/go/cmd"

	_ "github.com/lunixbochs/wincorn/go/cmd/shellcode"
	_ "github.com/lunixbochs/wincorn/go/cmd/symbols"
)

func main() { cmd.Main() }
