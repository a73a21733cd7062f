package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lunixbochs/fvbommel-util/sortorder"
)

type command struct {
	name, desc string
	main       func(args []string)
}

var commands = make(map[string]*command)

// Register adds a subcommand. main receives os.Args with argv[0] set to "prog name".
func Register(name, desc string, main func(args []string)) {
	commands[name] = &command{name, desc, main}
}

// Names lists the registered subcommands in natural order.
func Names() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Sort(sortorder.Natural(names))
	return names
}

func usage() {
	pad := 0
	for name := range commands {
		if len(name) > pad {
			pad = len(name)
		}
	}
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range Names() {
		fmt.Fprintf(os.Stderr, "%-*s | %s\n", pad, name, commands[name].desc)
	}
	fmt.Fprintf(os.Stderr, "\nExample: %s shellcode -trace -arch x86 -import kernel32!Sleep 6a64ff15...\n\n", os.Args[0])
}

func Main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Command '%s' not found.\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	args := append([]string{strings.Join(os.Args[:2], " ")}, os.Args[2:]...)
	cmd.main(args)
}
