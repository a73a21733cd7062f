package models

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const flagWidth = 80

// wrap splits s on spaces into lines of at most width characters.
func wrap(s string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		if line != "" && len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

// PrintFlags writes flags as aligned "-name (default) usage" rows, wrapping usage text.
func PrintFlags(w io.Writer, flags []*flag.Flag) {
	wname, wdef := 0, 0
	for _, f := range flags {
		if len(f.Name) > wname {
			wname = len(f.Name)
		}
		if len(f.DefValue)+2 > wdef {
			wdef = len(f.DefValue) + 2
		}
	}
	indent := strings.Repeat(" ", wname+wdef+5)
	width := flagWidth - len(indent)
	if width < 20 {
		width = 20
	}
	for _, f := range flags {
		def := ""
		if f.DefValue != "" && f.DefValue != "[]" {
			def = "(" + f.DefValue + ")"
		}
		for i, line := range wrap(f.Usage, width) {
			if i == 0 {
				fmt.Fprintf(w, "  -%-*s %-*s %s\n", wname, f.Name, wdef, def, line)
			} else {
				fmt.Fprintf(w, "%s%s\n", indent, line)
			}
		}
	}
}
