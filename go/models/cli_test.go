package models

import (
	"bytes"
	"flag"
	"strings"
	"testing"
)

func TestPrintFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("trace", false, "print each intercepted call")
	fs.Int("strsize", 30, strings.Repeat("word ", 30))
	var flags []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })

	var buf bytes.Buffer
	PrintFlags(&buf, flags)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("long usage was not wrapped:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "  -strsize (30)") {
		t.Fatalf("first row: %q", lines[0])
	}
	for _, line := range lines {
		if len(line) > flagWidth {
			t.Errorf("line too long: %q", line)
		}
	}
	if last := lines[len(lines)-1]; !strings.Contains(last, "-trace") || !strings.Contains(last, "(false)") {
		t.Fatalf("last row: %q", last)
	}
}
