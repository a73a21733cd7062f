package api

import (
	"fmt"
	"strings"
)

// a parsed printf conversion
type conv struct {
	flags, width, prec string
	length             string
	verb               byte
	starWidth          bool
	starPrec           bool
}

// args consumed by this conversion
func (c *conv) count() int {
	if c.verb == '%' {
		return 0
	}
	n := 1
	if c.starWidth {
		n++
	}
	if c.starPrec {
		n++
	}
	return n
}

// parseFormat splits a printf/wsprintf format into literals and conversions.
func parseFormat(f string) (lits []string, convs []*conv) {
	var lit strings.Builder
	for i := 0; i < len(f); i++ {
		if f[i] != '%' {
			lit.WriteByte(f[i])
			continue
		}
		c := &conv{}
		j := i + 1
		for j < len(f) && strings.IndexByte("-+ #0", f[j]) >= 0 {
			j++
		}
		c.flags = f[i+1 : j]
		if j < len(f) && f[j] == '*' {
			c.starWidth = true
			j++
		} else {
			k := j
			for j < len(f) && f[j] >= '0' && f[j] <= '9' {
				j++
			}
			c.width = f[k:j]
		}
		if j < len(f) && f[j] == '.' {
			j++
			if j < len(f) && f[j] == '*' {
				c.starPrec = true
				j++
			} else {
				k := j
				for j < len(f) && f[j] >= '0' && f[j] <= '9' {
					j++
				}
				c.prec = f[k:j]
				if c.prec == "" {
					c.prec = "0"
				}
			}
		}
		k := j
		for j < len(f) && strings.IndexByte("hlLqjztwI", f[j]) >= 0 {
			j++
			// I32 / I64
			if f[j-1] == 'I' && j+1 < len(f) && (f[j:j+2] == "32" || f[j:j+2] == "64") {
				j += 2
			}
		}
		c.length = f[k:j]
		if j >= len(f) {
			// dangling '%', keep it as text
			lit.WriteString(f[i:])
			break
		}
		c.verb = f[j]
		lits = append(lits, lit.String())
		lit.Reset()
		convs = append(convs, c)
		i = j
	}
	lits = append(lits, lit.String())
	return lits, convs
}

// CountFormatArgs returns how many variadic arguments a format string consumes.
func CountFormatArgs(f string) int {
	_, convs := parseFormat(f)
	n := 0
	for _, c := range convs {
		n += c.count()
	}
	return n
}

// Formatter renders printf-style format strings against guest argument values.
// Wide selects the W-function meaning of %s/%c.
type Formatter struct {
	Wide    bool
	PtrSize int
	ReadStr func(addr uint64, width int) (string, error)
}

func (f *Formatter) Format(format string, args []uint64) (string, error) {
	lits, convs := parseFormat(format)
	var out strings.Builder
	next := func() uint64 {
		if len(args) == 0 {
			return 0
		}
		v := args[0]
		args = args[1:]
		return v
	}
	for i, c := range convs {
		out.WriteString(lits[i])
		width, prec := c.width, c.prec
		if c.starWidth {
			width = fmt.Sprint(int32(next()))
		}
		if c.starPrec {
			prec = fmt.Sprint(int32(next()))
		}
		spec := "%" + c.flags + width
		if prec != "" {
			spec += "." + prec
		}
		switch c.verb {
		case '%':
			out.WriteByte('%')
		case 'd', 'i':
			v := next()
			if f.is64(c) {
				out.WriteString(fmt.Sprintf(spec+"d", int64(v)))
			} else {
				out.WriteString(fmt.Sprintf(spec+"d", int32(v)))
			}
		case 'u':
			v := next()
			if !f.is64(c) {
				v = uint64(uint32(v))
			}
			out.WriteString(fmt.Sprintf(spec+"d", v))
		case 'x', 'X', 'o':
			v := next()
			if !f.is64(c) {
				v = uint64(uint32(v))
			}
			out.WriteString(fmt.Sprintf(spec+string(c.verb), v))
		case 'p':
			out.WriteString(fmt.Sprintf("%0*X", f.PtrSize*2, next()))
		case 'c', 'C':
			out.WriteString(fmt.Sprintf("%"+c.flags+width+"c", rune(uint16(next()))))
		case 's', 'S':
			s, err := f.ReadStr(next(), f.strWidth(c))
			if err != nil {
				return "", err
			}
			out.WriteString(fmt.Sprintf(spec+"s", s))
		default:
			// unknown conversion, consume its argument and print it raw
			next()
			out.WriteByte('%')
			out.WriteByte(c.verb)
		}
	}
	out.WriteString(lits[len(lits)-1])
	return out.String(), nil
}

func (f *Formatter) is64(c *conv) bool {
	switch c.length {
	case "ll", "I64", "q", "j":
		return true
	case "I", "z", "t":
		return f.PtrSize == 8
	}
	return false
}

// %s follows the function's own width, %S the opposite; h and l force one.
func (f *Formatter) strWidth(c *conv) int {
	switch {
	case strings.Contains(c.length, "h"):
		return 1
	case strings.Contains(c.length, "l") || strings.Contains(c.length, "w"):
		return 2
	}
	wide := f.Wide
	if c.verb == 'S' {
		wide = !wide
	}
	if wide {
		return 2
	}
	return 1
}
