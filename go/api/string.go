package api

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/lunixbochs/wincorn/go/emu"
)

const DefaultMaxString = 0x10000

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ANSI strings use the Windows-1252 code page: one byte per character.
var ansi = charmap.Windows1252

// ReadString reads a NUL-terminated string of width 1 (ANSI) or 2 (UTF-16LE) units,
// at most max units. A NULL address reads as "".
func ReadString(e *emu.Emu, addr uint64, width, max int) (string, error) {
	if addr == 0 {
		return "", nil
	}
	if width != 1 && width != 2 {
		return "", errors.Errorf("bad character width %d", width)
	}
	if max <= 0 {
		max = DefaultMaxString
	}
	var raw []byte
	limit := uint64(max * width)
	pos := addr
	for uint64(len(raw)) < limit {
		// never read past a page boundary in one go
		chunk := emu.PAGE_SIZE - pos%emu.PAGE_SIZE
		if remain := limit - uint64(len(raw)); chunk > remain {
			chunk = remain
		}
		buf, err := e.MemRead(pos, chunk)
		if err != nil {
			return "", MarshalErr("string", addr, err)
		}
		if end := findNul(raw, buf, width); end >= 0 {
			raw = append(raw, buf...)[:end]
			break
		}
		raw = append(raw, buf...)
		pos += chunk
	}
	if uint64(len(raw)) > limit {
		raw = raw[:limit]
	}
	if width == 1 {
		out, err := ansi.NewDecoder().Bytes(raw)
		if err != nil {
			return "", MarshalErr("ansi string", addr, err)
		}
		return string(out), nil
	}
	out, err := utf16le.NewDecoder().Bytes(raw[:len(raw)&^1])
	if err != nil {
		return "", MarshalErr("utf-16 string", addr, err)
	}
	return string(out), nil
}

// findNul returns the length of the string once buf is appended to prev, or -1.
func findNul(prev, buf []byte, width int) int {
	if width == 1 {
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			return len(prev) + i
		}
		return -1
	}
	start := len(prev) % 2
	if start == 1 && len(buf) > 0 && prev[len(prev)-1] == 0 && buf[0] == 0 {
		return len(prev) - 1
	}
	for i := start; i+1 < len(buf); i += 2 {
		if buf[i] == 0 && buf[i+1] == 0 {
			return len(prev) + i
		}
	}
	return -1
}

func encode(s string, width int) ([]byte, error) {
	if width == 1 {
		// characters outside the code page become SUB
		out, err := encoding.ReplaceUnsupported(ansi.NewEncoder()).Bytes([]byte(s))
		return out, errors.Wrap(err, "ansi encode failed")
	}
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	return out, errors.Wrap(err, "utf-16 encode failed")
}

// EncodeString returns s in the given width, NUL-terminated.
func EncodeString(s string, width int) ([]byte, error) {
	out, err := encode(s, width)
	if err != nil {
		return nil, err
	}
	return append(out, make([]byte, width)...), nil
}

// EncodeStringN is EncodeString cut to at most max units before the terminator.
// A surrogate pair is never split. It also returns the unit count without terminator.
func EncodeStringN(s string, width, max int) ([]byte, int, error) {
	if width != 1 && width != 2 {
		return nil, 0, errors.Errorf("bad character width %d", width)
	}
	out, err := encode(s, width)
	if err != nil {
		return nil, 0, err
	}
	if max < 0 {
		max = 0
	}
	n := len(out) / width
	if n > max {
		n = max
		if width == 2 && n > 0 {
			if u := uint16(out[2*n-2]) | uint16(out[2*n-1])<<8; u >= 0xd800 && u < 0xdc00 {
				n--
			}
		}
	}
	out = append(out[:n*width], make([]byte, width)...)
	return out, n, nil
}

// WriteString writes s plus terminator and returns the bytes written. NULL is a no-op.
func WriteString(e *emu.Emu, addr uint64, s string, width int) (int, error) {
	if addr == 0 {
		return 0, nil
	}
	buf, err := EncodeString(s, width)
	if err != nil {
		return 0, err
	}
	if err := e.MemWrite(addr, buf); err != nil {
		return 0, MarshalErr("string", addr, err)
	}
	return len(buf), nil
}

// WriteStringN writes at most max units of s plus terminator and returns the units
// written before the terminator. NULL is a no-op.
func WriteStringN(e *emu.Emu, addr uint64, s string, width, max int) (int, error) {
	if addr == 0 {
		return 0, nil
	}
	buf, n, err := EncodeStringN(s, width, max)
	if err != nil {
		return 0, err
	}
	if err := e.MemWrite(addr, buf); err != nil {
		return 0, MarshalErr("string", addr, err)
	}
	return n, nil
}

// CharLen is the length of s in width-sized units, without terminator.
func CharLen(s string, width int) int {
	if width != 2 {
		width = 1
	}
	buf, err := encode(s, width)
	if err != nil {
		return 0
	}
	return len(buf) / width
}
