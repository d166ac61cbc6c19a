// quote.go - the surefile qstring: a space-terminated, =HH-escaped token
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package surefile

import (
	"fmt"

	"github.com/d3zd3z/asure2"
)

// byteWriter is the subset of bufio.Writer (and bytes.Buffer) quoteString
// needs.
type byteWriter interface {
	WriteByte(byte) error
}

// byteReader is the subset of bufio.Reader readQString needs.
type byteReader interface {
	ReadByte() (byte, error)
}

// quoteString writes s to w, escaping every byte that is '=' or not a
// printable non-space ASCII graphic character as "=HH" (lowercase hex),
// and terminating with a single space. This is the only place a qstring
// can end, so the terminator is never itself escaped.
func quoteString(w byteWriter, s string) error {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b != '=' && isGraphic(b) {
			if err := w.WriteByte(b); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteByte('='); err != nil {
			return err
		}
		if err := w.WriteByte(hexDigit(b >> 4)); err != nil {
			return err
		}
		if err := w.WriteByte(hexDigit(b & 0xf)); err != nil {
			return err
		}
	}
	return w.WriteByte(' ')
}

// readQString reads a qstring from r up to (and consuming) its
// terminating unescaped space.
func readQString(r byteReader) (string, error) {
	var out []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case ' ':
			return string(out), nil
		case '=':
			hi, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			lo, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			v, err := dehex(hi, lo)
			if err != nil {
				return "", err
			}
			out = append(out, v)
		default:
			out = append(out, b)
		}
	}
}

func isGraphic(b byte) bool {
	return b > 0x20 && b < 0x7f
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}

func dehex(hi, lo byte) (byte, error) {
	h, ok := hexVal(hi)
	if !ok {
		return 0, &asure.ParseError{Msg: fmt.Sprintf("invalid hex escape character %q", hi)}
	}
	l, ok := hexVal(lo)
	if !ok {
		return 0, &asure.ParseError{Msg: fmt.Sprintf("invalid hex escape character %q", lo)}
	}
	return h<<4 | l, nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}
