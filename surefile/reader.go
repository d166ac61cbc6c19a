// reader.go - Reader, a NodeStream over an on-disk surefile
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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/d3zd3z/asure2"
)

// Reader is a NodeStream over one surefile generation: the current
// ("dat") one via Open, or the previous ("bak") one via OpenBackup.
// Every attribute a Reader yields is already fully known -- there is
// nothing left to compute lazily, unlike a LocalWalker's nodes.
type Reader struct {
	fd *os.File
	gz *gzip.Reader
	br *bufio.Reader

	depth int
	cur   asure.Node

	pendingDone bool
	finished    bool
}

var _ asure.NodeStream = (*Reader)(nil)

// Open opens base's current generation and positions the reader at its
// first (root ENTER) event.
func Open(base string) (*Reader, error) {
	return openGeneration(base + extBase)
}

// OpenBackup opens base's previous generation (the one a prior write
// rotated out of current), for the signoff comparison of that previous
// generation against the current one.
func OpenBackup(base string) (*Reader, error) {
	return openGeneration(base + extBak)
}

func openGeneration(path string) (*Reader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, &asure.IOError{Op: "open", Path: path, Err: err}
	}

	gz, err := gzip.NewReader(fd)
	if err != nil {
		fd.Close()
		return nil, &asure.IOError{Op: "gunzip", Path: path, Err: err}
	}
	br := bufio.NewReader(gz)

	hdr := make([]byte, len(magic))
	if _, err := io.ReadFull(br, hdr); err != nil || string(hdr) != magic {
		gz.Close()
		fd.Close()
		return nil, &asure.ParseError{Msg: "invalid surefile header"}
	}

	r := &Reader{fd: fd, gz: gz, br: br}
	if err := r.advance(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) Done() bool           { return r.finished }
func (r *Reader) Current() *asure.Node { return &r.cur }

func (r *Reader) Close() error {
	gzErr := r.gz.Close()
	fdErr := r.fd.Close()
	if gzErr != nil {
		return gzErr
	}
	return fdErr
}

func (r *Reader) Advance() error { return r.advance() }

// advance is shared by Open (to position on the first event) and
// Advance.
func (r *Reader) advance() error {
	if r.pendingDone {
		r.finished = true
		return nil
	}

	code, err := r.br.ReadByte()
	if err != nil {
		return &asure.ParseError{Msg: "truncated surefile"}
	}

	switch code {
	case 'd':
		name, atts, err := r.readFull()
		if err != nil {
			return err
		}
		r.cur = asure.Node{Kind: asure.ENTER, Name: name, Atts: asure.NewAtts(atts)}
		r.depth++

	case 'f':
		name, atts, err := r.readFull()
		if err != nil {
			return err
		}
		r.cur = asure.Node{Kind: asure.NODE, Name: name, Atts: asure.NewAtts(atts)}

	case '-':
		r.cur = asure.Node{Kind: asure.MARK}

	case 'u':
		r.cur = asure.Node{Kind: asure.LEAVE}
		r.depth--
		if r.depth == 0 {
			r.pendingDone = true
		}

	default:
		return &asure.ParseError{Msg: fmt.Sprintf("unknown event code %q", code)}
	}

	return r.expect('\n')
}

func (r *Reader) expect(want byte) error {
	got, err := r.br.ReadByte()
	if err != nil {
		return &asure.ParseError{Msg: "truncated surefile"}
	}
	if got != want {
		return &asure.ParseError{Msg: fmt.Sprintf("unexpected byte %q, wanted %q", got, want)}
	}
	return nil
}

// readFull reads a name followed by its bracketed, key-sorted attribute
// list: "name [k1 v1 k2 v2 ...]".
func (r *Reader) readFull() (string, map[string]string, error) {
	name, err := readQString(r.br)
	if err != nil {
		return "", nil, &asure.ParseError{Msg: "truncated name"}
	}
	if err := r.expect('['); err != nil {
		return "", nil, err
	}

	atts := make(map[string]string)
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			return "", nil, &asure.ParseError{Msg: "truncated attribute list"}
		}
		if b == ']' {
			break
		}
		if err := r.br.UnreadByte(); err != nil {
			return "", nil, &asure.ParseError{Msg: "truncated attribute list"}
		}

		key, err := readQString(r.br)
		if err != nil {
			return "", nil, &asure.ParseError{Msg: "truncated attribute key"}
		}
		val, err := readQString(r.br)
		if err != nil {
			return "", nil, &asure.ParseError{Msg: "truncated attribute value"}
		}
		atts[key] = val
	}
	return name, atts, nil
}
