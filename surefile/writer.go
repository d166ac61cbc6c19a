// writer.go - atomic surefile generation rotation on write
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
	"os"
	"sync/atomic"

	"github.com/d3zd3z/asure2"
)

// Writer serializes a tree event stream to a surefile's tmp generation
// (base+".0.gz"). A clean Close rotates base+".dat.gz" to
// base+".bak.gz" (ignoring a missing prior generation) and then the tmp
// file into base+".dat.gz". Abort instead unlinks the tmp file, leaving
// the prior generations untouched -- so a writer that crashes or is
// abandoned mid-stream never corrupts what's already on disk.
type Writer struct {
	base string
	fd   *os.File
	gz   *gzip.Writer
	bw   *bufio.Writer

	// closed is 0 while open, 1 once Close or Abort has run; the
	// second of a racing Close/Abort pair is a no-op rather than a
	// double-close panic.
	closed atomic.Int32
}

// Create opens base's tmp generation for writing and emits the surefile
// magic header.
func Create(base string) (*Writer, error) {
	path := base + extTmp
	fd, err := os.Create(path)
	if err != nil {
		return nil, &asure.IOError{Op: "create", Path: path, Err: err}
	}

	gz := gzip.NewWriter(fd)
	bw := bufio.NewWriter(gz)
	if _, err := bw.WriteString(magic); err != nil {
		gz.Close()
		fd.Close()
		return nil, &asure.IOError{Op: "write", Path: path, Err: err}
	}

	return &Writer{base: base, fd: fd, gz: gz, bw: bw}, nil
}

// Put serializes one event. MARK and LEAVE carry no name or attributes;
// ENTER and NODE write the name followed by the full (cheap+expensive,
// key-sorted) attribute map, forcing any lazy expensive attribute to be
// computed now.
func (w *Writer) Put(n *asure.Node) error {
	switch n.Kind {
	case asure.ENTER:
		return w.putRegular('d', n)
	case asure.NODE:
		return w.putRegular('f', n)
	case asure.MARK:
		return w.putSimple('-')
	case asure.LEAVE:
		return w.putSimple('u')
	default:
		return &asure.ParseError{Msg: "unknown event kind"}
	}
}

func (w *Writer) putSimple(code byte) error {
	if err := w.bw.WriteByte(code); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	return nil
}

func (w *Writer) putRegular(code byte, n *asure.Node) error {
	full, err := n.Atts.Full()
	if err != nil {
		return err
	}

	if err := w.bw.WriteByte(code); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	if err := quoteString(w.bw, n.Name); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	if err := w.bw.WriteByte('['); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	for _, k := range asure.SortedKeys(full) {
		if err := quoteString(w.bw, k); err != nil {
			return &asure.IOError{Op: "write", Path: w.base, Err: err}
		}
		if err := quoteString(w.bw, full[k]); err != nil {
			return &asure.IOError{Op: "write", Path: w.base, Err: err}
		}
	}
	if err := w.bw.WriteByte(']'); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	return w.bw.WriteByte('\n')
}

// Close flushes and rotates the generations into place. Safe to call
// more than once; only the first call has effect.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(0, 1) {
		return nil
	}

	if err := w.bw.Flush(); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	if err := w.gz.Close(); err != nil {
		return &asure.IOError{Op: "write", Path: w.base, Err: err}
	}
	if err := w.fd.Close(); err != nil {
		return &asure.IOError{Op: "close", Path: w.base, Err: err}
	}

	tmp, dat, bak := w.base+extTmp, w.base+extBase, w.base+extBak
	if err := os.Rename(dat, bak); err != nil && !os.IsNotExist(err) {
		return &asure.IOError{Op: "rename", Path: dat, Err: err}
	}
	if err := os.Rename(tmp, dat); err != nil {
		return &asure.IOError{Op: "rename", Path: tmp, Err: err}
	}
	return nil
}

// Abort discards the in-progress generation: the prior "dat" and "bak"
// generations are left exactly as they were.
func (w *Writer) Abort() error {
	if !w.closed.CompareAndSwap(0, 1) {
		return nil
	}

	w.gz.Close()
	w.fd.Close()

	tmp := w.base + extTmp
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return &asure.IOError{Op: "unlink", Path: tmp, Err: err}
	}
	return nil
}
