// walk.go - LocalWalker, a NodeStream over a live directory tree
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

// Package walk turns a live directory tree into the linearized event
// stream the rest of asure operates on.
package walk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"

	"github.com/opencoff/go-logger"

	"github.com/d3zd3z/asure2"
	"github.com/d3zd3z/asure2/hash"
)

// Options configures a LocalWalker.
type Options struct {
	// OneFS stops the walker from descending into a mounted
	// filesystem other than the root's: a fingerprint tool that
	// silently fingerprinted a different filesystem tree mounted
	// underneath the one it was pointed at would be reporting on the
	// wrong data. New sets it to true only when given a nil
	// *Options; a caller-supplied Options is used as given, so one
	// that leaves OneFS unset (false) crosses filesystem boundaries.
	OneFS bool

	// Excludes is a list of shell glob patterns (matched against a
	// bare entry name, not a full path) to omit from the stream
	// entirely -- no ENTER/NODE is ever produced for a match.
	Excludes []string

	// Log receives warnings for entries that are skipped because
	// they could not be lstat'd, opened, or read. A nil Log discards
	// warnings.
	Log logger.Logger

	// Prefetch, if > 0, starts that many background goroutines that
	// hash regular files ahead of the walker reaching their NODE
	// event. It never changes the emitted stream, but every regular
	// file is then hashed as soon as its directory is listed, whether
	// or not a consumer ever asks for its digest.
	Prefetch int
}

// frame tracks one directory's traversal progress: which of its
// subdirectories and files (both pre-sorted by name) have already been
// emitted.
type frame struct {
	path string
	name string
	atts asure.Atts

	dirs  []string
	files []string

	dirPos   int
	filePos  int
	pastMark bool
}

// LocalWalker is a NodeStream over a live directory tree, rooted at the
// path given to New.
type LocalWalker struct {
	opt     Options
	rootDev uint64
	log     logger.Logger

	stack []*frame
	cur   asure.Node
	pf    *prefetcher

	pendingDone bool
	finished    bool
}

var _ asure.NodeStream = (*LocalWalker)(nil)

// warn logs a skipped-entry warning if the caller configured a Log.
func (w *LocalWalker) warn(path string, err error) {
	if w.log != nil {
		w.log.Warn("%s: %s", path, err)
	}
}

// New opens path (which must be a directory) and positions the
// returned walker at its ENTER event. A nil Options defaults to
// OneFS: true and no prefetch.
func New(path string, opt *Options) (*LocalWalker, error) {
	if opt == nil {
		opt = &Options{OneFS: true}
	}

	var st syscall.Stat_t
	if err := syscall.Lstat(path, &st); err != nil {
		return nil, &asure.IOError{Op: "lstat", Path: path, Err: err}
	}
	if st.Mode&syscall.S_IFMT != syscall.S_IFDIR {
		return nil, &asure.IOError{Op: "lstat", Path: path, Err: fmt.Errorf("not a directory")}
	}

	w := &LocalWalker{opt: *opt, rootDev: st.Dev, log: opt.Log}
	if w.opt.Prefetch > 0 {
		w.pf = newPrefetcher(w.opt.Prefetch)
	}

	root := &frame{path: path, name: "__root__", atts: dirAtts(&st)}
	if err := w.loadChildren(root); err != nil {
		return nil, err
	}

	w.stack = []*frame{root}
	w.cur = asure.Node{Kind: asure.ENTER, Name: root.name, Atts: root.atts}
	return w, nil
}

func (w *LocalWalker) Done() bool           { return w.finished }
func (w *LocalWalker) Current() *asure.Node { return &w.cur }

func (w *LocalWalker) Close() error {
	if w.pf != nil {
		w.pf.close()
	}
	return nil
}

// Advance steps the state machine by exactly one event. The top frame's
// own position fields (dirPos/pastMark/filePos) drive what happens
// next; a directory's worth of subdirectories, its MARK, and its files
// are each consumed in turn before the frame is popped and its LEAVE
// emitted. The final LEAVE (the root's) is delivered one call before
// Done() becomes true, mirroring the almost-done/done pair a two-phase
// cursor needs to avoid losing that last event.
func (w *LocalWalker) Advance() error {
	if w.pendingDone {
		w.finished = true
		return nil
	}

	top := w.stack[len(w.stack)-1]

	if !top.pastMark {
		for top.dirPos < len(top.dirs) {
			name := top.dirs[top.dirPos]
			top.dirPos++

			nf, err := w.enter(top, name)
			if err != nil {
				w.warn(filepath.Join(top.path, name), err)
				continue
			}
			w.stack = append(w.stack, nf)
			w.cur = asure.Node{Kind: asure.ENTER, Name: nf.name, Atts: nf.atts}
			return nil
		}
		top.pastMark = true
		w.cur = asure.Node{Kind: asure.MARK}
		return nil
	}

	for top.filePos < len(top.files) {
		name := top.files[top.filePos]
		top.filePos++

		atts, err := w.fileAtts(top, name)
		if err != nil {
			if isHashError(err) {
				return err
			}
			w.warn(filepath.Join(top.path, name), err)
			continue
		}
		w.cur = asure.Node{Kind: asure.NODE, Name: name, Atts: atts}
		return nil
	}

	w.cur = asure.Node{Kind: asure.LEAVE}
	w.stack = w.stack[:len(w.stack)-1]
	if len(w.stack) == 0 {
		w.pendingDone = true
	}
	return nil
}

// enter lstats a subdirectory named under parent, applies the exclude
// and device-boundary policy, and (if admitted) loads its children. A
// non-nil error means the caller should omit this subdirectory's ENTER
// entirely; it is never fatal to the overall walk.
func (w *LocalWalker) enter(parent *frame, name string) (*frame, error) {
	if w.excluded(name) {
		return nil, fmt.Errorf("excluded")
	}

	full := filepath.Join(parent.path, name)
	var st syscall.Stat_t
	if err := syscall.Lstat(full, &st); err != nil {
		return nil, &asure.IOError{Op: "lstat", Path: full, Err: err}
	}
	if w.opt.OneFS && st.Dev != w.rootDev {
		return nil, fmt.Errorf("different filesystem, not descending")
	}

	nf := &frame{path: full, name: name, atts: dirAtts(&st)}
	if err := w.loadChildren(nf); err != nil {
		// A directory whose contents can't be listed is omitted
		// like any other unreadable entry; the caller warns.
		return nil, err
	}
	return nf, nil
}

// loadChildren lists f's contents and classifies each into f.dirs or
// f.files, both sorted by name for emission; names matching Excludes
// are left out. Callers decide whether a listing failure is fatal: New
// treats it as fatal for the root, enter makes the caller warn and omit
// every other directory.
func (w *LocalWalker) loadChildren(f *frame) error {
	ents, err := asure.ListInode(f.path)
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(ents))
	files := make([]string, 0, len(ents))
	for _, e := range ents {
		if w.excluded(e.Name) {
			continue
		}
		full := filepath.Join(f.path, e.Name)
		var st syscall.Stat_t
		if err := syscall.Lstat(full, &st); err != nil {
			w.warn(full, err)
			continue
		}
		if st.Mode&syscall.S_IFMT == syscall.S_IFDIR {
			dirs = append(dirs, e.Name)
			continue
		}
		files = append(files, e.Name)
		if w.pf != nil && st.Mode&syscall.S_IFMT == syscall.S_IFREG {
			w.pf.submit(full)
		}
	}

	sort.Strings(dirs)
	sort.Strings(files)
	f.dirs = dirs
	f.files = files
	return nil
}

func (w *LocalWalker) excluded(name string) bool {
	for _, pat := range w.opt.Excludes {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// fileAtts derives the attribute map for a non-directory entry named
// under parent.
func (w *LocalWalker) fileAtts(parent *frame, name string) (asure.Atts, error) {
	full := filepath.Join(parent.path, name)
	var st syscall.Stat_t
	if err := syscall.Lstat(full, &st); err != nil {
		return asure.Atts{}, &asure.IOError{Op: "lstat", Path: full, Err: err}
	}

	switch st.Mode & syscall.S_IFMT {
	case syscall.S_IFREG:
		cheap := regularCheapAtts(&st)
		if w.pf != nil {
			if sum, err, ok := w.pf.result(full); ok {
				if err != nil {
					return asure.Atts{}, &asure.IOError{Op: "hash", Path: full, Err: err}
				}
				return asure.NewComputedAtts(cheap, hash.Key, sum), nil
			}
		}
		return asure.NewLazyAtts(cheap, hash.Key, func() (string, string, error) {
			sum, err := hashOfFile(full)
			return hash.Key, sum, err
		}), nil

	case syscall.S_IFLNK:
		cheap := map[string]string{asure.AttKind: asure.KindLnk}
		return asure.NewLazyAtts(cheap, asure.AttTarg, func() (string, string, error) {
			targ, err := os.Readlink(full)
			return asure.AttTarg, targ, err
		}), nil

	case syscall.S_IFSOCK:
		return asure.NewAtts(specialAtts(asure.KindSock, &st)), nil

	case syscall.S_IFIFO:
		return asure.NewAtts(specialAtts(asure.KindFifo, &st)), nil

	case syscall.S_IFBLK:
		return asure.NewAtts(deviceAtts(asure.KindBlk, &st)), nil

	case syscall.S_IFCHR:
		return asure.NewAtts(deviceAtts(asure.KindChr, &st)), nil

	default:
		return asure.Atts{}, &asure.IOError{Op: "lstat", Path: full, Err: fmt.Errorf("unsupported mode %#o", st.Mode)}
	}
}

func dirAtts(st *syscall.Stat_t) asure.Atts {
	return asure.NewAtts(map[string]string{
		asure.AttKind: asure.KindDir,
		asure.AttUid:  itoa(int64(st.Uid)),
		asure.AttGid:  itoa(int64(st.Gid)),
		asure.AttPerm: permString(st),
	})
}

func regularCheapAtts(st *syscall.Stat_t) map[string]string {
	return map[string]string{
		asure.AttKind:  asure.KindFile,
		asure.AttUid:   itoa(int64(st.Uid)),
		asure.AttGid:   itoa(int64(st.Gid)),
		asure.AttPerm:  permString(st),
		asure.AttMtime: itoa(mtimeSec(st)),
		asure.AttCtime: itoa(ctimeSec(st)),
		asure.AttIno:   itoa(int64(st.Ino)),
	}
}

func specialAtts(kind string, st *syscall.Stat_t) map[string]string {
	return map[string]string{
		asure.AttKind: kind,
		asure.AttUid:  itoa(int64(st.Uid)),
		asure.AttGid:  itoa(int64(st.Gid)),
		asure.AttPerm: permString(st),
	}
}

func deviceAtts(kind string, st *syscall.Stat_t) map[string]string {
	m := specialAtts(kind, st)
	m[asure.AttDevMaj] = itoa(int64(major(uint64(st.Rdev))))
	m[asure.AttDevMin] = itoa(int64(minor(uint64(st.Rdev))))
	return m
}

func permString(st *syscall.Stat_t) string {
	return itoa(int64(st.Mode &^ syscall.S_IFMT))
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// isHashError reports whether err came from a failed prefetched
// content-hash computation (an IOError with Op "hash"; a lazily
// computed hash reports its error from Atts.Full instead), which is
// fatal to the current scan
// per the "incomplete surefile" error policy, as opposed to a per-entry
// lstat/opendir/readlink failure, which is warn-and-omit.
func isHashError(err error) bool {
	var ioErr *asure.IOError
	if !errors.As(err, &ioErr) {
		return false
	}
	return ioErr.Op == "hash"
}
