// node.go - the linearized tree event model
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

// Package asure detects unauthorized changes to a directory tree by
// periodically scanning it, persisting a structural and attribute
// fingerprint of every entry (the surefile), and comparing a fresh scan
// against the stored one.
package asure

import "sort"

// Kind identifies the four event kinds in a linearized tree stream.
type Kind uint8

const (
	// ENTER marks the start of a directory; it is followed by zero or
	// more subdir ENTER..LEAVE groups, a MARK, zero or more NODEs, and
	// a closing LEAVE.
	ENTER Kind = iota
	// MARK separates a directory's subdirectories from its files.
	MARK
	// NODE describes a single non-directory entry (file, symlink,
	// socket, fifo, or device node).
	NODE
	// LEAVE closes the directory opened by the matching ENTER.
	LEAVE
)

func (k Kind) String() string {
	switch k {
	case ENTER:
		return "ENTER"
	case MARK:
		return "MARK"
	case NODE:
		return "NODE"
	case LEAVE:
		return "LEAVE"
	default:
		return "?"
	}
}

// Entry kind values stored under the "kind" attribute key.
const (
	KindDir  = "dir"
	KindFile = "file"
	KindLnk  = "lnk"
	KindSock = "sock"
	KindFifo = "fifo"
	KindBlk  = "blk"
	KindChr  = "chr"
)

// Attribute keys used across the attribute map. Kept here so the codec,
// comparator and updater never duplicate the literal strings.
const (
	AttKind   = "kind"
	AttUid    = "uid"
	AttGid    = "gid"
	AttPerm   = "perm"
	AttMtime  = "mtime"
	AttCtime  = "ctime"
	AttIno    = "ino"
	AttTarg   = "targ"
	AttDevMaj = "devmaj"
	AttDevMin = "devmin"
	AttSha1   = "sha1"
	AttMd5    = "md5"
)

// Node is one event in a linearized tree stream. ENTER and NODE carry a
// name and attribute map; MARK and LEAVE carry neither. A Node is
// transient: callers must not retain it (or its Atts) past the next
// Advance on the stream that produced it.
type Node struct {
	Kind Kind
	Name string
	Atts Atts
}

// ExpensiveCompute lazily derives the single "expensive" attribute of an
// entry (a content hash for files, a symlink target for links). It is
// invoked at most once; its result is memoized by Atts.
type ExpensiveCompute func() (key, val string, err error)

// Atts is an entry's attribute map. The "cheap" attributes (everything
// derivable from a single lstat) are fixed at construction time;
// the single "expensive" attribute (content hash, or symlink target) is
// computed lazily and memoized on first access, so a caller that never
// asks for it never pays for it.
//
// The zero value is a valid, empty, non-lazy Atts (used for MARK/LEAVE
// where no attribute map applies, and in tests).
type Atts struct {
	cheap   map[string]string
	expKey  string
	compute ExpensiveCompute

	computed bool
	expVal   string
	expErr   error
}

// NewAtts builds an Atts with the given cheap attributes and no
// expensive attribute.
func NewAtts(cheap map[string]string) Atts {
	return Atts{cheap: cheap}
}

// NewLazyAtts builds an Atts whose expensive attribute (keyed expKey) is
// computed on first access via compute.
func NewLazyAtts(cheap map[string]string, expKey string, compute ExpensiveCompute) Atts {
	return Atts{cheap: cheap, expKey: expKey, compute: compute}
}

// NewComputedAtts builds an Atts whose expensive attribute is already
// known (e.g. hoisted from a previous scan); compute is never invoked.
func NewComputedAtts(cheap map[string]string, expKey, expVal string) Atts {
	return Atts{cheap: cheap, expKey: expKey, computed: true, expVal: expVal}
}

// Cheap returns the cheap attributes only, never triggering the
// expensive computation. Callers must not mutate the returned map.
func (a *Atts) Cheap() map[string]string {
	return a.cheap
}

// Get returns one cheap attribute's value.
func (a *Atts) Get(key string) (string, bool) {
	v, ok := a.cheap[key]
	return v, ok
}

// ExpensiveKey returns the name of the expensive attribute this entry
// would carry ("sha1" for files, "targ" for symlinks), or "" if this
// entry has none.
func (a *Atts) ExpensiveKey() string {
	return a.expKey
}

// Computed reports whether the expensive attribute has already been
// evaluated (either because it was hoisted in, or because some earlier
// caller already asked for it).
func (a *Atts) Computed() bool {
	return a.expKey == "" || a.computed
}

// Expensive forces evaluation (if not already done) of the expensive
// attribute and returns its key/value. Returns ok=false if this entry
// has no expensive attribute.
func (a *Atts) Expensive() (key, val string, err error, ok bool) {
	if a.expKey == "" {
		return "", "", nil, false
	}
	if !a.computed {
		a.eval()
	}
	return a.expKey, a.expVal, a.expErr, true
}

// eval invokes compute exactly once and memoizes the result.
func (a *Atts) eval() {
	_, val, err := a.compute()
	a.computed = true
	a.expVal = val
	a.expErr = err
}

// Full returns the complete attribute map (cheap plus, if this entry has
// one, the expensive attribute) forcing lazy evaluation if needed. This
// is what the surefile codec and the comparator use; the updater avoids
// it on the hoist path specifically to skip the expensive computation.
func (a *Atts) Full() (map[string]string, error) {
	out := make(map[string]string, len(a.cheap)+1)
	for k, v := range a.cheap {
		out[k] = v
	}
	if a.expKey == "" {
		return out, nil
	}
	if !a.computed {
		a.eval()
	}
	if a.expErr != nil {
		return nil, a.expErr
	}
	out[a.expKey] = a.expVal
	return out, nil
}

// SortedKeys returns the keys of m in ascending lexicographic order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NodeStream is a forward, single-pass cursor over a linearized tree
// event stream. Implementations: the live-filesystem LocalWalker and the
// on-disk surefile Reader.
//
// Current is valid only until the next call to Advance; callers must not
// retain a *Node past that point, nor compare two Nodes by reference.
type NodeStream interface {
	// Done reports whether the cursor is past the last event.
	Done() bool

	// Advance moves to the next event. Its behavior is undefined if
	// Done() is already true.
	Advance() error

	// Current borrows the event the cursor is positioned on.
	Current() *Node

	// Close releases any resources (open file descriptors, gzip
	// state) held by the stream. Safe to call more than once.
	Close() error
}
