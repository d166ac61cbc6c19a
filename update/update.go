// update.go - two-stream merge producing a refreshed surefile
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

// Package update merges a live scan against a prior surefile, writing a
// new surefile that hoists content hashes forward wherever the
// underlying file provably hasn't changed.
package update

import (
	"github.com/d3zd3z/asure2"
	"github.com/d3zd3z/asure2/surefile"
)

// Merge drives old (the previously recorded tree) and new (a fresh
// scan) through the same lockstep traversal compare.Trees uses, but
// instead of reporting differences it writes new's structure to out,
// one event at a time. A subtree new no longer has is dropped; a
// subtree only new has is copied across untouched; a file present on
// both sides whose ino and ctime are unchanged gets its content hash
// hoisted from old instead of recomputed. Both streams must already be
// positioned at their root ENTER.
func Merge(out *surefile.Writer, old, new asure.NodeStream) error {
	m := &merger{out: out, old: old, new: new}
	return m.dir()
}

type merger struct {
	out      *surefile.Writer
	old, new asure.NodeStream
}

func (m *merger) dir() error {
	if err := m.out.Put(m.new.Current()); err != nil {
		return err
	}
	if err := m.old.Advance(); err != nil {
		return err
	}
	if err := m.new.Advance(); err != nil {
		return err
	}

	for m.old.Current().Kind == asure.ENTER || m.new.Current().Kind == asure.ENTER {
		switch {
		case m.new.Current().Kind != asure.ENTER ||
			(m.old.Current().Kind == asure.ENTER && m.old.Current().Name < m.new.Current().Name):
			if err := skipTree(m.old); err != nil {
				return err
			}
		case m.old.Current().Kind != asure.ENTER || m.old.Current().Name > m.new.Current().Name:
			if err := m.copyTree(); err != nil {
				return err
			}
		default:
			if err := m.dir(); err != nil {
				return err
			}
		}
	}

	// Both cursors now sit on MARK.
	if err := m.out.Put(m.new.Current()); err != nil {
		return err
	}
	if err := m.old.Advance(); err != nil {
		return err
	}
	if err := m.new.Advance(); err != nil {
		return err
	}

	for m.old.Current().Kind == asure.NODE || m.new.Current().Kind == asure.NODE {
		switch {
		case m.new.Current().Kind != asure.NODE ||
			(m.old.Current().Kind == asure.NODE && m.old.Current().Name < m.new.Current().Name):
			// Gone in new: drop, write nothing.
			if err := m.old.Advance(); err != nil {
				return err
			}
		case m.old.Current().Kind != asure.NODE || m.old.Current().Name > m.new.Current().Name:
			// New entry: write as-is.
			if err := m.out.Put(m.new.Current()); err != nil {
				return err
			}
			if err := m.new.Advance(); err != nil {
				return err
			}
		default:
			if err := m.mergeNode(); err != nil {
				return err
			}
			if err := m.old.Advance(); err != nil {
				return err
			}
			if err := m.new.Advance(); err != nil {
				return err
			}
		}
	}

	// Both cursors now sit on LEAVE.
	if err := m.out.Put(m.new.Current()); err != nil {
		return err
	}
	if err := m.old.Advance(); err != nil {
		return err
	}
	return m.new.Advance()
}

// mergeNode writes the NODE pair old and new are both sitting on,
// hoisting old's expensive attribute in place of new's when ino and
// ctime prove the file unchanged -- the one place this package avoids
// triggering new's lazy hash computation.
func (m *merger) mergeNode() error {
	newAtts := m.new.Current().Atts
	newCheap := newAtts.Cheap()

	oldIno, haveOldIno := m.old.Current().Atts.Get(asure.AttIno)
	oldCtime, haveOldCtime := m.old.Current().Atts.Get(asure.AttCtime)
	newIno, haveNewIno := newCheap[asure.AttIno]
	newCtime, haveNewCtime := newCheap[asure.AttCtime]

	unchanged := haveOldIno && haveOldCtime && haveNewIno && haveNewCtime &&
		oldIno == newIno && oldCtime == newCtime

	expKey := newAtts.ExpensiveKey()
	if unchanged && expKey != "" {
		// old is usually a surefile.Reader, whose atts hold the
		// recorded hash as a plain key rather than a lazy expensive
		// attribute, so look the key up in old's full map.
		oldFull, err := m.old.Current().Atts.Full()
		if err != nil {
			return err
		}
		if oldVal, ok := oldFull[expKey]; ok {
			hoisted := asure.Node{
				Kind: asure.NODE,
				Name: m.new.Current().Name,
				Atts: asure.NewComputedAtts(newCheap, expKey, oldVal),
			}
			return m.out.Put(&hoisted)
		}
	}

	return m.out.Put(m.new.Current())
}

// copyTree writes every event of new's current subtree, from the ENTER
// it's sitting on through the matching LEAVE, and advances new past it.
func (m *merger) copyTree() error {
	if err := m.out.Put(m.new.Current()); err != nil {
		return err
	}
	if err := m.new.Advance(); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		cur := m.new.Current()
		if err := m.out.Put(cur); err != nil {
			return err
		}
		switch cur.Kind {
		case asure.ENTER:
			depth++
		case asure.LEAVE:
			depth--
		}
		if err := m.new.Advance(); err != nil {
			return err
		}
	}
	return nil
}

// skipTree advances s past the ENTER it's sitting on through the
// matching LEAVE, writing nothing.
func skipTree(s asure.NodeStream) error {
	if err := s.Advance(); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		switch s.Current().Kind {
		case asure.ENTER:
			depth++
		case asure.LEAVE:
			depth--
		}
		if err := s.Advance(); err != nil {
			return err
		}
	}
	return nil
}
