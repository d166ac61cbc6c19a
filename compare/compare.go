// compare.go - structural diff between two tree event streams
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

// Package compare walks two NodeStreams in lockstep and reports every
// entry whose presence or non-volatile attributes differ.
package compare

import (
	"fmt"
	"io"
	"strings"

	"github.com/d3zd3z/asure2"
)

// Trees compares old against new -- both must already be positioned at
// their root ENTER event -- and writes one line per difference to w.
// ctime and ino are never compared: a file whose content is unchanged
// may legitimately carry different values for both across a rescan or
// a filesystem copy.
func Trees(w io.Writer, old, new asure.NodeStream) error {
	c := &comparer{w: w, old: old, new: new}
	return c.dir(".")
}

type comparer struct {
	w        io.Writer
	old, new asure.NodeStream
}

// dir compares the ENTER pair the cursors are currently sitting on,
// then their subdirectories, then their files, consuming through the
// matching LEAVE pair. path is this directory's already-joined path.
func (c *comparer) dir(path string) error {
	if err := c.compareAtts(path); err != nil {
		return err
	}
	if err := c.old.Advance(); err != nil {
		return err
	}
	if err := c.new.Advance(); err != nil {
		return err
	}

	for c.old.Current().Kind == asure.ENTER || c.new.Current().Kind == asure.ENTER {
		switch {
		case c.new.Current().Kind != asure.ENTER ||
			(c.old.Current().Kind == asure.ENTER && c.old.Current().Name < c.new.Current().Name):
			if err := c.skipOld(path); err != nil {
				return err
			}
		case c.old.Current().Kind != asure.ENTER || c.old.Current().Name > c.new.Current().Name:
			if err := c.skipNew(path); err != nil {
				return err
			}
		default:
			name := c.old.Current().Name
			if err := c.dir(path + "/" + name); err != nil {
				return err
			}
		}
	}

	// Both cursors now sit on MARK.
	if err := c.old.Advance(); err != nil {
		return err
	}
	if err := c.new.Advance(); err != nil {
		return err
	}

	for c.old.Current().Kind == asure.NODE || c.new.Current().Kind == asure.NODE {
		switch {
		case c.new.Current().Kind != asure.NODE ||
			(c.old.Current().Kind == asure.NODE && c.old.Current().Name < c.new.Current().Name):
			fmt.Fprintf(c.w, "%-25s%s\n", "- file", path+"/"+c.old.Current().Name)
			if err := c.old.Advance(); err != nil {
				return err
			}
		case c.old.Current().Kind != asure.NODE || c.old.Current().Name > c.new.Current().Name:
			fmt.Fprintf(c.w, "%-25s%s\n", "+ file", path+"/"+c.new.Current().Name)
			if err := c.new.Advance(); err != nil {
				return err
			}
		default:
			name := c.old.Current().Name
			if err := c.compareAtts(path + "/" + name); err != nil {
				return err
			}
			if err := c.old.Advance(); err != nil {
				return err
			}
			if err := c.new.Advance(); err != nil {
				return err
			}
		}
	}

	// Both cursors now sit on LEAVE; advance both past it, so the
	// caller resumes at whatever follows this directory.
	if err := c.old.Advance(); err != nil {
		return err
	}
	return c.new.Advance()
}

// skipOld reports a subtree present only on the old side and consumes
// it without recursing into its contents.
func (c *comparer) skipOld(path string) error {
	fmt.Fprintf(c.w, "%-25s%s\n", "- dir", path+"/"+c.old.Current().Name)
	return skipTree(c.old)
}

// skipNew reports a subtree present only on the new side.
func (c *comparer) skipNew(path string) error {
	fmt.Fprintf(c.w, "%-25s%s\n", "+ dir", path+"/"+c.new.Current().Name)
	return skipTree(c.new)
}

// skipTree advances s past the ENTER it's sitting on through the
// matching LEAVE, without examining anything in between.
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

// compareAtts compares the full attribute maps (minus ctime/ino) of the
// entries old and new are both currently sitting on, reporting missing,
// extra, and differing-value keys.
func (c *comparer) compareAtts(path string) error {
	loldFull, err := c.old.Current().Atts.Full()
	if err != nil {
		return err
	}
	lnewFull, err := c.new.Current().Atts.Full()
	if err != nil {
		return err
	}

	lold := stripVolatile(loldFull)
	lnew := stripVolatile(lnewFull)

	lkeys := asure.SortedKeys(lold)
	rkeys := asure.SortedKeys(lnew)

	var diffs []string
	i, j := 0, 0
	for i < len(lkeys) && j < len(rkeys) {
		switch {
		case lkeys[i] < rkeys[j]:
			fmt.Fprintf(c.w, "Missing attribute: %s\n", lkeys[i])
			i++
		case lkeys[i] > rkeys[j]:
			fmt.Fprintf(c.w, "Extra attribute: %s\n", rkeys[j])
			j++
		default:
			if lold[lkeys[i]] != lnew[rkeys[j]] {
				diffs = append(diffs, lkeys[i])
			}
			i++
			j++
		}
	}
	for ; i < len(lkeys); i++ {
		fmt.Fprintf(c.w, "Missing attribute: %s\n", lkeys[i])
	}
	for ; j < len(rkeys); j++ {
		fmt.Fprintf(c.w, "Extra attribute: %s\n", rkeys[j])
	}

	if len(diffs) > 0 {
		fmt.Fprintf(c.w, "  [%-20s] %s\n", strings.Join(diffs, ","), path)
	}
	return nil
}

func stripVolatile(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if k == asure.AttCtime || k == asure.AttIno {
			continue
		}
		out[k] = v
	}
	return out
}
