// dump.go - textual event dump shared by "show" and "walk"
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

package main

import (
	"fmt"
	"io"

	"github.com/d3zd3z/asure2"
)

// dumpEvents prints one line per event of s: ENTER/NODE lines show the
// name followed by sorted key=value attribute pairs, MARK prints "-",
// LEAVE prints "u". Each line is indented two spaces per current depth.
func dumpEvents(w io.Writer, s asure.NodeStream) error {
	depth := 0
	for !s.Done() {
		n := s.Current()
		switch n.Kind {
		case asure.ENTER:
			if err := printEntry(w, depth, "d", n); err != nil {
				return err
			}
			depth++
		case asure.NODE:
			if err := printEntry(w, depth, "-", n); err != nil {
				return err
			}
		case asure.MARK:
			fmt.Fprintf(w, "%s-\n", indent(depth))
		case asure.LEAVE:
			depth--
			fmt.Fprintf(w, "%su\n", indent(depth))
		}
		if err := s.Advance(); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(w io.Writer, depth int, code string, n *asure.Node) error {
	atts, err := n.Atts.Full()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s %s", indent(depth), code, n.Name)
	for _, k := range asure.SortedKeys(atts) {
		fmt.Fprintf(w, " %s=%s", k, atts[k])
	}
	fmt.Fprintln(w)
	return nil
}

func indent(depth int) string {
	b := make([]byte, 2*depth)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
