// signoff.go - the "signoff" subcommand
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
	"os"

	"github.com/d3zd3z/asure2/compare"
	"github.com/d3zd3z/asure2/surefile"
)

// runSignoff compares the previous surefile generation against the
// current one, without touching the filesystem at all -- a quick way
// to review what the last update actually changed.
func runSignoff(base string, args []string) error {
	bak, err := surefile.OpenBackup(base)
	if err != nil {
		return err
	}
	defer bak.Close()

	cur, err := surefile.Open(base)
	if err != nil {
		return err
	}
	defer cur.Close()

	return compare.Trees(os.Stdout, bak, cur)
}
