// show.go - the "show" subcommand
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

	"github.com/d3zd3z/asure2/surefile"
)

func runShow(base string, args []string) error {
	r, err := surefile.Open(base)
	if err != nil {
		return err
	}
	defer r.Close()

	return dumpEvents(os.Stdout, r)
}
