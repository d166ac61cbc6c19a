// check.go - the "check" subcommand
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
	"github.com/d3zd3z/asure2/walk"
	"github.com/opencoff/go-logger"
)

func runCheck(base string, log logger.Logger, args []string) error {
	old, err := surefile.Open(base)
	if err != nil {
		return err
	}
	defer old.Close()

	w, err := walk.New(".", &walk.Options{Log: log, Prefetch: defaultPrefetch()})
	if err != nil {
		return err
	}
	defer w.Close()

	return compare.Trees(os.Stdout, old, w)
}
