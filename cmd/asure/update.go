// update.go - the "update" subcommand
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
	"github.com/d3zd3z/asure2/surefile"
	"github.com/d3zd3z/asure2/update"
	"github.com/d3zd3z/asure2/walk"
	"github.com/opencoff/go-logger"
)

func runUpdate(base string, log logger.Logger, args []string) error {
	old, err := surefile.Open(base)
	if err != nil {
		return err
	}
	defer old.Close()

	// No prefetch here: it would hash every regular file up front,
	// including the ones Merge hoists from the old surefile.
	w, err := walk.New(".", &walk.Options{Log: log})
	if err != nil {
		return err
	}
	defer w.Close()

	out, err := surefile.Create(base)
	if err != nil {
		return err
	}
	if err := update.Merge(out, old, w); err != nil {
		out.Abort()
		return err
	}
	return out.Close()
}
