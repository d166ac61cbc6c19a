// scan.go - the "scan" subcommand
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
	"github.com/d3zd3z/asure2"
	"github.com/d3zd3z/asure2/surefile"
	"github.com/d3zd3z/asure2/walk"
	"github.com/opencoff/go-logger"
)

func runScan(base string, log logger.Logger, args []string) error {
	w, err := walk.New(".", &walk.Options{Log: log, Prefetch: defaultPrefetch()})
	if err != nil {
		return err
	}
	defer w.Close()

	out, err := surefile.Create(base)
	if err != nil {
		return err
	}
	if err := drainInto(out, w); err != nil {
		out.Abort()
		return err
	}
	return out.Close()
}

// drainInto copies every remaining event of s into out, in order.
func drainInto(out *surefile.Writer, s asure.NodeStream) error {
	for !s.Done() {
		if err := out.Put(s.Current()); err != nil {
			return err
		}
		if err := s.Advance(); err != nil {
			return err
		}
	}
	return nil
}
