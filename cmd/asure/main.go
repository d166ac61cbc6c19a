// main.go - asure command-line front end
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
	"os"
	"path"
	"runtime"

	"github.com/opencoff/go-logger"
	utils "github.com/opencoff/go-utils"
	flag "github.com/opencoff/pflag"
)

var z = path.Base(os.Args[0])

func main() {
	var base string
	var help bool

	fs := flag.NewFlagSet(z, flag.ExitOnError)
	fs.StringVarP(&base, "surefile", "f", "2sure", "use `B` as the surefile base name")
	fs.StringVar(&base, "file", "2sure", "same as --surefile")
	fs.BoolVarP(&help, "help", "h", false, "show help and exit")
	fs.SetOutput(os.Stdout)

	if err := fs.Parse(os.Args[1:]); err != nil {
		utils.Die("%s", err)
	}
	if help {
		usage(fs)
	}

	args := fs.Args()
	if len(args) == 0 {
		utils.Die("Usage: %s [options] {scan|update|check|signoff|show|walk}", z)
	}

	log, err := logger.NewLogger("/dev/stderr", logger.LOG_WARNING, z, logger.Ldate|logger.Ltime)
	if err != nil {
		// A process-wide logger is a convenience, not a correctness
		// requirement -- walk.Options.Log is nil-safe.
		log = nil
	} else {
		defer log.Close()
	}

	cmd, rest := args[0], args[1:]

	var runErr error
	switch cmd {
	case "scan":
		runErr = runScan(base, log, rest)
	case "update":
		runErr = runUpdate(base, log, rest)
	case "check":
		runErr = runCheck(base, log, rest)
	case "signoff":
		runErr = runSignoff(base, rest)
	case "show":
		runErr = runShow(base, rest)
	case "walk":
		runErr = runWalk(log, rest)
	default:
		utils.Die("%s: unknown command", cmd)
	}

	if runErr != nil {
		utils.Die("%s: %s", cmd, runErr)
	}
}

func usage(fs *flag.FlagSet) {
	fmt.Printf(usageStr, z, z)
	fs.PrintDefaults()
	os.Exit(0)
}

func defaultPrefetch() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

var usageStr = `%s - filesystem integrity checker.

Usage: %s [options] {scan|update|check|signoff|show|walk}

  scan     walk . and write a new surefile
  update   walk ., merge against the old surefile, hoisting hashes
  check    walk . and compare against the current surefile
  signoff  compare the previous surefile generation against the current one
  show     print a surefile's event stream
  walk     print a live walk's event stream

Options:
`
