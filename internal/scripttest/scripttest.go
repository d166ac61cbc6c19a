// scripttest.go - a tiny DSL for driving scan/update/check end to end
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

// Package scripttest drives scan/update/check/signoff against a
// scratch directory tree from short line-oriented scripts, the way the
// teacher's own testsuite drives go-fio's comparator.
package scripttest

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/d3zd3z/asure2"
	"github.com/d3zd3z/asure2/compare"
	"github.com/d3zd3z/asure2/surefile"
	"github.com/d3zd3z/asure2/update"
	"github.com/d3zd3z/asure2/walk"
	"github.com/opencoff/shlex"
)

// Env is a scratch directory tree plus whatever surefile generations
// have been written into it so far.
type Env struct {
	t    *testing.T
	Root string
	base string

	lastDiff string
}

// New creates a fresh scratch tree under t.TempDir().
func New(t *testing.T) *Env {
	t.Helper()
	root := t.TempDir()
	return &Env{t: t, Root: root, base: filepath.Join(root, "2sure")}
}

// Run executes script one line at a time. Blank lines and lines
// starting with '#' are ignored. Supported commands: mkfile, mkdir, rm,
// mv, mutate, symlink, scan, update, check, signoff, expect,
// expect-empty.
func (e *Env) Run(script string) {
	e.t.Helper()
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e.runLine(line)
	}
}

// runLine dispatches one DSL line. "expect" is handled before
// tokenizing: the diff lines it asserts against use fixed-width column
// padding that shlex would collapse.
func (e *Env) runLine(line string) {
	e.t.Helper()

	if rest, ok := strings.CutPrefix(line, "expect "); ok {
		e.expect(rest)
		return
	}
	if line == "expect-empty" {
		e.expectEmpty()
		return
	}

	words, err := shlex.Split(line)
	if err != nil {
		e.t.Fatalf("scripttest: %q: %s", line, err)
	}
	if len(words) == 0 {
		return
	}

	cmd, args := words[0], words[1:]
	switch cmd {
	case "mkfile":
		e.mkfile(args)
	case "mkdir":
		e.mkdir(args)
	case "rm":
		e.rm(args)
	case "mv":
		e.mv(args)
	case "mutate":
		e.mutate(args)
	case "symlink":
		e.symlink(args)
	case "scan":
		e.scan()
	case "update":
		e.update()
	case "check":
		e.check()
	case "signoff":
		e.signoff()
	default:
		e.t.Fatalf("scripttest: unknown command %q", cmd)
	}
}

func (e *Env) path(name string) string {
	return filepath.Join(e.Root, name)
}

func (e *Env) mkfile(args []string) {
	e.t.Helper()
	if len(args) == 0 {
		e.t.Fatalf("scripttest: mkfile: missing name")
	}
	size := 256
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			e.t.Fatalf("scripttest: mkfile: bad size %q: %s", args[1], err)
		}
		size = n
	}

	fn := e.path(args[0])
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		e.t.Fatalf("scripttest: mkfile: %s", err)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		e.t.Fatalf("scripttest: mkfile: %s", err)
	}
	if err := os.WriteFile(fn, buf, 0o644); err != nil {
		e.t.Fatalf("scripttest: mkfile: %s", err)
	}
}

func (e *Env) mkdir(args []string) {
	e.t.Helper()
	if len(args) == 0 {
		e.t.Fatalf("scripttest: mkdir: missing name")
	}
	if err := os.MkdirAll(e.path(args[0]), 0o755); err != nil {
		e.t.Fatalf("scripttest: mkdir: %s", err)
	}
}

func (e *Env) rm(args []string) {
	e.t.Helper()
	if len(args) == 0 {
		e.t.Fatalf("scripttest: rm: missing name")
	}
	if err := os.RemoveAll(e.path(args[0])); err != nil {
		e.t.Fatalf("scripttest: rm: %s", err)
	}
}

func (e *Env) mv(args []string) {
	e.t.Helper()
	if len(args) != 2 {
		e.t.Fatalf("scripttest: mv: expected OLD NEW")
	}
	if err := os.Rename(e.path(args[0]), e.path(args[1])); err != nil {
		e.t.Fatalf("scripttest: mv: %s", err)
	}
}

// mutate flips the middle byte of a file, changing its content hash
// without changing its length; an empty file becomes a single 0xff
// byte instead.
func (e *Env) mutate(args []string) {
	e.t.Helper()
	if len(args) == 0 {
		e.t.Fatalf("scripttest: mutate: missing name")
	}
	fn := e.path(args[0])
	data, err := os.ReadFile(fn)
	if err != nil {
		e.t.Fatalf("scripttest: mutate: %s", err)
	}
	if len(data) == 0 {
		data = []byte{0}
	}
	data[len(data)/2] ^= 0xff
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		e.t.Fatalf("scripttest: mutate: %s", err)
	}
}

// symlink takes a single NEW@OLD argument, matching the teacher's own
// symlink DSL command.
func (e *Env) symlink(args []string) {
	e.t.Helper()
	if len(args) == 0 {
		e.t.Fatalf("scripttest: symlink: missing NEW@OLD")
	}
	spec := args[0]
	i := strings.Index(spec, "@")
	if i < 0 {
		e.t.Fatalf("scripttest: symlink: %q: expected NEW@OLD", spec)
	}
	newName, oldName := spec[:i], spec[i+1:]
	if err := os.Symlink(oldName, e.path(newName)); err != nil {
		e.t.Fatalf("scripttest: symlink: %s", err)
	}
}

func (e *Env) scan() {
	e.t.Helper()
	w, err := walk.New(e.Root, &walk.Options{})
	if err != nil {
		e.t.Fatalf("scripttest: scan: %s", err)
	}
	defer w.Close()

	out, err := surefile.Create(e.base)
	if err != nil {
		e.t.Fatalf("scripttest: scan: %s", err)
	}
	if err := drain(out, w); err != nil {
		out.Abort()
		e.t.Fatalf("scripttest: scan: %s", err)
	}
	if err := out.Close(); err != nil {
		e.t.Fatalf("scripttest: scan: %s", err)
	}
}

func (e *Env) update() {
	e.t.Helper()
	old, err := surefile.Open(e.base)
	if err != nil {
		e.t.Fatalf("scripttest: update: %s", err)
	}
	defer old.Close()

	w, err := walk.New(e.Root, &walk.Options{})
	if err != nil {
		e.t.Fatalf("scripttest: update: %s", err)
	}
	defer w.Close()

	out, err := surefile.Create(e.base)
	if err != nil {
		e.t.Fatalf("scripttest: update: %s", err)
	}
	if err := update.Merge(out, old, w); err != nil {
		out.Abort()
		e.t.Fatalf("scripttest: update: %s", err)
	}
	if err := out.Close(); err != nil {
		e.t.Fatalf("scripttest: update: %s", err)
	}
}

func (e *Env) check() {
	e.t.Helper()
	old, err := surefile.Open(e.base)
	if err != nil {
		e.t.Fatalf("scripttest: check: %s", err)
	}
	defer old.Close()

	w, err := walk.New(e.Root, &walk.Options{})
	if err != nil {
		e.t.Fatalf("scripttest: check: %s", err)
	}
	defer w.Close()

	var buf bytes.Buffer
	if err := compare.Trees(&buf, old, w); err != nil {
		e.t.Fatalf("scripttest: check: %s", err)
	}
	e.lastDiff = buf.String()
}

func (e *Env) signoff() {
	e.t.Helper()
	bak, err := surefile.OpenBackup(e.base)
	if err != nil {
		e.t.Fatalf("scripttest: signoff: %s", err)
	}
	defer bak.Close()

	cur, err := surefile.Open(e.base)
	if err != nil {
		e.t.Fatalf("scripttest: signoff: %s", err)
	}
	defer cur.Close()

	var buf bytes.Buffer
	if err := compare.Trees(&buf, bak, cur); err != nil {
		e.t.Fatalf("scripttest: signoff: %s", err)
	}
	e.lastDiff = buf.String()
}

func (e *Env) expect(want string) {
	e.t.Helper()
	if !strings.Contains(e.lastDiff, want) {
		e.t.Fatalf("scripttest: expected diff to contain %q, got:\n%s", want, e.lastDiff)
	}
}

func (e *Env) expectEmpty() {
	e.t.Helper()
	if e.lastDiff != "" {
		e.t.Fatalf("scripttest: expected no diff, got:\n%s", e.lastDiff)
	}
}

func drain(out *surefile.Writer, s asure.NodeStream) error {
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
