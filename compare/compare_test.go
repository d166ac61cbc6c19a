// compare_test.go - tests for the structural tree diff
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2

package compare

import (
	"bytes"
	"testing"

	"github.com/d3zd3z/asure2"
)

type fakeStream struct {
	nodes []asure.Node
	pos   int
}

func (s *fakeStream) Done() bool           { return s.pos >= len(s.nodes) }
func (s *fakeStream) Current() *asure.Node { return &s.nodes[s.pos] }
func (s *fakeStream) Advance() error       { s.pos++; return nil }
func (s *fakeStream) Close() error         { return nil }

var _ asure.NodeStream = (*fakeStream)(nil)

func dirNode(name string) asure.Node {
	return asure.Node{Kind: asure.ENTER, Name: name, Atts: asure.NewAtts(map[string]string{
		asure.AttKind: asure.KindDir, asure.AttUid: "0", asure.AttGid: "0", asure.AttPerm: "755",
	})}
}

func fileNode(name string, mtime, sum string) asure.Node {
	return asure.Node{Kind: asure.NODE, Name: name, Atts: asure.NewAtts(map[string]string{
		asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
		asure.AttPerm: "644", asure.AttMtime: mtime, asure.AttCtime: "999", asure.AttIno: "1",
		asure.AttSha1: sum,
	})}
}

func TestTreesIdentical(t *testing.T) {
	nodes := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		fileNode("a.txt", "100", "aaaa"),
		{Kind: asure.LEAVE},
	}
	old := &fakeStream{nodes: nodes}
	new_ := &fakeStream{nodes: append([]asure.Node(nil), nodes...)}

	var buf bytes.Buffer
	if err := Trees(&buf, old, new_); err != nil {
		t.Fatalf("Trees: %s", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no diff output, got %q", buf.String())
	}
}

func TestTreesIgnoresCtimeAndIno(t *testing.T) {
	old := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.NODE, Name: "a.txt", Atts: asure.NewAtts(map[string]string{
			asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
			asure.AttPerm: "644", asure.AttMtime: "100", asure.AttCtime: "999", asure.AttIno: "1",
			asure.AttSha1: "aaaa",
		})},
		{Kind: asure.LEAVE},
	}}
	new_ := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.NODE, Name: "a.txt", Atts: asure.NewAtts(map[string]string{
			asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
			asure.AttPerm: "644", asure.AttMtime: "100", asure.AttCtime: "12345", asure.AttIno: "99",
			asure.AttSha1: "aaaa",
		})},
		{Kind: asure.LEAVE},
	}}

	var buf bytes.Buffer
	if err := Trees(&buf, old, new_); err != nil {
		t.Fatalf("Trees: %s", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("ctime/ino-only difference should be silent, got %q", buf.String())
	}
}

func TestTreesReportsChangedHash(t *testing.T) {
	old := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		fileNode("a.txt", "100", "aaaa"),
		{Kind: asure.LEAVE},
	}}
	new_ := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		fileNode("a.txt", "200", "bbbb"),
		{Kind: asure.LEAVE},
	}}

	var buf bytes.Buffer
	if err := Trees(&buf, old, new_); err != nil {
		t.Fatalf("Trees: %s", err)
	}
	want := "  [mtime,sha1          ] ./a.txt\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestTreesReportsAddedAndRemovedFile(t *testing.T) {
	old := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		fileNode("a.txt", "100", "aaaa"),
		{Kind: asure.LEAVE},
	}}
	new_ := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		fileNode("b.txt", "100", "aaaa"),
		{Kind: asure.LEAVE},
	}}

	var buf bytes.Buffer
	if err := Trees(&buf, old, new_); err != nil {
		t.Fatalf("Trees: %s", err)
	}
	want := "- file                   ./a.txt\n+ file                   ./b.txt\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestTreesReportsAddedAndRemovedDir(t *testing.T) {
	old := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		dirNode("gone"),
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}}
	new_ := &fakeStream{nodes: []asure.Node{
		dirNode(""),
		dirNode("new"),
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}}

	var buf bytes.Buffer
	if err := Trees(&buf, old, new_); err != nil {
		t.Fatalf("Trees: %s", err)
	}
	want := "- dir                    ./gone\n+ dir                    ./new\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestTreesReportsMissingAndExtraAttribute(t *testing.T) {
	old := &fakeStream{nodes: []asure.Node{
		{Kind: asure.ENTER, Name: "", Atts: asure.NewAtts(map[string]string{
			asure.AttKind: asure.KindDir, asure.AttUid: "0", asure.AttGid: "0", asure.AttPerm: "755",
			"extinct": "1",
		})},
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}}
	new_ := &fakeStream{nodes: []asure.Node{
		{Kind: asure.ENTER, Name: "", Atts: asure.NewAtts(map[string]string{
			asure.AttKind: asure.KindDir, asure.AttUid: "0", asure.AttGid: "0", asure.AttPerm: "755",
			"fresh": "1",
		})},
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}}

	var buf bytes.Buffer
	if err := Trees(&buf, old, new_); err != nil {
		t.Fatalf("Trees: %s", err)
	}
	want := "Missing attribute: extinct\nExtra attribute: fresh\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}
