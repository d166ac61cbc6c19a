// update_test.go - tests for the merge-with-hoist updater
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2

package update

import (
	"path/filepath"
	"testing"

	"github.com/d3zd3z/asure2"
	"github.com/d3zd3z/asure2/surefile"
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

func merge(t *testing.T, old, new []asure.Node) []asure.Node {
	t.Helper()
	base := filepath.Join(t.TempDir(), "2sure.test")
	w, err := surefile.Create(base)
	if err != nil {
		t.Fatalf("Create: %s", err)
	}
	if err := Merge(w, &fakeStream{nodes: old}, &fakeStream{nodes: new}); err != nil {
		t.Fatalf("Merge: %s", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}

	r, err := surefile.Open(base)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	defer r.Close()

	var got []asure.Node
	for !r.Done() {
		n := r.Current()
		got = append(got, asure.Node{Kind: n.Kind, Name: n.Name, Atts: n.Atts})
		if err := r.Advance(); err != nil {
			t.Fatalf("Advance: %s", err)
		}
	}
	return got
}

func TestMergeHoistsUnchangedHash(t *testing.T) {
	called := false
	newHashCompute := func() (string, string, error) {
		called = true
		return asure.AttSha1, "freshly-computed", nil
	}

	old := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.NODE, Name: "a.txt", Atts: asure.NewComputedAtts(map[string]string{
			asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
			asure.AttPerm: "644", asure.AttMtime: "100", asure.AttCtime: "1000", asure.AttIno: "42",
		}, asure.AttSha1, "old-hash")},
		{Kind: asure.LEAVE},
	}
	new := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.NODE, Name: "a.txt", Atts: asure.NewLazyAtts(map[string]string{
			asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
			asure.AttPerm: "644", asure.AttMtime: "100", asure.AttCtime: "1000", asure.AttIno: "42",
		}, asure.AttSha1, newHashCompute)},
		{Kind: asure.LEAVE},
	}

	got := merge(t, old, new)
	if called {
		t.Fatalf("hash hoisting should have skipped the new side's compute function")
	}

	if len(got) != 4 {
		t.Fatalf("got %d events, want 4", len(got))
	}
	fileAtts, err := got[2].Atts.Full()
	if err != nil {
		t.Fatalf("Full: %s", err)
	}
	if fileAtts[asure.AttSha1] != "old-hash" {
		t.Fatalf("sha1 = %q, want hoisted %q", fileAtts[asure.AttSha1], "old-hash")
	}
}

func TestMergeRecomputesHashWhenCtimeChanges(t *testing.T) {
	old := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.NODE, Name: "a.txt", Atts: asure.NewComputedAtts(map[string]string{
			asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
			asure.AttPerm: "644", asure.AttMtime: "100", asure.AttCtime: "1000", asure.AttIno: "42",
		}, asure.AttSha1, "old-hash")},
		{Kind: asure.LEAVE},
	}
	new := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.NODE, Name: "a.txt", Atts: asure.NewComputedAtts(map[string]string{
			asure.AttKind: asure.KindFile, asure.AttUid: "501", asure.AttGid: "20",
			asure.AttPerm: "644", asure.AttMtime: "200", asure.AttCtime: "2000", asure.AttIno: "42",
		}, asure.AttSha1, "new-hash")},
		{Kind: asure.LEAVE},
	}

	got := merge(t, old, new)
	fileAtts, err := got[2].Atts.Full()
	if err != nil {
		t.Fatalf("Full: %s", err)
	}
	if fileAtts[asure.AttSha1] != "new-hash" {
		t.Fatalf("sha1 = %q, want %q", fileAtts[asure.AttSha1], "new-hash")
	}
}

func TestMergeDropsSubtreeRemovedFromNew(t *testing.T) {
	old := []asure.Node{
		dirNode(""),
		dirNode("gone"),
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}
	new := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}

	got := merge(t, old, new)
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3 (root ENTER/MARK/LEAVE only): %+v", len(got), got)
	}
}

func TestMergeCopiesSubtreeAddedInNew(t *testing.T) {
	old := []asure.Node{
		dirNode(""),
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}
	new := []asure.Node{
		dirNode(""),
		dirNode("fresh"),
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
		{Kind: asure.MARK},
		{Kind: asure.LEAVE},
	}

	got := merge(t, old, new)
	if len(got) != len(new) {
		t.Fatalf("got %d events, want %d", len(got), len(new))
	}
	if got[1].Kind != asure.ENTER || got[1].Name != "fresh" {
		t.Fatalf("expected the new subtree to be copied verbatim, got %+v", got[1])
	}
}
