// dirlist.go - directory listing, ordered by inode
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

package asure

import (
	"os"
	"sort"
	"strings"
	"syscall"
)

// DirEnt is one (name, inode) pair returned by ListInode.
type DirEnt struct {
	Name string
	Ino  uint64
}

// surefile artifact name prefixes that ListInode must never report, so
// that scanning a directory that itself holds the surefile never sees
// the surefile as an entry to fingerprint.
var surefilePrefixes = []string{"0sure.", "2sure."}

// IsSurefileArtifact returns true if name looks like one of the on-disk
// surefile family names (any base, any generation of the tool).
func IsSurefileArtifact(name string) bool {
	for _, p := range surefilePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// ListInode opens path, enumerates its entries, and returns them sorted
// ascending by inode number -- a performance heuristic on spinning media
// that keeps the subsequent lstat loop's seeks roughly monotonic. "." and
// ".." and surefile artifacts are never returned.
func ListInode(path string) ([]DirEnt, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, &IOError{"opendir", path, err}
	}
	defer fd.Close()

	names, err := fd.Readdirnames(-1)
	if err != nil {
		return nil, &IOError{"readdir", path, err}
	}

	ents := make([]DirEnt, 0, len(names))
	for _, nm := range names {
		if nm == "." || nm == ".." || IsSurefileArtifact(nm) {
			continue
		}

		var st syscall.Stat_t
		full := path + "/" + nm
		if err := syscall.Lstat(full, &st); err != nil {
			// An entry that can no longer be lstat'd has no inode
			// to sort by; it is dropped here without a warning, so
			// the walker never sees it.
			continue
		}

		ents = append(ents, DirEnt{Name: nm, Ino: st.Ino})
	}

	sort.Slice(ents, func(i, j int) bool { return ents[i].Ino < ents[j].Ino })
	return ents, nil
}
