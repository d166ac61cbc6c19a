// stat_bsd.go - syscall.Stat_t field extraction for darwin and freebsd
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

//go:build darwin || freebsd

package walk

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func mtimeSec(st *syscall.Stat_t) int64 { return int64(st.Mtimespec.Sec) }
func ctimeSec(st *syscall.Stat_t) int64 { return int64(st.Ctimespec.Sec) }

func major(rdev uint64) uint32 { return unix.Major(rdev) }
func minor(rdev uint64) uint32 { return unix.Minor(rdev) }
