// noatime_linux.go - O_NOATIME on linux
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

//go:build linux

package hash

import "golang.org/x/sys/unix"

const noAtimeFlag = unix.O_NOATIME
