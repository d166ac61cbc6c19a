// names.go - surefile family naming and wire-format constants
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

// Package surefile reads and writes the on-disk fingerprint format: a
// gzip-compressed, line-oriented dump of a linearized tree event
// stream, kept as a three-generation family (current, backup, and the
// in-progress write) under one base name.
package surefile

// magic is the 16-byte header every surefile starts with, immediately
// inside the gzip container.
const magic = "asure-2.0\n-----\n"

// Generation suffixes appended to a surefile's base name. base holds
// the last successfully written generation; bak is the one before
// that; tmp is where a new generation is written before being rotated
// into place on a clean close.
const (
	extBase = ".dat.gz"
	extBak  = ".bak.gz"
	extTmp  = ".0.gz"
)
