// Package cmap scrubs X11 colormaps.
//
// A scrub cycle allocates every writable color cell that is still free,
// sets each one to a fixed shade and releases them all again. Run in a loop
// next to a colormap viewer, cells that an application releases turn into
// the shade, so any colors left in the map belong to cells that are still
// allocated.
package cmap

import (
	"os"

	"github.com/BeatGlow/cmap/conn"
)

var debug bool

func init() {
	debug = os.Getenv("CMAP_DEBUG") != ""
}

// Errors
var (
	ErrClosed = conn.ErrClosed
)

// Colormap is a colormap resource ID.
type Colormap uint32

// DefaultColormap selects the default colormap of the default screen.
const DefaultColormap Colormap = 0

// Cell is a colormap cell (pixel value).
type Cell uint32

// State of a Scrubber.
type State uint8

// Scrubber states.
const (
	Idle      State = iota // Between cycles
	Scrubbing              // Allocating and painting cells
)

func (s State) String() string {
	switch s {
	case Scrubbing:
		return "scrubbing"
	default:
		return "idle"
	}
}
