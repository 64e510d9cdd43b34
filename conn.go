package cmap

import (
	"github.com/BeatGlow/cmap/conn"
	"github.com/BeatGlow/cmap/pixel"
)

// Conn is the connection interface for communicating with the display server.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// DefaultColormap is the colormap used when none is configured.
	DefaultColormap() Colormap

	// AllocCell allocates one writable cell. When the colormap has no free
	// cells, ok is false and err is nil.
	AllocCell(Colormap) (cell Cell, ok bool, err error)

	// QueryColor reads the color of a cell.
	QueryColor(Colormap, Cell) (pixel.RGB48, error)

	// StoreColor writes the color of a cell.
	StoreColor(Colormap, Cell, pixel.RGB48) error

	// FreeCells releases cells back to the colormap.
	FreeCells(Colormap, []Cell) error

	// Sync waits for all pending requests to be processed.
	Sync() error
}

// X11Config describes the X11 connection.
type X11Config struct {
	// Display name, such as ":0" or "host:0.1". Empty uses $DISPLAY.
	Display string
}

// DefaultX11Config are the default configuration values.
var DefaultX11Config = X11Config{}

type x11Conn struct {
	*conn.X11
}

// OpenX11 connects to an X server.
func OpenX11(config *X11Config) (Conn, error) {
	if config == nil {
		config = new(X11Config)
		*config = DefaultX11Config
	}

	c, err := conn.OpenX11(config.Display)
	if err != nil {
		return nil, err
	}

	return &x11Conn{X11: c}, nil
}

func (c *x11Conn) DefaultColormap() Colormap {
	return Colormap(c.X11.DefaultColormap())
}

func (c *x11Conn) AllocCell(cmap Colormap) (Cell, bool, error) {
	v, ok, err := c.X11.AllocColorCell(uint32(cmap))
	return Cell(v), ok, err
}

func (c *x11Conn) QueryColor(cmap Colormap, cell Cell) (pixel.RGB48, error) {
	r, g, b, err := c.X11.QueryColor(uint32(cmap), uint32(cell))
	return pixel.RGB48{R: r, G: g, B: b}, err
}

func (c *x11Conn) StoreColor(cmap Colormap, cell Cell, color pixel.RGB48) error {
	return c.X11.StoreColor(uint32(cmap), uint32(cell), color.R, color.G, color.B)
}

func (c *x11Conn) FreeCells(cmap Colormap, cells []Cell) error {
	pixels := make([]uint32, len(cells))
	for i, cell := range cells {
		pixels[i] = uint32(cell)
	}
	return c.X11.FreeColors(uint32(cmap), pixels)
}
