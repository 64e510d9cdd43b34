// Package conn implements the X11 protocol requests used to manage colormap cells.
package conn

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	pkgerrors "github.com/pkg/errors"
)

// ErrClosed is returned when a request is made on a closed connection.
var ErrClosed = errors.New("conn: X11 connection is closed")

// Visual classes, from <X11/X.h>.
const (
	StaticGray  = xproto.VisualClassStaticGray
	GrayScale   = xproto.VisualClassGrayScale
	StaticColor = xproto.VisualClassStaticColor
	PseudoColor = xproto.VisualClassPseudoColor
	TrueColor   = xproto.VisualClassTrueColor
	DirectColor = xproto.VisualClassDirectColor
)

// VisualClassName returns the X11 name of a visual class.
func VisualClassName(class byte) string {
	switch class {
	case StaticGray:
		return "StaticGray"
	case GrayScale:
		return "GrayScale"
	case StaticColor:
		return "StaticColor"
	case PseudoColor:
		return "PseudoColor"
	case TrueColor:
		return "TrueColor"
	case DirectColor:
		return "DirectColor"
	default:
		return fmt.Sprintf("visual class %d", class)
	}
}

// Writable reports if colormaps of the visual class have read/write cells.
func Writable(class byte) bool {
	return class == GrayScale || class == PseudoColor || class == DirectColor
}

// X11 is a connection to an X server.
type X11 struct {
	x      *xgb.Conn
	name   string
	screen *xproto.ScreenInfo
	vendor string
	closed bool
}

// OpenX11 connects to the named display. An empty name uses $DISPLAY.
func OpenX11(display string) (*X11, error) {
	x, err := xgb.NewConnDisplay(display)
	if err != nil {
		if display == "" {
			return nil, pkgerrors.Wrap(err, "conn: X11 open default display")
		}
		return nil, pkgerrors.Wrapf(err, "conn: X11 open display %q", display)
	}

	setup := xproto.Setup(x)
	return &X11{
		x:      x,
		name:   display,
		screen: setup.DefaultScreen(x),
		vendor: setup.Vendor,
	}, nil
}

func (c *X11) Close() error {
	if !c.closed {
		c.closed = true
		c.x.Close()
	}
	return nil
}

func (c *X11) String() string {
	name := c.name
	if name == "" {
		name = fmt.Sprintf(":%d.%d", c.x.DisplayNumber, c.x.DefaultScreen)
	}
	return fmt.Sprintf("X11 display %s (%s)", name, c.vendor)
}

// DefaultColormap is the default colormap of the default screen.
func (c *X11) DefaultColormap() uint32 {
	return uint32(c.screen.DefaultColormap)
}

// DefaultVisualClass is the class of the root visual of the default screen.
func (c *X11) DefaultVisualClass() byte {
	for _, depth := range c.screen.AllowedDepths {
		for _, visual := range depth.Visuals {
			if visual.VisualId == c.screen.RootVisual {
				return visual.Class
			}
		}
	}
	return StaticGray
}

// AllocColorCell allocates one read/write cell. If the colormap has no free
// cells left, ok is false and err is nil.
func (c *X11) AllocColorCell(cmap uint32) (pixel uint32, ok bool, err error) {
	if c.closed {
		return 0, false, ErrClosed
	}

	reply, err := xproto.AllocColorCells(c.x, false, xproto.Colormap(cmap), 1, 0).Reply()
	if err != nil {
		if _, exhausted := err.(xproto.AllocError); exhausted {
			return 0, false, nil
		}
		return 0, false, pkgerrors.Wrapf(err, "conn: AllocColorCells on colormap %#x", cmap)
	}
	if reply == nil || len(reply.Pixels) == 0 {
		return 0, false, fmt.Errorf("conn: AllocColorCells on colormap %#x returned no pixels", cmap)
	}
	return reply.Pixels[0], true, nil
}

// QueryColor returns the 16-bit red, green and blue values of a cell.
func (c *X11) QueryColor(cmap, pixel uint32) (r, g, b uint16, err error) {
	if c.closed {
		return 0, 0, 0, ErrClosed
	}

	reply, err := xproto.QueryColors(c.x, xproto.Colormap(cmap), []uint32{pixel}).Reply()
	if err != nil {
		return 0, 0, 0, pkgerrors.Wrapf(err, "conn: QueryColors pixel %d on colormap %#x", pixel, cmap)
	}
	if reply == nil || len(reply.Colors) == 0 {
		return 0, 0, 0, fmt.Errorf("conn: QueryColors pixel %d on colormap %#x returned no colors", pixel, cmap)
	}
	rgb := reply.Colors[0]
	return rgb.Red, rgb.Green, rgb.Blue, nil
}

// StoreColor sets all three channels of a cell. The request is not checked;
// errors surface on the next Sync.
func (c *X11) StoreColor(cmap, pixel uint32, r, g, b uint16) error {
	if c.closed {
		return ErrClosed
	}

	xproto.StoreColors(c.x, xproto.Colormap(cmap), []xproto.Coloritem{{
		Pixel: pixel,
		Red:   r,
		Green: g,
		Blue:  b,
		Flags: xproto.ColorFlagRed | xproto.ColorFlagGreen | xproto.ColorFlagBlue,
	}})
	return nil
}

// FreeColors releases a batch of cells.
func (c *X11) FreeColors(cmap uint32, pixels []uint32) error {
	if c.closed {
		return ErrClosed
	}

	if err := xproto.FreeColorsChecked(c.x, xproto.Colormap(cmap), 0, pixels).Check(); err != nil {
		return pkgerrors.Wrapf(err, "conn: FreeColors %d pixels on colormap %#x", len(pixels), cmap)
	}
	return nil
}

// Sync waits until the server has processed all requests sent so far.
func (c *X11) Sync() error {
	if c.closed {
		return ErrClosed
	}

	// GetInputFocus is the cheapest request with a reply.
	if _, err := xproto.GetInputFocus(c.x).Reply(); err != nil {
		return pkgerrors.Wrap(err, "conn: sync")
	}

	// Errors of unchecked requests are queued as events.
	for {
		ev, xerr := c.x.PollForEvent()
		if xerr != nil {
			return pkgerrors.Wrap(xerr, "conn: sync")
		}
		if ev == nil {
			return nil
		}
	}
}
