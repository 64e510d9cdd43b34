package pixel

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// RGB48Model converts any color to an opaque RGB48.
var RGB48Model color.Model = color.ModelFunc(rgb48Model)

var (
	Black = RGB48{}
	White = RGB48{R: 0xffff, G: 0xffff, B: 0xffff}
)

// ErrSyntax is returned by Parse for unrecognised color specifications.
var ErrSyntax = errors.New("pixel: invalid color")

// RGB48 represents a 48-bit color, 16 bits per channel, as stored in a colormap cell.
type RGB48 struct {
	R, G, B uint16
}

func (c RGB48) RGBA() (r, g, b, a uint32) {
	return uint32(c.R), uint32(c.G), uint32(c.B), 0xffff
}

func (c RGB48) String() string {
	return fmt.Sprintf("#%04x%04x%04x", c.R, c.G, c.B)
}

func rgb48Model(c color.Color) color.Color {
	if _, ok := c.(RGB48); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return RGB48{}
	}
	// Undo alpha premultiplication; colormap cells have no alpha.
	if a != 0xffff {
		r = r * 0xffff / a
		g = g * 0xffff / a
		b = b * 0xffff / a
	}
	return RGB48{R: uint16(r), G: uint16(g), B: uint16(b)}
}

// Parse a color specification. Accepted forms are color names (see
// [colornames.Map]), "#rgb", "#rrggbb", "#rrrrggggbbbb" and the X11
// "rgb:r/g/b" form with one to four hex digits per channel.
func Parse(s string) (RGB48, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHash(s[1:])
	case strings.HasPrefix(strings.ToLower(s), "rgb:"):
		return parseRGB(s[4:])
	}

	name := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if c, ok := colornames.Map[name]; ok {
		return rgb48Model(c).(RGB48), nil
	}
	return RGB48{}, fmt.Errorf("%w %q", ErrSyntax, s)
}

func parseHash(s string) (RGB48, error) {
	var digits int
	switch len(s) {
	case 3, 6, 12:
		digits = len(s) / 3
	default:
		return RGB48{}, fmt.Errorf("%w \"#%s\"", ErrSyntax, s)
	}

	var v [3]uint16
	for i := range v {
		var err error
		if v[i], err = scale(s[i*digits : (i+1)*digits]); err != nil {
			return RGB48{}, fmt.Errorf("%w \"#%s\"", ErrSyntax, s)
		}
	}
	return RGB48{R: v[0], G: v[1], B: v[2]}, nil
}

func parseRGB(s string) (RGB48, error) {
	part := strings.Split(s, "/")
	if len(part) != 3 {
		return RGB48{}, fmt.Errorf("%w \"rgb:%s\"", ErrSyntax, s)
	}

	var v [3]uint16
	for i := range v {
		var err error
		if v[i], err = scale(part[i]); err != nil {
			return RGB48{}, fmt.Errorf("%w \"rgb:%s\"", ErrSyntax, s)
		}
	}
	return RGB48{R: v[0], G: v[1], B: v[2]}, nil
}

// scale widens a 1 to 4 digit hex channel to 16 bits by repeating its digits.
func scale(s string) (uint16, error) {
	if len(s) < 1 || len(s) > 4 {
		return 0, ErrSyntax
	}
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	switch len(s) {
	case 1:
		n |= n << 4
		n |= n << 8
	case 2:
		n |= n << 8
	case 3:
		n = n<<4 | n>>8
	}
	return uint16(n), nil
}
