// Package pixel implements the color type used by X11 colormap cells.
//
// X stores every channel of a color cell as a 16-bit value. [RGB48] holds
// such a color and is compatible with Go's native [color.Color] interface,
// so any [color.Color] can be converted with [RGB48Model].
package pixel
