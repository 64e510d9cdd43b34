// Package cmaptest provides an in-memory colormap for testing scrubbers.
package cmaptest

import (
	"fmt"

	"github.com/BeatGlow/cmap"
	"github.com/BeatGlow/cmap/pixel"
)

// DefaultID is the ID of the colormap returned by New.
const DefaultID cmap.Colormap = 0x20

type owner uint8

const (
	free owner = iota
	client
	other
)

// Conn is an in-memory colormap implementing cmap.Conn. Cells are allocated
// in pixel order.
type Conn struct {
	// ID of the colormap.
	ID cmap.Colormap

	// Fail is returned by AllocCell after FailAfter successful allocations.
	Fail      error
	FailAfter int

	// AfterFree is called after every FreeCells.
	AfterFree func()

	colors []pixel.RGB48
	owners []owner
	allocs int
	frees  int
	syncs  int
	closed bool
}

// New colormap with one free cell per color.
func New(colors ...pixel.RGB48) *Conn {
	return &Conn{
		ID:     DefaultID,
		colors: append([]pixel.RGB48(nil), colors...),
		owners: make([]owner, len(colors)),
	}
}

// Fill returns a colormap of n free cells of color c.
func Fill(n int, c pixel.RGB48) *Conn {
	colors := make([]pixel.RGB48, n)
	for i := range colors {
		colors[i] = c
	}
	return New(colors...)
}

// Reserve marks cells as allocated by another client.
func (c *Conn) Reserve(cells ...cmap.Cell) {
	for _, cell := range cells {
		c.owners[cell] = other
	}
}

// Release returns cells reserved by another client to the free pool.
func (c *Conn) Release(cells ...cmap.Cell) {
	for _, cell := range cells {
		c.owners[cell] = free
	}
}

// Color of a cell.
func (c *Conn) Color(cell cmap.Cell) pixel.RGB48 {
	return c.colors[cell]
}

// SetColor changes a cell's color as another client would.
func (c *Conn) SetColor(cell cmap.Cell, color pixel.RGB48) {
	c.colors[cell] = color
}

// Held is the number of cells allocated through this connection.
func (c *Conn) Held() int {
	return c.count(client)
}

// Free is the number of unallocated cells.
func (c *Conn) Free() int {
	return c.count(free)
}

// Frees is the number of FreeCells calls.
func (c *Conn) Frees() int {
	return c.frees
}

// Syncs is the number of Sync calls.
func (c *Conn) Syncs() int {
	return c.syncs
}

// Closed reports if Close was called.
func (c *Conn) Closed() bool {
	return c.closed
}

func (c *Conn) count(o owner) (n int) {
	for _, v := range c.owners {
		if v == o {
			n++
		}
	}
	return
}

func (c *Conn) String() string {
	return fmt.Sprintf("test colormap %#x with %d cells", uint32(c.ID), len(c.colors))
}

func (c *Conn) Close() error {
	c.closed = true
	return nil
}

func (c *Conn) DefaultColormap() cmap.Colormap {
	return c.ID
}

func (c *Conn) check(id cmap.Colormap) error {
	if c.closed {
		return cmap.ErrClosed
	}
	if id != c.ID {
		return fmt.Errorf("cmaptest: bad colormap %#x", uint32(id))
	}
	return nil
}

func (c *Conn) checkCell(id cmap.Colormap, cell cmap.Cell) error {
	if err := c.check(id); err != nil {
		return err
	}
	if int(cell) >= len(c.owners) {
		return fmt.Errorf("cmaptest: bad cell %d", cell)
	}
	return nil
}

func (c *Conn) AllocCell(id cmap.Colormap) (cmap.Cell, bool, error) {
	if err := c.check(id); err != nil {
		return 0, false, err
	}
	if c.Fail != nil && c.allocs >= c.FailAfter {
		return 0, false, c.Fail
	}
	for i, o := range c.owners {
		if o == free {
			c.owners[i] = client
			c.allocs++
			return cmap.Cell(i), true, nil
		}
	}
	return 0, false, nil
}

func (c *Conn) QueryColor(id cmap.Colormap, cell cmap.Cell) (pixel.RGB48, error) {
	if err := c.checkCell(id, cell); err != nil {
		return pixel.RGB48{}, err
	}
	return c.colors[cell], nil
}

func (c *Conn) StoreColor(id cmap.Colormap, cell cmap.Cell, color pixel.RGB48) error {
	if err := c.checkCell(id, cell); err != nil {
		return err
	}
	if c.owners[cell] != client {
		return fmt.Errorf("cmaptest: cell %d is not writable", cell)
	}
	c.colors[cell] = color
	return nil
}

func (c *Conn) FreeCells(id cmap.Colormap, cells []cmap.Cell) error {
	if err := c.check(id); err != nil {
		return err
	}
	for _, cell := range cells {
		if err := c.checkCell(id, cell); err != nil {
			return err
		}
		if c.owners[cell] != client {
			return fmt.Errorf("cmaptest: cell %d is not allocated", cell)
		}
	}
	for _, cell := range cells {
		c.owners[cell] = free
	}
	c.frees++
	if c.AfterFree != nil {
		c.AfterFree()
	}
	return nil
}

func (c *Conn) Sync() error {
	if c.closed {
		return cmap.ErrClosed
	}
	c.syncs++
	return nil
}
