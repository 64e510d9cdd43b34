package cmap

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/BeatGlow/cmap/pixel"
)

// DefaultInterval is the delay between cycles in loop mode.
const DefaultInterval = 3 * time.Second

// Initial capacity of the cell buffer, grown as needed.
const initialCells = 256

// Config is the scrubber configuration.
type Config struct {
	// Colormap to scrub, use DefaultColormap for the screen's default colormap.
	Colormap Colormap

	// Shade every free cell is set to.
	Shade pixel.RGB48

	// Loop runs cycles until the context passed to Run is cancelled.
	Loop bool

	// Interval between cycles in loop mode.
	Interval time.Duration

	// Output receives the "cleared" reports, defaults to stdout.
	Output io.Writer
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	Colormap: DefaultColormap,
	Shade:    pixel.Black,
	Interval: DefaultInterval,
}

// Scrubber sets the free cells of a colormap to a single shade.
type Scrubber struct {
	c        Conn
	cmap     Colormap
	shade    pixel.RGB48
	loop     bool
	interval time.Duration
	output   io.Writer
	state    State
}

// New scrubber using connection c.
func New(c Conn, config *Config) *Scrubber {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	s := &Scrubber{
		c:        c,
		cmap:     config.Colormap,
		shade:    config.Shade,
		loop:     config.Loop,
		interval: config.Interval,
		output:   config.Output,
	}
	if s.cmap == DefaultColormap {
		s.cmap = c.DefaultColormap()
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.output == nil {
		s.output = os.Stdout
	}
	return s
}

func (s *Scrubber) String() string {
	return fmt.Sprintf("colormap %#x on %s", uint32(s.cmap), s.c)
}

// Colormap being scrubbed.
func (s *Scrubber) Colormap() Colormap {
	return s.cmap
}

// State of the scrubber.
func (s *Scrubber) State() State {
	return s.state
}

// Cycle allocates all free writable cells, sets them to the shade and frees
// them again. It returns the number of cells whose color was changed.
//
// All allocated cells are freed before Cycle returns, also if it fails.
func (s *Scrubber) Cycle() (cleared int, err error) {
	s.state = Scrubbing
	defer func() { s.state = Idle }()

	cells := make([]Cell, 0, initialCells)
	for {
		cell, ok, aerr := s.c.AllocCell(s.cmap)
		if aerr != nil {
			err = aerr
			break
		}
		if !ok {
			break
		}
		cells = append(cells, cell)

		current, qerr := s.c.QueryColor(s.cmap, cell)
		if qerr != nil {
			err = qerr
			break
		}
		if current != s.shade {
			cleared++
		}
		if serr := s.c.StoreColor(s.cmap, cell, s.shade); serr != nil {
			err = serr
			break
		}
	}

	if rerr := s.release(cells); err == nil {
		err = rerr
	}
	if debug {
		log.Printf("cmap: %s: acquired %d cells, cleared %d", s, len(cells), cleared)
	}
	if err != nil {
		return cleared, errors.Wrapf(err, "cmap: scrub colormap %#x", uint32(s.cmap))
	}
	return cleared, nil
}

// release frees cells in one batch, between two syncs.
func (s *Scrubber) release(cells []Cell) error {
	err := s.c.Sync()
	if len(cells) > 0 {
		if ferr := s.c.FreeCells(s.cmap, cells); err == nil {
			err = ferr
		}
	}
	if serr := s.c.Sync(); err == nil {
		err = serr
	}
	return err
}

// Run scrub cycles. In loop mode Run returns nil once ctx is done; a cycle
// in progress is always completed first.
func (s *Scrubber) Run(ctx context.Context) error {
	for {
		cleared, err := s.Cycle()
		if err != nil {
			return err
		}
		if cleared > 0 {
			if err = s.report(cleared); err != nil {
				return err
			}
		}
		if !s.loop || ctx.Err() != nil {
			return nil
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scrubber) report(cleared int) error {
	suffix := "s"
	if cleared == 1 {
		suffix = ""
	}
	_, err := fmt.Fprintf(s.output, "cleared %d cell%s\n", cleared, suffix)
	return err
}
