package cmap_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/BeatGlow/cmap"
	"github.com/BeatGlow/cmap/cmaptest"
	"github.com/BeatGlow/cmap/pixel"
)

var red = pixel.RGB48{R: 0xffff}

func newScrubber(c *cmaptest.Conn, shade pixel.RGB48, out *bytes.Buffer) *cmap.Scrubber {
	return cmap.New(c, &cmap.Config{
		Shade:    shade,
		Interval: time.Millisecond,
		Output:   out,
	})
}

func TestCycle(t *testing.T) {
	tests := []struct {
		name    string
		colors  []pixel.RGB48
		shade   pixel.RGB48
		cleared int
	}{
		{"empty", nil, pixel.Black, 0},
		{"red to black", []pixel.RGB48{red, red, red, red, red, red, red, red, red, red}, pixel.Black, 10},
		{"already black", []pixel.RGB48{pixel.Black, pixel.Black}, pixel.Black, 0},
		{"mixed", []pixel.RGB48{red, pixel.White, pixel.Black, {B: 1}}, pixel.White, 3},
		{"one channel", []pixel.RGB48{{R: 0xffff, G: 0xffff, B: 0xfffe}}, pixel.White, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := cmaptest.New(test.colors...)
			s := newScrubber(c, test.shade, new(bytes.Buffer))

			cleared, err := s.Cycle()
			if err != nil {
				t.Fatal(err)
			}
			if cleared != test.cleared {
				t.Errorf("expected %d cleared cells, got %d", test.cleared, cleared)
			}
			if n := c.Held(); n != 0 {
				t.Errorf("expected no cells to be held after the cycle, got %d", n)
			}
			if n := c.Free(); n != len(test.colors) {
				t.Errorf("expected %d free cells, got %d", len(test.colors), n)
			}
			if s.State() != cmap.Idle {
				t.Errorf("expected state %s, got %s", cmap.Idle, s.State())
			}
			for i := range test.colors {
				if got := c.Color(cmap.Cell(i)); got != test.shade {
					t.Errorf("cell %d: expected %s, got %s", i, test.shade, got)
				}
			}
		})
	}
}

func TestCycleReservedCells(t *testing.T) {
	c := cmaptest.New(red, red, red, red)
	c.Reserve(1, 3)
	s := newScrubber(c, pixel.Black, new(bytes.Buffer))

	cleared, err := s.Cycle()
	if err != nil {
		t.Fatal(err)
	}
	if cleared != 2 {
		t.Errorf("expected 2 cleared cells, got %d", cleared)
	}

	want := []pixel.RGB48{pixel.Black, red, pixel.Black, red}
	var got []pixel.RGB48
	for i := range want {
		got = append(got, c.Color(cmap.Cell(i)))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("colors mismatch (-want +got):\n%s", diff)
	}

	// A cell released by its owner is scrubbed on the next cycle.
	c.Release(3)
	if cleared, err = s.Cycle(); err != nil {
		t.Fatal(err)
	}
	if cleared != 1 {
		t.Errorf("expected 1 cleared cell, got %d", cleared)
	}
	if got := c.Color(3); got != pixel.Black {
		t.Errorf("expected released cell to be black, got %s", got)
	}
}

func TestCycleIdempotent(t *testing.T) {
	c := cmaptest.Fill(300, red)
	s := newScrubber(c, pixel.White, new(bytes.Buffer))

	cleared, err := s.Cycle()
	if err != nil {
		t.Fatal(err)
	}
	if cleared != 300 {
		t.Errorf("expected 300 cleared cells, got %d", cleared)
	}
	if cleared, err = s.Cycle(); err != nil {
		t.Fatal(err)
	}
	if cleared != 0 {
		t.Errorf("expected second cycle to clear nothing, got %d", cleared)
	}
}

func TestCycleSyncs(t *testing.T) {
	for _, n := range []int{0, 5} {
		c := cmaptest.Fill(n, red)
		if _, err := newScrubber(c, pixel.Black, new(bytes.Buffer)).Cycle(); err != nil {
			t.Fatal(err)
		}
		if c.Syncs() != 2 {
			t.Errorf("%d cells: expected 2 syncs, got %d", n, c.Syncs())
		}
		wantFrees := 1
		if n == 0 {
			wantFrees = 0
		}
		if c.Frees() != wantFrees {
			t.Errorf("%d cells: expected %d frees, got %d", n, wantFrees, c.Frees())
		}
	}
}

func TestCycleError(t *testing.T) {
	failure := errors.New("connection reset")
	c := cmaptest.Fill(10, red)
	c.Fail = failure
	c.FailAfter = 4
	s := newScrubber(c, pixel.Black, new(bytes.Buffer))

	cleared, err := s.Cycle()
	if !errors.Is(err, failure) {
		t.Fatalf("expected %v, got %v", failure, err)
	}
	if cleared != 4 {
		t.Errorf("expected 4 cleared cells, got %d", cleared)
	}
	if n := c.Held(); n != 0 {
		t.Errorf("expected acquired cells to be freed after an error, got %d held", n)
	}
	if s.State() != cmap.Idle {
		t.Errorf("expected state %s, got %s", cmap.Idle, s.State())
	}
}

func TestExplicitColormap(t *testing.T) {
	c := cmaptest.Fill(3, red)
	c.ID = 0x4200001

	s := cmap.New(c, &cmap.Config{Colormap: 0x4200001, Output: new(bytes.Buffer)})
	if s.Colormap() != 0x4200001 {
		t.Errorf("expected colormap %#x, got %#x", 0x4200001, s.Colormap())
	}
	if cleared, err := s.Cycle(); err != nil {
		t.Fatal(err)
	} else if cleared != 3 {
		t.Errorf("expected 3 cleared cells, got %d", cleared)
	}

	s = cmap.New(c, &cmap.Config{Colormap: 0x1234, Output: new(bytes.Buffer)})
	if _, err := s.Cycle(); err == nil {
		t.Error("expected an error for an unknown colormap")
	}
}

func TestNewDefaults(t *testing.T) {
	c := cmaptest.Fill(1, red)
	s := cmap.New(c, nil)
	if s.Colormap() != cmaptest.DefaultID {
		t.Errorf("expected default colormap %#x, got %#x", cmaptest.DefaultID, s.Colormap())
	}
	if s.State() != cmap.Idle {
		t.Errorf("expected state %s, got %s", cmap.Idle, s.State())
	}
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		cells int
		want  string
	}{
		{0, ""},
		{1, "cleared 1 cell\n"},
		{10, "cleared 10 cells\n"},
	}
	for _, test := range tests {
		c := cmaptest.Fill(test.cells, red)
		out := new(bytes.Buffer)
		if err := newScrubber(c, pixel.Black, out).Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(test.want, out.String()); diff != "" {
			t.Errorf("%d cells: output mismatch (-want +got):\n%s", test.cells, diff)
		}
		if c.Frees() > 1 {
			t.Errorf("%d cells: expected a single cycle, got %d frees", test.cells, c.Frees())
		}
	}
}

func TestRunLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cmaptest.Fill(4, red)
	cycles := 0
	c.AfterFree = func() {
		cycles++
		switch cycles {
		case 1:
			// Another client frees a cell it had painted.
			c.SetColor(2, red)
		case 3:
			cancel()
		}
	}

	out := new(bytes.Buffer)
	s := cmap.New(c, &cmap.Config{
		Shade:    pixel.White,
		Loop:     true,
		Interval: time.Millisecond,
		Output:   out,
	})
	if err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if cycles != 3 {
		t.Errorf("expected 3 cycles, got %d", cycles)
	}
	want := "cleared 4 cells\ncleared 1 cell\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunError(t *testing.T) {
	c := cmaptest.Fill(2, red)
	c.Close()

	s := cmap.New(c, &cmap.Config{Loop: true, Output: new(bytes.Buffer)})
	err := s.Run(context.Background())
	if !errors.Is(err, cmap.ErrClosed) {
		t.Fatalf("expected %v, got %v", cmap.ErrClosed, err)
	}
	if !strings.HasPrefix(err.Error(), "cmap: scrub colormap") {
		t.Errorf("unexpected error message %q", err)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[cmap.State]string{
		cmap.Idle:      "idle",
		cmap.Scrubbing: "scrubbing",
	} {
		if got := state.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
