// Command blacken-cmap sets all unallocated color cells of a colormap to black.
//
// Run a colormap viewer such as xcmap, then run "blacken-cmap -loop" in the
// background. As applications free their color cells, those cells turn black
// instead of keeping their old color, so any colors still visible in the map
// belong to cells that were never freed.
//
// Every cycle briefly fills the colormap, which can make color allocations
// of other clients fail until the cells are released again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/BeatGlow/cmap"
	"github.com/BeatGlow/cmap/pixel"
)

const name = "blacken-cmap"

var (
	dial = func(display string) (cmap.Conn, error) {
		return cmap.OpenX11(&cmap.X11Config{Display: display})
	}
	interval = cmap.DefaultInterval
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	config  cmap.Config
	display string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{config: cmap.DefaultConfig}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [ -loop | -id cmap_id | -white | -black | -shade color | -display name ]\n", name)
		fs.PrintDefaults()
	}
	fs.BoolVar(&o.config.Loop, "loop", false, "Keep scrubbing, pausing "+interval.String()+" between cycles")
	fs.Func("id", "Colormap ID, decimal or 0x hex (default: the screen's default colormap)", func(s string) (err error) {
		o.config.Colormap, err = parseColormapID(s)
		return
	})
	fs.BoolFunc("white", "Set cells to white", func(string) error {
		o.config.Shade = pixel.White
		return nil
	})
	fs.BoolFunc("black", "Set cells to black (default)", func(string) error {
		o.config.Shade = pixel.Black
		return nil
	})
	fs.Func("shade", "Set cells to a color name, #rrggbb or rgb:r/g/b", func(s string) (err error) {
		o.config.Shade, err = pixel.Parse(s)
		return
	})
	fs.StringVar(&o.display, "display", "", "X display (default: $DISPLAY)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	o.config.Interval = interval
	return o, nil
}

// parseColormapID accepts a decimal or 0x prefixed hexadecimal resource ID.
func parseColormapID(s string) (cmap.Colormap, error) {
	var (
		t   = strings.TrimSpace(s)
		v   uint64
		err error
	)
	if len(t) > 2 && (t[:2] == "0x" || t[:2] == "0X") {
		v, err = strconv.ParseUint(t[2:], 16, 32)
	} else {
		v, err = strconv.ParseUint(t, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("cmap id %s unparsable", s)
	}
	return cmap.Colormap(v), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		return 1
	}

	c, err := dial(o.display)
	if err != nil {
		return fatal(stderr, err)
	}
	defer c.Close()

	o.config.Output = stdout
	if err = cmap.New(c, &o.config).Run(ctx); err != nil {
		return fatal(stderr, err)
	}
	return 0
}

func fatal(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, name+": "+err.Error())
	return 1
}
