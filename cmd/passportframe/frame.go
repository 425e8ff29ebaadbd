package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/example/passportframe/internal/imageio"
	"github.com/example/passportframe/internal/processing"
	"github.com/example/passportframe/internal/session"
	"github.com/example/passportframe/internal/viewport"
)

// framing holds the transform flags shared by frame and check.
type framing struct {
	zoom   float64
	rotate int
	pan    string

	panX, panY float64
}

func (f *framing) register(fs *flag.FlagSet) {
	fs.Float64Var(&f.zoom, "zoom", 1, fmt.Sprintf("zoom factor, clamped to %.1f-%.1f", viewport.MinZoom, viewport.MaxZoom))
	fs.IntVar(&f.rotate, "rotate", 0, "clockwise rotation in degrees")
	fs.StringVar(&f.pan, "pan", "", "offset as x,y in canvas pixels, like dragging the photo")
}

func (f *framing) parse() error {
	if f.zoom <= 0 {
		return fmt.Errorf("-zoom must be positive, got %v", f.zoom)
	}
	if f.pan == "" {
		return nil
	}
	xs, ys, ok := strings.Cut(f.pan, ",")
	if !ok {
		return fmt.Errorf("-pan must be x,y, got %q", f.pan)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return fmt.Errorf("-pan x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return fmt.Errorf("-pan y: %w", err)
	}
	f.panX, f.panY = x, y
	return nil
}

// apply follows the order a user would: zoom, rotate, then drag.
func (f *framing) apply(st *viewport.State) {
	st.ZoomBy(f.zoom)
	st.Rotate(f.rotate)
	st.PanBy(f.panX, f.panY)
}

type frameCmd struct {
	*root
	fs      *flag.FlagSet
	framing framing
	output  string
	submit  bool
	source  string
}

func (f *frameCmd) FlagSet() *flag.FlagSet { return f.fs }

func parseFrameCmd(args []string, r *root) (*frameCmd, error) {
	fs := flag.NewFlagSet("frame", flag.ExitOnError)
	cmd := &frameCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	cmd.framing.register(fs)
	fs.StringVar(&cmd.output, "o", "framed.png", "output file for the framed canvas, - for stdout")
	fs.BoolVar(&cmd.submit, "submit", false, "send the canvas to the processing service and save passport-photo.jpg")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.source = fs.Arg(0)
	if err := cmd.framing.parse(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (f *frameCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []session.Option{
		session.WithNotifier(f.notifier),
		session.WithDownloader(&session.Downloader{Dir: f.saveDir}),
	}
	if f.submit {
		opts = append(opts, session.WithProcessor(processing.New(f.serverURL)))
	}
	sess := session.New(opts...)
	if err := sess.Load(ctx, f.source); err != nil {
		return err
	}
	sess.Apply(f.framing.apply)

	if f.submit {
		path, err := sess.Save(ctx)
		if err != nil {
			var se *processing.ServiceError
			if errors.As(err, &se) {
				return errors.New(session.SaveFailure(se))
			}
			return err
		}
		fmt.Fprintln(f.stdout(), path)
		return nil
	}

	w, err := imageio.Create(f.output)
	if err != nil {
		return err
	}
	if err := imageio.Encode(w, sess.Snapshot(), f.output); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", f.output, err)
	}
	return w.Close()
}
