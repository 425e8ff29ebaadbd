package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/example/passportframe/internal/imageio"
	"github.com/example/passportframe/internal/viewport"
)

type infoCmd struct {
	*root
	fs     *flag.FlagSet
	source string
}

func (i *infoCmd) FlagSet() *flag.FlagSet { return i.fs }

func parseInfoCmd(args []string, r *root) (*infoCmd, error) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cmd := &infoCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.source = fs.Arg(0)
	return cmd, nil
}

func (i *infoCmd) Run() error {
	rc, err := imageio.Open(context.Background(), i.source)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", i.source, err)
	}
	info, err := imageio.Inspect(bytes.NewReader(data))
	if err != nil {
		return err
	}

	out := i.stdout()
	w, h := info.DisplaySize()
	fmt.Fprintf(out, "format: %s\n", info.Format)
	fmt.Fprintf(out, "size: %dx%d\n", w, h)
	if info.Rotated() {
		fmt.Fprintf(out, "stored: %dx%d (orientation %d)\n", info.Width, info.Height, info.Orientation)
	}
	if !info.Taken.IsZero() {
		fmt.Fprintf(out, "taken: %s\n", info.Taken.Format("2006-01-02 15:04:05"))
	}
	keys := make([]string, 0, len(info.EXIF))
	for k := range info.EXIF {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, info.EXIF[k])
	}
	fit := min(float64(viewport.CanvasWidth)/float64(w), float64(viewport.CanvasHeight)/float64(h))
	fmt.Fprintf(out, "zoom to fit %dx%d: %.3f\n", viewport.CanvasWidth, viewport.CanvasHeight, fit)
	return nil
}
