package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/example/passportframe/internal/imageio"
	"github.com/example/passportframe/internal/processing"
)

type uploadCmd struct {
	*root
	fs      *flag.FlagSet
	preview string
	source  string
}

func (u *uploadCmd) FlagSet() *flag.FlagSet { return u.fs }

func parseUploadCmd(args []string, r *root) (*uploadCmd, error) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	cmd := &uploadCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.preview, "preview", "", "write the returned preview to this file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.source = fs.Arg(0)
	return cmd, nil
}

func (u *uploadCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rc, err := imageio.Open(ctx, u.source)
	if err != nil {
		return err
	}
	defer rc.Close()

	name := filepath.Base(u.source)
	if u.source == imageio.Stdin {
		name = "stdin.png"
	}
	stored, preview, err := processing.New(u.serverURL).Upload(ctx, name, rc)
	if err != nil {
		var se *processing.ServiceError
		if errors.As(err, &se) {
			return fmt.Errorf("upload rejected: %s", se.Message)
		}
		return err
	}

	out := u.stdout()
	fmt.Fprintf(out, "stored as %s\n", stored)
	if preview == nil {
		return nil
	}
	b := preview.Bounds()
	fmt.Fprintf(out, "preview %dx%d\n", b.Dx(), b.Dy())
	if u.preview == "" {
		return nil
	}
	w, err := imageio.Create(u.preview)
	if err != nil {
		return err
	}
	if err := imageio.Encode(w, preview, u.preview); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", u.preview, err)
	}
	return w.Close()
}
