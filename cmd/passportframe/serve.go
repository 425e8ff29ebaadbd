package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/passportframe/internal/server"
)

type serveCmd struct {
	*root
	fs   *flag.FlagSet
	opts server.Options
}

func (s *serveCmd) FlagSet() *flag.FlagSet { return s.fs }

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cmd := &serveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	def := r.config.Serve
	fs.StringVar(&cmd.opts.Addr, "addr", def.Addr, "listen address")
	fs.StringVar(&cmd.opts.UploadDir, "upload-dir", def.UploadDir, "directory uploaded photos are stored in (default: a temporary directory)")
	fs.IntVar(&cmd.opts.MaxUploadMB, "max-upload-mb", def.MaxUploadMB, "largest accepted upload in megabytes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (s *serveCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(s.opts).ListenAndServe(ctx)
}
