package main

import (
	"flag"

	"github.com/example/passportframe/internal/appstate"
	"github.com/example/passportframe/internal/clipboard"
	"github.com/example/passportframe/internal/processing"
	"github.com/example/passportframe/internal/session"
)

type openCmd struct {
	*root
	fs     *flag.FlagSet
	watch  bool
	source string
}

func (o *openCmd) FlagSet() *flag.FlagSet { return o.fs }

func parseOpenCmd(args []string, r *root) (*openCmd, error) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	cmd := &openCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.BoolVar(&cmd.watch, "watch", false, "reload the photo when the file changes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.source = fs.Arg(0)
	return cmd, nil
}

func (o *openCmd) Run() error {
	sess := session.New(
		session.WithProcessor(processing.New(o.serverURL)),
		session.WithDownloader(&session.Downloader{Dir: o.saveDir}),
		session.WithNotifier(o.notifier),
		session.WithClipboard(clipboard.WriteImage),
	)
	appstate.New(sess,
		appstate.WithSource(o.source),
		appstate.WithWatch(o.watch),
	).Run()
	return nil
}
