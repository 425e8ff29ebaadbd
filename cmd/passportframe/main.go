package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/passportframe/internal/config"
	"github.com/example/passportframe/internal/notify"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	out      io.Writer
	loader   *config.Loader
	config   *config.Config
	notifier *notify.Notifier

	serverURL   string
	saveDir     string
	saveAlerts  bool
	copyAlerts  bool
	errorAlerts bool
}

func (r *root) Program() string { return r.program }

func (r *root) FlagSet() *flag.FlagSet { return r.fs }

func (r *root) stdout() io.Writer {
	if r.out == nil {
		return os.Stdout
	}
	return r.out
}

func (r *root) subcommand(name string) *root {
	child := *r
	child.fs = nil
	child.program = strings.TrimSpace(r.program + " " + name)
	return &child
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
		cfg.ApplyEnv(os.Getenv)
	}

	r := &root{
		fs:       flag.NewFlagSet("passportframe", flag.ExitOnError),
		program:  "passportframe",
		loader:   loader,
		config:   cfg,
		notifier: notify.New(notify.LoadPreferences(os.Getenv)),
	}
	// Precedence: CLI > Env > Config > Default. The loader has already
	// applied the environment on top of the file.
	r.fs.StringVar(&r.serverURL, "server", cfg.ServerURL, "base URL of the processing service")
	r.fs.StringVar(&r.saveDir, "save-dir", cfg.SaveDir, "directory processed photos are written to")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving a photo")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.errorAlerts, "notify-error", cfg.Notify.Error, "show a desktop notification when saving fails")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventError, r.errorAlerts)
	}

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "open":
		cmd, err = parseOpenCmd(subArgs, r.subcommand(cmdName))
	case "frame":
		cmd, err = parseFrameCmd(subArgs, r.subcommand(cmdName))
	case "check":
		cmd, err = parseCheckCmd(subArgs, r.subcommand(cmdName))
	case "info":
		cmd, err = parseInfoCmd(subArgs, r.subcommand(cmdName))
	case "upload":
		cmd, err = parseUploadCmd(subArgs, r.subcommand(cmdName))
	case "serve":
		cmd, err = parseServeCmd(subArgs, r.subcommand(cmdName))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(cmdName))
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
