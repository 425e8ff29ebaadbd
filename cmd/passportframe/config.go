package main

import (
	"flag"
	"fmt"

	"github.com/example/passportframe/internal/config"
)

type configCmd struct {
	*root
	fs     *flag.FlagSet
	action string
	path   string
}

func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cmd := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.path, "path", "", "file written by save (default: the loaded config or the user config path)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	switch cmd.action = fs.Arg(0); cmd.action {
	case "print", "save", "path":
	default:
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *configCmd) target() string {
	if c.path != "" {
		return c.path
	}
	if c.loader == nil {
		return ""
	}
	if p := c.loader.Path(); p != "" {
		return p
	}
	return c.loader.DefaultPath()
}

// effective folds the global flags into the loaded config.
func (c *configCmd) effective() *config.Config {
	cfg := *c.config
	cfg.ServerURL = c.serverURL
	cfg.SaveDir = c.saveDir
	cfg.Notify = config.Notify{Save: c.saveAlerts, Copy: c.copyAlerts, Error: c.errorAlerts}
	return &cfg
}

func (c *configCmd) Run() error {
	out := c.stdout()
	switch c.action {
	case "print":
		fmt.Fprint(out, c.effective().String())
	case "path":
		fmt.Fprintln(out, c.target())
	case "save":
		p := c.target()
		if p == "" {
			return fmt.Errorf("no config path available")
		}
		if err := config.Save(p, c.effective()); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", p)
	}
	return nil
}
