package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/example/passportframe/internal/facecheck"
	"github.com/example/passportframe/internal/session"
)

// ErrCheckFailed is returned when the framed photo does not meet the guide.
var ErrCheckFailed = errors.New("photo does not meet the passport guide")

type checkCmd struct {
	*root
	fs      *flag.FlagSet
	framing framing
	cascade string
	source  string
}

func (c *checkCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseCheckCmd(args []string, r *root) (*checkCmd, error) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cmd := &checkCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	cmd.framing.register(fs)
	def := ""
	if r.config != nil {
		def = r.config.FaceCheck.Cascade
	}
	fs.StringVar(&cmd.cascade, "cascade", def, "pigo face cascade file")
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

func (c *checkCmd) Run() error {
	det, err := facecheck.Load(c.cascade)
	if err != nil {
		if errors.Is(err, facecheck.ErrNoCascade) {
			return fmt.Errorf("%w: pass -cascade or set [facecheck] cascade in the config", err)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sess := session.New()
	if err := sess.Load(ctx, c.source); err != nil {
		return err
	}
	sess.Apply(c.framing.apply)
	canvas := sess.Snapshot()

	faces := det.Detect(canvas)
	out := c.stdout()
	switch len(faces) {
	case 0:
		fmt.Fprintln(out, "no face found")
		return ErrCheckFailed
	case 1:
	default:
		fmt.Fprintf(out, "%d faces found, checking the clearest\n", len(faces))
	}
	report := facecheck.Evaluate(faces[0], canvas.Bounds())
	fmt.Fprintf(out, "head height: %.0f%% of frame (guide %.0f%%-%.0f%%)\n",
		report.HeadRatio*100, facecheck.MinHeadRatio*100, facecheck.MaxHeadRatio*100)
	fmt.Fprintf(out, "centre offset: %+.1f%%\n", report.CenterOffset*100)
	if !report.OK {
		fmt.Fprintln(out, "problems: "+strings.Join(report.Problems(), "; "))
		return ErrCheckFailed
	}
	fmt.Fprintln(out, "ok")
	return nil
}
