package main

import (
	"bytes"
	"embed"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var templatesFS embed.FS

var helpTemplates = sync.OnceValue(func() *template.Template {
	return template.Must(template.New("help").ParseFS(templatesFS, "templates/*.txt"))
})

// HelpData is implemented by every command that can print usage.
type HelpData interface {
	Program() string
	Template() string
	FlagSet() *flag.FlagSet
}

// UsageError is returned when a command is invoked incorrectly. Its message is
// the rendered help page.
type UsageError struct {
	of HelpData
}

func (e *UsageError) Error() string {
	var buf bytes.Buffer
	if err := writeHelp(&buf, e.of); err != nil {
		log.Printf("help %s: %v", e.of.Template(), err)
		return e.of.Program() + ": invalid usage"
	}
	return buf.String()
}

type helpFlag struct {
	Name, DefValue, Usage string
}

type helpPage struct {
	Program string
	Flags   []helpFlag
}

func writeHelp(w io.Writer, h HelpData) error {
	page := helpPage{Program: h.Program()}
	if fs := h.FlagSet(); fs != nil {
		fs.VisitAll(func(f *flag.Flag) {
			page.Flags = append(page.Flags, helpFlag{f.Name, f.DefValue, f.Usage})
		})
	}
	return helpTemplates().ExecuteTemplate(w, h.Template(), page)
}

// usageFunc adapts a command to flag.FlagSet.Usage.
func usageFunc(h HelpData) func() {
	return func() {
		fmt.Fprintln(os.Stderr, (&UsageError{of: h}).Error())
	}
}

func (r *root) Template() string       { return "root.txt" }
func (o *openCmd) Template() string    { return "open.txt" }
func (f *frameCmd) Template() string   { return "frame.txt" }
func (c *checkCmd) Template() string   { return "check.txt" }
func (i *infoCmd) Template() string    { return "info.txt" }
func (u *uploadCmd) Template() string  { return "upload.txt" }
func (s *serveCmd) Template() string   { return "serve.txt" }
func (c *configCmd) Template() string  { return "config.txt" }
func (v *versionCmd) Template() string { return "version.txt" }
