// Package notify turns session results into desktop notifications.
package notify

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/passportframe/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave fires when a processed photo is written to disk.
	EventSave Event = "save"
	// EventCopy fires when the framed photo is placed on the clipboard.
	EventCopy Event = "copy"
	// EventError fires when a save or load fails.
	EventError Event = "error"
)

// Preferences describes notification text.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built in notification text.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Passport Frame",
		Templates: map[Event]string{
			EventSave:  "Saved %s",
			EventCopy:  "Copied %s to clipboard",
			EventError: "%s",
		},
	}
}

// LoadPreferences applies PASSPORTFRAME_NOTIFY_* overrides to the defaults.
func LoadPreferences(getenv func(string) string) Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("PASSPORTFRAME_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range []Event{EventSave, EventCopy, EventError} {
		key := "PASSPORTFRAME_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Templates[ev] = v
		}
	}
	return prefs
}

// send is replaced in tests.
var send = platform.Notify

// Notifier sends desktop notifications for the enabled events. A nil
// Notifier sends nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	templates := make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		templates[k] = v
	}
	return &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: templates},
		enabled: map[Event]bool{},
	}
}

// Enable toggles the notifier for event.
func (n *Notifier) Enable(event Event, on bool) {
	if n == nil {
		return
	}
	n.enabled[event] = on
}

// Save reports a written photo and uses it as the notification icon.
func (n *Notifier) Save(path string) {
	detail := strings.TrimSpace(path)
	opts := platform.Options{Timeout: 5 * time.Second}
	if abs, err := filepath.Abs(detail); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copy reports a clipboard copy.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "photo"
	}
	n.dispatch(EventCopy, detail, platform.Options{Timeout: 5 * time.Second})
}

// Error reports a failure. It stays on screen until dismissed.
func (n *Notifier) Error(message string) {
	n.dispatch(EventError, message, platform.Options{Critical: true})
}

// expand puts detail in place of the first %s in tmpl. Templates without one
// get the detail appended. No other verbs are interpreted.
func expand(tmpl, detail string) string {
	if strings.Contains(tmpl, "%s") {
		return strings.Replace(tmpl, "%s", detail, 1)
	}
	if detail == "" {
		return tmpl
	}
	return tmpl + " " + detail
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if n == nil || !n.enabled[event] {
		return
	}
	tmpl := strings.TrimSpace(n.prefs.Templates[event])
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(expand(tmpl, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	opts.AppName = n.prefs.Title
	if err := send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}
