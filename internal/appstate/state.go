// Package appstate hosts a framing session in a desktop window.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/passportframe/internal/clipboard"
	"github.com/example/passportframe/internal/imageio"
	"github.com/example/passportframe/internal/input"
	"github.com/example/passportframe/internal/session"
)

const messageDuration = 2 * time.Second

// AppState holds the configuration of the desktop window.
type AppState struct {
	Session *session.Session
	// Source is opened when the window starts.
	Source string
	// Watch reloads Source whenever it changes on disk.
	Watch bool

	paste   func() (image.Image, error)
	onClose func()
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithSource sets the photo opened on start up.
func WithSource(src string) Option { return func(a *AppState) { a.Source = src } }

// WithWatch enables reloading the source photo when it changes.
func WithWatch(on bool) Option { return func(a *AppState) { a.Watch = on } }

// WithPaste replaces the clipboard reader used by the paste action.
func WithPaste(fn func() (image.Image, error)) Option { return func(a *AppState) { a.paste = fn } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState around sess.
func New(sess *session.Session, opts ...Option) *AppState {
	a := &AppState{Session: sess, paste: clipboard.ReadImage}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	l := newLayout()
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: l.width, Height: l.height, Title: "Passport Frame"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	if a.onClose != nil {
		defer a.onClose()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := newPainter(ctx, func(pctx context.Context, st paintState) { drawFrame(pctx, s, w, st) })

	h := newHost(ctx, a, w, l, frames.submit)
	// Runs before Release: no frame or async result may touch the window
	// once it is gone.
	defer func() {
		h.shutdown()
		frames.close()
	}()
	if a.Source != "" {
		h.open(a.Source)
		if a.Watch && a.Source != imageio.Stdin && !imageio.IsURL(a.Source) {
			src := a.Source
			if err := Watch(ctx, src, func() { h.send(reloadEvent{src: src}) }); err != nil {
				log.Printf("watch: %v", err)
			}
		}
	}
	a.Session.Run(h, h.handle)
}

// window is the part of screen.Window the host needs.
type window interface {
	NextEvent() interface{}
	Send(event interface{})
}

type loadedEvent struct {
	src string
	img image.Image
	err error
}

type savedEvent struct {
	path string
	err  error
}

type reloadEvent struct{ src string }

// host sits between the window and the session. It consumes window
// management events itself, turns toolbar clicks into button events and
// passes everything else on to the session as an input.Source.
type host struct {
	ctx    context.Context
	sess   *session.Session
	win    window
	layout layout
	paint  func(paintState)
	paste  func() (image.Image, error)

	hover, pressed input.Action
	prompt         *string
	message        string
	messageUntil   time.Time
	lastSource     string
	closed         bool

	sendMu   sync.Mutex
	released bool
	timer    *time.Timer
}

func newHost(ctx context.Context, a *AppState, w window, l layout, paint func(paintState)) *host {
	a.Session.Controller().Canvas = l.canvas
	return &host{
		ctx:    ctx,
		sess:   a.Session,
		win:    w,
		layout: l,
		paint:  paint,
		paste:  a.paste,
	}
}

// NextEvent implements input.Source. It returns nil once the window is gone.
func (h *host) NextEvent() interface{} {
	for !h.closed {
		if ev, ok := h.filter(h.win.NextEvent()); ok {
			return ev
		}
	}
	return nil
}

func (h *host) filter(ev interface{}) (interface{}, bool) {
	switch e := ev.(type) {
	case nil:
		h.closed = true
	case lifecycle.Event:
		if e.To == lifecycle.StageDead {
			h.closed = true
			return nil, false
		}
		if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
			return input.LeaveEvent{}, true
		}
	case size.Event, paint.Event:
		h.repaint()
	case loadedEvent:
		h.loaded(e)
	case savedEvent:
		if e.err != nil {
			cause := e.err
			if u := errors.Unwrap(cause); u != nil {
				cause = u
			}
			h.flash(session.SaveFailure(cause))
		} else {
			h.flash("saved " + e.path)
		}
		h.repaint()
	case reloadEvent:
		h.open(e.src)
	case key.Event:
		if h.prompt != nil {
			h.editPrompt(e)
			return nil, false
		}
		return ev, true
	case mouse.Event:
		return h.pointer(e)
	default:
		return ev, true
	}
	return nil, false
}

func (h *host) pointer(e mouse.Event) (interface{}, bool) {
	if h.message != "" && time.Now().Before(h.messageUntil) && e.Direction == mouse.DirPress {
		h.messageUntil = time.Time{}
		h.repaint()
		return nil, false
	}
	p := image.Pt(int(e.X), int(e.Y))
	if h.sess.State().Dragging() || p.Y >= toolbarHeight {
		if h.hover != input.ActionNone {
			h.hover = input.ActionNone
			h.repaint()
		}
		return e, true
	}

	hover := input.ActionNone
	btn, ok := h.layout.buttonAt(p)
	if ok {
		hover = btn.Action
	}
	changed := hover != h.hover
	h.hover = hover
	switch {
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress && ok:
		h.pressed = btn.Action
		h.repaint()
		return input.ButtonEvent{Action: btn.Action}, true
	case e.Direction == mouse.DirRelease && h.pressed != input.ActionNone:
		h.pressed = input.ActionNone
		changed = true
	}
	if changed {
		h.repaint()
	}
	return nil, false
}

func (h *host) editPrompt(e key.Event) {
	if e.Direction == key.DirRelease {
		return
	}
	switch e.Code {
	case key.CodeEscape:
		h.prompt = nil
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		path := *h.prompt
		h.prompt = nil
		if path != "" {
			h.open(path)
		}
	case key.CodeDeleteBackspace:
		if r := []rune(*h.prompt); len(r) > 0 {
			*h.prompt = string(r[:len(r)-1])
		}
	default:
		if e.Rune > 0 && unicode.IsPrint(e.Rune) && e.Modifiers&key.ModControl == 0 {
			*h.prompt += string(e.Rune)
		}
	}
	h.repaint()
}

// handle runs after the session has applied an event.
func (h *host) handle(ev interface{}, out input.Outcome) bool {
	if out.Redraw {
		h.repaint()
	}
	switch out.Command {
	case input.CommandUpload:
		p := h.lastSource
		h.prompt = &p
		h.repaint()
	case input.CommandSave:
		h.save()
	case input.CommandCopy:
		if err := h.sess.Copy(); err != nil {
			h.flash(err.Error())
		} else {
			h.flash("copied to clipboard")
		}
		h.repaint()
	case input.CommandPaste:
		h.pasteImage()
	case input.CommandQuit:
		return false
	}
	return true
}

func (h *host) open(src string) {
	err := h.sess.LoadAsync(h.ctx, src, func(img image.Image, err error) {
		h.send(loadedEvent{src: src, img: img, err: err})
	})
	h.reportStart(err)
}

func (h *host) loaded(e loadedEvent) {
	if e.err != nil {
		log.Printf("open: %v", e.err)
		h.flash(fmt.Sprintf("cannot open %s", e.src))
	} else {
		h.sess.LoadImage(e.img)
		h.lastSource = e.src
	}
	h.repaint()
}

func (h *host) save() {
	err := h.sess.SaveAsync(h.ctx, func(path string, err error) {
		h.send(savedEvent{path: path, err: err})
	})
	h.reportStart(err)
}

func (h *host) reportStart(err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		h.flash("busy")
	case err != nil:
		h.flash(err.Error())
	}
	h.repaint()
}

func (h *host) pasteImage() {
	if h.paste == nil {
		return
	}
	img, err := h.paste()
	if err != nil {
		h.flash(err.Error())
	} else {
		h.sess.LoadImage(img)
		h.lastSource = ""
	}
	h.repaint()
}

func (h *host) flash(msg string) {
	log.Print(msg)
	h.message = msg
	h.messageUntil = time.Now().Add(messageDuration)
	h.sendMu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	if !h.released {
		h.timer = time.AfterFunc(messageDuration, func() { h.send(paint.Event{}) })
	}
	h.sendMu.Unlock()
}

// send delivers ev to the window from any goroutine. It is a no-op after
// shutdown.
func (h *host) send(ev interface{}) {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	if !h.released {
		h.win.Send(ev)
	}
}

// shutdown stops pending timers and drops later sends.
func (h *host) shutdown() {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	h.released = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *host) repaint() {
	if h.paint == nil {
		return
	}
	var prompt *string
	if h.prompt != nil {
		p := *h.prompt
		prompt = &p
	}
	h.paint(paintState{
		layout:       h.layout,
		canvas:       h.sess.Snapshot(),
		state:        h.sess.State(),
		hover:        h.hover,
		pressed:      h.pressed,
		busy:         h.sess.Busy(),
		prompt:       prompt,
		message:      h.message,
		messageUntil: h.messageUntil,
	})
}
