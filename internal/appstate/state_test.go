package appstate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/passportframe/internal/input"
	"github.com/example/passportframe/internal/session"
	"github.com/example/passportframe/internal/viewport"
)

type fakeWindow struct{ events chan interface{} }

func newFakeWindow() *fakeWindow { return &fakeWindow{events: make(chan interface{}, 256)} }

func (w *fakeWindow) NextEvent() interface{} {
	select {
	case ev := <-w.events:
		return ev
	case <-time.After(5 * time.Second):
		return nil
	}
}

func (w *fakeWindow) Send(ev interface{}) { w.events <- ev }

func (w *fakeWindow) push(evs ...interface{}) {
	for _, ev := range evs {
		w.events <- ev
	}
}

var dead = lifecycle.Event{From: lifecycle.StageFocused, To: lifecycle.StageDead}

type processorFunc func(context.Context, image.Image) ([]byte, error)

func (f processorFunc) Process(ctx context.Context, img image.Image) ([]byte, error) {
	return f(ctx, img)
}

func photo() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 2*viewport.CanvasWidth, 2*viewport.CanvasHeight))
}

type harness struct {
	t        *testing.T
	sess     *session.Session
	win      *fakeWindow
	host     *host
	messages chan string
	done     chan struct{}
}

func newHarness(t *testing.T, sess *session.Session, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, sess: sess, win: newFakeWindow(), messages: make(chan string, 1024), done: make(chan struct{})}
	a := New(sess, opts...)
	h.host = newHost(context.Background(), a, h.win, newLayout(), func(st paintState) {
		select {
		case h.messages <- st.message:
		default:
		}
	})
	return h
}

func (h *harness) start() {
	go func() {
		defer close(h.done)
		h.sess.Run(h.host, h.host.handle)
	}()
}

func (h *harness) stop() {
	h.t.Helper()
	h.win.push(dead)
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		h.t.Fatal("event loop did not stop")
	}
}

func (h *harness) waitFor(cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			h.t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitMessage blocks until a repaint shows a message starting with prefix.
func (h *harness) waitMessage(prefix string) string {
	h.t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-h.messages:
			if msg != "" && strings.HasPrefix(msg, prefix) {
				return msg
			}
		case <-timeout:
			h.t.Fatalf("no message starting with %q", prefix)
			return ""
		}
	}
}

func (h *harness) buttonCenter(a input.Action) mouse.Event {
	for _, b := range h.host.layout.buttons {
		if b.Action == a {
			c := b.Rect().Min.Add(b.Rect().Size().Div(2))
			return mouse.Event{X: float32(c.X), Y: float32(c.Y), Button: mouse.ButtonLeft, Direction: mouse.DirPress}
		}
	}
	h.t.Fatalf("no button for %v", a)
	return mouse.Event{}
}

func ctrlKey(r rune, code key.Code) key.Event {
	return key.Event{Rune: r, Code: code, Modifiers: key.ModControl, Direction: key.DirPress}
}

func TestLayoutFitsCanvas(t *testing.T) {
	l := newLayout()
	if l.canvas.Dx() != viewport.CanvasWidth || l.canvas.Dy() != viewport.CanvasHeight {
		t.Fatalf("canvas %v", l.canvas)
	}
	if l.canvas.Min.Y < toolbarHeight || l.canvas.Max.Y > l.height-statusHeight {
		t.Fatalf("canvas %v overlaps toolbar or status bar in %dx%d", l.canvas, l.width, l.height)
	}
	if len(l.buttons) != len(input.Toolbar) {
		t.Fatalf("%d buttons", len(l.buttons))
	}
	for _, b := range l.buttons {
		if b.Rect().Max.X > l.width {
			t.Fatalf("button %v outside window", b.Action)
		}
	}
}

func TestToolbarClickRotates(t *testing.T) {
	sess := session.New()
	sess.LoadImage(photo())
	h := newHarness(t, sess)
	h.win.push(h.buttonCenter(input.ActionRotateRight), h.buttonCenter(input.ActionRotateRight))
	h.start()
	h.stop()
	if got := sess.State().Rotation(); got != 180 {
		t.Fatalf("rotation %d, want 180", got)
	}
}

func TestToolbarDisabledWithoutImage(t *testing.T) {
	sess := session.New()
	h := newHarness(t, sess)
	h.win.push(h.buttonCenter(input.ActionZoomIn))
	h.start()
	h.stop()
	if sess.State().Zoom() != 1 {
		t.Fatalf("zoom changed without a photo: %v", sess.State().Zoom())
	}
}

func TestDragPansAndFocusLossEndsIt(t *testing.T) {
	sess := session.New()
	sess.LoadImage(photo())
	h := newHarness(t, sess)
	c := h.host.layout.canvas
	x, y := float32(c.Min.X+100), float32(c.Min.Y+100)
	h.win.push(
		mouse.Event{X: x, Y: y, Button: mouse.ButtonLeft, Direction: mouse.DirPress},
		mouse.Event{X: x + 10, Y: y},
		lifecycle.Event{From: lifecycle.StageFocused, To: lifecycle.StageVisible},
		mouse.Event{X: x + 40, Y: y},
	)
	h.start()
	h.stop()
	st := sess.State()
	if px, _ := st.Pan(); px != 10 {
		t.Fatalf("pan x %v, want 10", px)
	}
	if st.Dragging() {
		t.Fatal("focus loss should end the drag")
	}
}

func TestOpenPromptLoadsPhoto(t *testing.T) {
	var opened string
	sess := session.New(session.WithLoader(func(ctx context.Context, src string) (image.Image, error) {
		opened = src
		return photo(), nil
	}))
	h := newHarness(t, sess)
	h.win.push(ctrlKey('o', key.CodeO))
	for _, r := range "me.png0" {
		h.win.push(key.Event{Rune: r, Direction: key.DirPress})
	}
	h.win.push(
		key.Event{Code: key.CodeDeleteBackspace, Direction: key.DirPress},
		key.Event{Code: key.CodeReturnEnter, Direction: key.DirPress},
	)
	h.start()
	h.waitFor(sess.HasImage)
	h.stop()
	if opened != "me.png" {
		t.Fatalf("opened %q", opened)
	}
	if sess.State().Zoom() != 1 {
		t.Fatal("typing into the prompt reached the viewport")
	}
	if h.host.lastSource != "me.png" {
		t.Fatalf("last source %q", h.host.lastSource)
	}
}

func TestOpenFailureShowsMessage(t *testing.T) {
	sess := session.New(session.WithLoader(func(context.Context, string) (image.Image, error) {
		return nil, errors.New("corrupt")
	}))
	h := newHarness(t, sess)
	h.host.open("bad.jpg")
	h.start()
	msg := h.waitMessage("cannot open")
	h.stop()
	if sess.HasImage() || !strings.Contains(msg, "bad.jpg") {
		t.Fatalf("message %q", msg)
	}
}

func TestSaveShortcut(t *testing.T) {
	dir := t.TempDir()
	sess := session.New(
		session.WithProcessor(processorFunc(func(context.Context, image.Image) ([]byte, error) {
			return []byte("jpeg"), nil
		})),
		session.WithDownloader(&session.Downloader{Dir: dir}),
	)
	sess.LoadImage(photo())
	h := newHarness(t, sess)
	h.win.push(ctrlKey('s', key.CodeS))
	h.start()
	msg := h.waitMessage("saved ")
	h.stop()
	if want := "saved " + filepath.Join(dir, session.DownloadName); msg != want {
		t.Fatalf("message %q, want %q", msg, want)
	}
}

func TestSaveWhileBusy(t *testing.T) {
	release := make(chan struct{})
	sess := session.New(
		session.WithProcessor(processorFunc(func(context.Context, image.Image) ([]byte, error) {
			<-release
			return nil, errors.New("offline")
		})),
		session.WithDownloader(&session.Downloader{Dir: t.TempDir()}),
	)
	sess.LoadImage(photo())
	h := newHarness(t, sess)
	h.win.push(ctrlKey('s', key.CodeS), ctrlKey('s', key.CodeS))
	h.start()
	h.waitMessage("busy")
	h.stop()
	close(release)
}

func TestPasteLoadsClipboardImage(t *testing.T) {
	sess := session.New()
	h := newHarness(t, sess, WithPaste(func() (image.Image, error) { return photo(), nil }))
	h.win.push(ctrlKey('v', key.CodeV))
	h.start()
	h.stop()
	if !sess.HasImage() {
		t.Fatal("paste did not load the photo")
	}
}

func TestQuitShortcutStopsLoop(t *testing.T) {
	sess := session.New()
	h := newHarness(t, sess)
	h.win.push(ctrlKey('q', key.CodeQ))
	h.start()
	select {
	case <-h.done:
	case <-time.After(5 * time.Second):
		t.Fatal("quit did not stop the loop")
	}
}

func TestComposeFrame(t *testing.T) {
	sess := session.New()
	l := newLayout()
	dst := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	composeFrame(dst, paintState{layout: l, canvas: sess.Snapshot(), state: sess.State()})

	if got := dst.RGBAAt(l.canvas.Min.X+1, l.canvas.Min.Y+1); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("canvas corner %v, want white", got)
	}
	if got := dst.RGBAAt(1, l.height/2); got != backdrop {
		t.Fatalf("backdrop %v", got)
	}
	if got := dst.RGBAAt(l.canvas.Min.X+l.canvas.Dx()/2, l.canvas.Max.Y+3); got.R >= backdrop.R {
		t.Fatalf("expected a shadow under the canvas, got %v", got)
	}
	var save *CacheButton
	for _, b := range l.buttons {
		if b.Action == input.ActionSave {
			save = b
		}
	}
	if got := dst.RGBAAt(save.Rect().Min.X+2, save.Rect().Min.Y+2); got != (color.RGBA{225, 225, 225, 255}) {
		t.Fatalf("save button should be disabled without a photo, got %v", got)
	}
}

func TestWatchReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 4)
	if err := Watch(ctx, path, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changed:
		t.Fatal("burst of writes reported more than once")
	case <-time.After(3 * reloadDelay):
	}
}
