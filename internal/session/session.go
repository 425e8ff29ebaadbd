// Package session ties a viewport, its canvas and the processing service
// together for one framing session.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log"
	"sync"
	"sync/atomic"

	"github.com/example/passportframe/internal/imageio"
	"github.com/example/passportframe/internal/input"
	"github.com/example/passportframe/internal/processing"
	"github.com/example/passportframe/internal/render"
	"github.com/example/passportframe/internal/viewport"
)

var (
	// ErrBusy is returned when a load or save starts while another is
	// still pending.
	ErrBusy = errors.New("busy: another load or save is in progress")
	// ErrNoImage is returned by operations that need a loaded photo.
	ErrNoImage = errors.New("no photo loaded")
	// ErrNoProcessor is returned by Save when no service is configured.
	ErrNoProcessor = errors.New("no processing service configured")
)

// Processor turns a framed canvas into the final photo.
type Processor interface {
	Process(ctx context.Context, canvas image.Image) ([]byte, error)
}

// Notifier reports results to the user.
type Notifier interface {
	Save(path string)
	Copy(detail string)
	Error(message string)
}

// LoaderFunc decodes a source photo.
type LoaderFunc func(ctx context.Context, src string) (image.Image, error)

func defaultLoader(ctx context.Context, src string) (image.Image, error) {
	img, err := imageio.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Session owns the viewport state and canvas of one framing session.
type Session struct {
	mu     sync.Mutex
	state  viewport.State
	canvas *image.RGBA

	controller *input.Controller
	processor  Processor
	downloader *Downloader
	notifier   Notifier
	load       LoaderFunc
	clipboard  func(image.Image) error

	busy atomic.Bool
}

// Option modifies a Session during creation.
type Option func(*Session)

// WithProcessor sets the service used by Save.
func WithProcessor(p Processor) Option { return func(s *Session) { s.processor = p } }

// WithDownloader sets where processed photos are written.
func WithDownloader(d *Downloader) Option { return func(s *Session) { s.downloader = d } }

// WithNotifier sets the user notification sink.
func WithNotifier(n Notifier) Option { return func(s *Session) { s.notifier = n } }

// WithLoader replaces the source photo decoder.
func WithLoader(fn LoaderFunc) Option { return func(s *Session) { s.load = fn } }

// WithController replaces the input controller.
func WithController(c *input.Controller) Option { return func(s *Session) { s.controller = c } }

// WithClipboard sets the function used by Copy.
func WithClipboard(fn func(image.Image) error) Option { return func(s *Session) { s.clipboard = fn } }

// New creates a session with no photo loaded.
func New(opts ...Option) *Session {
	s := &Session{
		state:  viewport.New(),
		canvas: render.NewCanvas(),
		load:   defaultLoader,
	}
	for _, o := range opts {
		o(s)
	}
	if s.controller == nil {
		s.controller = input.NewController(image.Rectangle{})
	}
	if s.downloader == nil {
		s.downloader = &Downloader{}
	}
	s.redraw()
	return s
}

// Controller returns the input controller.
func (s *Session) Controller() *input.Controller { return s.controller }

// State returns a copy of the current viewport state.
func (s *Session) State() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HasImage reports whether a photo is loaded.
func (s *Session) HasImage() bool { return s.State().HasImage() }

// Busy reports whether a load or save is pending.
func (s *Session) Busy() bool { return s.busy.Load() }

// Snapshot returns a copy of the current canvas.
func (s *Session) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.canvas.Bounds())
	draw.Draw(out, out.Bounds(), s.canvas, s.canvas.Bounds().Min, draw.Src)
	return out
}

// Dispatch applies an input event and repaints the canvas when needed.
// Commands in the returned Outcome are left to the caller.
func (s *Session) Dispatch(ev interface{}) input.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, out := s.controller.Handle(s.state, ev)
	s.state = next
	if out.Redraw {
		s.redraw()
	}
	return out
}

// Run feeds events from src through Dispatch and hands each event and its
// outcome to handle. It returns when src yields nil or handle returns false.
func (s *Session) Run(src input.Source, handle func(ev interface{}, out input.Outcome) bool) {
	for {
		ev := src.NextEvent()
		if ev == nil {
			return
		}
		out := s.Dispatch(ev)
		if handle != nil && !handle(ev, out) {
			return
		}
	}
}

// Apply runs fn against the viewport state and repaints the canvas.
func (s *Session) Apply(fn func(st *viewport.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.redraw()
}

// LoadImage replaces the photo and resets the transform.
func (s *Session) LoadImage(img image.Image) {
	s.Apply(func(st *viewport.State) { st.LoadImage(img) })
}

// redraw must be called with mu held.
func (s *Session) redraw() {
	render.Render(s.canvas, s.state)
	if !s.state.HasImage() {
		render.Placeholder(s.canvas)
	}
}

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) release() { s.busy.Store(false) }

// Load decodes src and loads it into the viewport.
func (s *Session) Load(ctx context.Context, src string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	img, err := s.load(ctx, src)
	s.release()
	if err != nil {
		return fmt.Errorf("load %s: %w", src, err)
	}
	s.LoadImage(img)
	return nil
}

// LoadAsync decodes src in the background and passes the result to done.
// The photo is not applied; done is expected to call LoadImage on the
// goroutine that owns the session. It returns ErrBusy without starting when
// another load or save is pending.
func (s *Session) LoadAsync(ctx context.Context, src string, done func(image.Image, error)) error {
	if err := s.acquire(); err != nil {
		return err
	}
	go func() {
		img, err := s.load(ctx, src)
		s.release()
		if err != nil {
			err = fmt.Errorf("load %s: %w", src, err)
		}
		done(img, err)
	}()
	return nil
}

// Save submits the canvas for processing and writes the result as the
// download file. The viewport is never changed. On failure the user is
// notified and the error is returned; nothing is retried.
func (s *Session) Save(ctx context.Context) (string, error) {
	snap, err := s.beginSave()
	if err != nil {
		return "", err
	}
	defer s.release()
	return s.submit(ctx, snap)
}

// SaveAsync is Save with the network round trip in the background. The
// canvas is captured before it returns.
func (s *Session) SaveAsync(ctx context.Context, done func(string, error)) error {
	snap, err := s.beginSave()
	if err != nil {
		return err
	}
	go func() {
		path, err := s.submit(ctx, snap)
		s.release()
		done(path, err)
	}()
	return nil
}

func (s *Session) beginSave() (*image.RGBA, error) {
	if !s.HasImage() {
		return nil, ErrNoImage
	}
	if s.processor == nil {
		return nil, ErrNoProcessor
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

func (s *Session) submit(ctx context.Context, snap image.Image) (string, error) {
	data, err := s.processor.Process(ctx, snap)
	if err != nil {
		s.notifyError(SaveFailure(err))
		return "", fmt.Errorf("save: %w", err)
	}
	path, err := s.downloader.Download(DownloadName, data)
	if err != nil {
		s.notifyError(SaveFailure(err))
		return "", fmt.Errorf("save: %w", err)
	}
	log.Printf("saved %s", path)
	if s.notifier != nil {
		s.notifier.Save(path)
	}
	return path, nil
}

// Copy places the framed canvas on the clipboard.
func (s *Session) Copy() error {
	if !s.HasImage() {
		return ErrNoImage
	}
	if s.clipboard == nil {
		return errors.New("clipboard unavailable")
	}
	if err := s.clipboard(s.Snapshot()); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Copy("framed photo")
	}
	return nil
}

func (s *Session) notifyError(msg string) {
	log.Print(msg)
	if s.notifier != nil {
		s.notifier.Error(msg)
	}
}

// SaveFailure formats the message shown to the user. Service messages are
// passed through unchanged.
func SaveFailure(err error) string {
	var se *processing.ServiceError
	if errors.As(err, &se) {
		return "Failed to save photo: " + se.Message
	}
	return "Failed to save photo: " + err.Error()
}
