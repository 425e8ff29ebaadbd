// Package server implements the photo processing service: it accepts source
// uploads and turns framed canvases into the final JPEG.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/example/passportframe/internal/dataurl"
	"github.com/example/passportframe/internal/imageio"
	"github.com/example/passportframe/internal/viewport"
)

const (
	// DefaultMaxUploadMB caps upload and process request bodies.
	DefaultMaxUploadMB = 16
	// PreviewSize bounds both sides of the upload preview.
	PreviewSize = 800
	// MaxTargetScale bounds the requested output size as a multiple of the
	// canvas size.
	MaxTargetScale = 4
	// JPEGQuality is used for the processed photo.
	JPEGQuality = 95
	// DownloadName is the attachment name of the processed photo.
	DownloadName = "passport_photo.jpg"
)

var allowedExt = map[string]bool{"jpg": true, "jpeg": true, "png": true}

// Options configures a Server.
type Options struct {
	Addr        string
	UploadDir   string
	MaxUploadMB int
}

// Server serves the upload and process endpoints.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// New returns a Server. Missing options fall back to defaults.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8000"
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = DefaultMaxUploadMB
	}
	if opts.UploadDir == "" {
		opts.UploadDir = filepath.Join(os.TempDir(), "passportframe-uploads")
	}
	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /process", s.handleProcess)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return s
}

// Handler returns the request handler with access logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Printf("processing service listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type processRequest struct {
	ImageData *string `json:"imageData"`
	Width     *int    `json:"width"`
	Height    *int    `json:"height"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.opts.MaxUploadMB)<<20)
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("request too large"))
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.ImageData == nil {
		writeError(w, http.StatusInternalServerError, errors.New("missing imageData"))
		return
	}
	width, height := viewport.CanvasWidth, viewport.CanvasHeight
	if req.Width != nil {
		width = *req.Width
	}
	if req.Height != nil {
		height = *req.Height
	}
	if width <= 0 || height <= 0 || width > MaxTargetScale*viewport.CanvasWidth || height > MaxTargetScale*viewport.CanvasHeight {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("invalid target size %dx%d", width, height))
		return
	}

	img, err := dataurl.Decode(*req.ImageData)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := Finish(img, width, height)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", DownloadName))
	if err := imaging.Encode(w, out, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		log.Printf("process: encode: %v", err)
	}
}

// Finish resizes img to exactly width×height when needed and flattens any
// transparency onto white.
func Finish(img image.Image, width, height int) *image.NRGBA {
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		log.Printf("received image size %dx%d differs from target %dx%d, resizing", b.Dx(), b.Dy(), width, height)
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	bg := imaging.New(width, height, color.White)
	return imaging.Overlay(bg, img, image.Point{}, 1)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.opts.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("file too large"))
			return
		}
		writeError(w, http.StatusBadRequest, errors.New("no file"))
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil || hdr.Filename == "" {
		writeError(w, http.StatusBadRequest, errors.New("no file"))
		return
	}
	defer f.Close()
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(hdr.Filename), "."))
	if !allowedExt[ext] {
		writeError(w, http.StatusBadRequest, errors.New("bad type"))
		return
	}

	img, err := imageio.Decode(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	name, err := s.store(img, ext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	preview := resize.Thumbnail(PreviewSize, PreviewSize, img, resize.Lanczos3)
	data, err := dataurl.JPEG(preview, 75)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": name,
		"image":    data,
	})
}

// store saves the oriented upload under a random name and returns the name.
func (s *Server) store(img image.Image, ext string) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("random name: %w", err)
	}
	name := hex.EncodeToString(id) + "." + ext
	if err := imaging.Save(img, filepath.Join(s.opts.UploadDir, name)); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return name, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Printf("error processing request: %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
