// Package imageio loads source photos and writes framed output.
package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/term"
)

// Stdin is the source name that reads from standard input.
const Stdin = "-"

// MaxDownload caps the size of a photo fetched over HTTP.
const MaxDownload = 32 << 20

var (
	// ErrNotImage is returned when content does not sniff as an image.
	ErrNotImage = errors.New("not an image")
	// ErrUnsupportedFormat is returned by Encode for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTerminal is returned when stdin or stdout is a terminal but a pipe
	// is required.
	ErrTerminal = errors.New("`-` should be used with a pipe")
)

// isTerminal is swapped in tests.
var isTerminal = term.IsTerminal

// Decode reads an image in any registered format, applies its EXIF
// orientation and returns it as NRGBA.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n, nil
	}
	return imaging.Clone(img), nil
}

// IsURL reports whether src is an absolute http or https URL.
func IsURL(src string) bool {
	u, err := url.ParseRequestURI(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Open returns a reader for a local path, a URL or Stdin.
func Open(ctx context.Context, src string) (io.ReadCloser, error) {
	switch {
	case src == Stdin:
		if isTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("stdin: %w", ErrTerminal)
		}
		return io.NopCloser(os.Stdin), nil
	case IsURL(src):
		data, err := download(ctx, src)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	return f, nil
}

// Load opens and decodes src.
func Load(ctx context.Context, src string) (*image.NRGBA, error) {
	rc, err := Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

func download(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", src, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %s", src, res.Status)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, MaxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(data) > MaxDownload {
		return nil, fmt.Errorf("download %s: larger than %d bytes", src, MaxDownload)
	}
	if err := sniff(data); err != nil {
		return nil, fmt.Errorf("download %s: %w", src, err)
	}
	return data, nil
}

// sniff checks the first 512 bytes of data for an image content type.
func sniff(data []byte) error {
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return ErrNotImage
	}
	return nil
}

// Encode writes img in the format implied by the extension of name. An empty
// extension writes PNG.
func Encode(w io.Writer, img image.Image, name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".png":
		return imaging.Encode(w, img, imaging.PNG)
	case ".jpg", ".jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(95))
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
}

// Create opens dst for writing. Stdin's name selects standard output, which
// must not be a terminal.
func Create(dst string) (io.WriteCloser, error) {
	if dst == Stdin {
		if isTerminal(int(os.Stdout.Fd())) {
			return nil, fmt.Errorf("stdout: %w", ErrTerminal)
		}
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
