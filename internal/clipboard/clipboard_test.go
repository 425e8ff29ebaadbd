package clipboard

import (
	"errors"
	"image"
	"image/color"
	"runtime"
	"sync"
	"testing"
)

type memoryBackend struct{ data []byte }

func (m *memoryBackend) writePNG(data []byte) error { m.data = data; return nil }
func (m *memoryBackend) readPNG() ([]byte, error)   { return m.data, nil }

func useBackend(t *testing.T, b backend) {
	t.Helper()
	initOnce = sync.Once{}
	initErr = nil
	active = b
	initOnce.Do(func() {})
	t.Cleanup(func() {
		initOnce = sync.Once{}
		initErr = nil
		active = nil
	})
}

func TestImageRoundTrip(t *testing.T) {
	useBackend(t, &memoryBackend{})
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(2, 1, color.RGBA{10, 20, 30, 255})
	if err := WriteImage(src); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	got, err := ReadImage()
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds %v", got.Bounds())
	}
	r, g, b, _ := got.At(2, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("pixel %v", got.At(2, 1))
	}
}

func TestReadEmpty(t *testing.T) {
	useBackend(t, &memoryBackend{})
	if _, err := ReadImage(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestEnsureInitWithoutDisplay(t *testing.T) {
	if !needsDisplay() {
		t.Skipf("%s has no display requirement", runtime.GOOS)
	}
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	initOnce = sync.Once{}
	initErr = nil
	t.Cleanup(func() { initOnce = sync.Once{}; initErr = nil })

	if err := WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
}
