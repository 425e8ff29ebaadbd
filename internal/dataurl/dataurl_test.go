package dataurl

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestPNGDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{10, 20, 30, 255})

	s, err := PNG(img)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.30s", s)
	}
	out, err := Decode(s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Bounds().Dx() != 3 || out.Bounds().Dy() != 2 {
		t.Fatalf("bounds %v", out.Bounds())
	}
	r, g, b, _ := out.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("pixel = %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestStripAcceptsBareBase64(t *testing.T) {
	if got := Strip("QUJD"); got != "QUJD" {
		t.Fatalf("Strip bare = %q", got)
	}
	if got := Strip("data:image/jpeg;base64,QUJD"); got != "QUJD" {
		t.Fatalf("Strip prefixed = %q", got)
	}
}

func TestBytesRejectsNonImage(t *testing.T) {
	_, err := Bytes("data:text/plain;base64,QUJD")
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if _, err := Bytes("data:image/png;base64,!!!"); err == nil {
		t.Fatal("expected base64 error")
	}
}
