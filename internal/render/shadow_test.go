package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestShadowMaskBounds(t *testing.T) {
	sheet := image.Rect(10, 10, 60, 80)
	s := Shadow{Radius: 4, Offset: image.Pt(3, 5), Opacity: 0.5}
	m := s.Mask(sheet)
	if m == nil {
		t.Fatal("expected a mask")
	}
	if want := image.Rect(9, 11, 67, 89); m.Bounds() != want {
		t.Fatalf("mask bounds %v, want %v", m.Bounds(), want)
	}
	// Centre of the shadow keeps the full opacity, the outer edge fades.
	centre := m.AlphaAt(38, 50).A
	if centre != 128 {
		t.Fatalf("centre alpha %d, want 128", centre)
	}
	if edge := m.AlphaAt(9, 11).A; edge == 0 || edge >= centre {
		t.Fatalf("edge alpha %d should be a partial fade", edge)
	}
}

func TestShadowInvisible(t *testing.T) {
	if m := (Shadow{Radius: 4, Opacity: 0}).Mask(image.Rect(0, 0, 10, 10)); m != nil {
		t.Fatal("zero opacity should produce no mask")
	}
	if m := DefaultShadow.Mask(image.Rectangle{}); m != nil {
		t.Fatal("empty sheet should produce no mask")
	}
}

func TestShadowDrawDarkensBackdrop(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	sheet := image.Rect(20, 20, 60, 60)
	DefaultShadow.Draw(dst, sheet)
	below := dst.RGBAAt(40, 63)
	if below.R >= 255 {
		t.Fatalf("expected shadow below the sheet, got %v", below)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("far corner changed to %v", got)
	}
}
