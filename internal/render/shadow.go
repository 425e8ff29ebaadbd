package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Shadow describes a soft drop shadow cast by a rectangular sheet.
type Shadow struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadow is the shadow drawn under the canvas in the window.
var DefaultShadow = Shadow{Radius: 8, Offset: image.Pt(4, 6), Opacity: 0.35}

// Mask returns the alpha mask of the shadow cast by sheet, positioned in the
// same coordinate space as sheet. It is nil when the shadow is invisible.
func (s Shadow) Mask(sheet image.Rectangle) *image.Alpha {
	if sheet.Empty() || s.Opacity <= 0 {
		return nil
	}
	radius := max(s.Radius, 0)
	alpha := uint8(min(s.Opacity, 1)*255 + 0.5)

	area := sheet.Inset(-radius).Add(s.Offset)
	mask := image.NewAlpha(area)
	draw.Draw(mask, sheet.Add(s.Offset), image.NewUniform(color.Alpha{A: alpha}), image.Point{}, draw.Src)
	boxBlur(mask, radius)
	return mask
}

// Draw paints the shadow of sheet onto dst. The sheet itself is left for the
// caller to draw on top.
func (s Shadow) Draw(dst draw.Image, sheet image.Rectangle) {
	m := s.Mask(sheet)
	if m == nil {
		return
	}
	draw.DrawMask(dst, m.Bounds(), image.Black, image.Point{}, m, m.Bounds().Min, draw.Over)
}

// boxBlur runs a horizontal then a vertical running-sum pass over m.
func boxBlur(m *image.Alpha, radius int) {
	if radius <= 0 {
		return
	}
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	line := make([]uint8, max(w, h))
	blur := func(n int, at func(i int) *uint8) {
		sum := 0
		for i := 0; i < n; i++ {
			line[i] = *at(i)
		}
		for i := 0; i <= radius && i < n; i++ {
			sum += int(line[i])
		}
		for i := 0; i < n; i++ {
			lo, hi := max(i-radius, 0), min(i+radius, n-1)
			*at(i) = uint8(sum / (hi - lo + 1))
			if i+radius+1 < n {
				sum += int(line[i+radius+1])
			}
			if i-radius >= 0 {
				sum -= int(line[i-radius])
			}
		}
	}
	for y := 0; y < h; y++ {
		row := m.Pix[y*m.Stride:]
		blur(w, func(i int) *uint8 { return &row[i] })
	}
	for x := 0; x < w; x++ {
		blur(h, func(i int) *uint8 { return &m.Pix[i*m.Stride+x] })
	}
}
