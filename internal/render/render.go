// Package render composites a framed photo onto the output canvas.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/example/passportframe/internal/viewport"
)

// PlaceholderText is shown on an empty canvas.
const PlaceholderText = "Upload a photo to begin"

var placeholderColor = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}

const placeholderSize = 20

var regular *opentype.Font

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	regular = f
}

// NewCanvas returns a blank canvas with the fixed output dimensions.
func NewCanvas() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, viewport.CanvasWidth, viewport.CanvasHeight))
}

// Frame renders st onto a fresh canvas.
func Frame(st viewport.State) *image.RGBA {
	c := NewCanvas()
	Render(c, st)
	return c
}

// Render fills dst with white and draws the photo of st rotated, scaled and
// panned about the centre of dst. dst is left background-only when st has no
// photo. The result depends only on st and the bounds of dst.
func Render(dst draw.Image, st viewport.State) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	img := st.Image()
	if img == nil {
		return
	}
	xdraw.BiLinear.Transform(dst, Matrix(st, b), img, img.Bounds(), xdraw.Over, nil)
}

// Matrix returns the source-to-canvas transform for st drawn into dst:
// translate to the canvas centre, rotate clockwise, scale, then offset the
// photo so its centre sits at the origin plus pan.
func Matrix(st viewport.State, dst image.Rectangle) f64.Aff3 {
	var src image.Rectangle
	if img := st.Image(); img != nil {
		src = img.Bounds()
	}
	z := st.Zoom()
	sin, cos := sincos(st.Rotation())
	px, py := st.Pan()

	ox := -float64(src.Dx())/2 + px - float64(src.Min.X)
	oy := -float64(src.Dy())/2 + py - float64(src.Min.Y)
	cx := float64(dst.Min.X) + float64(dst.Dx())/2
	cy := float64(dst.Min.Y) + float64(dst.Dy())/2

	return f64.Aff3{
		z * cos, -z * sin, z*(cos*ox-sin*oy) + cx,
		z * sin, z * cos, z*(sin*ox+cos*oy) + cy,
	}
}

// ToCanvas maps a point in photo pixel coordinates to canvas coordinates.
func ToCanvas(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// Placeholder draws the empty-canvas hint centred on dst.
func Placeholder(dst draw.Image) {
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{Size: placeholderSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("placeholder face: %v", err)
		return
	}
	defer face.Close()
	b := dst.Bounds()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(placeholderColor), Face: face}
	w := d.MeasureString(PlaceholderText)
	x := fixed.I(b.Min.X+b.Dx()/2) - w/2
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(b.Min.Y + b.Dy()/2)}
	d.DrawString(PlaceholderText)
}

// sincos keeps right angles exact so quarter turns land on whole pixels.
func sincos(deg int) (sin, cos float64) {
	switch deg {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(float64(deg) * math.Pi / 180)
}
