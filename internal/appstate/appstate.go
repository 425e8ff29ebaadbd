package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/passportframe/internal/input"
	"github.com/example/passportframe/internal/render"
	"github.com/example/passportframe/internal/viewport"
)

const (
	toolbarHeight = 28
	statusHeight  = 24
	margin        = 16
	buttonGap     = 4
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var (
	backdrop   = color.RGBA{236, 236, 236, 255}
	frameLine  = color.RGBA{120, 120, 120, 255}
	statusFill = color.RGBA{220, 220, 220, 255}
)

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 24, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

var buttonLabels = map[input.Action]string{
	input.ActionUpload:      "Open",
	input.ActionRotateLeft:  "Rotate L",
	input.ActionRotateRight: "Rotate R",
	input.ActionZoomIn:      "Zoom +",
	input.ActionZoomOut:     "Zoom -",
	input.ActionReset:       "Reset",
	input.ActionSave:        "Save",
}

type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
	StateDisabled
)

// ActionButton is a toolbar button bound to an input action.
type ActionButton struct {
	Action input.Action
	label  string
	rect   image.Rectangle
}

func (b *ActionButton) Draw(dst *image.RGBA, state ButtonState) {
	fill := color.RGBA{200, 200, 200, 255}
	text := image.Black
	switch state {
	case StateHover:
		fill = color.RGBA{180, 180, 180, 255}
	case StatePressed:
		fill = color.RGBA{150, 150, 150, 255}
	case StateDisabled:
		fill = color.RGBA{225, 225, 225, 255}
		text = image.NewUniform(color.RGBA{160, 160, 160, 255})
	}
	draw.Draw(dst, b.rect, &image.Uniform{fill}, image.Point{}, draw.Src)
	drawRect(dst, b.rect, frameLine, 1)
	d := &font.Drawer{Dst: dst, Src: text, Face: basicfont.Face7x13}
	w := d.MeasureString(b.label).Ceil()
	d.Dot = fixed.P(b.rect.Min.X+(b.rect.Dx()-w)/2, b.rect.Min.Y+b.rect.Dy()/2+5)
	d.DrawString(b.label)
}

func (b *ActionButton) Rect() image.Rectangle { return b.rect }

// CacheButton caches the rendered states of an ActionButton.
type CacheButton struct {
	*ActionButton
	cache [4]*image.RGBA
}

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		img := image.NewRGBA(cb.rect)
		cb.ActionButton.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.rect, cb.cache[state], cb.rect.Min, draw.Src)
}

// layout holds the window geometry. It never changes after start up because
// the canvas has a fixed size.
type layout struct {
	width, height int
	canvas        image.Rectangle
	shadow        *image.Alpha
	buttons       []*CacheButton
}

func newLayout() layout {
	meas := &font.Drawer{Face: basicfont.Face7x13}
	var buttons []*CacheButton
	x := margin
	for _, a := range input.Toolbar {
		label := buttonLabels[a]
		if label == "" {
			label = a.String()
		}
		w := meas.MeasureString(label).Ceil() + 16
		buttons = append(buttons, &CacheButton{ActionButton: &ActionButton{
			Action: a,
			label:  label,
			rect:   image.Rect(x, 2, x+w, toolbarHeight-2),
		}})
		x += w + buttonGap
	}
	width := max(x-buttonGap+margin, viewport.CanvasWidth+2*margin)
	left := (width - viewport.CanvasWidth) / 2
	top := toolbarHeight + margin
	canvas := image.Rect(left, top, left+viewport.CanvasWidth, top+viewport.CanvasHeight)
	return layout{
		width:   width,
		height:  canvas.Max.Y + margin + statusHeight,
		canvas:  canvas,
		shadow:  render.DefaultShadow.Mask(canvas),
		buttons: buttons,
	}
}

// buttonAt returns the toolbar button under p.
func (l layout) buttonAt(p image.Point) (*CacheButton, bool) {
	if p.Y >= toolbarHeight {
		return nil, false
	}
	for _, b := range l.buttons {
		if p.In(b.rect) {
			return b, true
		}
	}
	return nil, false
}

type paintState struct {
	layout       layout
	canvas       *image.RGBA
	state        viewport.State
	hover        input.Action
	pressed      input.Action
	busy         bool
	prompt       *string
	message      string
	messageUntil time.Time
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.layout.width, st.layout.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	composeFrame(b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// composeFrame paints the whole window into dst.
func composeFrame(dst *image.RGBA, st paintState) {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{backdrop}, image.Point{}, draw.Src)

	for _, btn := range st.layout.buttons {
		state := StateDefault
		switch {
		case !input.Enabled(btn.Action, st.state) || (st.busy && (btn.Action == input.ActionUpload || btn.Action == input.ActionSave)):
			state = StateDisabled
		case btn.Action == st.pressed:
			state = StatePressed
		case btn.Action == st.hover:
			state = StateHover
		}
		btn.Draw(dst, state)
	}

	c := st.layout.canvas
	if m := st.layout.shadow; m != nil {
		draw.DrawMask(dst, m.Bounds(), image.Black, image.Point{}, m, m.Bounds().Min, draw.Over)
	}
	if st.canvas != nil {
		draw.Draw(dst, c, st.canvas, st.canvas.Bounds().Min, draw.Src)
	}
	drawRect(dst, c.Inset(-1), frameLine, 1)

	drawStatus(dst, st)

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st.message)
	}
}

func drawStatus(dst *image.RGBA, st paintState) {
	b := dst.Bounds()
	rect := image.Rect(b.Min.X, b.Max.Y-statusHeight, b.Max.X, b.Max.Y)
	draw.Draw(dst, rect, &image.Uniform{statusFill}, image.Point{}, draw.Src)

	var text string
	switch {
	case st.prompt != nil:
		text = "Open: " + *st.prompt + "|"
	case st.busy:
		text = "working..."
	case st.state.HasImage():
		x, y := st.state.Pan()
		text = fmt.Sprintf("zoom %.0f%%  rotation %d  pan %.0f,%.0f   ^O open  ^S save  ^C copy  ^V paste  [ ] rotate  +/- zoom  0 reset",
			st.state.Zoom()*100, st.state.Rotation(), x, y)
	default:
		text = "^O open  ^V paste  ^Q quit"
	}
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13,
		Dot: fixed.P(rect.Min.X+margin, rect.Min.Y+16)}
	d.DrawString(text)
}

func drawMessage(dst *image.RGBA, msg string) {
	b := dst.Bounds()
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := b.Min.X + (b.Dx()-wmsg)/2
	py := b.Min.Y + (b.Dy()-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
	drawRect(dst, rect, color.Black, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
}
