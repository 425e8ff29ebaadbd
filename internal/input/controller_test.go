package input

import (
	"image"
	"math"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/passportframe/internal/viewport"
)

var canvas = image.Rect(100, 50, 100+viewport.CanvasWidth, 50+viewport.CanvasHeight)

func withImage() viewport.State {
	st := viewport.New()
	st.LoadImage(image.NewRGBA(image.Rect(0, 0, 1000, 1306)))
	return st
}

func TestButtonsIgnoredWithoutImage(t *testing.T) {
	c := NewController(canvas)
	st := viewport.New()
	for _, a := range []Action{ActionRotateLeft, ActionRotateRight, ActionZoomIn, ActionZoomOut, ActionReset, ActionSave, ActionCopy} {
		next, out := c.Handle(st, ButtonEvent{Action: a})
		if out != (Outcome{}) {
			t.Errorf("%v without image produced %+v", a, out)
		}
		if next.Zoom() != 1 || next.Rotation() != 0 {
			t.Errorf("%v without image changed state", a)
		}
		if Enabled(a, st) {
			t.Errorf("%v should be disabled without image", a)
		}
	}
	if _, out := c.Handle(st, ButtonEvent{Action: ActionUpload}); out.Command != CommandUpload {
		t.Fatalf("upload should always be available, got %+v", out)
	}
}

func TestRotateButtons(t *testing.T) {
	c := NewController(canvas)
	st, out := c.Handle(withImage(), ButtonEvent{Action: ActionRotateRight})
	if !out.Redraw || st.Rotation() != 90 {
		t.Fatalf("rotate right: rotation=%d out=%+v", st.Rotation(), out)
	}
	st, _ = c.Handle(st, ButtonEvent{Action: ActionRotateLeft})
	st, _ = c.Handle(st, ButtonEvent{Action: ActionRotateLeft})
	if st.Rotation() != 270 {
		t.Fatalf("rotation=%d, want 270", st.Rotation())
	}
}

func TestZoomButtonsStopAtClamp(t *testing.T) {
	c := NewController(canvas)
	st := withImage()
	for i := 0; i < 40; i++ {
		st, _ = c.Handle(st, ButtonEvent{Action: ActionZoomIn})
	}
	if st.Zoom() != viewport.MaxZoom {
		t.Fatalf("zoom=%v, want %v", st.Zoom(), viewport.MaxZoom)
	}
	if Enabled(ActionZoomIn, st) {
		t.Fatal("zoom-in should be disabled at the clamp")
	}
	_, out := c.Handle(st, ButtonEvent{Action: ActionZoomIn})
	if out.Redraw {
		t.Fatal("zoom-in at the clamp should not redraw")
	}
	st, out = c.Handle(st, ButtonEvent{Action: ActionZoomOut})
	if !out.Redraw || math.Abs(st.Zoom()-viewport.MaxZoom/viewport.ButtonZoomStep) > 1e-12 {
		t.Fatalf("zoom-out: zoom=%v out=%+v", st.Zoom(), out)
	}
}

func TestSequentialClicksApplyInOrder(t *testing.T) {
	c := NewController(canvas)
	st := withImage()
	for i := 0; i < 3; i++ {
		st, _ = c.Handle(st, ButtonEvent{Action: ActionZoomIn})
	}
	want := math.Pow(viewport.ButtonZoomStep, 3)
	if math.Abs(st.Zoom()-want) > 1e-12 {
		t.Fatalf("zoom=%v, want %v", st.Zoom(), want)
	}
}

func TestResetAndSave(t *testing.T) {
	c := NewController(canvas)
	st := withImage()
	st.ZoomBy(2)
	st.Rotate(90)
	st.PanBy(4, 4)
	st, out := c.Handle(st, ButtonEvent{Action: ActionReset})
	if !out.Redraw || st.Zoom() != 1 || st.Rotation() != 0 {
		t.Fatalf("reset: zoom=%v rot=%d out=%+v", st.Zoom(), st.Rotation(), out)
	}
	before := st
	st, out = c.Handle(st, ButtonEvent{Action: ActionSave})
	if out.Command != CommandSave || out.Redraw {
		t.Fatalf("save outcome %+v", out)
	}
	if st != before {
		t.Fatal("save changed the viewport state")
	}
}

func TestDragPansInImageUnits(t *testing.T) {
	c := NewController(canvas)
	st := withImage()
	st.ZoomBy(2)

	st, _ = c.Handle(st, mouse.Event{X: 200, Y: 200, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	if !st.Dragging() {
		t.Fatal("press on canvas should start a drag")
	}
	st, out := c.Handle(st, mouse.Event{X: 220, Y: 190, Direction: mouse.DirNone})
	if !out.Redraw {
		t.Fatal("drag move should redraw")
	}
	x, y := st.Pan()
	if math.Abs(x-10) > 1e-9 || math.Abs(y+5) > 1e-9 {
		t.Fatalf("pan=(%v,%v), want (10,-5)", x, y)
	}
	st, _ = c.Handle(st, mouse.Event{X: 220, Y: 190, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
	if st.Dragging() {
		t.Fatal("release should end the drag")
	}
	st, out = c.Handle(st, mouse.Event{X: 300, Y: 300, Direction: mouse.DirNone})
	if out.Redraw {
		t.Fatal("move without drag should not redraw")
	}
}

func TestPressOutsideCanvasDoesNotDrag(t *testing.T) {
	c := NewController(canvas)
	st, _ := c.Handle(withImage(), mouse.Event{X: 10, Y: 10, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	if st.Dragging() {
		t.Fatal("press outside the canvas started a drag")
	}
	st, _ = c.Handle(viewport.New(), mouse.Event{X: 200, Y: 200, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	if st.Dragging() {
		t.Fatal("press without an image started a drag")
	}
}

func TestLeavingCanvasEndsDrag(t *testing.T) {
	c := NewController(canvas)
	st, _ := c.Handle(withImage(), mouse.Event{X: 200, Y: 200, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	st, _ = c.Handle(st, mouse.Event{X: 5, Y: 5, Direction: mouse.DirNone})
	if st.Dragging() {
		t.Fatal("moving off the canvas should end the drag")
	}
	if x, y := st.Pan(); x != 0 || y != 0 {
		t.Fatalf("pan changed on leave: (%v,%v)", x, y)
	}

	st, _ = c.Handle(st, mouse.Event{X: 200, Y: 200, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	st, _ = c.Handle(st, LeaveEvent{})
	if st.Dragging() {
		t.Fatal("leave event should end the drag")
	}
}

func TestDragIsUnbounded(t *testing.T) {
	c := NewController(image.Rectangle{})
	st := withImage()
	st, _ = c.Handle(st, mouse.Event{X: 0, Y: 0, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	st, _ = c.Handle(st, mouse.Event{X: 5000, Y: -5000, Direction: mouse.DirNone})
	if x, y := st.Pan(); x != 5000 || y != -5000 {
		t.Fatalf("pan=(%v,%v), want (5000,-5000)", x, y)
	}
}

func TestWheelRequiresControl(t *testing.T) {
	c := NewController(canvas)
	st := withImage()
	next, out := c.Handle(st, mouse.Event{X: 200, Y: 200, Button: mouse.ButtonWheelUp, Direction: mouse.DirStep})
	if out.Intercepted || out.Redraw || next.Zoom() != 1 {
		t.Fatalf("unmodified wheel was intercepted: %+v zoom=%v", out, next.Zoom())
	}

	next, out = c.Handle(st, mouse.Event{X: 200, Y: 200, Button: mouse.ButtonWheelUp, Direction: mouse.DirStep, Modifiers: key.ModControl})
	if !out.Intercepted || !out.Redraw {
		t.Fatalf("ctrl+wheel outcome %+v", out)
	}
	if math.Abs(next.Zoom()-viewport.WheelZoomStep) > 1e-12 {
		t.Fatalf("zoom=%v, want %v", next.Zoom(), viewport.WheelZoomStep)
	}

	next, _ = c.Handle(st, mouse.Event{X: 200, Y: 200, Button: mouse.ButtonWheelDown, Direction: mouse.DirStep, Modifiers: key.ModControl})
	if math.Abs(next.Zoom()-1/viewport.WheelZoomStep) > 1e-12 {
		t.Fatalf("zoom=%v, want %v", next.Zoom(), 1/viewport.WheelZoomStep)
	}

	_, out = c.Handle(viewport.New(), mouse.Event{X: 200, Y: 200, Button: mouse.ButtonWheelUp, Direction: mouse.DirStep, Modifiers: key.ModControl})
	if out.Intercepted {
		t.Fatal("ctrl+wheel without an image should not be intercepted")
	}
}

func TestKeyboardShortcuts(t *testing.T) {
	c := NewController(canvas)
	st := withImage()

	tests := []struct {
		ev   key.Event
		want Action
	}{
		{key.Event{Rune: ']', Code: key.CodeRightSquareBracket, Direction: key.DirPress}, ActionRotateRight},
		{key.Event{Rune: '+', Code: key.CodeEqualSign, Modifiers: key.ModShift, Direction: key.DirPress}, ActionZoomIn},
		{key.Event{Rune: 's', Code: key.CodeS, Modifiers: key.ModControl, Direction: key.DirPress}, ActionSave},
		{key.Event{Rune: -1, Code: key.CodeO, Modifiers: key.ModControl, Direction: key.DirPress}, ActionUpload},
		{key.Event{Rune: 'C', Code: key.CodeC, Modifiers: key.ModControl | key.ModShift, Direction: key.DirPress}, ActionCopy},
	}
	for _, tc := range tests {
		got, ok := c.ActionForKey(tc.ev)
		if !ok || got != tc.want {
			t.Errorf("key %+v = %v %v, want %v", tc.ev, got, ok, tc.want)
		}
	}

	if _, ok := c.ActionForKey(key.Event{Rune: 's', Code: key.CodeS, Direction: key.DirPress}); ok {
		t.Fatal("plain s should not trigger save")
	}

	next, out := c.Handle(st, key.Event{Rune: ']', Code: key.CodeRightSquareBracket, Direction: key.DirRelease})
	if out.Redraw || next.Rotation() != 0 {
		t.Fatal("key release should be ignored")
	}
}

func TestRegisterOverridesAction(t *testing.T) {
	c := NewController(canvas)
	called := false
	c.Register(ActionReset, shortcutList{{Rune: 'r'}}, func(st *viewport.State) Outcome {
		called = true
		return Outcome{}
	})
	c.Handle(withImage(), key.Event{Rune: 'r', Direction: key.DirPress})
	if !called {
		t.Fatal("registered handler not called")
	}
}

func TestParseAction(t *testing.T) {
	for _, a := range Toolbar {
		got, ok := ParseAction(a.String())
		if !ok || got != a {
			t.Errorf("ParseAction(%q) = %v %v", a.String(), got, ok)
		}
	}
	if _, ok := ParseAction("bogus"); ok {
		t.Fatal("unexpected match for bogus action")
	}
}
