// Package viewport holds the framing transform applied to a loaded photo.
package viewport

import (
	"image"
	"math"
)

// Fixed output geometry shared with the processing service.
const (
	CanvasWidth  = 500
	CanvasHeight = 653
)

const (
	MinZoom = 0.1
	MaxZoom = 3.0

	// ButtonZoomStep is applied by the zoom buttons and keyboard shortcuts.
	ButtonZoomStep = 1.05
	// WheelZoomStep is applied per modified wheel notch.
	WheelZoomStep = 1.025
	// RotateStep is the rotation applied by the rotate buttons, in degrees.
	RotateStep = 90
)

// State is the viewport transform for a single photo.
//
// The zero value is the empty state: no image, zoom 1, no rotation and no pan.
// Pan is stored in image-local units so a drag moves the photo by the same
// number of screen pixels whatever the zoom.
type State struct {
	img      image.Image
	zoom     float64
	rotation int
	panX     float64
	panY     float64

	dragging bool
	anchor   image.Point
}

// New returns an empty State.
func New() State {
	return State{zoom: 1}
}

// Image returns the loaded photo or nil.
func (s State) Image() image.Image { return s.img }

// HasImage reports whether a photo is loaded. Edit controls are enabled only
// when it returns true.
func (s State) HasImage() bool { return s.img != nil }

// Zoom returns the current scale factor.
func (s State) Zoom() float64 {
	if s.zoom == 0 {
		return 1
	}
	return s.zoom
}

// Rotation returns the rotation in degrees, in [0, 360).
func (s State) Rotation() int { return s.rotation }

// Pan returns the offset of the photo centre in image-local units.
func (s State) Pan() (x, y float64) { return s.panX, s.panY }

// Dragging reports whether a pan gesture is in progress.
func (s State) Dragging() bool { return s.dragging }

// DragAnchor returns the last pointer position of the current drag.
func (s State) DragAnchor() (image.Point, bool) { return s.anchor, s.dragging }

// CanZoomIn reports whether a zoom-in would change the zoom.
func (s State) CanZoomIn() bool { return s.HasImage() && s.Zoom() < MaxZoom }

// CanZoomOut reports whether a zoom-out would change the zoom.
func (s State) CanZoomOut() bool { return s.HasImage() && s.Zoom() > MinZoom }

// LoadImage replaces the photo and resets the transform.
func (s *State) LoadImage(img image.Image) {
	if img == nil || img.Bounds().Empty() {
		return
	}
	*s = State{img: img, zoom: 1}
}

// Clear drops the photo and returns to the empty state.
func (s *State) Clear() {
	*s = New()
}

// Rotate adds delta degrees to the rotation. Any int is accepted.
func (s *State) Rotate(delta int) {
	if !s.HasImage() {
		return
	}
	// Reduce first so the sum cannot overflow.
	s.rotation = normalizeDegrees(s.rotation + delta%360)
}

// ZoomBy multiplies the zoom by factor and clamps the result to
// [MinZoom, MaxZoom].
func (s *State) ZoomBy(factor float64) {
	if !s.HasImage() || factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	s.zoom = clamp(s.Zoom()*factor, MinZoom, MaxZoom)
}

// PanBy moves the photo by a screen-pixel delta.
func (s *State) PanBy(dx, dy float64) {
	if !s.HasImage() || math.IsNaN(dx) || math.IsNaN(dy) {
		return
	}
	z := s.Zoom()
	s.panX += dx / z
	s.panY += dy / z
}

// Reset restores zoom 1, no rotation and no pan. The photo is kept.
func (s *State) Reset() {
	if !s.HasImage() {
		return
	}
	s.zoom = 1
	s.rotation = 0
	s.panX, s.panY = 0, 0
}

// BeginDrag starts a pan gesture at p.
func (s *State) BeginDrag(p image.Point) {
	if !s.HasImage() {
		return
	}
	s.dragging = true
	s.anchor = p
}

// DragTo pans by the distance from the drag anchor to p and moves the anchor.
// It returns false when no drag is in progress or p equals the anchor.
func (s *State) DragTo(p image.Point) bool {
	if !s.dragging {
		return false
	}
	d := p.Sub(s.anchor)
	s.anchor = p
	if d == (image.Point{}) {
		return false
	}
	s.PanBy(float64(d.X), float64(d.Y))
	return true
}

// EndDrag finishes the current pan gesture, if any.
func (s *State) EndDrag() {
	s.dragging = false
	s.anchor = image.Point{}
}

func normalizeDegrees(d int) int {
	d %= 360
	if d < 0 {
		d += 360
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
