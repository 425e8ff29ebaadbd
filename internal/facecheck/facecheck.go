// Package facecheck finds faces in a framed photo and checks their placement
// against the usual passport photo guide.
package facecheck

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"
)

// ErrNoCascade is returned when no cascade file has been configured.
var ErrNoCascade = errors.New("no face cascade configured")

const (
	// MinHeadRatio and MaxHeadRatio bound the head height as a share of the
	// frame height.
	MinHeadRatio = 0.60
	MaxHeadRatio = 0.85
	// MaxCenterOffset is the largest accepted horizontal offset of the face
	// centre, as a share of the frame width.
	MaxCenterOffset = 0.05

	// headScale converts a detection square, which spans brow to chin, into
	// an approximate crown to chin height.
	headScale = 1.35
	minScore  = 5.0
)

// Face is one detection in image coordinates.
type Face struct {
	Center image.Point
	Size   int
	Score  float32
}

// Rect returns the detection square.
func (f Face) Rect() image.Rectangle {
	h := f.Size / 2
	return image.Rect(f.Center.X-h, f.Center.Y-h, f.Center.X+h, f.Center.Y+h)
}

// Detector runs a pigo cascade over photos.
type Detector struct {
	classifier *pigo.Pigo
	MinSize    int
	Angle      float64
}

// Load reads and unpacks a pigo cascade file.
func Load(path string) (*Detector, error) {
	if path == "" {
		return nil, ErrNoCascade
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	return New(data)
}

// New unpacks a cascade held in memory.
func New(cascade []byte) (*Detector, error) {
	if len(cascade) == 0 {
		return nil, ErrNoCascade
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &Detector{classifier: classifier, MinSize: 60}, nil
}

// Detect returns the faces found in img, best first.
func (d *Detector) Detect(img image.Image) []Face {
	b := img.Bounds()
	dx, dy := b.Dx(), b.Dy()
	if dx == 0 || dy == 0 {
		return nil
	}
	params := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     max(dx, dy),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   dy,
			Cols:   dx,
			Dim:    dx,
		},
	}
	dets := d.classifier.RunCascade(params, d.Angle)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	var faces []Face
	for _, det := range dets {
		if det.Q < minScore {
			continue
		}
		faces = append(faces, Face{
			Center: image.Pt(b.Min.X+det.Col, b.Min.Y+det.Row),
			Size:   det.Scale,
			Score:  det.Q,
		})
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].Score > faces[j].Score })
	return faces
}

// Report describes how a face sits in the frame.
type Report struct {
	HeadRatio    float64
	CenterOffset float64
	Inside       bool
	OK           bool
}

// Problems lists the reasons a report is not OK.
func (r Report) Problems() []string {
	var out []string
	if !r.Inside {
		out = append(out, "face extends past the frame")
	}
	switch {
	case r.HeadRatio < MinHeadRatio:
		out = append(out, fmt.Sprintf("head too small (%.0f%% of frame height, want %.0f%%-%.0f%%)", r.HeadRatio*100, MinHeadRatio*100, MaxHeadRatio*100))
	case r.HeadRatio > MaxHeadRatio:
		out = append(out, fmt.Sprintf("head too large (%.0f%% of frame height, want %.0f%%-%.0f%%)", r.HeadRatio*100, MinHeadRatio*100, MaxHeadRatio*100))
	}
	if math.Abs(r.CenterOffset) > MaxCenterOffset {
		dir := "right"
		if r.CenterOffset < 0 {
			dir = "left"
		}
		out = append(out, fmt.Sprintf("face %.0f%% %s of centre", math.Abs(r.CenterOffset)*100, dir))
	}
	return out
}

// Evaluate measures face against the frame bounds.
func Evaluate(face Face, bounds image.Rectangle) Report {
	if bounds.Empty() {
		return Report{}
	}
	mid := float64(bounds.Min.X) + float64(bounds.Dx())/2
	r := Report{
		HeadRatio:    float64(face.Size) * headScale / float64(bounds.Dy()),
		CenterOffset: (float64(face.Center.X) - mid) / float64(bounds.Dx()),
		Inside:       face.Rect().In(bounds),
	}
	r.OK = len(r.Problems()) == 0
	return r
}
