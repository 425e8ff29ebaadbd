package imageio

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Info describes a source photo without decoding its pixels.
type Info struct {
	Width       int
	Height      int
	Format      string
	Orientation int
	Taken       time.Time
	EXIF        map[string]string
}

// Rotated reports whether the EXIF orientation swaps width and height.
func (i *Info) Rotated() bool {
	return i.Orientation >= 5 && i.Orientation <= 8
}

// DisplaySize returns the dimensions after EXIF orientation is applied.
func (i *Info) DisplaySize() (int, int) {
	if i.Rotated() {
		return i.Height, i.Width
	}
	return i.Width, i.Height
}

var exifFields = []struct {
	name  string
	field exif.FieldName
}{
	{"Camera Make", exif.Make},
	{"Camera Model", exif.Model},
	{"Lens Model", exif.LensModel},
	{"Software", exif.Software},
}

// Inspect reads the dimensions, format and EXIF metadata of an image. A
// missing EXIF block is not an error.
func Inspect(r io.ReadSeeker) (*Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image config: %w", err)
	}
	info := &Info{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		Orientation: 1,
		EXIF:        map[string]string{},
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file for exif: %w", err)
	}
	x, err := exif.Decode(r)
	if err != nil {
		return info, nil
	}
	for _, f := range exifFields {
		tag, err := x.Get(f.field)
		if err != nil {
			continue
		}
		if s, err := tag.StringVal(); err == nil && s != "" {
			info.EXIF[f.name] = s
		}
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			info.Orientation = v
		}
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			info.EXIF["F-Number"] = fmt.Sprintf("f/%.1f", float64(num)/float64(den))
		}
	}
	if t, err := x.DateTime(); err == nil {
		info.Taken = t
	}
	return info, nil
}
