// Package dataurl encodes and decodes base64 image data URLs.
package dataurl

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrNotImage is returned when a data URL does not carry an image payload.
var ErrNotImage = errors.New("not an image data URL")

var imagePrefix = regexp.MustCompile(`^data:image/.+;base64,`)

// PNG encodes img as a PNG data URL.
func PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return Encode("image/png", buf.Bytes()), nil
}

// JPEG encodes img as a JPEG data URL at the given quality.
func JPEG(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return Encode("image/jpeg", buf.Bytes()), nil
}

// Encode wraps data in a base64 data URL of the given media type.
func Encode(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Strip removes a leading image data URL prefix. Input without a prefix is
// returned unchanged so bare base64 is accepted too.
func Strip(s string) string {
	return imagePrefix.ReplaceAllString(strings.TrimSpace(s), "")
}

// Bytes returns the decoded payload of an image data URL or bare base64.
func Bytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") && !imagePrefix.MatchString(s) {
		return nil, ErrNotImage
	}
	data, err := base64.StdEncoding.DecodeString(Strip(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// Decode returns the image carried by a data URL.
func Decode(s string) (image.Image, error) {
	data, err := Bytes(s)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
