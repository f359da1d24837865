package graphics

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Format selects the data URL encoding.
type Format int

// Supported data URL formats.
const (
	FormatPNG Format = iota
	FormatJPEG
)

// EncodeDataURL encodes img as a base64 data URL.
func EncodeDataURL(img image.Image, format Format) (string, error) {
	data, mime, err := Encode(img, format)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Encode encodes img and returns the bytes with their MIME type.
func Encode(img image.Image, format Format) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(88)); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
}
