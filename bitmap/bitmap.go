// Package bitmap decodes caller supplied image payloads into rasters of an
// exact size for printing.
//
// Thermal print heads are 384 dots wide on 58mm devices; callers should pass
// a width that is at most 384 and a multiple of 8. The decoder does not
// enforce this.
package bitmap

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxPrintWidth is the widest raster a 58mm print head renders.
const MaxPrintWidth = 384

// MaxHeight bounds the raster height, about 1 m of paper at 8 dots/mm.
const MaxHeight = 8192

// maxPixels caps width*height; wide enough for an 80mm head at MaxHeight.
const maxPixels = 2 * MaxPrintWidth * MaxHeight

// ErrDecode is returned for malformed payloads or unusable bounds.
var ErrDecode = errors.New("bitmap decode error")

// Decode decodes data and scales the result to exactly width x height.
func Decode(data []byte, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid bounds %dx%d", ErrDecode, width, height)
	}
	if height > MaxHeight || width > maxPixels/height {
		return nil, fmt.Errorf("%w: bounds %dx%d too large", ErrDecode, width, height)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// DecodeBase64 decodes a base64 payload, optionally wrapped in a data URL,
// then calls Decode.
func DecodeBase64(s string, width, height int) (image.Image, error) {
	data, err := decodeBase64(s)
	if err != nil {
		return nil, err
	}
	return Decode(data, width, height)
}

func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed data url", ErrDecode)
		}
		s = s[idx+1:]
	}

	// Line breaks are common in payloads produced by mobile runtimes.
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimRight(s, "=")

	data, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}
