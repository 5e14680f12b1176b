package bitmap

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeScalesToExactBounds(t *testing.T) {
	data := pngFixture(t, 40, 20)

	testCases := []struct {
		name          string
		width, height int
	}{
		{"Downscale", 16, 8},
		{"Upscale", 64, 48},
		{"Same", 40, 20},
		{"PrintWidth", MaxPrintWidth, 80},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Decode(data, tc.width, tc.height)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, tc.width, tc.height), img.Bounds())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	data := pngFixture(t, 8, 8)

	t.Run("Malformed", func(t *testing.T) {
		_, err := Decode([]byte("not an image"), 8, 8)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Decode(nil, 8, 8)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("ZeroWidth", func(t *testing.T) {
		_, err := Decode(data, 0, 8)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("NegativeHeight", func(t *testing.T) {
		_, err := Decode(data, 8, -1)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("HugeBounds", func(t *testing.T) {
		bounds := [][2]int{
			{math.MaxInt32, math.MaxInt32},
			{100000, 100000},
			{MaxPrintWidth, MaxHeight + 1},
			{maxPixels, 2},
		}
		for _, b := range bounds {
			assert.NotPanics(t, func() {
				_, err := Decode(data, b[0], b[1])
				assert.ErrorIs(t, err, ErrDecode, "%dx%d", b[0], b[1])
			})
		}
	})
}

func TestDecodeWideRaster(t *testing.T) {
	img, err := Decode(pngFixture(t, 8, 8), 2*MaxPrintWidth, 16)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2*MaxPrintWidth, 16), img.Bounds())
}

func TestDecodeBase64(t *testing.T) {
	data := pngFixture(t, 24, 24)
	encoded := base64.StdEncoding.EncodeToString(data)

	t.Run("Padded", func(t *testing.T) {
		img, err := DecodeBase64(encoded, 16, 16)
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
	})

	t.Run("Unpadded", func(t *testing.T) {
		img, err := DecodeBase64(base64.RawStdEncoding.EncodeToString(data), 16, 16)
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dy())
	})

	t.Run("LineBreaks", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < len(encoded); i += 76 {
			end := i + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			b.WriteString(encoded[i:end])
			b.WriteString("\n")
		}
		_, err := DecodeBase64(b.String(), 8, 8)
		assert.NoError(t, err)
	})

	t.Run("DataURL", func(t *testing.T) {
		_, err := DecodeBase64("data:image/png;base64,"+encoded, 8, 8)
		assert.NoError(t, err)
	})

	t.Run("MalformedDataURL", func(t *testing.T) {
		_, err := DecodeBase64("data:image/png;base64", 8, 8)
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("InvalidAlphabet", func(t *testing.T) {
		_, err := DecodeBase64("***", 8, 8)
		assert.ErrorIs(t, err, ErrDecode)
	})
}
