package escpos

import (
	"image"
	"image/color"
)

// rasterThreshold is the luminance below which a pixel prints black.
const rasterThreshold = 128

// cmdRaster encodes img as a GS v 0 raster bit image, one bit per dot,
// most significant bit first. Transparent pixels print white.
func cmdRaster(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rowBytes := (w + 7) / 8

	out := make([]byte, 0, 8+rowBytes*h)
	out = append(out, gs, 'v', '0', 0,
		byte(rowBytes), byte(rowBytes>>8),
		byte(h), byte(h>>8))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := make([]byte, rowBytes)
		for x := b.Min.X; x < b.Max.X; x++ {
			if isDark(img.At(x, y)) {
				i := x - b.Min.X
				row[i/8] |= 0x80 >> (i % 8)
			}
		}
		out = append(out, row...)
	}
	return out
}

func isDark(c color.Color) bool {
	_, _, _, a := c.RGBA()
	if a < 0x8000 {
		return false
	}
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y < rasterThreshold
}
