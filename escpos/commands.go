package escpos

import (
	"fmt"

	"github.com/nixxel-company-limited/thermal-printer-bridge/escutil"
)

const (
	esc = escutil.ESC
	gs  = escutil.GS
	dle = escutil.DLE
	lf  = escutil.LF
	eot = 0x04
)

// Real-time status functions for DLE EOT n.
const (
	statusOffline = 2
	statusError   = 3
	statusPaper   = 4
)

// Barcode limits
const (
	minBarcodeHeight = 1
	maxBarcodeHeight = 255
	minBarcodeWidth  = 2
	maxBarcodeWidth  = 6
	maxSymbology     = 8
	maxTextPosition  = 3
)

// QR limits
const (
	minModuleSize = 1
	maxModuleSize = 16
	maxErrorLevel = 3
	maxQRData     = 7089
)

// DefaultFontSize is the size that maps to a 1x character multiplier.
const DefaultFontSize float32 = 24

func cmdInit() []byte { return []byte{esc, '@'} }

func cmdCodeTable(n byte) []byte { return []byte{esc, 't', n} }

func cmdFeedLines(n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return []byte{esc, 'd', byte(n)}
}

func cmdAlign(alignment int) []byte { return []byte{esc, 'a', byte(alignment)} }

// cmdCharSize selects a width and height multiplier of 1 to 8.
func cmdCharSize(multiplier int) []byte {
	n := byte(multiplier - 1)
	return []byte{gs, '!', n<<4 | n}
}

// cmdFeedCut feeds to the cutter and performs a partial cut.
func cmdFeedCut() []byte { return []byte{gs, 'V', 66, 0} }

// cmdKickDrawer pulses drawer pin 2 for 50ms on / 500ms off.
func cmdKickDrawer() []byte { return []byte{esc, 'p', 0, 25, 250} }

func cmdStatus(n byte) []byte { return []byte{dle, eot, n} }

func cmdBarcode(data string, symbology, height, width, textPosition int) ([]byte, error) {
	if symbology < 0 || symbology > maxSymbology {
		return nil, fmt.Errorf("symbology %d out of range 0-%d", symbology, maxSymbology)
	}
	if height < minBarcodeHeight || height > maxBarcodeHeight {
		return nil, fmt.Errorf("barcode height %d out of range %d-%d", height, minBarcodeHeight, maxBarcodeHeight)
	}
	if width < minBarcodeWidth || width > maxBarcodeWidth {
		return nil, fmt.Errorf("barcode width %d out of range %d-%d", width, minBarcodeWidth, maxBarcodeWidth)
	}
	if textPosition < 0 || textPosition > maxTextPosition {
		return nil, fmt.Errorf("text position %d out of range 0-%d", textPosition, maxTextPosition)
	}

	// CODE128 needs a code set selector; default to set B.
	if symbology == maxSymbology && (len(data) < 2 || data[0] != '{') {
		data = "{B" + data
	}
	if len(data) == 0 || len(data) > 255 {
		return nil, fmt.Errorf("barcode data length %d out of range 1-255", len(data))
	}

	out := []byte{
		gs, 'h', byte(height),
		gs, 'w', byte(width),
		gs, 'H', byte(textPosition),
		gs, 'k', byte(65 + symbology), byte(len(data)),
	}
	out = append(out, data...)
	return out, nil
}

// qrFunc builds GS ( k pL pH cn fn params.
func qrFunc(fn byte, params ...byte) []byte {
	n := len(params) + 2
	out := []byte{gs, '(', 'k', byte(n), byte(n >> 8), 0x31, fn}
	return append(out, params...)
}

func cmdQRCode(data string, moduleSize, errorLevel int) ([]byte, error) {
	if moduleSize < minModuleSize || moduleSize > maxModuleSize {
		return nil, fmt.Errorf("module size %d out of range %d-%d", moduleSize, minModuleSize, maxModuleSize)
	}
	if errorLevel < 0 || errorLevel > maxErrorLevel {
		return nil, fmt.Errorf("error level %d out of range 0-%d", errorLevel, maxErrorLevel)
	}
	if len(data) == 0 || len(data) > maxQRData {
		return nil, fmt.Errorf("qr data length %d out of range 1-%d", len(data), maxQRData)
	}

	// Model 2, module size, error correction, store, print.
	var out []byte
	out = append(out, qrFunc(0x41, 0x32, 0x00)...)
	out = append(out, qrFunc(0x43, byte(moduleSize))...)
	out = append(out, qrFunc(0x45, byte(0x30+errorLevel))...)
	out = append(out, qrFunc(0x50, append([]byte{0x30}, data...)...)...)
	out = append(out, qrFunc(0x51, 0x30)...)
	return out, nil
}
