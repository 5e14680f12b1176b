// Package service declares the printer service contract consumed by the
// facade. A service drives the physical printer; it is only reachable while
// a binder reports it connected.
package service

import (
	"errors"
	"fmt"
	"image"
)

// Paper width codes reported by PrinterPaper.
const (
	Paper58mm = 1
	Paper80mm = 2
)

// Device state codes reported by UpdatePrinterState.
const (
	StateRunning            = 1
	StateInitializing       = 2
	StateHardwareAbnormal   = 3
	StateOutOfPaper         = 4
	StateOverheating        = 5
	StateCoverOpen          = 6
	StateCutterAbnormal     = 7
	StateCutterNormal       = 8
	StateBlackMarkNotFound  = 9
	StatePrinterNotDetected = 505
)

// Remote error codes used by services in this module.
const (
	CodeTransport   = 1
	CodeUnsupported = 2
	CodeInvalidArgs = 3
)

// ErrUnsupported marks a hardware capability absent on the device.
var ErrUnsupported = errors.New("feature not supported by printer")

// RemoteError is a fault reported by the service while handling a call.
type RemoteError struct {
	Code    int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("remote error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Unsupported returns a RemoteError wrapping ErrUnsupported.
func Unsupported(feature string) *RemoteError {
	return &RemoteError{
		Code:    CodeUnsupported,
		Message: feature + " is not supported",
		Err:     ErrUnsupported,
	}
}

// PrinterService is the set of vendor operations the facade forwards to.
type PrinterService interface {
	PrinterInit() error
	PrinterSerialNo() (string, error)
	PrinterModel() (string, error)
	PrinterVersion() (string, error)
	PrinterPaper() (int, error)

	LineWrap(n int) error
	AutoOutPaper() error
	SetAlignment(alignment int) error
	SetFontSize(size float32) error

	PrintText(text string) error
	PrintTextWithFont(text, typeface string, size float32) error
	SendRAWData(data []byte) error
	PrintColumnsString(texts []string, widths, aligns []int) error

	PrintBarCode(data string, symbology, height, width, textPosition int) error
	PrintQRCode(data string, moduleSize, errorLevel int) error
	PrintBitmap(img image.Image) error

	OpenDrawer() error

	EnterPrinterBuffer(clean bool) error
	CommitPrinterBuffer() error
	ExitPrinterBuffer(commit bool) error

	UpdatePrinterState() (int, error)
}
