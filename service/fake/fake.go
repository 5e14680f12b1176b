// Package fake provides a recording printer service for tests.
package fake

import (
	"image"
	"sync"

	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
)

// Method names as recorded in the call log.
const (
	MethodPrinterInit         = "PrinterInit"
	MethodPrinterSerialNo     = "PrinterSerialNo"
	MethodPrinterModel        = "PrinterModel"
	MethodPrinterVersion      = "PrinterVersion"
	MethodPrinterPaper        = "PrinterPaper"
	MethodLineWrap            = "LineWrap"
	MethodAutoOutPaper        = "AutoOutPaper"
	MethodSetAlignment        = "SetAlignment"
	MethodSetFontSize         = "SetFontSize"
	MethodPrintText           = "PrintText"
	MethodPrintTextWithFont   = "PrintTextWithFont"
	MethodSendRAWData         = "SendRAWData"
	MethodPrintColumnsString  = "PrintColumnsString"
	MethodPrintBarCode        = "PrintBarCode"
	MethodPrintQRCode         = "PrintQRCode"
	MethodPrintBitmap         = "PrintBitmap"
	MethodOpenDrawer          = "OpenDrawer"
	MethodEnterPrinterBuffer  = "EnterPrinterBuffer"
	MethodCommitPrinterBuffer = "CommitPrinterBuffer"
	MethodExitPrinterBuffer   = "ExitPrinterBuffer"
	MethodUpdatePrinterState  = "UpdatePrinterState"
)

// Call is one recorded invocation.
type Call struct {
	Method string
	Args   []any
}

// Service records every call and returns configured values or faults.
type Service struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error

	SerialNo string
	Model    string
	Version  string
	Paper    int
	State    int
}

var _ service.PrinterService = (*Service)(nil)

// New creates a fake service with plausible identity values.
func New() *Service {
	return &Service{
		failures: make(map[string]error),
		SerialNo: "FAKE0001",
		Model:    "Fake-T2",
		Version:  "1.0.0",
		Paper:    service.Paper58mm,
		State:    service.StateRunning,
	}
}

// Fail makes every later call of method return err. A nil err clears it.
func (s *Service) Fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Calls returns a copy of the call log.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Methods returns the recorded method names in order.
func (s *Service) Methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.Method)
	}
	return out
}

// CallCount returns the number of recorded calls.
func (s *Service) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Reset clears the call log.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Service) record(method string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: method, Args: args})
	return s.failures[method]
}

func (s *Service) PrinterInit() error {
	return s.record(MethodPrinterInit)
}

func (s *Service) PrinterSerialNo() (string, error) {
	if err := s.record(MethodPrinterSerialNo); err != nil {
		return "", err
	}
	return s.SerialNo, nil
}

func (s *Service) PrinterModel() (string, error) {
	if err := s.record(MethodPrinterModel); err != nil {
		return "", err
	}
	return s.Model, nil
}

func (s *Service) PrinterVersion() (string, error) {
	if err := s.record(MethodPrinterVersion); err != nil {
		return "", err
	}
	return s.Version, nil
}

func (s *Service) PrinterPaper() (int, error) {
	if err := s.record(MethodPrinterPaper); err != nil {
		return 0, err
	}
	return s.Paper, nil
}

func (s *Service) LineWrap(n int) error {
	return s.record(MethodLineWrap, n)
}

func (s *Service) AutoOutPaper() error {
	return s.record(MethodAutoOutPaper)
}

func (s *Service) SetAlignment(alignment int) error {
	return s.record(MethodSetAlignment, alignment)
}

func (s *Service) SetFontSize(size float32) error {
	return s.record(MethodSetFontSize, size)
}

func (s *Service) PrintText(text string) error {
	return s.record(MethodPrintText, text)
}

func (s *Service) PrintTextWithFont(text, typeface string, size float32) error {
	return s.record(MethodPrintTextWithFont, text, typeface, size)
}

func (s *Service) SendRAWData(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	return s.record(MethodSendRAWData, cp)
}

func (s *Service) PrintColumnsString(texts []string, widths, aligns []int) error {
	return s.record(MethodPrintColumnsString, texts, widths, aligns)
}

func (s *Service) PrintBarCode(data string, symbology, height, width, textPosition int) error {
	return s.record(MethodPrintBarCode, data, symbology, height, width, textPosition)
}

func (s *Service) PrintQRCode(data string, moduleSize, errorLevel int) error {
	return s.record(MethodPrintQRCode, data, moduleSize, errorLevel)
}

func (s *Service) PrintBitmap(img image.Image) error {
	return s.record(MethodPrintBitmap, img)
}

func (s *Service) OpenDrawer() error {
	return s.record(MethodOpenDrawer)
}

func (s *Service) EnterPrinterBuffer(clean bool) error {
	return s.record(MethodEnterPrinterBuffer, clean)
}

func (s *Service) CommitPrinterBuffer() error {
	return s.record(MethodCommitPrinterBuffer)
}

func (s *Service) ExitPrinterBuffer(commit bool) error {
	return s.record(MethodExitPrinterBuffer, commit)
}

func (s *Service) UpdatePrinterState() (int, error) {
	if err := s.record(MethodUpdatePrinterState); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State, nil
}
