// Package escpos implements the printer service for generic ESC/POS
// printers reached through an adapter.
package escpos

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os"
	"sync"

	"github.com/nixxel-company-limited/thermal-printer-bridge/adapter"
	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
)

// Options describes the attached printer.
type Options struct {
	// PaperWidth in millimetres, 58 or 80.
	PaperWidth int
	// CodePage names the character table, e.g. "cp437". Empty sends UTF-8 bytes.
	CodePage   string
	CashDrawer bool
	AutoCutter bool
	// Identity overrides what the adapter reports.
	Identity adapter.Identity
}

// Service drives an ESC/POS printer through an adapter. Calls are
// serialized; while buffering, output is held until committed.
type Service struct {
	mu      sync.Mutex
	adapter adapter.Adapter
	opts    Options
	text    *textEncoder
	logger  *log.Logger

	identity   adapter.Identity
	multiplier int
	buffering  bool
	buffer     bytes.Buffer
}

var _ service.PrinterService = (*Service)(nil)

// NewService creates a service for an opened adapter.
func NewService(a adapter.Adapter, opts Options) (*Service, error) {
	logger := log.New(os.Stdout, "[ESCPOS] ", log.LstdFlags|log.Lmsgprefix)
	return NewServiceWithLogger(a, opts, logger)
}

// NewServiceWithLogger creates a service with a custom logger
func NewServiceWithLogger(a adapter.Adapter, opts Options, logger *log.Logger) (*Service, error) {
	if a == nil {
		return nil, errors.New("adapter is required")
	}
	if opts.PaperWidth == 0 {
		opts.PaperWidth = 58
	}
	if opts.PaperWidth != 58 && opts.PaperWidth != 80 {
		return nil, fmt.Errorf("unsupported paper width %dmm", opts.PaperWidth)
	}
	text, err := newTextEncoder(opts.CodePage)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Service{
		adapter:    a,
		opts:       opts,
		text:       text,
		logger:     logger,
		multiplier: 1,
	}
	s.identity = s.resolveIdentity()
	return s, nil
}

func (s *Service) resolveIdentity() adapter.Identity {
	id := s.opts.Identity
	if d, ok := s.adapter.(adapter.Describer); ok {
		found, err := d.Describe()
		if err != nil {
			s.logger.Printf("Failed to read printer identity: %v", err)
		} else {
			if id.SerialNo == "" {
				id.SerialNo = found.SerialNo
			}
			if id.Model == "" {
				id.Model = found.Model
			}
			if id.Manufacturer == "" {
				id.Manufacturer = found.Manufacturer
			}
			if id.Version == "" {
				id.Version = found.Version
			}
		}
	}
	if id.Model == "" {
		id.Model = "ESC/POS Printer"
	}
	return id
}

// write sends data to the printer or appends it to the buffer.
// Callers hold s.mu.
func (s *Service) write(data []byte) error {
	if s.buffering {
		s.buffer.Write(data)
		return nil
	}
	return s.send(data)
}

// send writes to the adapter regardless of buffer mode.
func (s *Service) send(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := s.adapter.Write(data); err != nil {
		return &service.RemoteError{
			Code:    service.CodeTransport,
			Message: fmt.Sprintf("write failed: %v", err),
			Err:     err,
		}
	}
	return nil
}

func invalid(err error) error {
	return &service.RemoteError{Code: service.CodeInvalidArgs, Message: err.Error(), Err: err}
}

func (s *Service) do(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

// PrinterInit resets the printer and selects the configured code page.
func (s *Service) PrinterInit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.multiplier = 1
	return s.write(append(cmdInit(), s.text.selectTable()...))
}

func (s *Service) PrinterSerialNo() (string, error) { return s.identity.SerialNo, nil }

func (s *Service) PrinterModel() (string, error) { return s.identity.Model, nil }

func (s *Service) PrinterVersion() (string, error) { return s.identity.Version, nil }

// PrinterPaper reports the paper width code.
func (s *Service) PrinterPaper() (int, error) {
	if s.opts.PaperWidth == 80 {
		return service.Paper80mm, nil
	}
	return service.Paper58mm, nil
}

func (s *Service) LineWrap(n int) error {
	if n < 0 {
		return invalid(fmt.Errorf("line count %d must not be negative", n))
	}
	return s.do(cmdFeedLines(n))
}

// AutoOutPaper feeds to the cutter and cuts. Printers without a cutter
// report it unsupported so the caller can fall back to line feeds.
func (s *Service) AutoOutPaper() error {
	if !s.opts.AutoCutter {
		return service.Unsupported("auto cutter")
	}
	return s.do(cmdFeedCut())
}

func (s *Service) SetAlignment(alignment int) error {
	if alignment < 0 || alignment > 2 {
		return invalid(fmt.Errorf("alignment %d out of range 0-2", alignment))
	}
	return s.do(cmdAlign(alignment))
}

// SetFontSize maps size to a character multiplier, 24 being 1x.
func (s *Service) SetFontSize(size float32) error {
	if size <= 0 {
		return invalid(fmt.Errorf("font size %v must be positive", size))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMultiplier(multiplierFor(size))
}

func (s *Service) setMultiplier(m int) error {
	if err := s.write(cmdCharSize(m)); err != nil {
		return err
	}
	s.multiplier = m
	return nil
}

func multiplierFor(size float32) int {
	m := int(math.Round(float64(size / DefaultFontSize)))
	if m < 1 {
		return 1
	}
	if m > 8 {
		return 8
	}
	return m
}

func (s *Service) PrintText(text string) error {
	data, err := s.text.encode(text)
	if err != nil {
		return invalid(err)
	}
	return s.do(data)
}

// PrintTextWithFont prints text at size and restores the previous size.
// The typeface is ignored; ESC/POS printers only carry built-in fonts.
func (s *Service) PrintTextWithFont(text, typeface string, size float32) error {
	data, err := s.text.encode(text)
	if err != nil {
		return invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if size <= 0 {
		return s.write(data)
	}
	prev := s.multiplier
	if err := s.setMultiplier(multiplierFor(size)); err != nil {
		return err
	}
	if err := s.write(data); err != nil {
		return err
	}
	return s.setMultiplier(prev)
}

// SendRAWData forwards pre-encoded bytes untouched.
func (s *Service) SendRAWData(data []byte) error {
	return s.do(data)
}

// PrintColumnsString prints one table row across the paper width.
func (s *Service) PrintColumnsString(texts []string, widths, aligns []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := layoutColumns(texts, widths, aligns, s.lineWidth())
	if err != nil {
		return invalid(err)
	}
	var out []byte
	for _, line := range lines {
		data, err := s.text.encode(line)
		if err != nil {
			return invalid(err)
		}
		out = append(out, data...)
		out = append(out, lf)
	}
	return s.write(out)
}

func (s *Service) lineWidth() int {
	width := charsPerLine58
	if s.opts.PaperWidth == 80 {
		width = charsPerLine80
	}
	return width / s.multiplier
}

func (s *Service) PrintBarCode(data string, symbology, height, width, textPosition int) error {
	cmd, err := cmdBarcode(data, symbology, height, width, textPosition)
	if err != nil {
		return invalid(err)
	}
	return s.do(cmd)
}

func (s *Service) PrintQRCode(data string, moduleSize, errorLevel int) error {
	cmd, err := cmdQRCode(data, moduleSize, errorLevel)
	if err != nil {
		return invalid(err)
	}
	return s.do(cmd)
}

// PrintBitmap prints img as a raster image no wider than the paper.
func (s *Service) PrintBitmap(img image.Image) error {
	if img == nil {
		return invalid(errors.New("image is required"))
	}
	b := img.Bounds()
	if b.Empty() {
		return invalid(errors.New("image is empty"))
	}
	if limit := s.maxDots(); b.Dx() > limit {
		return invalid(fmt.Errorf("image width %d exceeds %d dots", b.Dx(), limit))
	}
	return s.do(cmdRaster(img))
}

func (s *Service) maxDots() int {
	if s.opts.PaperWidth == 80 {
		return 576
	}
	return 384
}

func (s *Service) OpenDrawer() error {
	if !s.opts.CashDrawer {
		return service.Unsupported("cash drawer")
	}
	return s.do(cmdKickDrawer())
}

// EnterPrinterBuffer starts holding output. clean discards anything
// already buffered.
func (s *Service) EnterPrinterBuffer(clean bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clean {
		s.buffer.Reset()
	}
	s.buffering = true
	return nil
}

// CommitPrinterBuffer prints the buffered output and keeps buffering.
func (s *Service) CommitPrinterBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// ExitPrinterBuffer leaves buffer mode, printing the buffer when commit is
// set and discarding it otherwise.
func (s *Service) ExitPrinterBuffer(commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if commit {
		err = s.flush()
	}
	s.buffer.Reset()
	s.buffering = false
	return err
}

func (s *Service) flush() error {
	if s.buffer.Len() == 0 {
		return nil
	}
	if err := s.send(s.buffer.Bytes()); err != nil {
		return err
	}
	s.buffer.Reset()
	return nil
}

// Buffered reports the number of bytes held in buffer mode.
func (s *Service) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Len()
}

// UpdatePrinterState polls the real-time status commands. Transports that
// cannot read back report the printer as running.
func (s *Service) UpdatePrinterState() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.adapter.IsOpen() {
		return service.StatePrinterNotDetected, nil
	}

	offline, ok, err := s.queryStatus(statusOffline)
	if err != nil || !ok {
		return service.StateRunning, err
	}
	if offline&0x04 != 0 {
		return service.StateCoverOpen, nil
	}
	if offline&0x20 != 0 {
		return service.StateOutOfPaper, nil
	}

	if paper, ok, err := s.queryStatus(statusPaper); err != nil {
		return service.StateRunning, err
	} else if ok && paper&0x60 == 0x60 {
		return service.StateOutOfPaper, nil
	}

	if offline&0x40 != 0 {
		errs, ok, err := s.queryStatus(statusError)
		if err != nil {
			return service.StateRunning, err
		}
		if ok {
			switch {
			case errs&0x08 != 0:
				return service.StateCutterAbnormal, nil
			case errs&0x40 != 0:
				return service.StateOverheating, nil
			}
		}
		return service.StateHardwareAbnormal, nil
	}
	return service.StateRunning, nil
}

// queryStatus sends DLE EOT n and reads one status byte. ok is false when
// the transport gives no valid answer.
func (s *Service) queryStatus(n byte) (byte, bool, error) {
	if err := s.send(cmdStatus(n)); err != nil {
		return 0, false, err
	}

	buf := make([]byte, 1)
	read, err := s.adapter.Read(buf)
	if err != nil {
		if !errors.Is(err, adapter.ErrReadUnsupported) {
			s.logger.Printf("Status %d read failed: %v", n, err)
		}
		return 0, false, nil
	}
	// Status bytes always have bits 1 and 4 set and bits 0 and 7 clear.
	if read != 1 || buf[0]&0x93 != 0x12 {
		return 0, false, nil
	}
	return buf[0], true, nil
}

// Identity returns the resolved printer identity.
func (s *Service) Identity() adapter.Identity { return s.identity }
