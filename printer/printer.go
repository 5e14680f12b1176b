// Package printer is the operation surface over a printer service. Every
// operation checks the connection first, forwards to the service and
// returns one value or one categorized *Error.
package printer

import (
	"io"
	"log"
	"os"

	"github.com/nixxel-company-limited/thermal-printer-bridge/bitmap"
	"github.com/nixxel-company-limited/thermal-printer-bridge/escutil"
	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
)

// FallbackFeedLines is the line feed used when auto paper feed fails.
const FallbackFeedLines = 3

// Source yields the current service handle. *connection.Manager
// implements it.
type Source interface {
	Service() (service.PrinterService, bool)
}

// Notifier shows a transient message to an operator.
type Notifier interface {
	Notify(message string)
}

type logNotifier struct {
	logger *log.Logger
}

func (n logNotifier) Notify(message string) {
	n.logger.Println(message)
}

// Printer implements Capability on top of a Source.
type Printer struct {
	source   Source
	logger   *log.Logger
	notifier Notifier
}

// Option configures a Printer.
type Option func(*Printer)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(p *Printer) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		p.logger = logger
	}
}

// WithNotifier sets where status messages are shown.
func WithNotifier(n Notifier) Option {
	return func(p *Printer) {
		p.notifier = n
	}
}

// New creates a facade reading its handle from source.
func New(source Source, opts ...Option) *Printer {
	p := &Printer{
		source: source,
		logger: log.New(os.Stdout, "[PRINTER] ", log.LstdFlags|log.Lmsgprefix),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.notifier == nil {
		p.notifier = logNotifier{logger: p.logger}
	}
	return p
}

// service returns the handle or a ServiceUnavailable error. Callers must
// return on error.
func (p *Printer) service(op string) (service.PrinterService, error) {
	if p.source != nil {
		if svc, ok := p.source.Service(); ok && svc != nil {
			return svc, nil
		}
	}
	p.logger.Printf("%s rejected: %s", op, NotConnectedMessage)
	return nil, notConnected(op)
}

func (p *Printer) call(op string, fn func(service.PrinterService) error) error {
	svc, err := p.service(op)
	if err != nil {
		return err
	}
	if err := fn(svc); err != nil {
		p.logger.Printf("Error: %s failed: %v", op, err)
		return wrap(op, err)
	}
	return nil
}

func (p *Printer) query(op string, fn func(service.PrinterService) (string, error)) (string, error) {
	var out string
	err := p.call(op, func(svc service.PrinterService) error {
		var err error
		out, err = fn(svc)
		return err
	})
	return out, err
}

// IsConnected reports whether a service handle is present.
func (p *Printer) IsConnected() bool {
	if p.source == nil {
		return false
	}
	svc, ok := p.source.Service()
	return ok && svc != nil
}

// PrinterSerialNo returns the device serial number.
func (p *Printer) PrinterSerialNo() (string, error) {
	return p.query(OpGetPrinterSerialNo, service.PrinterService.PrinterSerialNo)
}

// PrinterModel returns the device model.
func (p *Printer) PrinterModel() (string, error) {
	return p.query(OpGetPrinterModel, service.PrinterService.PrinterModel)
}

// PrinterVersion returns the firmware version.
func (p *Printer) PrinterVersion() (string, error) {
	return p.query(OpGetPrinterVersion, service.PrinterService.PrinterVersion)
}

// PrinterPaper returns "58mm" or "80mm".
func (p *Printer) PrinterPaper() (string, error) {
	return p.query(OpGetPrinterPaper, func(svc service.PrinterService) (string, error) {
		code, err := svc.PrinterPaper()
		if err != nil {
			return "", err
		}
		return PaperLabel(code), nil
	})
}

// InitPrinter resets all formatting state on the device.
func (p *Printer) InitPrinter() error {
	return p.call(OpInitPrinter, service.PrinterService.PrinterInit)
}

// PrintLineWrap feeds n lines after the previous content.
func (p *Printer) PrintLineWrap(n int) error {
	return p.call(OpPrintLineWrap, func(svc service.PrinterService) error {
		return svc.LineWrap(n)
	})
}

// FeedPaper feeds to the tear bar. Devices that cannot do this, or fail
// while trying, get a FallbackFeedLines line feed instead.
func (p *Printer) FeedPaper() error {
	return p.call(OpFeedPaper, func(svc service.PrinterService) error {
		if err := svc.AutoOutPaper(); err != nil {
			p.logger.Printf("Auto paper feed failed (%v), feeding %d lines", err, FallbackFeedLines)
			return svc.LineWrap(FallbackFeedLines)
		}
		return nil
	})
}

// SetAlignment sets the alignment of subsequent content.
func (p *Printer) SetAlignment(alignment Alignment) error {
	return p.call(OpSetAlignment, func(svc service.PrinterService) error {
		return svc.SetAlignment(int(alignment))
	})
}

// SetFontSize sets the font size of subsequent text until InitPrinter.
func (p *Printer) SetFontSize(size float32) error {
	return p.call(OpSetFontSize, func(svc service.PrinterService) error {
		return svc.SetFontSize(size)
	})
}

// PrintText prints content as is.
func (p *Printer) PrintText(content string) error {
	return p.call(OpPrintText, func(svc service.PrinterService) error {
		return svc.PrintText(content)
	})
}

// PrintTextWithOption prints content at size with optional emphasis.
//
// Emphasis is bracketed with raw sequences around the text call. The
// bracket is not transactional: if the text call fails the off sequences
// are not sent and the device stays emphasized until InitPrinter.
func (p *Printer) PrintTextWithOption(content string, size float32, bold, underline bool) error {
	return p.call(OpPrintTextWithOption, func(svc service.PrinterService) error {
		if bold {
			if err := svc.SendRAWData(escutil.BoldOn()); err != nil {
				return err
			}
		}
		if underline {
			if err := svc.SendRAWData(escutil.UnderlineWithOneDotWidthOn()); err != nil {
				return err
			}
		}

		if err := svc.PrintTextWithFont(content, "", size); err != nil {
			return err
		}

		if err := svc.SendRAWData(escutil.BoldOff()); err != nil {
			return err
		}
		return svc.SendRAWData(escutil.UnderlineOff())
	})
}

// PrintTextTable prints one row of columns. texts, widths and aligns are
// forwarded unchanged; mismatched lengths are the service's to reject.
func (p *Printer) PrintTextTable(texts []string, widths []int, aligns []int) error {
	return p.call(OpPrintTextTable, func(svc service.PrinterService) error {
		return svc.PrintColumnsString(texts, widths, aligns)
	})
}

// PrintBarcode prints a 1-D barcode. height is 1-255, width 2-6.
func (p *Printer) PrintBarcode(data string, symbology Symbology, height, width int, pos TextPosition) error {
	return p.call(OpPrintBarcode, func(svc service.PrinterService) error {
		return svc.PrintBarCode(data, int(symbology), height, width, int(pos))
	})
}

// PrintQRCode prints a QR code. moduleSize is 1-16.
func (p *Printer) PrintQRCode(data string, moduleSize int, level ErrorLevel) error {
	return p.call(OpPrintQrCode, func(svc service.PrinterService) error {
		return svc.PrintQRCode(data, moduleSize, int(level))
	})
}

// PrintBitmap decodes a base64 image to width x height and prints it.
// width should be at most 384 and a multiple of 8.
func (p *Printer) PrintBitmap(data string, width, height int) error {
	return p.call(OpPrintBitmap, func(svc service.PrinterService) error {
		img, err := bitmap.DecodeBase64(data, width, height)
		if err != nil {
			return err
		}
		return svc.PrintBitmap(img)
	})
}

// PrintRawData sends printer command bytes unchanged.
func (p *Printer) PrintRawData(data []byte) error {
	return p.call(OpPrintRawData, func(svc service.PrinterService) error {
		return svc.SendRAWData(data)
	})
}

// OpenCashBox kicks the attached cash drawer.
func (p *Printer) OpenCashBox() error {
	return p.call(OpOpenCashBox, service.PrinterService.OpenDrawer)
}

// EnterPrintBuffer starts buffer mode, optionally discarding buffered content.
func (p *Printer) EnterPrintBuffer(clean bool) error {
	return p.call(OpEnterPrintBuffer, func(svc service.PrinterService) error {
		return svc.EnterPrinterBuffer(clean)
	})
}

// CommitPrinterBuffer prints buffered content.
func (p *Printer) CommitPrinterBuffer() error {
	return p.call(OpCommitPrinterBuffer, service.PrinterService.CommitPrinterBuffer)
}

// ExitPrinterBuffer leaves buffer mode, optionally committing first.
func (p *Printer) ExitPrinterBuffer(commit bool) error {
	return p.call(OpExitPrinterBuffer, func(svc service.PrinterService) error {
		return svc.ExitPrinterBuffer(commit)
	})
}

// ShowPrinterStatus queries the device state and shows its label through
// the notifier. The label is not returned.
func (p *Printer) ShowPrinterStatus() error {
	return p.call(OpShowPrinterStatus, func(svc service.PrinterService) error {
		code, err := svc.UpdatePrinterState()
		if err != nil {
			return err
		}
		label, ok := StatusLabel(code)
		if !ok {
			p.logger.Printf("Unknown printer state %d", code)
			return nil
		}
		p.notifier.Notify(label)
		return nil
	})
}
