package printer

// Alignment values, shared with column alignment.
type Alignment int

const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

// Symbology is a 1-D barcode type.
type Symbology int

const (
	SymbologyUPCA    Symbology = 0
	SymbologyUPCE    Symbology = 1
	SymbologyEAN13   Symbology = 2
	SymbologyEAN8    Symbology = 3
	SymbologyCode39  Symbology = 4
	SymbologyITF     Symbology = 5
	SymbologyCodabar Symbology = 6
	SymbologyCode93  Symbology = 7
	SymbologyCode128 Symbology = 8
)

// TextPosition is where the human readable text goes around a barcode.
type TextPosition int

const (
	TextNone  TextPosition = 0
	TextAbove TextPosition = 1
	TextBelow TextPosition = 2
	TextBoth  TextPosition = 3
)

// ErrorLevel is the QR error correction level.
type ErrorLevel int

const (
	ErrorLevelL ErrorLevel = 0 // ~7%
	ErrorLevelM ErrorLevel = 1 // ~15%
	ErrorLevelQ ErrorLevel = 2 // ~25%
	ErrorLevelH ErrorLevel = 3 // ~30%
)

// Operation names of the capability surface.
const (
	OpGetPrinterSerialNo   = "getPrinterSerialNo"
	OpGetPrinterModel      = "getPrinterModel"
	OpGetPrinterVersion    = "getPrinterVersion"
	OpGetPrinterPaper      = "getPrinterPaper"
	OpInitPrinter          = "initPrinter"
	OpPrintLineWrap        = "printLineWrap"
	OpFeedPaper            = "feedPaper"
	OpSetAlignment         = "setAlignment"
	OpSetFontSize          = "setFontSize"
	OpPrintText            = "printText"
	OpPrintTextWithOption  = "printTextWithOption"
	OpPrintTextTable       = "printTextTable"
	OpPrintBarcode         = "printBarcode"
	OpPrintQrCode          = "printQrCode"
	OpPrintBitmap          = "printBitmap"
	OpPrintRawData         = "printRawData"
	OpOpenCashBox          = "openCashBox"
	OpEnterPrintBuffer     = "enterPrintBuffer"
	OpCommitPrinterBuffer  = "commitPrinterBuffer"
	OpExitPrinterBuffer    = "exitPrinterBuffer"
	OpShowPrinterStatus    = "showPrinterStatus"
	OpIsConnectedToPrinter = "isConnectedToPrinter"
)

// Capability is the operation surface callers depend on. Every method
// completes with exactly one value or one error.
type Capability interface {
	PrinterSerialNo() (string, error)
	PrinterModel() (string, error)
	PrinterVersion() (string, error)
	PrinterPaper() (string, error)

	InitPrinter() error

	PrintLineWrap(n int) error
	FeedPaper() error
	SetAlignment(alignment Alignment) error
	SetFontSize(size float32) error

	PrintText(content string) error
	PrintTextWithOption(content string, size float32, bold, underline bool) error
	PrintTextTable(texts []string, widths []int, aligns []int) error

	PrintBarcode(data string, symbology Symbology, height, width int, pos TextPosition) error
	PrintQRCode(data string, moduleSize int, level ErrorLevel) error

	PrintBitmap(data string, width, height int) error
	PrintRawData(data []byte) error
	OpenCashBox() error

	EnterPrintBuffer(clean bool) error
	CommitPrinterBuffer() error
	ExitPrinterBuffer(commit bool) error

	ShowPrinterStatus() error
	IsConnected() bool
}

var _ Capability = (*Printer)(nil)
