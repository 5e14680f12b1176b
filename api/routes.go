package api

import (
	"github.com/nixxel-company-limited/thermal-printer-bridge/printer"
)

// Operation runs one capability call with decoded arguments. A nil result
// is sent as JSON null.
type Operation func(p printer.Capability, args Args) (any, error)

// Operations returns the operation table keyed by capability name.
func Operations() map[string]Operation {
	return map[string]Operation{
		printer.OpGetPrinterSerialNo: func(p printer.Capability, _ Args) (any, error) {
			return p.PrinterSerialNo()
		},
		printer.OpGetPrinterModel: func(p printer.Capability, _ Args) (any, error) {
			return p.PrinterModel()
		},
		printer.OpGetPrinterVersion: func(p printer.Capability, _ Args) (any, error) {
			return p.PrinterVersion()
		},
		printer.OpGetPrinterPaper: func(p printer.Capability, _ Args) (any, error) {
			return p.PrinterPaper()
		},
		printer.OpInitPrinter: func(p printer.Capability, _ Args) (any, error) {
			return nil, p.InitPrinter()
		},
		printer.OpPrintLineWrap: func(p printer.Capability, a Args) (any, error) {
			n, err := a.Int("n")
			if err != nil {
				return nil, err
			}
			return nil, p.PrintLineWrap(n)
		},
		printer.OpFeedPaper: func(p printer.Capability, _ Args) (any, error) {
			return nil, p.FeedPaper()
		},
		printer.OpSetAlignment: func(p printer.Capability, a Args) (any, error) {
			alignment, err := a.Int("alignment")
			if err != nil {
				return nil, err
			}
			return nil, p.SetAlignment(printer.Alignment(alignment))
		},
		printer.OpSetFontSize: func(p printer.Capability, a Args) (any, error) {
			size, err := a.Float("fontSize")
			if err != nil {
				return nil, err
			}
			return nil, p.SetFontSize(size)
		},
		printer.OpPrintText: func(p printer.Capability, a Args) (any, error) {
			content, err := a.Text("content")
			if err != nil {
				return nil, err
			}
			return nil, p.PrintText(content)
		},
		printer.OpPrintTextWithOption: printTextWithOption,
		printer.OpPrintTextTable:      printTextTable,
		printer.OpPrintBarcode:        printBarcode,
		printer.OpPrintQrCode:         printQRCode,
		printer.OpPrintBitmap:         printBitmap,
		printer.OpPrintRawData: func(p printer.Capability, a Args) (any, error) {
			data, err := a.Bytes("data")
			if err != nil {
				return nil, err
			}
			return nil, p.PrintRawData(data)
		},
		printer.OpOpenCashBox: func(p printer.Capability, _ Args) (any, error) {
			return nil, p.OpenCashBox()
		},
		printer.OpEnterPrintBuffer: func(p printer.Capability, a Args) (any, error) {
			clean, err := a.Bool("clean")
			if err != nil {
				return nil, err
			}
			return nil, p.EnterPrintBuffer(clean)
		},
		printer.OpCommitPrinterBuffer: func(p printer.Capability, _ Args) (any, error) {
			return nil, p.CommitPrinterBuffer()
		},
		printer.OpExitPrinterBuffer: func(p printer.Capability, a Args) (any, error) {
			commit, err := a.Bool("commit")
			if err != nil {
				return nil, err
			}
			return nil, p.ExitPrinterBuffer(commit)
		},
		printer.OpShowPrinterStatus: func(p printer.Capability, _ Args) (any, error) {
			return nil, p.ShowPrinterStatus()
		},
		printer.OpIsConnectedToPrinter: func(p printer.Capability, _ Args) (any, error) {
			return p.IsConnected(), nil
		},
	}
}

func printTextWithOption(p printer.Capability, a Args) (any, error) {
	content, err := a.Text("content")
	if err != nil {
		return nil, err
	}
	size, err := a.Float("fontSize")
	if err != nil {
		return nil, err
	}
	bold, err := a.Bool("isBold")
	if err != nil {
		return nil, err
	}
	underline, err := a.Bool("isUnderline")
	if err != nil {
		return nil, err
	}
	return nil, p.PrintTextWithOption(content, size, bold, underline)
}

func printTextTable(p printer.Capability, a Args) (any, error) {
	texts, err := a.Strings("contentArray")
	if err != nil {
		return nil, err
	}
	widths, err := a.Ints("widthArray")
	if err != nil {
		return nil, err
	}
	aligns, err := a.Ints("alignmentArray")
	if err != nil {
		return nil, err
	}
	return nil, p.PrintTextTable(texts, widths, aligns)
}

func printBarcode(p printer.Capability, a Args) (any, error) {
	data, err := a.Text("data")
	if err != nil {
		return nil, err
	}
	var n [4]int
	for i, name := range []string{"symbology", "height", "width", "textPosition"} {
		if n[i], err = a.Int(name); err != nil {
			return nil, err
		}
	}
	return nil, p.PrintBarcode(data, printer.Symbology(n[0]), n[1], n[2], printer.TextPosition(n[3]))
}

func printQRCode(p printer.Capability, a Args) (any, error) {
	data, err := a.Text("data")
	if err != nil {
		return nil, err
	}
	moduleSize, err := a.Int("moduleSize")
	if err != nil {
		return nil, err
	}
	level, err := a.Int("errorLevel")
	if err != nil {
		return nil, err
	}
	return nil, p.PrintQRCode(data, moduleSize, printer.ErrorLevel(level))
}

func printBitmap(p printer.Capability, a Args) (any, error) {
	data, err := a.Text("data")
	if err != nil {
		return nil, err
	}
	width, err := a.Int("width")
	if err != nil {
		return nil, err
	}
	height, err := a.Int("height")
	if err != nil {
		return nil, err
	}
	return nil, p.PrintBitmap(data, width, height)
}
