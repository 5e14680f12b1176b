package printer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/thermal-printer-bridge/connection"
	"github.com/nixxel-company-limited/thermal-printer-bridge/escutil"
	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
	"github.com/nixxel-company-limited/thermal-printer-bridge/service/fake"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newConnected(t *testing.T) (*Printer, *fake.Service, *recordingNotifier) {
	t.Helper()
	svc := fake.New()
	m := connection.NewManagerWithLogger(&connection.StaticBinder{Service: svc}, nil)
	m.Connect()
	notifier := &recordingNotifier{}
	return New(m, WithLogger(nil), WithNotifier(notifier)), svc, notifier
}

func pngBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 16))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// operations invokes every capability operation once.
func operations(t *testing.T) map[string]func(p *Printer) error {
	img := pngBase64(t)
	return map[string]func(p *Printer) error{
		OpGetPrinterSerialNo: func(p *Printer) error { _, err := p.PrinterSerialNo(); return err },
		OpGetPrinterModel:    func(p *Printer) error { _, err := p.PrinterModel(); return err },
		OpGetPrinterVersion:  func(p *Printer) error { _, err := p.PrinterVersion(); return err },
		OpGetPrinterPaper:    func(p *Printer) error { _, err := p.PrinterPaper(); return err },
		OpInitPrinter:        func(p *Printer) error { return p.InitPrinter() },
		OpPrintLineWrap:      func(p *Printer) error { return p.PrintLineWrap(2) },
		OpFeedPaper:          func(p *Printer) error { return p.FeedPaper() },
		OpSetAlignment:       func(p *Printer) error { return p.SetAlignment(AlignCenter) },
		OpSetFontSize:        func(p *Printer) error { return p.SetFontSize(24) },
		OpPrintText:          func(p *Printer) error { return p.PrintText("hello\n") },
		OpPrintTextWithOption: func(p *Printer) error {
			return p.PrintTextWithOption("hello", 32, true, true)
		},
		OpPrintTextTable: func(p *Printer) error {
			return p.PrintTextTable([]string{"a", "b"}, []int{1, 1}, []int{0, 2})
		},
		OpPrintBarcode: func(p *Printer) error {
			return p.PrintBarcode("1234567890", SymbologyCode128, 80, 2, TextNone)
		},
		OpPrintQrCode:         func(p *Printer) error { return p.PrintQRCode("https://example.com", 8, ErrorLevelQ) },
		OpPrintBitmap:         func(p *Printer) error { return p.PrintBitmap(img, 8, 8) },
		OpPrintRawData:        func(p *Printer) error { return p.PrintRawData([]byte{0x1B, 0x40}) },
		OpOpenCashBox:         func(p *Printer) error { return p.OpenCashBox() },
		OpEnterPrintBuffer:    func(p *Printer) error { return p.EnterPrintBuffer(true) },
		OpCommitPrinterBuffer: func(p *Printer) error { return p.CommitPrinterBuffer() },
		OpExitPrinterBuffer:   func(p *Printer) error { return p.ExitPrinterBuffer(true) },
		OpShowPrinterStatus:   func(p *Printer) error { return p.ShowPrinterStatus() },
	}
}

func TestOperationsFailWhenNotConnected(t *testing.T) {
	svc := fake.New()
	binder := &connection.StaticBinder{Service: svc}
	m := connection.NewManagerWithLogger(binder, nil)
	p := New(m, WithLogger(nil))

	for name, op := range operations(t) {
		t.Run(name, func(t *testing.T) {
			err := op(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrServiceUnavailable)
			assert.Equal(t, KindServiceUnavailable, KindOf(err))

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, 0, perr.Code)
			assert.Equal(t, NotConnectedMessage, perr.Message)
			assert.Equal(t, name, perr.Op)
		})
	}

	assert.Equal(t, 0, svc.CallCount())
	assert.False(t, p.IsConnected())
}

func TestOperationsFailAfterDisconnect(t *testing.T) {
	svc := fake.New()
	binder := &connection.StaticBinder{Service: svc}
	m := connection.NewManagerWithLogger(binder, nil)
	m.Connect()
	p := New(m, WithLogger(nil))

	require.NoError(t, p.InitPrinter())
	binder.Drop()

	err := p.PrintText("lost")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, []string{fake.MethodPrinterInit}, svc.Methods())
}

func TestNilSource(t *testing.T) {
	p := New(nil, WithLogger(nil))
	assert.False(t, p.IsConnected())
	assert.ErrorIs(t, p.InitPrinter(), ErrServiceUnavailable)
}

func TestOperationsSucceedWhenConnected(t *testing.T) {
	for name, op := range operations(t) {
		t.Run(name, func(t *testing.T) {
			p, svc, _ := newConnected(t)
			require.NoError(t, op(p))
			assert.NotZero(t, svc.CallCount())
		})
	}
}

func TestQueries(t *testing.T) {
	p, svc, _ := newConnected(t)
	svc.SerialNo = "N411200A0001"
	svc.Model = "T2mini"
	svc.Version = "2.4.1"

	serial, err := p.PrinterSerialNo()
	require.NoError(t, err)
	assert.Equal(t, "N411200A0001", serial)

	model, err := p.PrinterModel()
	require.NoError(t, err)
	assert.Equal(t, "T2mini", model)

	version, err := p.PrinterVersion()
	require.NoError(t, err)
	assert.Equal(t, "2.4.1", version)
}

func TestPrinterPaper(t *testing.T) {
	testCases := []struct {
		code int
		want string
	}{
		{1, "58mm"},
		{0, "80mm"},
		{2, "80mm"},
		{255, "80mm"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			p, svc, _ := newConnected(t)
			svc.Paper = tc.code

			got, err := p.PrinterPaper()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrintTextWithOptionSequence(t *testing.T) {
	p, svc, _ := newConnected(t)

	require.NoError(t, p.PrintTextWithOption("TOTAL", 32, true, true))

	calls := svc.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, fake.Call{Method: fake.MethodSendRAWData, Args: []any{escutil.BoldOn()}}, calls[0])
	assert.Equal(t, fake.Call{Method: fake.MethodSendRAWData, Args: []any{escutil.UnderlineWithOneDotWidthOn()}}, calls[1])
	assert.Equal(t, fake.Call{Method: fake.MethodPrintTextWithFont, Args: []any{"TOTAL", "", float32(32)}}, calls[2])
	assert.Equal(t, fake.Call{Method: fake.MethodSendRAWData, Args: []any{escutil.BoldOff()}}, calls[3])
	assert.Equal(t, fake.Call{Method: fake.MethodSendRAWData, Args: []any{escutil.UnderlineOff()}}, calls[4])
}

func TestPrintTextWithOptionPlain(t *testing.T) {
	p, svc, _ := newConnected(t)

	require.NoError(t, p.PrintTextWithOption("plain", 24, false, false))

	assert.Equal(t, []string{
		fake.MethodPrintTextWithFont,
		fake.MethodSendRAWData,
		fake.MethodSendRAWData,
	}, svc.Methods())
}

func TestPrintTextWithOptionFailureLeavesEmphasis(t *testing.T) {
	p, svc, _ := newConnected(t)
	svc.Fail(fake.MethodPrintTextWithFont, &service.RemoteError{Code: 7, Message: "paper jam"})

	err := p.PrintTextWithOption("TOTAL", 24, true, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommunication)

	calls := svc.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []any{escutil.BoldOn()}, calls[0].Args)
	assert.Equal(t, fake.MethodPrintTextWithFont, calls[1].Method)
}

func TestFeedPaper(t *testing.T) {
	t.Run("AutoFeed", func(t *testing.T) {
		p, svc, _ := newConnected(t)
		require.NoError(t, p.FeedPaper())
		assert.Equal(t, []string{fake.MethodAutoOutPaper}, svc.Methods())
	})

	t.Run("FallbackOnFault", func(t *testing.T) {
		p, svc, _ := newConnected(t)
		svc.Fail(fake.MethodAutoOutPaper, &service.RemoteError{Code: 1, Message: "transport fault"})

		require.NoError(t, p.FeedPaper())

		calls := svc.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, fake.MethodAutoOutPaper, calls[0].Method)
		assert.Equal(t, fake.Call{Method: fake.MethodLineWrap, Args: []any{3}}, calls[1])
	})

	t.Run("FallbackOnUnsupported", func(t *testing.T) {
		p, svc, _ := newConnected(t)
		svc.Fail(fake.MethodAutoOutPaper, service.Unsupported("auto paper feed"))

		require.NoError(t, p.FeedPaper())
		assert.Equal(t, []string{fake.MethodAutoOutPaper, fake.MethodLineWrap}, svc.Methods())
	})

	t.Run("FallbackFails", func(t *testing.T) {
		p, svc, _ := newConnected(t)
		svc.Fail(fake.MethodAutoOutPaper, service.Unsupported("auto paper feed"))
		svc.Fail(fake.MethodLineWrap, &service.RemoteError{Code: 1, Message: "offline"})

		err := p.FeedPaper()
		assert.ErrorIs(t, err, ErrCommunication)
	})
}

func TestPrintTextTableForwardsUnchanged(t *testing.T) {
	p, svc, _ := newConnected(t)

	require.NoError(t, p.PrintTextTable([]string{"Order No", ": 0001"}, []int{1, 2}, []int{0, 0}))

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, fake.Call{
		Method: fake.MethodPrintColumnsString,
		Args:   []any{[]string{"Order No", ": 0001"}, []int{1, 2}, []int{0, 0}},
	}, calls[0])
}

func TestPrintTextTableMismatchIsForwarded(t *testing.T) {
	p, svc, _ := newConnected(t)

	require.NoError(t, p.PrintTextTable([]string{"a", "b", "c"}, []int{1}, nil))
	assert.Equal(t, []string{fake.MethodPrintColumnsString}, svc.Methods())
}

func TestForwardedArguments(t *testing.T) {
	p, svc, _ := newConnected(t)

	require.NoError(t, p.PrintLineWrap(4))
	require.NoError(t, p.SetAlignment(AlignRight))
	require.NoError(t, p.SetFontSize(28.5))
	require.NoError(t, p.PrintText("line\n"))
	require.NoError(t, p.PrintBarcode("123456789012", SymbologyUPCA, 162, 2, TextBelow))
	require.NoError(t, p.PrintQRCode("https://google.com", 8, ErrorLevelQ))
	require.NoError(t, p.EnterPrintBuffer(true))
	require.NoError(t, p.CommitPrinterBuffer())
	require.NoError(t, p.ExitPrinterBuffer(false))

	assert.Equal(t, []fake.Call{
		{Method: fake.MethodLineWrap, Args: []any{4}},
		{Method: fake.MethodSetAlignment, Args: []any{2}},
		{Method: fake.MethodSetFontSize, Args: []any{float32(28.5)}},
		{Method: fake.MethodPrintText, Args: []any{"line\n"}},
		{Method: fake.MethodPrintBarCode, Args: []any{"123456789012", 0, 162, 2, 2}},
		{Method: fake.MethodPrintQRCode, Args: []any{"https://google.com", 8, 2}},
		{Method: fake.MethodEnterPrinterBuffer, Args: []any{true}},
		{Method: fake.MethodCommitPrinterBuffer},
		{Method: fake.MethodExitPrinterBuffer, Args: []any{false}},
	}, svc.Calls())
}

func TestPrintBitmap(t *testing.T) {
	t.Run("Decoded", func(t *testing.T) {
		p, svc, _ := newConnected(t)
		require.NoError(t, p.PrintBitmap(pngBase64(t), 32, 8))

		calls := svc.Calls()
		require.Len(t, calls, 1)
		img, ok := calls[0].Args[0].(image.Image)
		require.True(t, ok)
		assert.Equal(t, image.Rect(0, 0, 32, 8), img.Bounds())
	})

	t.Run("Malformed", func(t *testing.T) {
		p, svc, _ := newConnected(t)
		err := p.PrintBitmap("bm90IGFuIGltYWdl", 32, 8)

		assert.ErrorIs(t, err, ErrDecode)
		assert.Equal(t, KindDecode, KindOf(err))
		assert.Equal(t, 0, svc.CallCount())
	})
}

func TestOpenCashBoxUnsupported(t *testing.T) {
	p, svc, _ := newConnected(t)
	svc.Fail(fake.MethodOpenDrawer, service.Unsupported("cash drawer"))

	err := p.OpenCashBox()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
	assert.ErrorIs(t, err, service.ErrUnsupported)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, service.CodeUnsupported, perr.Code)
}

func TestCommunicationErrorCarriesRemoteCode(t *testing.T) {
	p, svc, _ := newConnected(t)
	svc.Fail(fake.MethodPrinterInit, &service.RemoteError{Code: 42, Message: "binder died"})

	err := p.InitPrinter()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommunication)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 42, perr.Code)
	assert.Equal(t, "binder died", perr.Message)
	assert.Equal(t, OpInitPrinter, perr.Op)
	assert.Contains(t, err.Error(), "initPrinter")
}

func TestCommunicationErrorPlainCause(t *testing.T) {
	p, svc, _ := newConnected(t)
	cause := errors.New("broken pipe")
	svc.Fail(fake.MethodPrintText, cause)

	err := p.PrintText("x")
	assert.ErrorIs(t, err, ErrCommunication)
	assert.ErrorIs(t, err, cause)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Code)
	assert.Equal(t, "broken pipe", perr.Message)
}

func TestShowPrinterStatus(t *testing.T) {
	testCases := []struct {
		code  int
		label string
	}{
		{1, "Printer is running"},
		{2, "Printer found but still initializing"},
		{3, "Printer hardware interface is abnormal and needs to be reprinted"},
		{4, "Printer is out of paper"},
		{5, "Printer is overheating"},
		{6, "Printer's cover is not closed"},
		{7, "Printer's cutter is abnormal"},
		{8, "Printer's cutter is normal"},
		{9, "Black Mark Paper is not found"},
		{505, "Printer does not exist"},
		{42, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			label, ok := StatusLabel(tc.code)
			assert.Equal(t, tc.label, label)
			assert.Equal(t, tc.label != "", ok)

			p, svc, notifier := newConnected(t)
			svc.State = tc.code

			require.NoError(t, p.ShowPrinterStatus())
			if tc.label == "" {
				assert.Empty(t, notifier.Messages())
			} else {
				assert.Equal(t, []string{tc.label}, notifier.Messages())
			}
		})
	}
}

func TestShowPrinterStatusFailure(t *testing.T) {
	p, svc, notifier := newConnected(t)
	svc.Fail(fake.MethodUpdatePrinterState, &service.RemoteError{Code: 1, Message: "timeout"})

	assert.ErrorIs(t, p.ShowPrinterStatus(), ErrCommunication)
	assert.Empty(t, notifier.Messages())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ServiceUnavailable", KindServiceUnavailable.String())
	assert.Equal(t, "ServiceCommunicationError", KindCommunication.String())
	assert.Equal(t, "DecodeError", KindDecode.String())
	assert.Equal(t, "UnsupportedFeature", KindUnsupported.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, Kind(0), KindOf(errors.New("other")))
}
