package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nixxel-company-limited/thermal-printer-bridge/adapter"
	"github.com/nixxel-company-limited/thermal-printer-bridge/api"
	"github.com/nixxel-company-limited/thermal-printer-bridge/config"
	"github.com/nixxel-company-limited/thermal-printer-bridge/connection"
	"github.com/nixxel-company-limited/thermal-printer-bridge/escpos"
	"github.com/nixxel-company-limited/thermal-printer-bridge/logging"
	"github.com/nixxel-company-limited/thermal-printer-bridge/printer"
	"github.com/nixxel-company-limited/thermal-printer-bridge/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	out := logging.Output(cfg.Log)
	if c, ok := out.(io.Closer); ok {
		defer c.Close()
	}
	logger := logging.New(out, "MAIN")

	if cfg.ListPorts {
		return listPorts(out)
	}

	factory, err := adapter.NewFromConfigWithLogger(cfg.Printer, logging.New(out, "DEVICE"))
	if err != nil {
		return err
	}
	logger.Printf("Printer transport: %s", cfg.Printer.Transport)

	binder := escpos.NewBinderWithLogger(factory, escpos.Options{
		PaperWidth: cfg.Printer.PaperWidth,
		CodePage:   cfg.Printer.CodePage,
		CashDrawer: cfg.Printer.CashDrawer,
		AutoCutter: cfg.Printer.AutoCutter,
		Identity: adapter.Identity{
			SerialNo: cfg.Printer.SerialNo,
			Model:    cfg.Printer.Model,
			Version:  cfg.Printer.Version,
		},
	}, logging.New(out, "ESCPOS"))

	notifier := logging.Notifier{Logger: logging.New(out, "OPERATOR")}

	manager := connection.NewManagerWithLogger(binder, logging.New(out, "CONNECTION"))
	manager.SetNotifier(notifier)
	manager.OnStateChange(func(connected bool) {
		logger.Printf("Printer connected: %v", connected)
	})

	p := printer.New(manager,
		printer.WithLogger(logging.New(out, "PRINTER")),
		printer.WithNotifier(notifier),
	)

	// A failed connect goes to the operator log; the API can retry it.
	manager.Connect()
	defer manager.Disconnect()

	if cfg.Demo {
		return printDemo(p)
	}

	var raw *server.Server
	if cfg.Server.Enabled {
		raw = server.NewWithLogger(p, cfg.Server.Address, logging.New(out, "SERVER"))
		if err := raw.StartAsync(); err != nil {
			return err
		}
		defer raw.Stop()
	}

	var httpAPI *api.Server
	if cfg.API.Enabled {
		httpAPI = api.New(p, cfg.API.Address,
			api.WithLogger(logging.New(out, "API")),
			api.WithJWTSecret(cfg.API.JWTSecret),
			api.WithConnector(manager),
			api.WithTimeouts(cfg.API.ReadTimeout, cfg.API.WriteTimeout),
		)
		if err := httpAPI.StartAsync(); err != nil {
			return err
		}
		if cfg.API.JWTSecret == "" {
			logger.Println("Warning: HTTP API is not authenticated")
		}
	}

	if raw == nil && httpAPI == nil {
		return errors.New("nothing to serve: enable server or api")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	logger.Printf("Received %v, shutting down", <-sig)

	if httpAPI != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpAPI.Stop(ctx); err != nil {
			logger.Printf("Error: %v", err)
		}
	}
	return nil
}

func listPorts(out io.Writer) error {
	ports, err := adapter.ListSerialPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, "No serial ports found")
		return nil
	}
	for _, port := range ports {
		if port.IsUSB {
			fmt.Fprintf(out, "%s\tUSB %s:%s\tserial=%s\t%s\n", port.Name, port.VID, port.PID, port.SerialNumber, port.Product)
			continue
		}
		fmt.Fprintln(out, port.Name)
	}
	return nil
}

// printDemo prints a short sample receipt.
func printDemo(p *printer.Printer) error {
	steps := []func() error{
		p.InitPrinter,
		func() error { return p.SetAlignment(printer.AlignCenter) },
		func() error { return p.PrintTextWithOption("THERMAL PRINTER BRIDGE\n", 32, true, false) },
		func() error { return p.SetAlignment(printer.AlignLeft) },
		func() error {
			return p.PrintTextTable([]string{"Order No", ": 0001"}, []int{1, 2}, []int{0, 0})
		},
		func() error {
			return p.PrintTextTable([]string{"Date", ": " + time.Now().Format("2006-01-02 15:04")}, []int{1, 2}, []int{0, 0})
		},
		func() error { return p.PrintLineWrap(1) },
		func() error { return p.SetAlignment(printer.AlignCenter) },
		func() error {
			return p.PrintBarcode("1234567890", printer.SymbologyCode128, 80, 2, printer.TextBelow)
		},
		func() error { return p.PrintLineWrap(1) },
		func() error { return p.PrintQRCode("https://google.com", 8, printer.ErrorLevelQ) },
		func() error { return p.PrintLineWrap(2) },
		p.FeedPaper,
		p.ShowPrinterStatus,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("demo receipt failed: %w", err)
		}
	}
	return nil
}
