package adapter

import (
	"fmt"
	"log"

	"github.com/nixxel-company-limited/thermal-printer-bridge/config"
)

// NewFromConfig returns a factory building the adapter selected by cfg.
func NewFromConfig(cfg config.Printer) (Factory, error) {
	return NewFromConfigWithLogger(cfg, nil)
}

// NewFromConfigWithLogger is NewFromConfig with a logger for adapters that
// log; nil uses each adapter's default.
func NewFromConfigWithLogger(cfg config.Printer, logger *log.Logger) (Factory, error) {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	switch cfg.Transport {
	case config.TransportUSB:
		usb := cfg.USB
		return func() (Adapter, error) {
			var a *USBAdapter
			switch {
			case usb.Serial != "":
				a = NewUSBAdapterBySerial(usb.Serial)
			case usb.VendorID != 0 || usb.ProductID != 0:
				a = NewUSBAdapter(uint16(usb.VendorID), uint16(usb.ProductID))
			default:
				a = NewUSBAdapterAuto()
			}
			a.SetReadTimeout(timeout)
			return a, nil
		}, nil

	case config.TransportSerial:
		if cfg.Serial.Port == "" {
			return nil, fmt.Errorf("serial transport requires a port")
		}
		port, baud := cfg.Serial.Port, cfg.Serial.Baud
		return func() (Adapter, error) {
			a := NewSerialAdapter(port, baud)
			a.SetReadTimeout(timeout)
			return a, nil
		}, nil

	case config.TransportNetwork:
		if cfg.Network.Address == "" {
			return nil, fmt.Errorf("network transport requires an address")
		}
		address := cfg.Network.Address
		return func() (Adapter, error) {
			a := NewNetworkAdapter(address)
			a.SetReadTimeout(timeout)
			return a, nil
		}, nil

	case config.TransportDevice:
		if cfg.Device.Path == "" {
			return nil, fmt.Errorf("device transport requires a path")
		}
		path := cfg.Device.Path
		return func() (Adapter, error) {
			if logger == nil {
				return NewDeviceAdapter(path), nil
			}
			return NewDeviceAdapterWithLogger(path, logger), nil
		}, nil
	}

	return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
}
