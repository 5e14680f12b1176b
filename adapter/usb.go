package adapter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/google/gousb"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassAudio   = 0x01
	IfaceClassHID     = 0x03
	IfaceClassPrinter = 0x07
	IfaceClassHub     = 0x09
)

// USBAdapter manages USB printer communication. The device is looked up on
// Open so a closed adapter can be opened again after a replug.
type USBAdapter struct {
	emitter

	vid, pid    uint16
	serial      string
	readTimeout time.Duration

	ctx         *gousb.Context
	device      *gousb.Device
	iface       *gousb.Interface
	done        func()
	outEndpoint *gousb.OutEndpoint
	inEndpoint  *gousb.InEndpoint
	isOpen      bool
	mu          sync.Mutex
}

// NewUSBAdapter creates an adapter for the device with vid/pid. When that
// device is absent Open falls back to the first printer-class device.
func NewUSBAdapter(vid, pid uint16) *USBAdapter {
	return &USBAdapter{vid: vid, pid: pid, readTimeout: DefaultReadTimeout}
}

// NewUSBAdapterAuto creates an adapter that opens the first printer-class
// device found.
func NewUSBAdapterAuto() *USBAdapter {
	return &USBAdapter{readTimeout: DefaultReadTimeout}
}

// NewUSBAdapterBySerial creates an adapter for the device with the given
// serial number string descriptor.
func NewUSBAdapterBySerial(serial string) *USBAdapter {
	return &USBAdapter{serial: serial, readTimeout: DefaultReadTimeout}
}

// SetReadTimeout bounds each Read call.
func (a *USBAdapter) SetReadTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readTimeout = d
}

// IsPrinter checks if a device is a printer
func IsPrinter(dev *gousb.Device) bool {
	if dev == nil {
		return false
	}
	_, err := printerInterface(dev)
	return err == nil
}

// printerInterface returns the number of the first printer-class interface
// in the active configuration.
func printerInterface(dev *gousb.Device) (int, error) {
	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		return -1, fmt.Errorf("failed to get active config: %w", err)
	}

	desc, ok := dev.Desc.Configs[cfgNum]
	if !ok {
		return -1, fmt.Errorf("config %d not described", cfgNum)
	}

	for _, iface := range desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return iface.Number, nil
			}
		}
	}
	return -1, errors.New("no printer interface found")
}

// FindPrinters returns all USB printer devices
func FindPrinters(ctx *gousb.Context) []*gousb.Device {
	var printers []*gousb.Device

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		for _, cfg := range desc.Configs {
			for _, iface := range cfg.Interfaces {
				for _, alt := range iface.AltSettings {
					if alt.Class == IfaceClassPrinter {
						return true
					}
				}
			}
		}
		return false
	})
	if err != nil && len(devices) == 0 {
		return printers
	}

	for _, dev := range devices {
		if IsPrinter(dev) {
			printers = append(printers, dev)
		} else {
			dev.Close()
		}
	}

	return printers
}

// GetDeviceByVIDPID opens a device by VID and PID
func GetDeviceByVIDPID(ctx *gousb.Context, vid, pid uint16) (*gousb.Device, error) {
	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, errors.New("device not found")
	}
	return device, nil
}

// GetDeviceBySerial opens a device by serial number
func GetDeviceBySerial(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devices := FindPrinters(ctx)

	var found *gousb.Device
	for _, dev := range devices {
		if found == nil {
			if s, err := dev.SerialNumber(); err == nil && s == serial {
				found = dev
				continue
			}
		}
		dev.Close()
	}

	if found == nil {
		return nil, errors.New("device with serial number not found")
	}
	return found, nil
}

func (a *USBAdapter) findDevice() (*gousb.Device, error) {
	if a.serial != "" {
		return GetDeviceBySerial(a.ctx, a.serial)
	}

	if a.vid != 0 || a.pid != 0 {
		dev, err := GetDeviceByVIDPID(a.ctx, a.vid, a.pid)
		if err == nil {
			return dev, nil
		}
		log.Printf("USB printer %04x:%04x not found, trying any printer", a.vid, a.pid)
	}

	devices := FindPrinters(a.ctx)
	if len(devices) == 0 {
		return nil, errors.New("cannot find printer")
	}
	for _, extra := range devices[1:] {
		extra.Close()
	}
	return devices[0], nil
}

// Open finds the USB device and claims its printer interface
func (a *USBAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	a.ctx = gousb.NewContext()
	device, err := a.findDevice()
	if err != nil {
		a.release()
		return err
	}
	a.device = device

	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		if err := a.device.SetAutoDetach(true); err != nil {
			log.Printf("Failed to enable kernel driver auto-detach: %v", err)
		}
	}

	ifaceNum, err := printerInterface(a.device)
	if err != nil {
		a.release()
		return err
	}

	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		a.release()
		return fmt.Errorf("failed to get active config: %w", err)
	}
	cfg, err := a.device.Config(cfgNum)
	if err != nil {
		a.release()
		return fmt.Errorf("failed to get config: %w", err)
	}

	iface, err := cfg.Interface(ifaceNum, 0)
	if err != nil {
		cfg.Close()
		a.release()
		return fmt.Errorf("failed to claim interface: %w", err)
	}
	a.iface = iface
	a.done = func() {
		iface.Close()
		cfg.Close()
	}

	for _, ep := range iface.Setting.Endpoints {
		switch {
		case ep.Direction == gousb.EndpointDirectionOut && a.outEndpoint == nil:
			if out, err := iface.OutEndpoint(ep.Number); err == nil {
				a.outEndpoint = out
			}
		case ep.Direction == gousb.EndpointDirectionIn && a.inEndpoint == nil:
			if in, err := iface.InEndpoint(ep.Number); err == nil {
				a.inEndpoint = in
			}
		}
	}

	if a.outEndpoint == nil {
		a.release()
		return errors.New("cannot find output endpoint from printer")
	}

	a.isOpen = true
	a.emit(Event{Type: EventConnect, Source: a.device.String()})

	return nil
}

// release frees whatever Open acquired. Callers hold a.mu.
func (a *USBAdapter) release() []error {
	var errs []error

	if a.done != nil {
		a.done()
		a.done = nil
	}
	a.iface = nil
	a.outEndpoint = nil
	a.inEndpoint = nil

	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
		a.device = nil
	}
	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
		a.ctx = nil
	}
	return errs
}

// Write sends data to the printer
func (a *USBAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.outEndpoint.Write(data)
	if err != nil {
		if errors.Is(err, gousb.ErrorNoDevice) {
			a.detach(err)
		}
		return n, fmt.Errorf("write failed: %w", err)
	}

	a.emit(Event{Type: EventData, Data: data})
	return n, nil
}

// Read reads data from the printer, waiting at most the read timeout.
func (a *USBAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}
	if a.inEndpoint == nil {
		return 0, ErrReadUnsupported
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.readTimeout)
	defer cancel()

	n, err := a.inEndpoint.ReadContext(ctx, buf)
	if err != nil {
		if errors.Is(err, gousb.ErrorNoDevice) {
			a.detach(err)
		}
		return n, fmt.Errorf("read failed: %w", err)
	}

	return n, nil
}

// detach marks the device gone after an unplug. Callers hold a.mu.
func (a *USBAdapter) detach(cause error) {
	source := ""
	if a.device != nil {
		source = a.device.String()
	}
	a.release()
	a.isOpen = false
	a.emit(Event{Type: EventDetach, Source: source, Error: cause})
}

// Close closes the USB device
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	source := a.device.String()
	errs := a.release()
	a.isOpen = false
	a.emit(Event{Type: EventClose, Source: source})

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// Describe reads identity from the device string descriptors.
func (a *USBAdapter) Describe() (Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return Identity{}, ErrNotOpen
	}

	var id Identity
	var err error
	if id.SerialNo, err = a.device.SerialNumber(); err != nil {
		return id, fmt.Errorf("failed to read serial number: %w", err)
	}
	if id.Model, err = a.device.Product(); err != nil {
		return id, fmt.Errorf("failed to read product: %w", err)
	}
	if id.Manufacturer, err = a.device.Manufacturer(); err != nil {
		return id, fmt.Errorf("failed to read manufacturer: %w", err)
	}
	id.Version = a.device.Desc.Device.String()
	return id, nil
}
