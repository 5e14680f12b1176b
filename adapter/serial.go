package adapter

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate is the factory setting of most receipt printers.
const DefaultBaudRate = 9600

// SerialAdapter talks to a printer on an RS-232 or USB-serial port.
type SerialAdapter struct {
	emitter

	path        string
	mode        *serial.Mode
	readTimeout time.Duration

	port   serial.Port
	isOpen bool
	mu     sync.Mutex
}

// NewSerialAdapter creates an adapter for the port at path.
func NewSerialAdapter(path string, baud int) *SerialAdapter {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &SerialAdapter{
		path: path,
		mode: &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		readTimeout: DefaultReadTimeout,
	}
}

// SetReadTimeout bounds each Read call. It applies from the next Open.
func (a *SerialAdapter) SetReadTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readTimeout = d
}

// SerialPort describes a port found on the system.
type SerialPort struct {
	Name         string
	IsUSB        bool
	VID, PID     string
	SerialNumber string
	Product      string
}

// ListSerialPorts enumerates serial ports with USB details when available.
func ListSerialPorts() ([]SerialPort, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	ports := make([]SerialPort, 0, len(details))
	for _, d := range details {
		ports = append(ports, SerialPort{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}

// Open opens the serial port
func (a *SerialAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	port, err := serial.Open(a.path, a.mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", a.path, err)
	}
	if err := port.SetReadTimeout(a.readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	a.port = port
	a.isOpen = true
	a.emit(Event{Type: EventConnect, Source: a.path})
	return nil
}

// Write sends data to the printer
func (a *SerialAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	a.emit(Event{Type: EventData, Data: data})
	return n, nil
}

// Read reads data from the printer. A read that times out returns 0, nil.
func (a *SerialAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read failed: %w", err)
	}
	return n, nil
}

// Close closes the serial port
func (a *SerialAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	err := a.port.Close()
	a.port = nil
	a.isOpen = false
	a.emit(Event{Type: EventClose, Source: a.path})

	if err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// IsOpen returns whether the port is open
func (a *SerialAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}
