package adapter

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultDialTimeout bounds connecting to a network printer.
const DefaultDialTimeout = 5 * time.Second

// NetworkAdapter talks to a printer listening on a raw TCP port,
// usually 9100.
type NetworkAdapter struct {
	emitter

	address     string
	dialTimeout time.Duration
	readTimeout time.Duration

	conn   net.Conn
	isOpen bool
	mu     sync.Mutex
}

// NewNetworkAdapter creates an adapter for host:port.
func NewNetworkAdapter(address string) *NetworkAdapter {
	return &NetworkAdapter{
		address:     address,
		dialTimeout: DefaultDialTimeout,
		readTimeout: DefaultReadTimeout,
	}
}

// SetReadTimeout bounds each Read call.
func (a *NetworkAdapter) SetReadTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readTimeout = d
}

// Address returns the printer address
func (a *NetworkAdapter) Address() string {
	return a.address
}

// Open connects to the printer
func (a *NetworkAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	conn, err := net.DialTimeout("tcp", a.address, a.dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", a.address, err)
	}

	a.conn = conn
	a.isOpen = true
	a.emit(Event{Type: EventConnect, Source: a.address})
	return nil
}

// Write sends data to the printer. A broken connection closes the adapter
// and emits EventDisconnect.
func (a *NetworkAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.conn.Write(data)
	if err != nil {
		a.drop(err)
		return n, fmt.Errorf("write failed: %w", err)
	}
	a.emit(Event{Type: EventData, Data: data})
	return n, nil
}

// Read reads data from the printer, waiting at most the read timeout.
func (a *NetworkAdapter) Read(buf []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	if err := a.conn.SetReadDeadline(time.Now().Add(a.readTimeout)); err != nil {
		return 0, fmt.Errorf("failed to set read deadline: %w", err)
	}
	n, err := a.conn.Read(buf)
	if err != nil {
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			a.drop(err)
		}
		return n, fmt.Errorf("read failed: %w", err)
	}
	return n, nil
}

// drop closes a broken connection. Callers hold a.mu.
func (a *NetworkAdapter) drop(cause error) {
	a.conn.Close()
	a.conn = nil
	a.isOpen = false
	a.emit(Event{Type: EventDisconnect, Source: a.address, Error: cause})
}

// Close closes the connection
func (a *NetworkAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	err := a.conn.Close()
	a.conn = nil
	a.isOpen = false
	a.emit(Event{Type: EventClose, Source: a.address})

	if err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// IsOpen returns whether the connection is open
func (a *NetworkAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}
