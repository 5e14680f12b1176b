// Package connection owns the handle to the printer service and keeps it in
// step with the connect/disconnect notifications delivered by a Binder.
package connection

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
)

// Callback receives binding notifications. Both methods may be called from
// any goroutine.
type Callback interface {
	OnConnected(svc service.PrinterService)
	OnDisconnected()
}

// Binder is the host mechanism that acquires and releases a service handle.
// Bind reports success through cb.OnConnected, possibly asynchronously.
type Binder interface {
	Bind(cb Callback) error
	Unbind(cb Callback) error
}

// Notifier receives operator-visible messages such as bind failures.
type Notifier interface {
	Notify(message string)
}

// ErrNoBinder is returned when the manager was built without a Binder.
var ErrNoBinder = errors.New("no binder configured")

// Manager holds at most one live service handle.
type Manager struct {
	binder   Binder
	logger   *log.Logger
	notifier Notifier

	mu     sync.RWMutex
	handle service.PrinterService

	// bindMu serializes Connect and Disconnect.
	bindMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []func(connected bool)
}

// NewManager creates a manager with no handle.
func NewManager(binder Binder) *Manager {
	logger := log.New(os.Stdout, "[CONNECTION] ", log.LstdFlags|log.Lmsgprefix)
	return NewManagerWithLogger(binder, logger)
}

// NewManagerWithLogger creates a manager with a custom logger
func NewManagerWithLogger(binder Binder, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{
		binder: binder,
		logger: logger,
	}
}

// SetNotifier sets where bind failures are shown to an operator.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// OnStateChange registers a listener for connected/disconnected transitions.
func (m *Manager) OnStateChange(fn func(connected bool)) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) notify(connected bool) {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, fn := range m.listeners {
		fn(connected)
	}
}

// Connect requests a binding. It is a no-op while connected. A bind failure
// is shown to the operator and logged; the handle stays absent.
func (m *Manager) Connect() {
	m.bindMu.Lock()
	defer m.bindMu.Unlock()

	if m.IsConnected() {
		m.logger.Println("Connect called but service is already connected")
		return
	}
	if m.binder == nil {
		m.logger.Printf("Error: %v", ErrNoBinder)
		m.notifyOperator(ErrNoBinder.Error())
		return
	}

	m.logger.Println("Binding printer service...")
	if err := m.binder.Bind(m); err != nil {
		m.logger.Printf("Error: Failed to bind printer service: %v", err)
		m.notifyOperator(fmt.Sprintf("Failed to bind printer service: %v", err))
	}
}

// Disconnect unbinds when connected and clears the handle.
func (m *Manager) Disconnect() error {
	m.bindMu.Lock()
	defer m.bindMu.Unlock()

	m.mu.Lock()
	if m.handle == nil {
		m.mu.Unlock()
		m.logger.Println("Disconnect called but service is not connected")
		return nil
	}
	m.handle = nil
	m.mu.Unlock()

	m.logger.Println("Unbinding printer service...")
	var err error
	if m.binder != nil {
		if err = m.binder.Unbind(m); err != nil {
			m.logger.Printf("Error: Failed to unbind printer service: %v", err)
			m.notifyOperator(err.Error())
			err = fmt.Errorf("failed to unbind printer service: %w", err)
		}
	}
	m.notify(false)
	return err
}

// OnConnected stores the handle.
func (m *Manager) OnConnected(svc service.PrinterService) {
	if svc == nil {
		return
	}
	m.mu.Lock()
	m.handle = svc
	m.mu.Unlock()

	m.logger.Println("Printer service connected")
	m.notify(true)
}

// OnDisconnected clears the handle. Calls already forwarded are left alone.
func (m *Manager) OnDisconnected() {
	m.mu.Lock()
	had := m.handle != nil
	m.handle = nil
	m.mu.Unlock()

	if had {
		m.logger.Println("Printer service disconnected")
		m.notify(false)
	}
}

// Service returns the current handle and whether it is present.
func (m *Manager) Service() (service.PrinterService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle, m.handle != nil
}

// IsConnected reports whether a handle is present.
func (m *Manager) IsConnected() bool {
	_, ok := m.Service()
	return ok
}

func (m *Manager) notifyOperator(message string) {
	m.mu.RLock()
	n := m.notifier
	m.mu.RUnlock()
	if n != nil {
		n.Notify(message)
	}
}
