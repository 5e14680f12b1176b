// Package adaptertest provides an in-memory printer adapter for tests.
package adaptertest

import (
	"sync"

	"github.com/nixxel-company-limited/thermal-printer-bridge/adapter"
)

// Mock is an in-memory adapter.Adapter. Writes are recorded; reads are
// answered from queued responses.
type Mock struct {
	mu        sync.Mutex
	open      bool
	writes    [][]byte
	responses [][]byte
	listeners map[adapter.EventType][]func(adapter.Event)

	// OpenErr, WriteErr and ReadErr are returned by the matching method
	// when set.
	OpenErr  error
	WriteErr error
	ReadErr  error

	// Identity, when non-nil, is returned by Describe.
	Identity *adapter.Identity
}

var _ adapter.Adapter = (*Mock)(nil)

// New returns a closed mock.
func New() *Mock {
	return &Mock{}
}

// Open marks the mock open.
func (m *Mock) Open() error {
	m.mu.Lock()
	if m.OpenErr != nil {
		m.mu.Unlock()
		return m.OpenErr
	}
	if m.open {
		m.mu.Unlock()
		return adapter.ErrAlreadyOpen
	}
	m.open = true
	m.mu.Unlock()

	m.Emit(adapter.Event{Type: adapter.EventConnect, Source: "mock"})
	return nil
}

// Write records a copy of data.
func (m *Mock) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return 0, adapter.ErrNotOpen
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	return len(data), nil
}

// Read returns the next queued response.
func (m *Mock) Read(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return 0, adapter.ErrNotOpen
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if len(m.responses) == 0 {
		return 0, nil
	}
	n := copy(buf, m.responses[0])
	m.responses = m.responses[1:]
	return n, nil
}

// Close marks the mock closed and emits EventClose.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return nil
	}
	m.open = false
	m.mu.Unlock()

	m.Emit(adapter.Event{Type: adapter.EventClose, Source: "mock"})
	return nil
}

// IsOpen reports whether Open succeeded and Close has not been called.
func (m *Mock) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// On registers a listener. Unlike real adapters, Emit calls listeners
// synchronously.
func (m *Mock) On(eventType adapter.EventType, handler func(adapter.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listeners == nil {
		m.listeners = make(map[adapter.EventType][]func(adapter.Event))
	}
	m.listeners[eventType] = append(m.listeners[eventType], handler)
}

// Emit delivers event to its listeners.
func (m *Mock) Emit(event adapter.Event) {
	m.mu.Lock()
	handlers := append([]func(adapter.Event)(nil), m.listeners[event.Type]...)
	m.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Detach simulates an unplug: the mock closes and emits EventDetach.
func (m *Mock) Detach() {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
	m.Emit(adapter.Event{Type: adapter.EventDetach, Source: "mock"})
}

// Respond queues answers for subsequent reads.
func (m *Mock) Respond(responses ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Writes returns every recorded write.
func (m *Mock) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// Written returns all recorded writes concatenated.
func (m *Mock) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.writes {
		out = append(out, w...)
	}
	return out
}

// Reset forgets recorded writes and queued responses.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
	m.responses = nil
}

// Describer wraps a Mock so it also implements adapter.Describer.
type Describer struct {
	*Mock
	Err error
}

// Describe returns the mock identity.
func (d Describer) Describe() (adapter.Identity, error) {
	if d.Err != nil {
		return adapter.Identity{}, d.Err
	}
	if d.Identity == nil {
		return adapter.Identity{}, nil
	}
	return *d.Identity, nil
}
