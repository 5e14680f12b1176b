package adapter

import (
	"errors"
	"sync"
	"time"
)

// DefaultReadTimeout bounds a single status read from the printer.
const DefaultReadTimeout = 500 * time.Millisecond

var (
	ErrNotOpen         = errors.New("device not open")
	ErrAlreadyOpen     = errors.New("device already open")
	ErrReadUnsupported = errors.New("read not supported by transport")
)

// Adapter defines the interface for printer communication adapters
type Adapter interface {
	// Open opens the connection to the printer
	Open() error

	// Write sends data to the printer
	Write(data []byte) (int, error)

	// Read reads data from the printer
	Read(buf []byte) (int, error)

	// Close closes the connection to the printer
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool

	// On adds an event listener
	On(eventType EventType, handler func(Event))
}

// Identity is what a transport can tell about the attached printer.
type Identity struct {
	SerialNo     string
	Model        string
	Manufacturer string
	Version      string
}

// Describer is implemented by adapters that can read printer identity from
// the transport, such as USB string descriptors.
type Describer interface {
	Describe() (Identity, error)
}

// Factory builds a fresh, unopened adapter for each binding.
type Factory func() (Adapter, error)

// EventType represents device events
type EventType int

const (
	EventConnect EventType = iota
	EventDisconnect
	EventDetach
	EventData
	EventClose
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventDetach:
		return "detach"
	case EventData:
		return "data"
	case EventClose:
		return "close"
	}
	return "unknown"
}

// Event represents a device event
type Event struct {
	Type   EventType
	Source string
	Data   []byte
	Error  error
}

// emitter dispatches events to listeners, each on its own goroutine.
type emitter struct {
	listenersMutex sync.RWMutex
	eventListeners map[EventType][]func(Event)
}

// On adds an event listener
func (e *emitter) On(eventType EventType, handler func(Event)) {
	e.listenersMutex.Lock()
	defer e.listenersMutex.Unlock()

	if e.eventListeners == nil {
		e.eventListeners = make(map[EventType][]func(Event))
	}
	e.eventListeners[eventType] = append(e.eventListeners[eventType], handler)
}

// emit triggers an event
func (e *emitter) emit(event Event) {
	e.listenersMutex.RLock()
	defer e.listenersMutex.RUnlock()

	for _, handler := range e.eventListeners[event.Type] {
		go handler(event)
	}
}
