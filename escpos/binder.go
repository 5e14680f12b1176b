package escpos

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/nixxel-company-limited/thermal-printer-bridge/adapter"
	"github.com/nixxel-company-limited/thermal-printer-bridge/connection"
)

// ErrAlreadyBound is returned when a callback binds twice.
var ErrAlreadyBound = errors.New("callback already bound")

// Binder opens a fresh adapter for every binding and reports the service
// lost when the transport closes, detaches or drops.
type Binder struct {
	factory adapter.Factory
	opts    Options
	logger  *log.Logger

	mu       sync.Mutex
	bindings map[connection.Callback]*binding
}

type binding struct {
	adapter  adapter.Adapter
	service  *Service
	released atomic.Bool
}

var _ connection.Binder = (*Binder)(nil)

// NewBinder creates a binder for adapters built by factory.
func NewBinder(factory adapter.Factory, opts Options) *Binder {
	logger := log.New(os.Stdout, "[BINDER] ", log.LstdFlags|log.Lmsgprefix)
	return NewBinderWithLogger(factory, opts, logger)
}

// NewBinderWithLogger creates a binder with a custom logger
func NewBinderWithLogger(factory adapter.Factory, opts Options, logger *log.Logger) *Binder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Binder{
		factory:  factory,
		opts:     opts,
		logger:   logger,
		bindings: make(map[connection.Callback]*binding),
	}
}

// Bind opens the printer and hands cb a service on success.
func (b *Binder) Bind(cb connection.Callback) error {
	if b.factory == nil {
		return errors.New("no adapter factory configured")
	}

	// The slot is reserved while the transport opens; a concurrent Bind
	// for cb gets ErrAlreadyBound.
	bd := &binding{}
	b.mu.Lock()
	if _, ok := b.bindings[cb]; ok {
		b.mu.Unlock()
		return ErrAlreadyBound
	}
	b.bindings[cb] = bd
	b.mu.Unlock()

	a, svc, err := b.open()
	if err != nil {
		b.release(cb, bd)
		return err
	}

	b.mu.Lock()
	if b.bindings[cb] != bd || bd.released.Load() {
		b.mu.Unlock()
		a.Close()
		return errors.New("binding released while opening")
	}
	bd.adapter, bd.service = a, svc
	b.mu.Unlock()

	lost := func(event adapter.Event) { b.lost(cb, bd, event) }
	a.On(adapter.EventClose, lost)
	a.On(adapter.EventDetach, lost)
	a.On(adapter.EventDisconnect, lost)

	id := svc.Identity()
	b.logger.Printf("Printer bound: %s %s", id.Manufacturer, id.Model)
	cb.OnConnected(svc)
	return nil
}

func (b *Binder) open() (adapter.Adapter, *Service, error) {
	a, err := b.factory()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create adapter: %w", err)
	}
	if err := a.Open(); err != nil {
		return nil, nil, fmt.Errorf("failed to open printer: %w", err)
	}
	svc, err := NewServiceWithLogger(a, b.opts, b.logger)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, svc, nil
}

func (b *Binder) release(cb connection.Callback, bd *binding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bindings[cb] == bd {
		delete(b.bindings, cb)
	}
}

// Unbind closes the adapter for cb without notifying it. A binding still
// opening is released and its transport closed by Bind.
func (b *Binder) Unbind(cb connection.Callback) error {
	b.mu.Lock()
	bd, ok := b.bindings[cb]
	delete(b.bindings, cb)
	var a adapter.Adapter
	if ok {
		bd.released.Store(true)
		a = bd.adapter
	}
	b.mu.Unlock()

	if a == nil {
		return nil
	}
	if err := a.Close(); err != nil && !errors.Is(err, adapter.ErrNotOpen) {
		return err
	}
	return nil
}

func (b *Binder) lost(cb connection.Callback, bd *binding, event adapter.Event) {
	if bd.released.Swap(true) {
		return
	}

	b.release(cb, bd)

	if event.Error != nil {
		b.logger.Printf("Printer lost (%s): %v", event.Type, event.Error)
	} else {
		b.logger.Printf("Printer lost (%s)", event.Type)
	}
	if err := bd.adapter.Close(); err != nil && !errors.Is(err, adapter.ErrNotOpen) {
		b.logger.Printf("Error closing adapter: %v", err)
	}
	cb.OnDisconnected()
}

// Bound reports how many callbacks hold a binding.
func (b *Binder) Bound() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bindings)
}
