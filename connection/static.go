package connection

import (
	"errors"
	"sync"

	"github.com/nixxel-company-limited/thermal-printer-bridge/service"
)

// StaticBinder hands out an in-process service. It is useful when the
// service lives in the same process or in tests.
type StaticBinder struct {
	Service service.PrinterService
	// BindErr, when set, makes Bind fail without notifying.
	BindErr error

	mu        sync.Mutex
	callbacks []Callback
	binds     int
	unbinds   int
}

// Bind notifies cb synchronously.
func (b *StaticBinder) Bind(cb Callback) error {
	b.mu.Lock()
	if b.BindErr != nil {
		b.mu.Unlock()
		return b.BindErr
	}
	if b.Service == nil {
		b.mu.Unlock()
		return errors.New("no service to bind")
	}
	b.binds++
	b.callbacks = append(b.callbacks, cb)
	svc := b.Service
	b.mu.Unlock()

	cb.OnConnected(svc)
	return nil
}

// Unbind forgets cb without notifying it.
func (b *StaticBinder) Unbind(cb Callback) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unbinds++
	for i, c := range b.callbacks {
		if c == cb {
			b.callbacks = append(b.callbacks[:i], b.callbacks[i+1:]...)
			break
		}
	}
	return nil
}

// Drop simulates the service going away: every bound callback is told it
// is disconnected and forgotten.
func (b *StaticBinder) Drop() {
	b.mu.Lock()
	cbs := b.callbacks
	b.callbacks = nil
	b.mu.Unlock()

	for _, cb := range cbs {
		cb.OnDisconnected()
	}
}

// Counts returns how many times Bind succeeded and Unbind was called.
func (b *StaticBinder) Counts() (binds, unbinds int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds, b.unbinds
}
