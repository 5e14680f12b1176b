package adapter

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DeviceAdapter writes to a printer character device such as /dev/usb/lp0.
// The device node is watched so an unplug closes the adapter and emits
// EventDetach.
type DeviceAdapter struct {
	emitter

	path   string
	logger *log.Logger

	file    *os.File
	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
	isOpen  bool
	mu      sync.Mutex
}

// NewDeviceAdapter creates an adapter for the device node at path.
func NewDeviceAdapter(path string) *DeviceAdapter {
	logger := log.New(os.Stdout, "[DEVICE] ", log.LstdFlags|log.Lmsgprefix)
	return NewDeviceAdapterWithLogger(path, logger)
}

// NewDeviceAdapterWithLogger creates a device adapter with a custom logger
func NewDeviceAdapterWithLogger(path string, logger *log.Logger) *DeviceAdapter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DeviceAdapter{path: path, logger: logger}
}

// Open opens the device node and starts watching it
func (a *DeviceAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return ErrAlreadyOpen
	}

	file, err := os.OpenFile(a.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open device %s: %w", a.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(a.path)); err != nil {
		watcher.Close()
		file.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(a.path), err)
	}

	a.file = file
	a.watcher = watcher
	a.stop = make(chan struct{})
	a.isOpen = true

	a.wg.Add(1)
	go a.watch(watcher, a.stop)

	a.emit(Event{Type: EventConnect, Source: a.path})
	return nil
}

func (a *DeviceAdapter) watch(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(a.path) {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				a.detach()
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.Printf("Device watcher error on %s: %v", a.path, err)
		}
	}
}

// detach closes the adapter after the device node disappeared.
func (a *DeviceAdapter) detach() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return
	}
	a.release()
	a.emit(Event{Type: EventDetach, Source: a.path})
}

// release closes the file and watcher. Callers hold a.mu.
func (a *DeviceAdapter) release() error {
	close(a.stop)
	a.watcher.Close()
	err := a.file.Close()
	a.file = nil
	a.watcher = nil
	a.isOpen = false
	return err
}

// Write sends data to the printer
func (a *DeviceAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrNotOpen
	}

	n, err := a.file.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	a.emit(Event{Type: EventData, Data: data})
	return n, nil
}

// Read is not supported: printer class device nodes are opened write-only.
func (a *DeviceAdapter) Read(buf []byte) (int, error) {
	if !a.IsOpen() {
		return 0, ErrNotOpen
	}
	return 0, ErrReadUnsupported
}

// Close closes the device node and waits for the watcher to stop
func (a *DeviceAdapter) Close() error {
	a.mu.Lock()
	if !a.isOpen {
		a.mu.Unlock()
		a.wg.Wait()
		return nil
	}

	err := a.release()
	a.emit(Event{Type: EventClose, Source: a.path})
	a.mu.Unlock()

	a.wg.Wait()

	if err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

// IsOpen returns whether the device is open
func (a *DeviceAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}
