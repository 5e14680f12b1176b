package adapter

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/thermal-printer-bridge/config"
)

func tempDevice(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestDeviceAdapterWrite(t *testing.T) {
	path := tempDevice(t)
	a := NewDeviceAdapter(path)

	require.NoError(t, a.Open())
	assert.True(t, a.IsOpen())
	assert.ErrorIs(t, a.Open(), ErrAlreadyOpen)

	n, err := a.Write([]byte{0x1B, 0x40, 'h', 'i'})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = a.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrReadUnsupported)

	require.NoError(t, a.Close())
	assert.False(t, a.IsOpen())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1B, 0x40, 'h', 'i'}, data)

	_, err = a.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestDeviceAdapterMissingNode(t *testing.T) {
	a := NewDeviceAdapter(filepath.Join(t.TempDir(), "missing"))
	err := a.Open()
	require.Error(t, err)
	assert.False(t, a.IsOpen())
}

func TestDeviceAdapterDetachOnRemove(t *testing.T) {
	path := tempDevice(t)
	a := NewDeviceAdapter(path)

	detached := make(chan Event, 1)
	a.On(EventDetach, func(e Event) { detached <- e })

	require.NoError(t, a.Open())
	defer a.Close()

	require.NoError(t, os.Remove(path))

	select {
	case e := <-detached:
		assert.Equal(t, path, e.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("no detach event")
	}
	assert.False(t, a.IsOpen())

	_, err := a.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestDeviceAdapterIgnoresSiblings(t *testing.T) {
	path := tempDevice(t)
	a := NewDeviceAdapter(path)
	require.NoError(t, a.Open())
	defer a.Close()

	sibling := filepath.Join(filepath.Dir(path), "lp1")
	require.NoError(t, os.WriteFile(sibling, nil, 0o600))
	require.NoError(t, os.Remove(sibling))

	time.Sleep(100 * time.Millisecond)
	assert.True(t, a.IsOpen())
}

func TestDeviceAdapterLogger(t *testing.T) {
	path := tempDevice(t)

	a := NewDeviceAdapterWithLogger(path, nil)
	require.NotNil(t, a.logger)

	var buf bytes.Buffer
	logger := log.New(&buf, "[DEVICE] ", 0)
	factory, err := NewFromConfigWithLogger(config.Printer{
		Transport: config.TransportDevice,
		Device:    config.Device{Path: path},
	}, logger)
	require.NoError(t, err)

	built, err := factory()
	require.NoError(t, err)
	device, ok := built.(*DeviceAdapter)
	require.True(t, ok)
	assert.Same(t, logger, device.logger)
}
