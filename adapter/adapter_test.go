package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/thermal-printer-bridge/config"
)

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "connect", EventConnect.String())
	assert.Equal(t, "disconnect", EventDisconnect.String())
	assert.Equal(t, "detach", EventDetach.String())
	assert.Equal(t, "data", EventData.String())
	assert.Equal(t, "close", EventClose.String())
	assert.Equal(t, "unknown", EventType(99).String())
}

func TestEmitterDispatchesByType(t *testing.T) {
	var e emitter
	got := make(chan Event, 4)
	e.On(EventData, func(ev Event) { got <- ev })
	e.On(EventData, func(ev Event) { got <- ev })

	e.emit(Event{Type: EventClose})
	e.emit(Event{Type: EventData, Data: []byte{1}})

	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			assert.Equal(t, EventData, ev.Type)
			assert.Equal(t, []byte{1}, ev.Data)
		case <-time.After(time.Second):
			t.Fatal("handler not called")
		}
	}
	select {
	case ev := <-got:
		t.Fatalf("unexpected event %v", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewFromConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.Printer
		want any
	}{
		{"USBAuto", config.Printer{Transport: config.TransportUSB}, &USBAdapter{}},
		{"USBByID", config.Printer{Transport: config.TransportUSB, USB: config.USB{VendorID: 0x04b8, ProductID: 0x0202}}, &USBAdapter{}},
		{"Serial", config.Printer{Transport: config.TransportSerial, Serial: config.Serial{Port: "/dev/ttyUSB0", Baud: 19200}}, &SerialAdapter{}},
		{"Network", config.Printer{Transport: config.TransportNetwork, Network: config.Network{Address: "10.0.0.5:9100"}}, &NetworkAdapter{}},
		{"Device", config.Printer{Transport: config.TransportDevice, Device: config.Device{Path: "/dev/usb/lp0"}}, &DeviceAdapter{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			factory, err := NewFromConfig(tc.cfg)
			require.NoError(t, err)

			a, err := factory()
			require.NoError(t, err)
			assert.IsType(t, tc.want, a)
			assert.False(t, a.IsOpen())

			b, err := factory()
			require.NoError(t, err)
			assert.NotSame(t, a, b)
		})
	}
}

func TestNewFromConfigSettings(t *testing.T) {
	factory, err := NewFromConfig(config.Printer{
		Transport:   config.TransportUSB,
		USB:         config.USB{VendorID: 0x0519, ProductID: 0x0001},
		ReadTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	a, _ := factory()
	usb := a.(*USBAdapter)
	assert.Equal(t, uint16(0x0519), usb.vid)
	assert.Equal(t, uint16(0x0001), usb.pid)
	assert.Equal(t, 2*time.Second, usb.readTimeout)

	factory, err = NewFromConfig(config.Printer{
		Transport: config.TransportSerial,
		Serial:    config.Serial{Port: "/dev/ttyS0"},
	})
	require.NoError(t, err)
	a, _ = factory()
	serial := a.(*SerialAdapter)
	assert.Equal(t, DefaultBaudRate, serial.mode.BaudRate)
	assert.Equal(t, DefaultReadTimeout, serial.readTimeout)
}

func TestNewFromConfigErrors(t *testing.T) {
	testCases := []config.Printer{
		{Transport: "bluetooth"},
		{Transport: config.TransportSerial},
		{Transport: config.TransportNetwork},
		{Transport: config.TransportDevice},
	}
	for _, cfg := range testCases {
		_, err := NewFromConfig(cfg)
		assert.Error(t, err, cfg.Transport)
	}
}
