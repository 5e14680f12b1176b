package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "localhost:9100", cfg.Server.Address)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "localhost:8080", cfg.API.Address)
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout)
	assert.Equal(t, TransportUSB, cfg.Printer.Transport)
	assert.Equal(t, 58, cfg.Printer.PaperWidth)
	assert.Equal(t, 9600, cfg.Printer.Serial.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.Printer.ReadTimeout)
	assert.False(t, cfg.Printer.CashDrawer)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.False(t, cfg.ListPorts)
	assert.False(t, cfg.Demo)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "0.0.0.0:9200")
	t.Setenv("PRINTER_TRANSPORT", "network")
	t.Setenv("PRINTER_NETWORK_ADDRESS", "192.168.1.50:9100")
	t.Setenv("PRINTER_PAPER_WIDTH", "80")
	t.Setenv("PRINTER_USB_VENDOR_ID", "0x04b8")
	t.Setenv("PRINTER_CASH_DRAWER", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9200", cfg.Server.Address)
	assert.Equal(t, TransportNetwork, cfg.Printer.Transport)
	assert.Equal(t, "192.168.1.50:9100", cfg.Printer.Network.Address)
	assert.Equal(t, 80, cfg.Printer.PaperWidth)
	assert.Equal(t, 0x04b8, cfg.Printer.USB.VendorID)
	assert.True(t, cfg.Printer.CashDrawer)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "0.0.0.0:9200")

	cfg, err := Load([]string{
		"--server.address", "127.0.0.1:9300",
		"--printer.transport", "serial",
		"--printer.serial.port", "/dev/ttyUSB0",
		"--demo",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9300", cfg.Server.Address)
	assert.Equal(t, TransportSerial, cfg.Printer.Transport)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Printer.Serial.Port)
	assert.True(t, cfg.Demo)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	content := `
server:
  enabled: false
api:
  address: ":8181"
  jwt_secret: "s3cret"
printer:
  transport: device
  device:
    path: /dev/usb/lp1
  paper_width: 80
  code_page: cp437
  auto_cutter: true
  model: "TM-T20II"
log:
  file: /var/log/bridge.log
  compress: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, ":8181", cfg.API.Address)
	assert.Equal(t, "s3cret", cfg.API.JWTSecret)
	assert.Equal(t, TransportDevice, cfg.Printer.Transport)
	assert.Equal(t, "/dev/usb/lp1", cfg.Printer.Device.Path)
	assert.Equal(t, 80, cfg.Printer.PaperWidth)
	assert.Equal(t, "cp437", cfg.Printer.CodePage)
	assert.True(t, cfg.Printer.AutoCutter)
	assert.Equal(t, "TM-T20II", cfg.Printer.Model)
	assert.Equal(t, "/var/log/bridge.log", cfg.Log.File)
	assert.True(t, cfg.Log.Compress)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(nil)
		require.NoError(t, err)
		return cfg
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"UnknownTransport", func(c *Config) { c.Printer.Transport = "bluetooth" }, "unknown printer.transport"},
		{"SerialWithoutPort", func(c *Config) { c.Printer.Transport = TransportSerial }, "printer.serial.port"},
		{"SerialBadBaud", func(c *Config) {
			c.Printer.Transport = TransportSerial
			c.Printer.Serial.Port = "/dev/ttyS0"
			c.Printer.Serial.Baud = 0
		}, "printer.serial.baud"},
		{"NetworkWithoutAddress", func(c *Config) { c.Printer.Transport = TransportNetwork }, "printer.network.address"},
		{"DeviceWithoutPath", func(c *Config) {
			c.Printer.Transport = TransportDevice
			c.Printer.Device.Path = ""
		}, "printer.device.path"},
		{"VendorOutOfRange", func(c *Config) { c.Printer.USB.VendorID = 0x10000 }, "vendor_id"},
		{"ProductOutOfRange", func(c *Config) { c.Printer.USB.ProductID = -1 }, "product_id"},
		{"PaperWidth", func(c *Config) { c.Printer.PaperWidth = 76 }, "paper_width"},
		{"ServerAddress", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"APIAddress", func(c *Config) { c.API.Address = "" }, "api.address"},
		{"NegativeReadTimeout", func(c *Config) { c.Printer.ReadTimeout = -time.Second }, "read_timeout"},
		{"NegativeLogRotation", func(c *Config) { c.Log.MaxBackups = -1 }, "log rotation"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("DisabledListenersNeedNoAddress", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Enabled = false
		cfg.Server.Address = ""
		cfg.API.Enabled = false
		cfg.API.Address = ""
		assert.NoError(t, cfg.Validate())
	})
}
