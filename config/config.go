// Package config loads the bridge configuration from defaults, an optional
// YAML file, environment variables and command line flags, in increasing
// order of precedence.
//
// Environment variables use the upper-cased key path with dots replaced by
// underscores, e.g. SERVER_ADDRESS or PRINTER_TRANSPORT.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transports
const (
	TransportUSB     = "usb"
	TransportSerial  = "serial"
	TransportNetwork = "network"
	TransportDevice  = "device"
)

// Config is the full bridge configuration.
type Config struct {
	Server  Server  `mapstructure:"server"`
	API     API     `mapstructure:"api"`
	Printer Printer `mapstructure:"printer"`
	Log     Log     `mapstructure:"log"`

	// Set from the command line only.
	ConfigFile string `mapstructure:"config"`
	ListPorts  bool   `mapstructure:"list-ports"`
	Demo       bool   `mapstructure:"demo"`
}

// Server is the raw TCP passthrough listener.
type Server struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// API is the JSON HTTP binding.
type API struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Printer selects the transport and describes the attached hardware.
type Printer struct {
	Transport   string        `mapstructure:"transport"`
	USB         USB           `mapstructure:"usb"`
	Serial      Serial        `mapstructure:"serial"`
	Network     Network       `mapstructure:"network"`
	Device      Device        `mapstructure:"device"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	PaperWidth int    `mapstructure:"paper_width"`
	CodePage   string `mapstructure:"code_page"`
	CashDrawer bool   `mapstructure:"cash_drawer"`
	AutoCutter bool   `mapstructure:"auto_cutter"`

	// Identity overrides; empty values are read from the transport.
	SerialNo string `mapstructure:"serial_no"`
	Model    string `mapstructure:"model"`
	Version  string `mapstructure:"version"`
}

// USB selects a USB printer; zero values auto-detect.
type USB struct {
	VendorID  int    `mapstructure:"vendor_id"`
	ProductID int    `mapstructure:"product_id"`
	Serial    string `mapstructure:"serial"`
}

// Serial is an RS-232 or USB-serial port.
type Serial struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// Network is a raw TCP printer.
type Network struct {
	Address string `mapstructure:"address"`
}

// Device is a printer character device.
type Device struct {
	Path string `mapstructure:"path"`
}

// Log configures the log output. An empty File logs to stdout.
type Log struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.address", "localhost:9100")

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.address", "localhost:8080")
	v.SetDefault("api.jwt_secret", "")
	v.SetDefault("api.read_timeout", 10*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)

	v.SetDefault("printer.transport", TransportUSB)
	v.SetDefault("printer.usb.vendor_id", 0)
	v.SetDefault("printer.usb.product_id", 0)
	v.SetDefault("printer.usb.serial", "")
	v.SetDefault("printer.serial.port", "")
	v.SetDefault("printer.serial.baud", 9600)
	v.SetDefault("printer.network.address", "")
	v.SetDefault("printer.device.path", "/dev/usb/lp0")
	v.SetDefault("printer.read_timeout", 500*time.Millisecond)
	v.SetDefault("printer.paper_width", 58)
	v.SetDefault("printer.code_page", "")
	v.SetDefault("printer.cash_drawer", false)
	v.SetDefault("printer.auto_cutter", false)
	v.SetDefault("printer.serial_no", "")
	v.SetDefault("printer.model", "")
	v.SetDefault("printer.version", "")

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// NewFlagSet returns the command line flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.Bool("list-ports", false, "list serial ports and exit")
	fs.Bool("demo", false, "print a demo receipt and exit")
	fs.String("server.address", "", "raw passthrough listen address")
	fs.String("api.address", "", "HTTP API listen address")
	fs.String("printer.transport", "", "printer transport: usb, serial, network or device")
	fs.String("printer.serial.port", "", "serial port path")
	fs.String("printer.network.address", "", "network printer host:port")
	fs.String("printer.device.path", "", "printer device node")
	fs.String("log.file", "", "log file path, stdout when empty")
	return fs
}

// Load parses args and returns the merged configuration.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("thermal-printer-bridge")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return LoadFlags(fs)
}

// LoadFlags merges an already parsed flag set with file, env and defaults.
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Only flags the user actually set override other sources.
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed && bindErr == nil {
			bindErr = v.BindPFlag(f.Name, f)
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// Unmarshal only sees keys viper knows about.
	cfg.ConfigFile = v.GetString("config")
	cfg.ListPorts = v.GetBool("list-ports")
	cfg.Demo = v.GetBool("demo")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the bridge cannot use.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Enabled && c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.API.Enabled && c.API.Address == "" {
		errs = append(errs, errors.New("api.address is required"))
	}

	p := c.Printer
	switch p.Transport {
	case TransportUSB:
		if p.USB.VendorID < 0 || p.USB.VendorID > 0xFFFF {
			errs = append(errs, fmt.Errorf("printer.usb.vendor_id %d out of range", p.USB.VendorID))
		}
		if p.USB.ProductID < 0 || p.USB.ProductID > 0xFFFF {
			errs = append(errs, fmt.Errorf("printer.usb.product_id %d out of range", p.USB.ProductID))
		}
	case TransportSerial:
		if p.Serial.Port == "" {
			errs = append(errs, errors.New("printer.serial.port is required for serial transport"))
		}
		if p.Serial.Baud <= 0 {
			errs = append(errs, fmt.Errorf("printer.serial.baud %d must be positive", p.Serial.Baud))
		}
	case TransportNetwork:
		if p.Network.Address == "" {
			errs = append(errs, errors.New("printer.network.address is required for network transport"))
		}
	case TransportDevice:
		if p.Device.Path == "" {
			errs = append(errs, errors.New("printer.device.path is required for device transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown printer.transport %q", p.Transport))
	}

	if p.PaperWidth != 58 && p.PaperWidth != 80 {
		errs = append(errs, fmt.Errorf("printer.paper_width must be 58 or 80, got %d", p.PaperWidth))
	}
	if p.ReadTimeout < 0 {
		errs = append(errs, errors.New("printer.read_timeout must not be negative"))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
