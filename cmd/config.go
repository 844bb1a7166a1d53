package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the radio's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the radio
	BaudRate int
	// WSURL selects a serial-over-WebSocket bridge instead of a serial port
	WSURL       string
	WSUsername  string
	WSPassword  string
	NoSSLVerify bool
	// Emulate selects the in-process radio emulator
	Emulate bool

	WifiSSID     string
	WifiPassword string
	// PeerHost, PeerPort and PeerPath locate the JSON endpoint
	PeerHost     string
	PeerPort     int
	PeerPath     string
	JoinAttempts int
	// Interval is the pause between join attempts and between fetches in
	// watch mode
	Interval time.Duration

	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	LogFile  string
	// CaptureFile receives a CBOR record of every command exchange
	CaptureFile string
	Trace       bool
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.PeerPort = 80
		c.PeerPath = "/"
		c.JoinAttempts = 1
		c.Interval = 5 * time.Second
		c.BindAddress = "0.0.0.0:8080"
		c.LogLevel = "info"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			b, err := strconv.Atoi(baud)
			if err != nil {
				return fmt.Errorf("BAUD_RATE: %w", err)
			}
			c.BaudRate = b
		}

		if url := os.Getenv("WS_URL"); url != "" {
			c.WSURL = url
		}

		if pw := os.Getenv("WS_PASSWORD"); pw != "" {
			c.WSPassword = pw
		}

		if ssid := os.Getenv("WIFI_SSID"); ssid != "" {
			c.WifiSSID = ssid
		}

		if pw := os.Getenv("WIFI_PASSWORD"); pw != "" {
			c.WifiPassword = pw
		}

		if host := os.Getenv("PEER_HOST"); host != "" {
			c.PeerHost = host
		}

		if port := os.Getenv("PEER_PORT"); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("PEER_PORT: %w", err)
			}
			c.PeerPort = p
		}

		if path := os.Getenv("PEER_PATH"); path != "" {
			c.PeerPath = path
		}

		if interval := os.Getenv("RETRY_INTERVAL"); interval != "" {
			d, err := time.ParseDuration(interval)
			if err != nil {
				return fmt.Errorf("RETRY_INTERVAL: %w", err)
			}
			c.Interval = d
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if capture := os.Getenv("CAPTURE_FILE"); capture != "" {
			c.CaptureFile = capture
		}

		return nil
	}
}

// WithFlags loads configuration from the command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			if err != nil {
				return
			}
			value := f.Value.String()
			switch f.Name {
			case "port":
				c.SerialPort = value
			case "baud":
				c.BaudRate, err = strconv.Atoi(value)
			case "url":
				c.WSURL = value
			case "username":
				c.WSUsername = value
			case "no-ssl-verify":
				c.NoSSLVerify, err = strconv.ParseBool(value)
			case "emulate":
				c.Emulate, err = strconv.ParseBool(value)
			case "ssid":
				c.WifiSSID = value
			case "peer-host":
				c.PeerHost = value
			case "peer-port":
				c.PeerPort, err = strconv.Atoi(value)
			case "path":
				c.PeerPath = value
			case "join-attempts":
				c.JoinAttempts, err = strconv.Atoi(value)
			case "interval":
				c.Interval, err = time.ParseDuration(value)
			case "bind-address":
				c.BindAddress = value
			case "log-level":
				c.LogLevel = value
			case "log-file":
				c.LogFile = value
			case "capture":
				c.CaptureFile = value
			case "trace":
				c.Trace, err = strconv.ParseBool(value)
			}
			if err != nil {
				err = fmt.Errorf("--%s: %w", f.Name, err)
			}
		})
		return err
	}
}

// emulatedPeer is the peer host used with --emulate when none is given.
const emulatedPeer = "192.168.4.1"

// validate checks what a radio session needs. needPeer is set for commands
// that fetch readings.
func (c *Config) validate(needPeer bool) error {
	if c.WifiSSID == "" {
		return fmt.Errorf("a Wi-Fi network is required (--ssid or WIFI_SSID)")
	}
	if !needPeer {
		return nil
	}
	if c.PeerHost == "" {
		if !c.Emulate {
			return fmt.Errorf("a peer host is required (--peer-host or PEER_HOST)")
		}
		c.PeerHost = emulatedPeer
	}
	if c.PeerPort <= 0 || c.PeerPort > 65535 {
		return fmt.Errorf("peer port %d out of range", c.PeerPort)
	}
	return nil
}
