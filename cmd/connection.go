package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"i4.energy/across/espfetch/emulator"
	"i4.energy/across/espfetch/esp"
)

// newLogger returns a JSON logger writing to w at the named level.
func newLogger(level string, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// openLogger returns the configured logger. Logs go to the log file when one
// is set, otherwise to fallback.
func openLogger(c *Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	if c.LogFile == "" {
		return newLogger(c.LogLevel, fallback), func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(c.LogLevel, f), f.Close, nil
}

// readSecret prompts on stderr and reads a line from the terminal without
// echo.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(secret), nil
}

// resolveSecrets prompts for passwords that are needed but not configured.
func (c *Config) resolveSecrets() error {
	if c.WifiPassword == "" && !c.Emulate {
		pw, err := readSecret(fmt.Sprintf("Password for %s: ", c.WifiSSID))
		if err != nil {
			return err
		}
		c.WifiPassword = pw
	}
	if c.WSURL != "" && c.WSUsername != "" && c.WSPassword == "" {
		pw, err := readSecret("Bridge password: ")
		if err != nil {
			return err
		}
		c.WSPassword = pw
	}
	return nil
}

// dialer selects the link to the radio: the emulator, a WebSocket bridge or
// a serial port. The string describes the connection for logs.
func (c *Config) dialer(logger *slog.Logger) (esp.Dialer, string) {
	switch {
	case c.Emulate:
		radio := emulator.New(
			emulator.WithNetwork(c.WifiSSID, c.WifiPassword),
			emulator.WithPeer(c.PeerHost, c.PeerPort, demoPeer(c.PeerPath)),
			emulator.WithLogger(logger),
		)
		dial := func(context.Context) (esp.Transport, error) { return radio, nil }
		return esp.DialerFunc(dial), "Emulated radio"

	case c.WSURL != "":
		return esp.WebSocketDialer{
			URL:        c.WSURL,
			Username:   c.WSUsername,
			Password:   c.WSPassword,
			SkipVerify: c.NoSSLVerify,
		}, fmt.Sprintf("WebSocket: %s", c.WSURL)

	default:
		return esp.SerialDialer{
			PortName: c.SerialPort,
			BaudRate: c.BaudRate,
		}, fmt.Sprintf("Serial: %s @ %d baud", c.SerialPort, c.BaudRate)
	}
}
