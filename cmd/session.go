package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"i4.energy/across/espfetch/diag"
	"i4.energy/across/espfetch/esp"
	"i4.energy/across/espfetch/httpjson"
)

// session is one radio connection with the configured network and peer.
type session struct {
	dev     *esp.Device
	config  *Config
	logger  *slog.Logger
	info    string
	closers []func() error
}

// openSession resolves credentials, dials the radio and wires the
// diagnostic mirrors. The radio is not brought up yet.
func openSession(ctx context.Context, c *Config, logger *slog.Logger) (*session, error) {
	if err := c.resolveSecrets(); err != nil {
		return nil, err
	}

	s := &session{config: c, logger: logger}

	var mirrors diag.Multi
	if c.CaptureFile != "" {
		f, err := os.OpenFile(c.CaptureFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open capture file: %w", err)
		}
		s.closers = append(s.closers, f.Close)
		mirrors = append(mirrors, diag.NewCaptureWriter(f))
	}
	if c.Trace {
		mirrors = append(mirrors, diag.Text{W: os.Stderr})
	}

	dialer, info := c.dialer(logger)
	espConfig, err := esp.NewConfigBuilder().
		WithDialer(dialer).
		WithLogger(logger).
		WithMirror(mirrors).
		WithJoinRetry(c.JoinAttempts, c.Interval).
		Build()
	if err != nil {
		s.Close()
		return nil, err
	}

	s.dev, err = esp.New(ctx, espConfig)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.info = info
	logger.Info("radio connected", "connection", info)
	return s, nil
}

func (s *session) Close() error {
	var errs []error
	if s.dev != nil {
		errs = append(errs, s.dev.Close())
	}
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// connect brings the radio up and joins the configured network.
func (s *session) connect(ctx context.Context) error {
	if err := s.dev.BringUp(ctx); err != nil {
		return fmt.Errorf("bring up radio: %w", err)
	}
	return s.dev.JoinNetwork(ctx, s.config.WifiSSID, s.config.WifiPassword)
}

// Fetch issues one GET to the configured peer. A session that lost its
// association, or a radio that restarted, is reconnected once first.
func (s *session) Fetch(ctx context.Context) (httpjson.Result, error) {
	res, err := s.get(ctx)
	if !errors.Is(err, esp.ErrNotJoined) {
		return res, err
	}

	s.logger.Warn("reconnecting", "ssid", s.config.WifiSSID, "state", s.dev.State())
	err = s.dev.JoinNetwork(ctx, s.config.WifiSSID, s.config.WifiPassword)
	if errors.Is(err, esp.ErrNotReady) {
		err = s.connect(ctx)
	}
	if err != nil {
		return res, err
	}
	return s.get(ctx)
}

func (s *session) get(ctx context.Context) (httpjson.Result, error) {
	return s.dev.OpenAndGet(ctx, s.config.PeerHost, s.config.PeerPort, s.config.PeerPath)
}

func (s *session) Ping(ctx context.Context) error {
	return s.dev.Ping(ctx)
}
