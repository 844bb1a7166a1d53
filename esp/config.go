package esp

import (
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/espfetch/diag"
)

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.QueueCapacity != 0 && c.QueueCapacity&(c.QueueCapacity-1) != 0 {
		return fmt.Errorf("queue capacity %d is not a power of two", c.QueueCapacity)
	}
	if c.ResponseCapacity < 0 || c.StreamCapacity < 0 {
		return fmt.Errorf("buffer capacities must not be negative")
	}
	return nil
}

// Config holds the Device settings. Zero fields take their defaults.
type Config struct {
	// Dialer opens the link to the radio. Required.
	Dialer Dialer
	Logger *slog.Logger
	// Mirror receives every completed exchange.
	Mirror diag.Mirror

	// ResponseCapacity bounds one command response, StreamCapacity the raw
	// socket stream of one GET. QueueCapacity is the receive queue size and
	// must be a power of two.
	ResponseCapacity int
	StreamCapacity   int
	QueueCapacity    int

	PollInterval  time.Duration
	ATTimeout     time.Duration
	JoinTimeout   time.Duration
	StreamTimeout time.Duration
	// EchoSettle is how long BringUp and Reset wait before draining.
	EchoSettle time.Duration
	ModeSettle time.Duration

	// JoinAttempts is how many association attempts JoinNetwork makes,
	// RetryInterval the pause between them.
	JoinAttempts  int
	RetryInterval time.Duration
}

const (
	DefaultResponseCapacity = 512
	DefaultStreamCapacity   = 8192
	DefaultQueueCapacity    = 256
)

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Mirror == nil {
		c.Mirror = diag.Discard
	}
	if c.ResponseCapacity == 0 {
		c.ResponseCapacity = DefaultResponseCapacity
	}
	if c.StreamCapacity == 0 {
		c.StreamCapacity = DefaultStreamCapacity
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.PollInterval == 0 {
		c.PollInterval = 200 * time.Microsecond
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = 20 * time.Second
	}
	if c.StreamTimeout == 0 {
		c.StreamTimeout = 30 * time.Second
	}
	if c.EchoSettle == 0 {
		c.EchoSettle = time.Second
	}
	if c.ModeSettle == 0 {
		c.ModeSettle = 100 * time.Millisecond
	}
	if c.JoinAttempts <= 0 {
		c.JoinAttempts = 1
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 2 * time.Second
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the link to the radio.
func (b *ConfigBuilder) WithDialer(dialer Dialer) *ConfigBuilder {
	b.config.Dialer = dialer
	return b
}

// WithLogger sets the logger. Without one, logs are discarded.
func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.Logger = logger
	return b
}

// WithMirror sets the sink every completed exchange is mirrored to.
func (b *ConfigBuilder) WithMirror(mirror diag.Mirror) *ConfigBuilder {
	b.config.Mirror = mirror
	return b
}

// WithResponseCapacity bounds a single command response.
func (b *ConfigBuilder) WithResponseCapacity(n int) *ConfigBuilder {
	b.config.ResponseCapacity = n
	return b
}

// WithStreamCapacity bounds the raw socket stream of one GET.
func (b *ConfigBuilder) WithStreamCapacity(n int) *ConfigBuilder {
	b.config.StreamCapacity = n
	return b
}

// WithQueueCapacity sets the receive queue size. It must be a power of two.
func (b *ConfigBuilder) WithQueueCapacity(n int) *ConfigBuilder {
	b.config.QueueCapacity = n
	return b
}

// WithPollInterval sets the pause between reads of an empty link.
func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.PollInterval = d
	return b
}

// WithATTimeout bounds an ordinary command round trip.
func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

// WithJoinTimeout bounds the association command.
func (b *ConfigBuilder) WithJoinTimeout(d time.Duration) *ConfigBuilder {
	b.config.JoinTimeout = d
	return b
}

// WithStreamTimeout bounds collecting the response stream.
func (b *ConfigBuilder) WithStreamTimeout(d time.Duration) *ConfigBuilder {
	b.config.StreamTimeout = d
	return b
}

// WithEchoSettle sets how long BringUp and Reset wait before draining.
func (b *ConfigBuilder) WithEchoSettle(d time.Duration) *ConfigBuilder {
	b.config.EchoSettle = d
	return b
}

// WithModeSettle sets the pause between selecting station mode and joining.
func (b *ConfigBuilder) WithModeSettle(d time.Duration) *ConfigBuilder {
	b.config.ModeSettle = d
	return b
}

// WithJoinRetry sets how many association attempts JoinNetwork makes and
// the pause between them.
func (b *ConfigBuilder) WithJoinRetry(attempts int, interval time.Duration) *ConfigBuilder {
	b.config.JoinAttempts = attempts
	b.config.RetryInterval = interval
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	config := b.config
	config.setDefaults()
	return config, nil
}
