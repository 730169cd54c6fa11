package sonic

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDialTimeout applies when Config.DialTimeout is zero.
const DefaultDialTimeout = 5 * time.Second

// DialFunc opens the transport of a channel.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config holds the settings of a single channel.
type Config struct {
	// Addr is the host:port of the Sonic server.
	// Required.
	Addr string

	// Password is sent with START. Empty means no credential.
	Password string

	// DialTimeout bounds connection establishment when Dial is nil.
	// Zero means DefaultDialTimeout.
	DialTimeout time.Duration

	// Dial opens the transport.
	// If nil, a net.Dialer with DialTimeout is used.
	// See NewCircuitBreakerDial for a breaker-guarded dialer.
	Dial DialFunc

	// ReadBufferSize is the size of the buffered reader.
	// Zero means 4096. Lines longer than the buffer are still accepted up to
	// the negotiated maximum.
	ReadBufferSize int

	// Logger receives sent and received lines at debug level.
	// If nil, logging is disabled.
	Logger *zerolog.Logger
}

func (c Config) dial() DialFunc {
	if c.Dial != nil {
		return c.Dial
	}

	timeout := c.DialTimeout
	if timeout == 0 {
		timeout = DefaultDialTimeout
	}
	dialer := &net.Dialer{Timeout: timeout}
	return dialer.DialContext
}

func (c Config) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
