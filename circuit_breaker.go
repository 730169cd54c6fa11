package sonic

import (
	"context"
	"net"
	"time"

	"github.com/sony/gobreaker/v2"
)

// NewCircuitBreakerDial returns a DialFunc guarded by a circuit breaker.
//
// After repeated dial failures the breaker opens and dials fail immediately
// with gobreaker.ErrOpenState until timeout elapses. It never retries.
func NewCircuitBreakerDial(name string, maxRequests uint32, interval, timeout time.Duration) DialFunc {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
	return CircuitBreakerDial(gobreaker.NewCircuitBreaker[net.Conn](settings), nil)
}

// CircuitBreakerDial wraps dial with cb. A nil dial uses a net.Dialer with
// DefaultDialTimeout.
func CircuitBreakerDial(cb *gobreaker.CircuitBreaker[net.Conn], dial DialFunc) DialFunc {
	if dial == nil {
		dial = Config{}.dial()
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return cb.Execute(func() (net.Conn, error) {
			return dial(ctx, network, addr)
		})
	}
}
