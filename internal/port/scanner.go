package port

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/brotab/internal/model"
)

const (
	// DefaultBasePort is the first port a mediator binds to. Mediators
	// started for additional browsers take the following ports.
	DefaultBasePort model.Port = 4625

	// DefaultWindow is the number of consecutive ports probed from the
	// base port. It is well below model.MaxClients, so a default scan can
	// never run out of client letters.
	DefaultWindow = 10

	// DefaultTimeout bounds a single liveness dial. A mediator that does
	// not complete the handshake in time is treated as absent for this
	// invocation; there is no retry.
	DefaultTimeout = 50 * time.Millisecond

	// loopbackHost is dialed instead of "localhost" so that the probe does
	// not depend on resolver configuration or IPv6 ordering.
	loopbackHost = "127.0.0.1"
)

// DialFunc opens a connection. It has the signature of
// (*net.Dialer).DialContext so tests can swap in a recording dialer.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Scanner discovers which ports in a window currently accept loopback TCP
// connections.
//
// Unlike a listen-based availability check, the scanner dials out: a port
// is "live" when something is accepting connections on it, which is exactly
// the signal that a mediator is running there.
type Scanner struct {
	host    string
	timeout time.Duration
	dial    DialFunc
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTimeout overrides the per-port dial timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.timeout = d }
}

// WithHost overrides the dialed host. Only useful in tests.
func WithHost(host string) Option {
	return func(s *Scanner) { s.host = host }
}

// WithDialFunc replaces the dialer. The per-port timeout is still applied
// through the context passed to fn.
func WithDialFunc(fn DialFunc) Option {
	return func(s *Scanner) { s.dial = fn }
}

// NewScanner creates a Scanner probing 127.0.0.1 with DefaultTimeout.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		host:    loopbackHost,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dial == nil {
		d := &net.Dialer{}
		s.dial = d.DialContext
	}
	return s
}

// IsPortLive reports whether a TCP connection to the port succeeds within
// the scanner's timeout. Refusal and timeout both mean "not live"; neither
// is an error. The probe connection is closed immediately.
func (s *Scanner) IsPortLive(ctx context.Context, port model.Port) bool {
	// The timeout is per probe, so one slow port cannot hold up the others
	// beyond its own bound.
	dialCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.host, strconv.Itoa(int(port)))
	conn, err := s.dial(dialCtx, "tcp", addr)
	if err != nil {
		// Refused, timed out or unreachable: all mean no mediator here.
		return false
	}
	// Only the handshake matters. Close at once so the mediator sees a
	// plain connect-and-hang-up and no request.
	_ = conn.Close()
	return true
}

// Scan probes every port in [base, base+window) and returns the live ones
// in ascending port order.
//
// Probes run concurrently, one goroutine per port, so a full scan takes
// roughly one timeout rather than window timeouts. Each goroutine writes
// only its own slot of the result slice; the ascending order comes from
// the slot index, not from completion order.
//
// An error is returned only for an invalid window. Dead ports are simply
// absent from the result.
func (s *Scanner) Scan(ctx context.Context, base model.Port, window int) ([]model.Port, error) {
	if window < 0 {
		return nil, fmt.Errorf("invalid scan window %d: must not be negative", window)
	}
	if window == 0 {
		return []model.Port{}, nil
	}
	// Computed in int so that base+window cannot wrap around uint16.
	if int(base)+window-1 > model.MaxPort {
		return nil, fmt.Errorf("%w: %d+%d", model.ErrPortRangeOverflow, base, window)
	}

	// live[i] reports base+i. Slots are preallocated so goroutines never
	// append to shared state.
	live := make([]bool, window)

	var g errgroup.Group
	for i := 0; i < window; i++ {
		port := model.Port(int(base) + i)
		g.Go(func() error {
			live[i] = s.IsPortLive(ctx, port)
			return nil
		})
	}
	// Probes never return errors, so Wait is only the join point.
	_ = g.Wait()

	// Walking the slots in index order yields ascending ports regardless of
	// which probe finished first.
	ports := make([]model.Port, 0, window)
	for i, ok := range live {
		if ok {
			ports = append(ports, model.Port(int(base)+i))
		}
	}
	return ports, nil
}
