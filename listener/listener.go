// Package listener provides the net.Listener used by the deltav HTTP API.
package listener

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minBackoff = 5 * time.Millisecond
	maxBackoff = time.Second
)

// Listener wraps a net.Listener so that recoverable Accept errors (for example running out
// of file descriptors) are logged and retried instead of stopping the HTTP server.
// Only a closed listener ends Accept.
type Listener struct {
	net.Listener
	log      *logrus.Logger
	rejected atomic.Uint64
	sleep    func(time.Duration)
}

// New wraps inner. A nil logger uses the logrus standard logger.
func New(inner net.Listener, log *logrus.Logger) *Listener {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Listener{Listener: inner, log: log, sleep: time.Sleep}
}

// Listen announces on the local TCP address and wraps the result.
func Listen(address string, log *logrus.Logger) (*Listener, error) {
	inner, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return New(inner, log), nil
}

// Accept waits for the next connection, backing off between consecutive failures.
func (l *Listener) Accept() (net.Conn, error) {
	var backoff time.Duration
	for {
		conn, err := l.Listener.Accept()
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, err
		}

		if backoff == 0 {
			backoff = minBackoff
		} else {
			backoff = min(2*backoff, maxBackoff)
		}
		l.rejected.Add(1)
		l.log.WithError(err).WithField("retry_in", backoff).Warn("recoverable listener error, connection rejected")
		l.sleep(backoff)
	}
}

// Rejected returns how many Accept errors were recovered from.
func (l *Listener) Rejected() uint64 {
	return l.rejected.Load()
}
