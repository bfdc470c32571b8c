package modbus

import (
	"net"
	"time"
)

// keepAliveListener wraps a *net.TCPListener so that every accepted
// connection has SO_KEEPALIVE and TCP_NODELAY applied (spec.md §6). Go's
// net package already enables TCP_NODELAY by default on *net.TCPConn and
// SO_REUSEADDR at bind time; SO_KEEPALIVE is the one socket option that
// needs to be set explicitly, per connection, after Accept.
type keepAliveListener struct {
	*net.TCPListener
}

func (l *keepAliveListener) Accept() (net.Conn, error) {
	tc, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	if err := tc.SetKeepAlive(true); err != nil {
		tc.Close()
		return nil, err
	}
	if err := tc.SetKeepAlivePeriod(3 * time.Minute); err != nil {
		tc.Close()
		return nil, err
	}
	if err := tc.SetNoDelay(true); err != nil {
		tc.Close()
		return nil, err
	}
	return tc, nil
}
