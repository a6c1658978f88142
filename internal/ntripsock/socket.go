// Package ntripsock provides the socket factory and non-blocking read
// seam the core connection state machine dials through (§6 "Socket
// factory", §5 "Mixed blocking / non-blocking socket").
package ntripsock

import (
	"net"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrConnectFailed wraps any dial failure from the socket factory.
var ErrConnectFailed = errors.New("ntripsock: connect failed")

// Dialer opens a fresh blocking TCP connection, matching the C original's
// netlib_connectsock(AF_UNSPEC, host, service, "tcp").
type Dialer struct {
	Timeout time.Duration
}

// DefaultDialer is used when callers don't need a custom timeout.
var DefaultDialer = Dialer{Timeout: 15 * time.Second}

// Dial connects to host:port over TCP in blocking mode, per §4.6: the probe
// and GET requests are both small single-shot writes on a fresh blocking
// socket.
func (d Dialer) Dial(host, port string) (*Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultDialer.Timeout
	}
	nc, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), timeout)
	if err != nil {
		return nil, errors.Wrapf(ErrConnectFailed, "%s:%s: %v", host, port, err)
	}
	tcpConn, ok := nc.(*net.TCPConn)
	if !ok {
		nc.Close()
		return nil, errors.Wrapf(ErrConnectFailed, "%s:%s: not a TCP connection", host, port)
	}
	return &Conn{tcp: tcpConn}, nil
}

// Conn wraps a *net.TCPConn, exposing the raw-fd non-blocking semantics the
// sourcetable driver and response classifier need: a Read that returns
// syscall.EAGAIN exactly when the kernel would have blocked (§5, §4.5).
//
// It starts in blocking mode (matching the probe socket's lifecycle) and is
// switched to non-blocking by SetNonblocking, which the state machine calls
// before yielding control back to the poll loop (§4.9: ESTABLISHED implies
// the fd is non-blocking; §4.6 note: the probe read side is multi-shot).
type Conn struct {
	tcp        *net.TCPConn
	nonblocked bool
}

// Write performs a single blocking write. Partial writes are reported as an
// error by the caller (§4.6, §7 WriteShort), not retried here.
func (c *Conn) Write(p []byte) (int, error) {
	return c.tcp.Write(p)
}

// Read reads from the connection. In non-blocking mode it returns
// syscall.EAGAIN instead of blocking when no data is currently available,
// exactly like a raw non-blocking socket read.
func (c *Conn) Read(p []byte) (int, error) {
	if !c.nonblocked {
		return c.tcp.Read(p)
	}

	raw, err := c.tcp.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var readErr error
	ctrlErr := raw.Read(func(fd uintptr) bool {
		n, readErr = unix.Read(int(fd), p)
		if readErr == unix.EAGAIN {
			// Not ready: report EAGAIN to the caller rather than
			// retrying, letting Step() yield back to the poll loop.
			return true
		}
		return true
	})
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	if readErr != nil {
		return 0, readErr
	}
	return n, nil
}

// SetNonblocking flips the underlying file descriptor to non-blocking mode
// (§4.8: "Set the socket to non-blocking, return it"; §4.9 ESTABLISHED
// invariant).
func (c *Conn) SetNonblocking() error {
	raw, err := c.tcp.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		setErr = unix.SetNonblock(int(fd), true)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	if setErr != nil {
		return setErr
	}
	c.nonblocked = true
	return nil
}

// Close closes the underlying connection. Safe to call more than once;
// subsequent calls return the stdlib's "use of closed network connection".
func (c *Conn) Close() error {
	return c.tcp.Close()
}

// IsWouldBlock reports whether err is the non-blocking "no data yet" signal.
func IsWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
