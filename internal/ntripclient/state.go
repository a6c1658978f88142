// Package ntripclient implements the three-stage non-blocking connection
// state machine (§4.9): starting from a parsed NTRIP URI, it probes the
// broadcaster's sourcetable to locate a mountpoint, then reconnects to
// establish the RTCM data stream.
package ntripclient

import (
	"io"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bramburn/ntripcore/internal/ntripsock"
	"github.com/bramburn/ntripcore/internal/ntripuri"
	"github.com/bramburn/ntripcore/internal/sourcetable"
)

// State is one of the five connection states from §4.9.
type State int

const (
	StateInit State = iota
	StateSentProbe
	StateSentGet
	StateEstablished
	StateErr
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSentProbe:
		return "SENT_PROBE"
	case StateSentGet:
		return "SENT_GET"
	case StateEstablished:
		return "ESTABLISHED"
	case StateErr:
		return "ERR"
	default:
		return "UNKNOWN"
	}
}

// Socket is the minimal surface Connection needs from a dialed endpoint.
// *ntripsock.Conn satisfies it; tests substitute fakes.
type Socket interface {
	io.Reader
	io.Writer
	io.Closer
	SetNonblocking() error
}

// Dialer opens a fresh blocking Socket to host:port (§6 "Socket factory").
type Dialer interface {
	Dial(host, port string) (Socket, error)
}

// socketDialer adapts ntripsock.Dialer to the Dialer interface.
type socketDialer struct {
	d ntripsock.Dialer
}

// NewDialer wraps the real TCP dialer for production use.
func NewDialer() Dialer {
	return socketDialer{d: ntripsock.DefaultDialer}
}

func (s socketDialer) Dial(host, port string) (Socket, error) {
	return s.d.Dial(host, port)
}

// getReadBufSize is the one-shot read buffer for the response classifier
// (§4.8); BUFSIZ-equivalent, generous enough for HTTP headers plus any
// immediately-available RTCM bytes.
const getReadBufSize = 4096

// Connection is the per-device session state from §3's "connection
// record". It owns at most one socket at a time and is mutated only by
// Open and Close, matching the §4.9/§5 resource discipline.
type Connection struct {
	// SessionID tags every log line this connection emits, so a caster
	// switch or reconnect doesn't interleave indistinguishably with the
	// session it replaced.
	SessionID string

	Host        string
	Port        string
	Mountpoint  string
	Credentials string
	AuthHeader  string

	State            State
	SourcetableParse bool
	Works            bool
	Stream           sourcetable.Stream

	fd     Socket
	dialer Dialer
	driver *sourcetable.Driver
}

// New builds an INIT-state connection record from a parsed NTRIP URI.
func New(dialer Dialer, uri ntripuri.URI) *Connection {
	return &Connection{
		SessionID:   uuid.New().String(),
		Host:        uri.Host,
		Port:        ntripuri.ResolvePort(uri.Port),
		Mountpoint:  uri.Mountpoint,
		Credentials: uri.Credentials,
		dialer:      dialer,
		State:       StateInit,
	}
}

// Open performs one poll-driven invocation of the state machine, per
// §4.9's table. Reading the probe socket in SENT_PROBE never blocks; the
// dials and request writes (INIT, and SENT_PROBE on a match) and the
// single read of the GET response (SENT_GET) are blocking. It is safe to
// call repeatedly until State reaches ESTABLISHED or ERR.
func (c *Connection) Open() error {
	switch c.State {
	case StateInit:
		return c.openInit()
	case StateSentProbe:
		return c.openSentProbe()
	case StateSentGet:
		return c.openSentGet()
	case StateEstablished:
		return nil
	case StateErr:
		return errors.Wrap(ErrTerminal, "further open() calls fail")
	default:
		return errors.Wrap(ErrTerminal, "unknown state")
	}
}

func (c *Connection) openInit() error {
	sock, err := c.dialer.Dial(c.Host, c.Port)
	if err != nil {
		return c.fail(errors.Wrap(ErrConnectFailed, err.Error()))
	}
	if werr := writeFull(sock, BuildProbeRequest(c.Host)); werr != nil {
		sock.Close()
		return c.fail(errors.Wrap(ErrWriteShort, werr.Error()))
	}
	// §5: the probe socket must be non-blocking before the state machine
	// yields to the poll loop, so Driver.Step's EAGAIN handling in
	// openSentProbe actually has a non-blocking fd to read from.
	if serr := sock.SetNonblocking(); serr != nil {
		sock.Close()
		return c.fail(errors.Wrap(ErrIoError, serr.Error()))
	}

	c.fd = sock
	c.driver = sourcetable.NewDriver(c.Mountpoint, sourcetable.MinBufferSize)
	c.State = StateSentProbe
	return nil
}

func (c *Connection) openSentProbe() error {
	outcome, err := c.driver.Step(c.fd)
	c.SourcetableParse = c.driver.BannerConsumed()

	switch outcome {
	case sourcetable.NeedMore:
		return nil

	case sourcetable.Matched:
		c.Stream = c.driver.Result
		c.fd.Close()
		c.fd = nil

		c.AuthHeader = EncodeAuth(c.Credentials, c.Stream.Authentication)

		sock, derr := c.dialer.Dial(c.Host, c.Port)
		if derr != nil {
			return c.fail(errors.Wrap(ErrConnectFailed, derr.Error()))
		}
		req := BuildGetRequest(c.Host, c.Mountpoint, c.AuthHeader)
		if werr := writeFull(sock, req); werr != nil {
			sock.Close()
			return c.fail(errors.Wrap(ErrWriteShort, werr.Error()))
		}

		c.fd = sock
		c.State = StateSentGet
		return nil

	default: // sourcetable.Failed
		if c.fd != nil {
			c.fd.Close()
			c.fd = nil
		}
		return c.fail(err)
	}
}

func (c *Connection) openSentGet() error {
	buf := make([]byte, getReadBufSize)
	n, err := readRetryEINTR(c.fd, buf)
	if err != nil {
		return c.fail(errors.Wrap(ErrIoError, err.Error()))
	}

	verdict := Classify(buf[:n])
	if verdict != VerdictSuccess {
		c.fd.Close()
		c.fd = nil
		return c.fail(VerdictError(verdict))
	}

	if serr := c.fd.SetNonblocking(); serr != nil {
		c.fd.Close()
		c.fd = nil
		return c.fail(errors.Wrap(ErrIoError, serr.Error()))
	}

	c.State = StateEstablished
	c.Works = true
	return nil
}

// Reader exposes the established data socket to the outer poll loop
// (§4.12's RTCM byte-stream hand-off). It returns nil until ESTABLISHED.
func (c *Connection) Reader() io.Reader {
	if c.State != StateEstablished {
		return nil
	}
	return c.fd
}

// Writer exposes the established data socket for the periodic position
// reporter (§4.10) to push GGA updates back upstream. It returns nil
// until ESTABLISHED.
func (c *Connection) Writer() io.Writer {
	if c.State != StateEstablished {
		return nil
	}
	return c.fd
}

// SocketOpen reports whether the connection currently owns an open
// socket, the gate the periodic reporter checks (§4.10).
func (c *Connection) SocketOpen() bool {
	return c.fd != nil
}

// Close releases the connection's held socket, if any, and discards the
// record for reuse by a fresh Connection (§5 "Cancellation").
func (c *Connection) Close() error {
	if c.fd == nil {
		return nil
	}
	err := c.fd.Close()
	c.fd = nil
	return err
}

func (c *Connection) fail(err error) error {
	c.State = StateErr
	if c.fd != nil {
		c.fd.Close()
		c.fd = nil
	}
	return err
}

// writeFull writes all of s to w in one call, failing if the write was
// short (§4.6): a partial write is always treated as an error, never
// retried.
func writeFull(w io.Writer, s string) error {
	n, err := w.Write([]byte(s))
	if err != nil {
		return err
	}
	if n != len(s) {
		return errors.Errorf("wrote %d of %d bytes", n, len(s))
	}
	return nil
}

// readRetryEINTR reads once from r, retrying only on EINTR, per §4.8's
// "Reads once from the GET socket (retrying on EINTR)".
func readRetryEINTR(r io.Reader, buf []byte) (int, error) {
	for {
		n, err := r.Read(buf)
		if err != nil && errors.Is(err, syscall.EINTR) {
			continue
		}
		return n, err
	}
}
