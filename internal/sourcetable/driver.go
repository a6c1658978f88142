package sourcetable

import (
	"bytes"
	"errors"
	"syscall"

	pkgerrors "github.com/pkg/errors"
)

// MinBufferSize is the smallest capacity a Driver's line buffer may be
// constructed with (§4.5: "a fixed-capacity line buffer, implementer
// choice, >= 8 KiB").
const MinBufferSize = 8 * 1024

const (
	bannerLine     = "SOURCETABLE 200 OK\r\n"
	endTableLine   = "ENDSOURCETABLE"
	strPrefix      = "STR;"
	casPrefix      = "CAS;"
	netPrefix      = "NET;"
	lineTerminator = "\r\n"
)

// Outcome is the tri-state result of a single Driver.Step invocation,
// mirroring the C original's {0, 1, -1} return convention (§4.5).
type Outcome int

const (
	// NeedMore means the caller should invoke Step again once the socket
	// is readable; no match has been committed yet.
	NeedMore Outcome = iota
	// Matched means the requested mountpoint has been located and
	// committed to Result.
	Matched
	// Failed means a protocol or I/O error occurred; the error explains
	// which sentinel kind (§7) applies.
	Failed
)

// Error kinds from §7 that the sourcetable driver can produce.
var (
	ErrUnexpectedBanner      = errors.New("sourcetable: unexpected banner")
	ErrMountpointNotFound    = errors.New("sourcetable: mountpoint not found")
	ErrUnsupportedCapability = errors.New("sourcetable: unsupported capability")
	ErrIoError               = errors.New("sourcetable: io error")
	ErrBufferFull            = errors.New("sourcetable: buffer full")
)

// Reader is the minimal read surface the driver needs from the probe
// socket. Implementations must return syscall.EAGAIN/EWOULDBLOCK when a
// non-blocking read would block, and syscall.EINTR on interrupted calls,
// so Step can apply the exact retry/yield rules of §4.5.
type Reader interface {
	Read(p []byte) (int, error)
}

// Driver is a poll-callable reader over a probe socket's sourcetable
// response. It owns a fixed-capacity line buffer and the
// sourcetable_parse/match flags from the connection record (§3).
type Driver struct {
	Mountpoint string // the mountpoint being searched for

	buf              []byte
	len              int
	sourcetableParse bool
	matched          bool

	// Result accumulates the committed descriptor once matched is true.
	Result Stream
}

// NewDriver creates a Driver with the given buffer capacity (clamped up to
// MinBufferSize) searching for mountpoint.
func NewDriver(mountpoint string, bufCap int) *Driver {
	if bufCap < MinBufferSize {
		bufCap = MinBufferSize
	}
	return &Driver{
		Mountpoint: mountpoint,
		buf:        make([]byte, bufCap),
	}
}

// BannerConsumed reports whether the SOURCETABLE 200 OK banner has been
// read and verified yet (§3 connection record field `sourcetable_parse`).
func (d *Driver) BannerConsumed() bool {
	return d.sourcetableParse
}

// Step performs one poll-driven invocation of the sourcetable reader,
// per §4.5. It loops internally over reads until the underlying Reader
// reports EAGAIN/EWOULDBLOCK (need more data later), a definitive match or
// failure is reached, or an unrecoverable I/O condition occurs.
func (d *Driver) Step(r Reader) (Outcome, error) {
	for {
		if d.len >= len(d.buf) {
			return Failed, pkgerrors.Wrap(ErrBufferFull, "sourcetable line buffer exhausted")
		}

		n, err := r.Read(d.buf[d.len:])
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			if isWouldBlock(err) {
				switch {
				case !d.sourcetableParse:
					// The spec's boundary case: EAGAIN before the banner
					// is read is not "need more data", it's a protocol
					// error.
					return Failed, pkgerrors.Wrap(ErrUnexpectedBanner, "EAGAIN before sourcetable banner")
				case d.matched:
					return Matched, nil
				default:
					return NeedMore, nil
				}
			}
			return Failed, pkgerrors.Wrap(ErrIoError, err.Error())
		}
		if n == 0 {
			if d.matched {
				return Matched, nil
			}
			return Failed, pkgerrors.Wrap(ErrIoError, "remote closed before sourcetable match")
		}

		d.len += n

		outcome, done, err := d.drainBuffer()
		if done {
			return outcome, err
		}
		// Buffer fully drained down to a partial line (or nothing):
		// loop back and read again, matching the original's internal
		// for(;;) that only yields on EAGAIN/EOF/error.
	}
}

// drainBuffer consumes as many complete lines as are currently buffered.
// done is true when Step should return immediately with the given
// (outcome, err); when done is false, the caller should attempt another
// read.
func (d *Driver) drainBuffer() (Outcome, bool, error) {
	if !d.sourcetableParse {
		if d.len < len(bannerLine) {
			return NeedMore, false, nil
		}
		if string(d.buf[:len(bannerLine)]) != bannerLine {
			return Failed, true, pkgerrors.Wrapf(ErrUnexpectedBanner, "got %q", string(d.buf[:min(d.len, 64)]))
		}
		d.consume(len(bannerLine))
		d.sourcetableParse = true
	}

	for {
		idx := bytes.Index(d.buf[:d.len], []byte(lineTerminator))
		if idx < 0 {
			break
		}
		line := string(d.buf[:idx])
		d.consume(idx + len(lineTerminator))

		switch {
		case hasPrefix(line, endTableLine):
			if d.matched {
				return Matched, true, nil
			}
			return Failed, true, pkgerrors.Wrapf(ErrMountpointNotFound, "mountpoint %q", d.Mountpoint)

		case hasPrefix(line, strPrefix):
			hold := ParseSTR(line[len(strPrefix):])
			if !d.matched && hold.Mountpoint == d.Mountpoint {
				if !hold.SupportsCapabilities() {
					return Failed, true, pkgerrors.Wrapf(ErrUnsupportedCapability, "mountpoint %q: %+v", d.Mountpoint, hold)
				}
				hold.Set = true
				d.Result = hold
				d.matched = true
			}
			// Non-matching STR records are ignored; scanning continues
			// in order and only the first match is ever committed.

		case hasPrefix(line, casPrefix), hasPrefix(line, netPrefix):
			// CAS/NET records are skipped; parsing them is a declared
			// non-goal (§1).

		default:
			// Unrecognized lines (stray headers) are ignored.
		}
	}

	if d.len == len(d.buf) {
		return Failed, true, pkgerrors.Wrap(ErrBufferFull, "line exceeds buffer capacity")
	}

	return NeedMore, false, nil
}

// consume drops the first n bytes of the buffer, shifting any remainder
// (a partial line) to the head, per §4.5 step 4.
func (d *Driver) consume(n int) {
	remaining := d.len - n
	copy(d.buf, d.buf[n:d.len])
	d.len = remaining
}

func hasPrefix(line, prefix string) bool {
	return len(line) >= len(prefix) && line[:len(prefix)] == prefix
}
