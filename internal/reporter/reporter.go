// Package reporter implements the periodic position reporter of §4.10:
// a throttled upstream write of the host's current position fix back to
// the broadcaster, for mountpoints that request NMEA updates.
package reporter

import (
	"io"
	"sync/atomic"

	"github.com/bramburn/ntripcore/internal/fix"
	"github.com/bramburn/ntripcore/internal/nmeaout"
	"github.com/bramburn/ntripcore/internal/sourcetable"
)

// callCount is the cadence counter from net_ntrip.c's ntrip_report: one
// static counter shared by every connection this process drives, not one
// per connection. Every Reporter increments and reads the same counter,
// matching the original's "one counter across all casters" behavior.
var callCount atomic.Int64

// Reporter implements the periodic position reporter of §4.10. It holds
// no state of its own beyond identity; the cadence counter it gates on is
// shared process-wide.
type Reporter struct{}

// New returns a Reporter.
func New() *Reporter {
	return &Reporter{}
}

// Report is called with the selected stream descriptor, the GNSS device's
// cumulative fix count, whether the connection's socket is currently
// open, and the most recent position fix. It emits one NMEA-formatted
// line to w when all of §4.10's conditions hold, and reports whether it
// did. A short write is the caller's concern to log; it is not an error
// here and never changes reporter state.
func (r *Reporter) Report(stream sourcetable.Stream, fixCount int, socketOpen bool, w io.Writer, pos fix.Position) (bool, error) {
	n := callCount.Add(1)

	if stream.NMEA == 0 {
		return false, nil
	}
	if fixCount <= 10 {
		return false, nil
	}
	if n%5 != 0 {
		return false, nil
	}
	if !socketOpen || w == nil {
		return false, nil
	}

	line := nmeaout.FormatGGA(pos)
	if _, err := w.Write([]byte(line)); err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the current value of the process-wide call counter.
func (r *Reporter) Count() int64 {
	return callCount.Load()
}
