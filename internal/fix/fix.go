// Package fix tracks the host's current GNSS position fix and the
// cumulative fix count the periodic position reporter (§4.10) gates on.
// It is the concrete shape of spec.md's "GNSS device record" /
// "global context that exposes a cumulative fix_count" (§4.10, §4.13).
package fix

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adrianmo/go-nmea"
)

// Position is the host's most recently decoded fix, extracted from a GGA
// sentence. Adapted from the teacher's position.Position, trimmed to the
// fields the reporter and the outgoing GGA formatter actually need.
type Position struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Quality    int
	Satellites int64
	HDOP       float64
	Time       time.Time
}

// Tracker accumulates position fixes from an incoming NMEA byte stream and
// exposes the monotonic fix_count the reporter's throttle condition reads.
// Safe for concurrent use: the device reader and the reporter run on
// different goroutines in cmd/ntrip-fetch.
type Tracker struct {
	mu       sync.Mutex
	current  Position
	haveFix  bool
	fixCount int
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// FeedLine parses one NMEA line (with or without trailing CRLF). Non-GGA
// sentences and parse failures are ignored, matching the teacher's
// MonitorNMEA tolerance for noisy serial input.
func (t *Tracker) FeedLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return
	}
	if sentence.DataType() != nmea.TypeGGA {
		return
	}
	gga := sentence.(nmea.GGA)

	quality, _ := strconv.Atoi(fmt.Sprint(gga.FixQuality))
	if quality <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Position{
		Latitude:   gga.Latitude,
		Longitude:  gga.Longitude,
		Altitude:   gga.Altitude,
		Quality:    quality,
		Satellites: gga.NumSatellites,
		HDOP:       gga.HDOP,
		Time:       time.Now().UTC(),
	}
	t.haveFix = true
	t.fixCount++
}

// FeedStream splits buf on CRLF and feeds each line to FeedLine, for
// callers handing the tracker raw bytes off a serial port or socket.
func (t *Tracker) FeedStream(buf []byte) {
	for _, line := range strings.Split(string(buf), "\r\n") {
		t.FeedLine(line)
	}
}

// Count returns the cumulative fix_count §4.10's throttle condition reads.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fixCount
}

// Current returns the most recent fix and whether one has ever been seen.
func (t *Tracker) Current() (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.haveFix
}
