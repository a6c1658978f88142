// Package device implements the GNSS device registry (§4.13): the
// external collaborator that the periodic position reporter (§4.10)
// consumes for fix_count and the host's current position. It is adapted
// from the teacher's internal/device + internal/port, replacing their
// NMEA-sentence/DataHandler callback style with a direct feed into
// internal/fix.Tracker.
package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/bramburn/ntripcore/internal/fix"
)

// Record is the "GNSS device record" referenced by §4.10's reporter
// signature: a serial-backed receiver paired with the fix tracker that
// derives fix_count and position from its output.
type Record struct {
	port    SerialPort
	tracker *fix.Tracker

	mu        sync.Mutex
	connected bool
	stop      chan struct{}
}

// NewRecord pairs port with a fresh fix.Tracker.
func NewRecord(port SerialPort) *Record {
	return &Record{
		port:    port,
		tracker: fix.NewTracker(),
	}
}

// Connect opens the underlying serial port.
func (r *Record) Connect(portName string, baudRate int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return fmt.Errorf("device already connected")
	}
	if err := r.port.Open(portName, baudRate); err != nil {
		return fmt.Errorf("connecting to device: %w", err)
	}
	r.connected = true
	return nil
}

// Disconnect closes the underlying serial port and stops any running
// monitor loop.
func (r *Record) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return nil
	}
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	err := r.port.Close()
	r.connected = false
	return err
}

// IsConnected reports whether the serial port is open.
func (r *Record) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Tracker exposes the fix tracker fed by this device's NMEA stream.
func (r *Record) Tracker() *fix.Tracker {
	return r.tracker
}

// FixCount is the cumulative fix_count the reporter gates on (§4.10).
func (r *Record) FixCount() int {
	return r.tracker.Count()
}

// CurrentPosition is the most recent fix, or ok=false if none has arrived
// yet.
func (r *Record) CurrentPosition() (fix.Position, bool) {
	return r.tracker.Current()
}

// Monitor starts a background read loop that feeds every byte the device
// emits into the fix tracker, polling at the given interval, matching the
// teacher's MonitorNMEA cadence. It returns immediately; call Disconnect
// (or StopMonitor) to end the loop.
func (r *Record) Monitor(pollInterval time.Duration) error {
	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return fmt.Errorf("device not connected")
	}
	stop := make(chan struct{})
	r.stop = stop
	r.mu.Unlock()

	go func() {
		buf := make([]byte, 1024)
		for {
			select {
			case <-stop:
				return
			default:
				n, err := r.port.Read(buf)
				if err != nil {
					time.Sleep(pollInterval)
					continue
				}
				if n > 0 {
					r.tracker.FeedStream(buf[:n])
				}
				time.Sleep(pollInterval)
			}
		}
	}()
	return nil
}

// StopMonitor halts a running Monitor loop without disconnecting the
// port.
func (r *Record) StopMonitor() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}
