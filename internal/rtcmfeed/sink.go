// Package rtcmfeed gives the established NTRIP data connection's byte
// stream a concrete consumer (§4.12): it splits the raw stream into
// RTCM3 transport frames and hands each one to a caller-supplied
// handler. The frame decoder the resulting payload would need is out of
// the core's scope (§1); this package only owns transport framing, and
// exposes github.com/go-gnss/rtcm's Message type for callers (cmd/) that
// want to filter by decoded message.
package rtcmfeed

import (
	"bufio"
	"bytes"
	"io"

	"github.com/go-gnss/rtcm"
)

// Handler receives one complete RTCM3 transport frame (preamble through
// CRC inclusive).
type Handler func(frame []byte)

// Filter lets a caller decide whether a decoded message is worth acting
// on, mirroring the teacher's RTCMFilter shape.
type Filter func(msg rtcm.Message) bool

const (
	preamble      = 0xD3
	headerLen     = 3 // preamble + 2 length bytes
	crcLen        = 3
	maxFrameBytes = 1 << 12 // above the 1023-byte payload cap of RTCM3's 10-bit length field
)

// Sink scans an io.Reader for RTCM3 frames and invokes handler for each.
type Sink struct {
	scanner *bufio.Scanner
	handler Handler
}

// NewSink wraps r, ready to Run.
func NewSink(r io.Reader, handler Handler) *Sink {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxFrameBytes+headerLen+crcLen)
	s.Split(splitRTCMFrame)
	return &Sink{scanner: s, handler: handler}
}

// Run reads until EOF or a scan error, invoking handler for every frame
// found. It returns when the underlying reader is exhausted or fails;
// callers driving an ESTABLISHED connection typically run this in its
// own goroutine.
func (s *Sink) Run() error {
	for s.scanner.Scan() {
		frame := append([]byte(nil), s.scanner.Bytes()...)
		s.handler(frame)
	}
	return s.scanner.Err()
}

// MessageType extracts the 12-bit RTCM message number from a frame's
// payload, per the standard's bit layout (first 12 bits of the payload).
func MessageType(frame []byte) int {
	if len(frame) < headerLen+2 {
		return -1
	}
	return (int(frame[headerLen]) << 4) | (int(frame[headerLen+1]) >> 4)
}

// splitRTCMFrame is a bufio.SplitFunc recognizing RTCM3 transport
// frames: a 0xD3 preamble, two header bytes whose low 10 bits give the
// payload length, the payload itself, and a 3-byte CRC trailer. Adapted
// from the teacher's RTCMParser.Process loop, reframed as a SplitFunc so
// bufio.Scanner owns the buffering instead of a hand-rolled byte slice.
func splitRTCMFrame(data []byte, atEOF bool) (advance int, token []byte, err error) {
	idx := bytes.IndexByte(data, preamble)
	if idx < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep only the final byte in case it's a split preamble match
		// candidate; drop the rest as noise between frames.
		if len(data) > 1 {
			return len(data) - 1, nil, nil
		}
		return 0, nil, nil
	}
	if idx > 0 {
		return idx, nil, nil
	}

	if len(data) < headerLen {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}

	length := (int(data[1]&0x03) << 8) | int(data[2])
	total := headerLen + length + crcLen

	if len(data) < total {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}

	return total, data[:total], nil
}
