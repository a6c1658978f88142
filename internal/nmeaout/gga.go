// Package nmeaout formats an outgoing NMEA GGA sentence from a fix, the
// "external collaborator: NMEA position formatter" of §6
// (`format_fix(device, buf, cap)`). Encoding the reverse direction isn't
// covered by the adrianmo/go-nmea parser, so the degrees/minutes
// conversion and checksum are hand-rolled in the teacher's
// position.go style, adapted to emit rather than consume.
package nmeaout

import (
	"fmt"
	"math"
	"time"

	"github.com/bramburn/ntripcore/internal/fix"
)

// FormatGGA renders pos as a single "$GNGGA,...*hh\r\n" sentence, the line
// the periodic reporter (§4.10) pushes back to the broadcaster.
func FormatGGA(pos fix.Position) string {
	t := pos.Time
	if t.IsZero() {
		t = time.Now().UTC()
	}

	body := fmt.Sprintf(
		"GNGGA,%s,%s,%s,%d,%d,%.1f,%.1f,M,0.0,M,,",
		formatTime(t),
		formatCoordinate(pos.Latitude, true),
		formatCoordinate(pos.Longitude, false),
		pos.Quality,
		pos.Satellites,
		pos.HDOP,
		pos.Altitude,
	)
	return "$" + body + "*" + checksumHex(body) + "\r\n"
}

func formatTime(t time.Time) string {
	return fmt.Sprintf("%02d%02d%02d.00", t.Hour(), t.Minute(), t.Second())
}

// formatCoordinate converts decimal degrees to NMEA DDMM.MMMM(,hemisphere)
// form, the inverse of the teacher's convertNMEACoordinate helper in
// position.go.
func formatCoordinate(decimal float64, isLatitude bool) string {
	hemisphere := "N"
	if isLatitude && decimal < 0 {
		hemisphere = "S"
	} else if !isLatitude && decimal < 0 {
		hemisphere = "W"
	} else if !isLatitude {
		hemisphere = "E"
	}

	abs := math.Abs(decimal)
	degrees := math.Floor(abs)
	minutes := (abs - degrees) * 60

	var degreeDigits string
	if isLatitude {
		degreeDigits = fmt.Sprintf("%02d", int(degrees))
	} else {
		degreeDigits = fmt.Sprintf("%03d", int(degrees))
	}

	return fmt.Sprintf("%s%07.4f,%s", degreeDigits, minutes, hemisphere)
}

// checksumHex computes the NMEA XOR checksum of body (the text between
// '$' and '*'), rendered as two uppercase hex digits.
func checksumHex(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("%02X", cs)
}
