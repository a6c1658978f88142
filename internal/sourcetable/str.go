package sourcetable

import (
	"math"
	"strconv"
	"strings"
)

// Stream is the stream descriptor data model from §3: the properties of a
// single mountpoint as advertised by an STR sourcetable record.
type Stream struct {
	Mountpoint     string
	Format         Format
	Carrier        int
	Latitude       float64
	Longitude      float64
	NMEA           int
	ComprEncryp    CompressionEncryption
	Authentication Authentication
	Fee            int
	Bitrate        int
	// Set becomes true once a record has matched the requested mountpoint.
	Set bool
}

// ParseSTR parses one STR record (with the "STR;" prefix already stripped)
// into a Stream descriptor, per §4.4 and the field layout in §6. Fields are
// read in fixed positional order; missing trailing fields leave their
// descriptor slots at their zero value (NaN for coordinates).
func ParseSTR(line string) Stream {
	var s Stream
	s.Latitude = math.NaN()
	s.Longitude = math.NaN()

	it := NewFieldIterator(line)

	// <mountpoint>
	if f, ok := it.Next(); ok {
		s.Mountpoint = f
	}
	// <identifier>
	it.Next()
	// <format>
	if f, ok := it.Next(); ok {
		if format, known := ParseFormat(f); known {
			s.Format = format
		} else {
			s.Format = FormatUnknown
		}
	}
	// <format-details>
	it.Next()
	// <carrier>
	if f, ok := it.Next(); ok {
		s.Carrier = atoiOrZero(f)
	}
	// <nav-system>
	it.Next()
	// <network>
	it.Next()
	// <country>
	it.Next()
	// <latitude>
	if f, ok := it.Next(); ok && f != "" {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			s.Latitude = v
		}
	}
	// <longitude>
	if f, ok := it.Next(); ok && f != "" {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			s.Longitude = v
		}
	}
	// <nmea>
	if f, ok := it.Next(); ok {
		s.NMEA = atoiOrZero(f)
	}
	// <solution>
	it.Next()
	// <generator>
	it.Next()
	// <compr-encryp>
	if f, ok := it.Next(); ok {
		s.ComprEncryp = ParseCompressionEncryption(f)
	}
	// <authentication>
	if f, ok := it.Next(); ok {
		s.Authentication = ParseAuthentication(f)
	}
	// <fee>
	if f, ok := it.Next(); ok {
		s.Fee = atoiOrZero(f)
	}
	// <bitrate>
	if f, ok := it.Next(); ok {
		s.Bitrate = atoiOrZero(f)
	}
	// <misc>...: any remaining fields are consumed and discarded.
	for {
		if _, ok := it.Next(); !ok {
			break
		}
	}

	return s
}

func atoiOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// SupportsCapabilities reports whether s satisfies the capability gates a
// committed mountpoint must meet (§4.5 step 3, §8 invariant): known
// format, no compression/encryption, and basic-or-none authentication.
func (s Stream) SupportsCapabilities() bool {
	return s.Format != FormatUnknown &&
		s.ComprEncryp == ComprEncrypNone &&
		(s.Authentication == AuthNone || s.Authentication == AuthBasic)
}
