// Package ntripuri classifies service strings by scheme and splits an NTRIP
// URI into its credentials, host, port, and mountpoint components.
package ntripuri

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Scheme identifies which opener a service string should be routed to.
type Scheme int

const (
	// UnknownScheme matched neither the ntrip:// nor dgpsip:// prefix.
	UnknownScheme Scheme = iota
	// NTRIP is an NTRIP broadcaster URI.
	NTRIP
	// DGPSIP is a raw DGPS/IP byte stream URI.
	DGPSIP
)

const (
	ntripPrefix  = "ntrip://"
	dgpsipPrefix = "dgpsip://"

	// defaultServiceName is looked up via the system resolver before
	// falling back to defaultPort.
	defaultServiceName = "rtcm-sc104"
	defaultPort        = "2101"
)

// ErrUnknownProtocol is returned by Dispatch in strict mode when a service
// string matches neither supported scheme.
var ErrUnknownProtocol = errors.New("ntripuri: unknown protocol")

// ErrMissingMountpoint is returned when an NTRIP URI has no "/mountpoint"
// suffix.
var ErrMissingMountpoint = errors.New("ntripuri: missing mountpoint")

// Classify inspects the lowercase prefix of service and reports which
// scheme it names. It never fails; callers in strict mode must reject
// UnknownScheme themselves via Dispatch.
func Classify(service string) Scheme {
	lower := strings.ToLower(service)
	switch {
	case strings.HasPrefix(lower, ntripPrefix):
		return NTRIP
	case strings.HasPrefix(lower, dgpsipPrefix):
		return DGPSIP
	default:
		return UnknownScheme
	}
}

// Remainder strips the recognized scheme prefix (if any) from service,
// returning the part the per-scheme opener consumes.
func Remainder(service string) string {
	lower := strings.ToLower(service)
	switch {
	case strings.HasPrefix(lower, ntripPrefix):
		return service[len(ntripPrefix):]
	case strings.HasPrefix(lower, dgpsipPrefix):
		return service[len(dgpsipPrefix):]
	default:
		return service
	}
}

// Dispatch resolves a service string to the scheme that should handle it,
// honoring strict mode for URIs that match neither known prefix. In
// non-strict mode an unrecognized string is treated as a bare DGPS/IP
// host[:port], per §4.1.
func Dispatch(service string, strict bool) (Scheme, error) {
	scheme := Classify(service)
	if scheme == UnknownScheme {
		if strict {
			return UnknownScheme, errors.Wrapf(ErrUnknownProtocol, "service %q", service)
		}
		return DGPSIP, nil
	}
	return scheme, nil
}

// URI is the parsed form of an ntrip:// URI's post-scheme remainder.
type URI struct {
	Credentials string // empty iff the input had no user[:pass]@ prefix
	Host        string
	Port        string // empty means "use the resolved default"
	Mountpoint  string
}

// ParseNTRIP splits the post-scheme remainder of an ntrip:// URI into its
// components, per §4.2. It tolerates '@' and ':' embedded in credentials by
// always splitting on the rightmost '@' that has at least one ':' to its
// left.
func ParseNTRIP(remainder string) (URI, error) {
	var u URI

	caster := remainder
	if at := strings.LastIndex(remainder, "@"); at >= 0 {
		prefix := remainder[:at]
		if strings.Contains(prefix, ":") {
			u.Credentials = prefix
			caster = remainder[at+1:]
		}
	}

	slash := strings.IndexByte(caster, '/')
	if slash < 0 {
		return URI{}, errors.Wrapf(ErrMissingMountpoint, "uri %q", remainder)
	}
	u.Mountpoint = caster[slash+1:]
	hostport := caster[:slash]

	if colon := strings.IndexByte(hostport, ':'); colon >= 0 {
		u.Host = hostport[:colon]
		u.Port = hostport[colon+1:]
	} else {
		u.Host = hostport
	}

	return u, nil
}

// ResolvePort returns port if non-empty, otherwise the system-resolved
// rtcm-sc104/tcp service port, falling back to the literal default when
// that service name is unknown on the host (§4.2 step 4).
func ResolvePort(port string) string {
	if port != "" {
		return port
	}
	if resolved, err := net.LookupPort("tcp", defaultServiceName); err == nil {
		return strconv.Itoa(resolved)
	}
	return defaultPort
}
