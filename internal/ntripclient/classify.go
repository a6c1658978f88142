package ntripclient

import (
	"bytes"

	"github.com/pkg/errors"
)

// Verdict is the result of classifying a GET response buffer, per §4.8.
type Verdict int

const (
	// VerdictSuccess means an ICY 200 OK banner was found.
	VerdictSuccess Verdict = iota
	// VerdictUnauthorized means the response contained 401 Unauthorized.
	VerdictUnauthorized
	// VerdictRemoteRejected means a second SOURCETABLE banner arrived
	// instead of a data stream: the mountpoint was unknown at fetch time.
	VerdictRemoteRejected
	// VerdictProtocolError means none of the recognized tokens appeared.
	VerdictProtocolError
)

var (
	// ErrUnauthorized is the §7 Unauthorized error kind.
	ErrUnauthorized = errors.New("ntripclient: unauthorized")
	// ErrRemoteRejected is the §7 RemoteRejected error kind.
	ErrRemoteRejected = errors.New("ntripclient: remote rejected mountpoint")
	// ErrProtocolError is the §7 ProtocolError error kind.
	ErrProtocolError = errors.New("ntripclient: unrecognized response")
)

const (
	tokenUnauthorized = "401 Unauthorized"
	tokenSourcetable  = "SOURCETABLE 200 OK"
	tokenSuccess      = "ICY 200 OK"
)

// Classify examines a GET response buffer as a whole (substring search,
// case-sensitive) and reports the §4.8 verdict. Order matters: 401 is
// checked first, matching net_ntrip.c's ntrip_stream_get_parse.
func Classify(buf []byte) Verdict {
	switch {
	case bytes.Contains(buf, []byte(tokenUnauthorized)):
		return VerdictUnauthorized
	case bytes.Contains(buf, []byte(tokenSourcetable)):
		return VerdictRemoteRejected
	case bytes.Contains(buf, []byte(tokenSuccess)):
		return VerdictSuccess
	default:
		return VerdictProtocolError
	}
}

// VerdictError maps a non-success verdict to its §7 sentinel error.
func VerdictError(v Verdict) error {
	switch v {
	case VerdictUnauthorized:
		return ErrUnauthorized
	case VerdictRemoteRejected:
		return ErrRemoteRejected
	default:
		return ErrProtocolError
	}
}
