package ntripclient

import "github.com/pkg/errors"

// Error kinds from §7 owned by this package; UnexpectedBanner,
// MountpointNotFound, UnsupportedCapability, and BufferFull are produced
// by internal/sourcetable and surface through Connection.Open unchanged.
var (
	ErrMalformedURI  = errors.New("ntripclient: malformed uri")
	ErrConnectFailed = errors.New("ntripclient: connect failed")
	ErrWriteShort    = errors.New("ntripclient: short write")
	ErrIoError       = errors.New("ntripclient: io error")
	// ErrTerminal is returned when Open is called again after the
	// connection has already reached the terminal ERR state (§4.9).
	ErrTerminal = errors.New("ntripclient: connection is in terminal error state")
)
