// Package dgpsip implements the minimal DGPS/IP sibling reader (§4.11):
// a raw TCP byte stream with no handshake, no sourcetable, and no
// position reporting. It is the opener the URI classifier (§4.1) routes
// to for dgpsip:// URIs and for any unrecognized scheme in non-strict
// mode.
package dgpsip

import (
	"io"

	"github.com/pkg/errors"

	"github.com/bramburn/ntripcore/internal/ntripsock"
)

// DefaultPort is used when the URI gave no explicit port.
const DefaultPort = "2101"

// ErrConnectFailed wraps a dial failure.
var ErrConnectFailed = errors.New("dgpsip: connect failed")

// Open dials host:port (falling back to DefaultPort when port is empty)
// and returns the raw connection as a byte-stream reader. There is no
// capability negotiation: whatever the remote sends is handed straight
// to the caller.
func Open(host, port string) (io.ReadWriteCloser, error) {
	if port == "" {
		port = DefaultPort
	}
	conn, err := ntripsock.DefaultDialer.Dial(host, port)
	if err != nil {
		return nil, errors.Wrapf(ErrConnectFailed, "%s:%s: %v", host, port, err)
	}
	return conn, nil
}
