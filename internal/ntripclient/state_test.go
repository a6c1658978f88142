package ntripclient

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramburn/ntripcore/internal/ntripuri"
	"github.com/bramburn/ntripcore/internal/sourcetable"
)

type readEvent struct {
	data []byte
	err  error
}

func chunk(s string) readEvent { return readEvent{data: []byte(s)} }

type fakeSocket struct {
	reads       []readEvent
	pos         int
	writes      []string
	writeErr    error
	shortWrite  bool
	closed      bool
	nonblocking bool
}

func (f *fakeSocket) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, string(p))
	if f.shortWrite {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func (f *fakeSocket) Read(p []byte) (int, error) {
	if f.pos >= len(f.reads) {
		return 0, io.EOF
	}
	ev := f.reads[f.pos]
	f.pos++
	if ev.err != nil {
		return 0, ev.err
	}
	return copy(p, ev.data), nil
}

func (f *fakeSocket) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSocket) SetNonblocking() error {
	f.nonblocking = true
	return nil
}

type fakeDialer struct {
	sockets []*fakeSocket
	errs    []error
	pos     int
}

func (f *fakeDialer) Dial(host, port string) (Socket, error) {
	i := f.pos
	f.pos++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.sockets) {
		return nil, errors.New("fakeDialer: no socket scripted for dial")
	}
	return f.sockets[i], nil
}

func mustParse(t *testing.T, uri string) ntripuri.URI {
	t.Helper()
	u, err := ntripuri.ParseNTRIP(uri)
	require.NoError(t, err)
	return u
}

func TestOpenInitDialFails(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("connection refused")}}
	c := New(dialer, mustParse(t, "rt.example.com:2101/MP1"))

	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.Equal(t, StateErr, c.State)
	assert.False(t, c.SocketOpen())
}

func TestOpenInitShortWrite(t *testing.T) {
	probeSock := &fakeSocket{shortWrite: true}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock}}
	c := New(dialer, mustParse(t, "rt.example.com:2101/MP1"))

	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWriteShort)
	assert.Equal(t, StateErr, c.State)
	assert.True(t, probeSock.closed)
}

func TestOpenInitSuccessTransitionsToSentProbe(t *testing.T) {
	probeSock := &fakeSocket{}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock}}
	c := New(dialer, mustParse(t, "rt.example.com:2101/MP1"))

	err := c.Open()
	require.NoError(t, err)
	assert.Equal(t, StateSentProbe, c.State)
	require.Len(t, probeSock.writes, 1)
	assert.Contains(t, probeSock.writes[0], "GET / HTTP/1.1")
	assert.Contains(t, probeSock.writes[0], "Host: rt.example.com")
}

// TestFullHappyPathBasicAuth is §8 end-to-end scenario 1.
func TestFullHappyPathBasicAuth(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;MP1;ident;RTCM 3.0;fmtdetails;0;navsys;net;country;;;0;sol;gen;none;B;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	getSock := &fakeSocket{reads: []readEvent{chunk("ICY 200 OK\r\n")}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock, getSock}}

	c := New(dialer, mustParse(t, "alice:secret@rt.example.com:2101/MP1"))

	require.NoError(t, c.Open()) // INIT -> SENT_PROBE
	assert.Equal(t, StateSentProbe, c.State)

	require.NoError(t, c.Open()) // SENT_PROBE -> SENT_GET
	assert.Equal(t, StateSentGet, c.State)
	assert.True(t, probeSock.closed)
	require.Len(t, getSock.writes, 1)
	assert.Contains(t, getSock.writes[0], "GET /MP1 HTTP/1.1")
	assert.Contains(t, getSock.writes[0], "Host: rt.example.com")
	assert.Contains(t, getSock.writes[0], "Authorization: Basic YWxpY2U6c2VjcmV0\r\n")

	require.NoError(t, c.Open()) // SENT_GET -> ESTABLISHED
	assert.Equal(t, StateEstablished, c.State)
	assert.True(t, c.Works)
	assert.True(t, getSock.nonblocking)
	assert.NotNil(t, c.Reader())

	require.NoError(t, c.Open()) // ESTABLISHED is a no-op
	assert.Equal(t, StateEstablished, c.State)
}

func TestCredentialsWithAtInUser(t *testing.T) {
	u := mustParse(t, "alice@corp.com:pw@rt.example.com/MP1")
	assert.Equal(t, "alice@corp.com:pw", u.Credentials)
	assert.Equal(t, "rt.example.com", u.Host)
	assert.Equal(t, "MP1", u.Mountpoint)
}

func TestMountpointNotFoundTransitionsToErr(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;OTHER;ident;RTCM 3.0;;0;;;;;;0;;;none;N;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	require.NoError(t, c.Open())
	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, sourcetable.ErrMountpointNotFound)
	assert.Equal(t, StateErr, c.State)
	assert.True(t, probeSock.closed)
}

func TestUnsupportedCapabilityTransitionsToErr(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;MP1;ident;RTCM 3.0;;0;;;;;;0;;;gzip;N;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	require.NoError(t, c.Open())
	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, sourcetable.ErrUnsupportedCapability)
	assert.Equal(t, StateErr, c.State)
}

// TestUnauthorizedOnGet is §8 end-to-end scenario 5.
func TestUnauthorizedOnGet(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;MP1;ident;RTCM 3.0;;0;;;;;;0;;;none;N;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	getSock := &fakeSocket{reads: []readEvent{chunk("HTTP/1.1 401 Unauthorized\r\n")}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock, getSock}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	require.NoError(t, c.Open())
	require.NoError(t, c.Open())
	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, StateErr, c.State)
	assert.True(t, getSock.closed)
}

func TestRemoteRejectedOnGet(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;MP1;ident;RTCM 3.0;;0;;;;;;0;;;none;N;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	getSock := &fakeSocket{reads: []readEvent{chunk("SOURCETABLE 200 OK\r\nENDSOURCETABLE\r\n")}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock, getSock}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	require.NoError(t, c.Open())
	require.NoError(t, c.Open())
	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteRejected)
}

func TestProtocolErrorOnGet(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;MP1;ident;RTCM 3.0;;0;;;;;;0;;;none;N;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	getSock := &fakeSocket{reads: []readEvent{chunk("HTTP/1.1 500 Internal Server Error\r\n")}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock, getSock}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	require.NoError(t, c.Open())
	require.NoError(t, c.Open())
	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocolError)
}

func TestOpenAfterErrIsTerminal(t *testing.T) {
	dialer := &fakeDialer{errs: []error{errors.New("refused")}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	require.Error(t, c.Open())
	require.Equal(t, StateErr, c.State)

	err := c.Open()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTerminal)
}

// TestAtMostOneOpenSocket is the §8 invariant: the number of open sockets
// held by the connection record is <= 1, 0 in {INIT, ERR}, 1 elsewhere.
func TestAtMostOneOpenSocket(t *testing.T) {
	probeSock := &fakeSocket{reads: []readEvent{chunk(
		"SOURCETABLE 200 OK\r\n" +
			"STR;MP1;ident;RTCM 3.0;;0;;;;;;0;;;none;N;0;9600\r\n" +
			"ENDSOURCETABLE\r\n",
	)}}
	getSock := &fakeSocket{reads: []readEvent{chunk("ICY 200 OK\r\n")}}
	dialer := &fakeDialer{sockets: []*fakeSocket{probeSock, getSock}}
	c := New(dialer, mustParse(t, "rt.example.com/MP1"))

	assert.False(t, c.SocketOpen()) // INIT

	require.NoError(t, c.Open())
	assert.True(t, c.SocketOpen()) // SENT_PROBE

	require.NoError(t, c.Open())
	assert.True(t, c.SocketOpen()) // SENT_GET
	assert.True(t, probeSock.closed)

	require.NoError(t, c.Open())
	assert.True(t, c.SocketOpen()) // ESTABLISHED
}
