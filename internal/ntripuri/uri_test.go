package ntripuri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, NTRIP, Classify("ntrip://host/MP"))
	assert.Equal(t, NTRIP, Classify("NTRIP://host/MP"))
	assert.Equal(t, DGPSIP, Classify("dgpsip://host:2101"))
	assert.Equal(t, UnknownScheme, Classify("host:2101"))
}

func TestDispatchStrict(t *testing.T) {
	_, err := Dispatch("host:2101", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestDispatchNonStrictDefaultsToDGPSIP(t *testing.T) {
	scheme, err := Dispatch("host:2101", false)
	require.NoError(t, err)
	assert.Equal(t, DGPSIP, scheme)
}

func TestParseNTRIP(t *testing.T) {
	cases := []struct {
		name        string
		remainder   string
		credentials string
		host        string
		port        string
		mountpoint  string
	}{
		{
			name:        "credential contains @",
			remainder:   "user@host.com:pw@host:2101/MP",
			credentials: "user@host.com:pw",
			host:        "host",
			port:        "2101",
			mountpoint:  "MP",
		},
		{
			name:        "credential contains :",
			remainder:   "a:b:c@host/MP",
			credentials: "a:b:c",
			host:        "host",
			mountpoint:  "MP",
		},
		{
			name:       "no credentials no port",
			remainder:  "host/MP",
			host:       "host",
			mountpoint: "MP",
		},
		{
			name:       "no credentials with port",
			remainder:  "host:2101/MP",
			host:       "host",
			port:       "2101",
			mountpoint: "MP",
		},
		{
			name:        "second end to end scenario: user@host in credentials, no port",
			remainder:   "alice@corp.com:pw@rt.example.com/MP1",
			credentials: "alice@corp.com:pw",
			host:        "rt.example.com",
			mountpoint:  "MP1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseNTRIP(tc.remainder)
			require.NoError(t, err)
			assert.Equal(t, tc.credentials, got.Credentials)
			assert.Equal(t, tc.host, got.Host)
			assert.Equal(t, tc.port, got.Port)
			assert.Equal(t, tc.mountpoint, got.Mountpoint)
		})
	}
}

func TestParseNTRIPMissingMountpoint(t *testing.T) {
	_, err := ParseNTRIP("host:2101")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingMountpoint)
}

func TestParseNTRIPNoAtNoSplit(t *testing.T) {
	// An '@' with no ':' to its left must not be treated as a credential
	// delimiter.
	got, err := ParseNTRIP("weirdhost@nodomain/MP")
	require.NoError(t, err)
	assert.Empty(t, got.Credentials)
	assert.Equal(t, "weirdhost@nodomain", got.Host)
}

func TestResolvePortExplicit(t *testing.T) {
	assert.Equal(t, "9000", ResolvePort("9000"))
}

func TestResolvePortDefault(t *testing.T) {
	// rtcm-sc104 is not registered on most hosts; either the resolved
	// service port or the literal fallback is acceptable, but it must
	// never be empty.
	assert.NotEmpty(t, ResolvePort(""))
}
