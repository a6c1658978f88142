package logging

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestErrorAndWarnAlwaysVisibleAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, log.InfoLevel, "ntripclient")

	logger.Error("dial failed: %v", "timeout")
	logger.Warn("retrying %d", 3)

	out := buf.String()
	assert.Contains(t, out, "dial failed: timeout")
	assert.Contains(t, out, "retrying 3")
	assert.Contains(t, out, "component=ntripclient")
}

func TestDataAndIOHiddenBelowDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, log.InfoLevel, "sourcetable")

	logger.Data("str record: %s", "mount1")
	logger.IO("wrote %d bytes", 42)

	assert.Empty(t, buf.String())
}

func TestDataAndIOVisibleAtDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, log.DebugLevel, "sourcetable")

	logger.Data("str record: %s", "mount1")
	logger.IO("wrote %d bytes", 42)

	out := buf.String()
	assert.Contains(t, out, "str record: mount1")
	assert.Contains(t, out, "level_kind=data")
	assert.Contains(t, out, "wrote 42 bytes")
	assert.Contains(t, out, "level_kind=io")
}

func TestSpinAndRawOnlyVisibleAtTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, log.DebugLevel, "state")
	logger.Spin("tick")
	logger.Raw("%x", []byte{0xD3})
	assert.Empty(t, buf.String())

	buf.Reset()
	logger = New(&buf, log.TraceLevel, "state")
	logger.Spin("tick")
	logger.Raw("%x", []byte{0xD3})
	out := buf.String()
	assert.Contains(t, out, "tick")
	assert.Contains(t, out, "level_kind=spin")
	assert.Contains(t, out, "d3")
	assert.Contains(t, out, "level_kind=raw")
}

func TestWithFieldTagsSubsequentLines(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, log.InfoLevel, "ntripclient").WithField("mountpoint", "MOUNT1")
	logger.Error("unauthorized")
	assert.Contains(t, buf.String(), "mountpoint=MOUNT1")
}
