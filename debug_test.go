//nolint:paralleltest // Tests modify package-level debug state, cannot run in parallel
package openlog

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"testing"

	testutil "github.com/ZaparooProject/go-openlog/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDebug points the session log at a buffer until the test ends.
func captureDebug(t *testing.T) *bytes.Buffer {
	t.Helper()
	origEnabled, origWriter := debugEnabled, sessionLogWriter
	t.Cleanup(func() {
		debugEnabled = origEnabled
		sessionLogWriter = origWriter
	})

	var buf bytes.Buffer
	sessionLogWriter = &buf
	debugEnabled = false
	return &buf
}

func TestDebugf_WritesToSessionLog(t *testing.T) {
	buf := captureDebug(t)

	Debugf("test message %d", 42)

	assert.Contains(t, buf.String(), "DEBUG: test message 42\n")
}

func TestDebugf_IncludesTimestamp(t *testing.T) {
	buf := captureDebug(t)

	Debugf("test message")

	matched, err := regexp.MatchString(`^\d{2}:\d{2}:\d{2}\.\d{3} DEBUG:`, buf.String())
	require.NoError(t, err)
	assert.True(t, matched, "Should start with HH:MM:SS.mmm, got: %s", buf.String())
}

func TestDebugf_NilSessionWriter(t *testing.T) {
	captureDebug(t)
	sessionLogWriter = nil

	assert.NotPanics(t, func() {
		Debugf("test message %d", 42)
		Debugln("test", "message")
	})
}

func TestDebugln_MultipleArgs(t *testing.T) {
	buf := captureDebug(t)

	Debugln("value1", 42, "value2", true)

	// fmt.Sprint adds spaces only between two non-string operands
	assert.Contains(t, buf.String(), "value142value2true")
}

func TestDebugf_MultipleMessages(t *testing.T) {
	buf := captureDebug(t)

	Debugf("message 1")
	Debugf("message 2")
	Debugf("message 3")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Contains(t, line, "message "+strconv.Itoa(i+1))
	}
}

func TestSetDebugEnabled(t *testing.T) {
	captureDebug(t)

	SetDebugEnabled(true)
	assert.True(t, debugEnabled)

	SetDebugEnabled(false)
	assert.False(t, debugEnabled)
}

func TestDebug_DeviceTraffic(t *testing.T) {
	buf := captureDebug(t)

	dev, err := New(testutil.NewVirtualOpenLog())
	require.NoError(t, err)
	require.NoError(t, dev.MakeDirectory(context.Background(), "LOGS"))
	_, err = io.WriteString(dev, "hello")
	require.NoError(t, err)

	content := buf.String()
	assert.Contains(t, content, `OpenLog 0x2A TX command "md LOGS"`)
	assert.Contains(t, content, "OpenLog 0x2A TX 5 data bytes")
}
