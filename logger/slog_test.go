package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogLogger_JSONOutput(t *testing.T) {
	require := require.New(t)

	var out bytes.Buffer
	l := New(Options{Level: InfoLevel, Output: &out})

	l.Debug("hidden")
	l.Info("connected", "port", "SIMULATED", "baud", 115200)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(lines, 1)

	var rec map[string]any
	require.NoError(json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal("connected", rec["msg"])
	require.Equal("SIMULATED", rec["port"])
	require.Contains(rec, "ts")
}

func TestSlogLogger_FileFanout(t *testing.T) {
	require := require.New(t)

	var out, file bytes.Buffer
	l := New(Options{Level: DebugLevel, Output: &out, File: &file})

	l.With("component", "worker").Warn("stalled", "index", 3)

	require.Contains(out.String(), `"component":"worker"`)
	require.Contains(file.String(), `"component":"worker"`)
	require.Contains(file.String(), `"index":3`)
}

func TestSlogLogger_SetLevel(t *testing.T) {
	require := require.New(t)

	var out bytes.Buffer
	l := New(Options{Level: ErrorLevel, Output: &out})
	require.Equal(ErrorLevel, l.Level())

	child := l.With("k", "v")
	child.Info("dropped")
	require.Empty(out.String())

	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, child.Level())
	child.Debug("kept")
	require.Contains(out.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level Level
		ok    bool
	}{
		{"debug", DebugLevel, true},
		{"INFO", InfoLevel, true},
		{"", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"fatal", FatalLevel, true},
		{"verbose", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, ok := ParseLevel(tt.in)
			require.Equal(t, tt.level, level)
			require.Equal(t, tt.ok, ok)
		})
	}
}
