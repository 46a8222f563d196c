package gcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSendable(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"G0 X10", true},
		{"  G1 Y5 F100  ", true},
		{"M3 S1000", true},
		{"T1 M6", true},
		{"G21", true},
		{"", false},
		{"   ", false},
		{"\t", false},
		{"; full line comment", false},
		{"(header comment)", false},
		{"  ; indented comment", false},
		{"X10 Y5", false},
		{"Generated by slicer", false},
		{"G", false},
		{"g1 x1", false},
		{"%", false},
		{"$H", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			require.Equal(t, tt.want, IsSendable(tt.line))
		})
	}
}

func TestStripTrailingComment(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"G1 X1 Y2 ; move", "G1 X1 Y2"},
		{"G1 X1 Y2;move", "G1 X1 Y2"},
		{"M3 S1000 (spindle on)", "M3 S1000"},
		{"G0 X10", "G0 X10"},
		{"  G0 X10  ", "G0 X10"},
		{"G1 X1 ; move (fast)", "G1 X1"},
		{"G1 (a;b)", "G1"},
		{"G1 (inline) X5", "G1 (inline) X5"},
		{"G1 (inline) X5 ; tail", "G1 (inline) X5"},
		{"; only comment", ""},
		{"(only comment)", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			require.Equal(t, tt.want, StripTrailingComment(tt.line))
		})
	}
}

func TestStripTrailingComment_RemovesOnlySuffix(t *testing.T) {
	commands := []string{"G0 X10", "G1 Y5 F100", "M5", "T2 M6", "G1 X-1.5 Z0.25"}
	suffixes := []string{" ; note", ";x", "   (cut pass 2)", "(a)", " ;"}

	for _, cmd := range commands {
		for _, suffix := range suffixes {
			require.Equal(t, cmd, StripTrailingComment(cmd+suffix), "line %q", cmd+suffix)
		}
	}
}

func TestSanitize(t *testing.T) {
	s, ok := Sanitize("G1 X1 Y2 ; move")
	require.True(t, ok)
	require.Equal(t, "G1 X1 Y2", s)

	_, ok = Sanitize("(G1 X1)")
	require.False(t, ok)
}
