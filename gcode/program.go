package gcode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
)

// MaxLineLength is the longest raw line Parse accepts.
const MaxLineLength = 64 * 1024

var (
	// ErrBinarySource is returned when the program text contains NUL bytes.
	ErrBinarySource = errors.New("gcode: source is not text")
	// ErrLineTooLong is returned when a raw line exceeds MaxLineLength.
	ErrLineTooLong = errors.New("gcode: line too long")
)

// Program is an immutable, ordered sequence of sanitized commands.
// The zero value is an empty program.
type Program struct {
	lines []string
}

// NewProgram sanitizes lines and keeps the sendable ones in order.
func NewProgram(lines ...string) Program {
	kept := make([]string, 0, len(lines))
	for _, raw := range lines {
		if s, ok := Sanitize(raw); ok {
			kept = append(kept, s)
		}
	}

	return Program{lines: kept}
}

// Len returns the number of commands.
func (p Program) Len() int { return len(p.lines) }

// IsEmpty reports whether the program has no commands.
func (p Program) IsEmpty() bool { return len(p.lines) == 0 }

// Line returns the i-th command. It panics if i is out of range.
func (p Program) Line(i int) string { return p.lines[i] }

// Lines returns a copy of the commands.
func (p Program) Lines() []string { return slices.Clone(p.lines) }

// All iterates over index and command.
func (p Program) All() iter.Seq2[int, string] {
	return slices.All(p.lines)
}

// Parse reads newline-delimited program text from r. Only sendable lines are
// kept, comment-stripped, in their original order. On error no program is
// returned.
func Parse(r io.Reader) (Program, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineLength)

	var (
		lines  []string
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if bytes.IndexByte(raw, 0) >= 0 {
			return Program{}, fmt.Errorf("%w: NUL byte on line %d", ErrBinarySource, lineNo)
		}

		if s, ok := Sanitize(string(raw)); ok {
			lines = append(lines, s)
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Program{}, fmt.Errorf("%w: after line %d", ErrLineTooLong, lineNo)
		}

		return Program{}, fmt.Errorf("gcode: read program: %w", err)
	}

	return Program{lines: lines}, nil
}

// ParseString is Parse over an in-memory source.
func ParseString(src string) (Program, error) {
	return Parse(bytes.NewBufferString(src))
}

// LoadFile parses the program stored at path.
func LoadFile(path string) (Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return Program{}, fmt.Errorf("gcode: open program: %w", err)
	}
	defer f.Close()

	return Parse(f)
}
