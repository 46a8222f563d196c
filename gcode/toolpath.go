package gcode

import (
	"math"
	"strings"
)

// Segment is one straight move between two positions.
type Segment struct {
	From, To Position
	// Rapid is true for G0 moves.
	Rapid bool
}

// Bounds is the axis-aligned box enclosing a toolpath.
type Bounds struct {
	Min, Max Position
}

// Size returns the extent along each axis.
func (b Bounds) Size() Position {
	return Position{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y, Z: b.Max.Z - b.Min.Z}
}

// Toolpath is the straight-move outline of a program.
type Toolpath struct {
	Segments []Segment
	Bounds   Bounds
	// Length is the summed length of all segments, rapid moves included.
	Length float64
}

// Trace walks the G0/G1 moves of p from the origin. Other commands are
// skipped; arcs and canned cycles are not expanded.
func Trace(p Program) Toolpath {
	var (
		tp  Toolpath
		pos Position
	)

	for _, line := range p.All() {
		rapid, ok := moveKind(line)
		if !ok {
			continue
		}

		next := pos.Advance(line)
		if len(tp.Segments) == 0 {
			tp.Bounds = Bounds{Min: pos, Max: pos}
		}
		tp.Segments = append(tp.Segments, Segment{From: pos, To: next, Rapid: rapid})
		tp.Bounds.extend(next)
		tp.Length += distance(pos, next)
		pos = next
	}

	return tp
}

func moveKind(line string) (rapid bool, ok bool) {
	switch leadingWord(line) {
	case "G0", "G00":
		return true, true
	case "G1", "G01":
		return false, true
	default:
		return false, false
	}
}

// leadingWord returns the first letter and its digits, e.g. "G01" for "G01X5".
func leadingWord(line string) string {
	s := strings.ToUpper(strings.TrimSpace(line))
	end := 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	return s[:min(end, len(s))]
}

func (b *Bounds) extend(p Position) {
	b.Min = Position{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
	b.Max = Position{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
}

func distance(a, b Position) float64 {
	return math.Sqrt((b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y) + (b.Z-a.Z)*(b.Z-a.Z))
}
