package gcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var axisWordRe = regexp.MustCompile(`[XYZ]-?\d+\.?\d*`)

// Position is the last known tool coordinate.
type Position struct {
	X, Y, Z float64
}

func (p Position) String() string {
	return fmt.Sprintf("X%.3f Y%.3f Z%.3f", p.X, p.Y, p.Z)
}

// Advance returns p updated with the X, Y and Z words found in line.
// Axes that line does not mention keep their value.
func (p Position) Advance(line string) Position {
	for _, word := range axisWordRe.FindAllString(strings.ToUpper(line), -1) {
		v, err := strconv.ParseFloat(word[1:], 64)
		if err != nil {
			continue
		}

		switch word[0] {
		case 'X':
			p.X = v
		case 'Y':
			p.Y = v
		case 'Z':
			p.Z = v
		}
	}

	return p
}

// HasAxisWord reports whether line carries any X, Y or Z word.
func HasAxisWord(line string) bool {
	return axisWordRe.MatchString(strings.ToUpper(line))
}
