// Package gcode turns program text into the sanitized command sequence that a
// stream sends to a controller.
//
// A raw line is kept only when, after its trailing comment is removed, it
// starts with a G, M or T word:
//
//	G1 X1 Y2 ; move   -> "G1 X1 Y2"
//	(header)          -> dropped
//	M3 S1000 (spindle) -> "M3 S1000"
//
// Nothing else about a line is interpreted. Position and Trace scan the
// X/Y/Z words of sent lines to approximate where the tool is; they reflect
// what was sent, not confirmed motion.
package gcode
