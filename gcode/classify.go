package gcode

import "strings"

// IsSendable reports whether line is a command worth sending: after trimming
// whitespace it is non-empty, is not a ';' or '(' comment and begins with a
// G, M or T word followed by at least one digit.
func IsSendable(line string) bool {
	s := strings.TrimSpace(line)
	if len(s) < 2 {
		return false
	}

	switch s[0] {
	case 'G', 'M', 'T':
		return s[1] >= '0' && s[1] <= '9'
	default:
		return false
	}
}

// StripTrailingComment removes a trailing "; ..." comment or a parenthesized
// "( ... )" comment that runs to the end of the line, then trims whitespace.
// Parenthesized text followed by other words is left in place.
func StripTrailingComment(line string) string {
	s := strings.TrimSpace(line)

	cut := strings.IndexByte(s, ';')
	if strings.HasSuffix(s, ")") {
		if open := strings.IndexByte(s, '('); open >= 0 && (cut < 0 || open < cut) {
			cut = open
		}
	}

	if cut >= 0 {
		s = s[:cut]
	}

	return strings.TrimSpace(s)
}

// Sanitize strips the trailing comment of line and reports whether the
// remainder is sendable.
func Sanitize(line string) (string, bool) {
	s := StripTrailingComment(line)
	return s, IsSendable(s)
}
