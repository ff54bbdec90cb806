package meeting

import (
	"regexp"
	"strings"
)

// headingPrefix matches one or more heading markers at the start of a line.
var headingPrefix = regexp.MustCompile(`(?m)^[ \t]*(?:#+[ \t]*)+`)

// CleanSummary strips markdown markers the summary view does not render: leading
// heading markers and single-asterisk emphasis. Double-asterisk strong markers are
// kept. Cleaning runs to a fixed point, so CleanSummary(CleanSummary(s)) == CleanSummary(s).
func CleanSummary(s string) string {
	for {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = headingPrefix.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = stripEmphasis(line)
	}
	return strings.Join(lines, "\n")
}

// stripEmphasis removes paired single asterisks within one line. A star is single
// when neither neighbour is a star; an opener must be followed by a non-space and a
// closer preceded by one, so list bullets ("* item") are left alone.
func stripEmphasis(line string) string {
	if !strings.Contains(line, "*") {
		return line
	}

	b := []byte(line)
	single := func(i int) bool {
		return b[i] == '*' &&
			(i == 0 || b[i-1] != '*') &&
			(i == len(b)-1 || b[i+1] != '*')
	}

	drop := make(map[int]bool)
	open := -1
	for i := range b {
		if !single(i) {
			continue
		}
		if open < 0 {
			if i+1 < len(b) && !isSpace(b[i+1]) {
				open = i
			}
			continue
		}
		if !isSpace(b[i-1]) && i-open > 1 {
			drop[open] = true
			drop[i] = true
			open = -1
			continue
		}
		if i+1 < len(b) && !isSpace(b[i+1]) {
			open = i
		}
	}

	if len(drop) == 0 {
		return line
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for i, c := range b {
		if !drop[i] {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
