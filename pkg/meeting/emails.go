package meeting

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmails reports whether raw is a usable comma-separated attendee list:
// it holds at least one address and every non-empty trimmed segment looks like
// local@domain.tld.
func ValidateEmails(raw string) bool {
	addrs := SplitEmails(raw)
	if len(addrs) == 0 {
		return false
	}
	for _, a := range addrs {
		if !emailPattern.MatchString(a) {
			return false
		}
	}
	return true
}

// SplitEmails returns the trimmed, non-empty comma-separated segments of raw.
func SplitEmails(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinEmails renders an attendee list back into comma-separated input form.
func JoinEmails(addrs []string) string {
	return strings.Join(addrs, ", ")
}
