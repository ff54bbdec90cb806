// Package meeting holds the canonical meeting records shown by msum and the pure
// functions that derive them from backend payloads.
//
// The backend has changed shape across versions: identifiers, names and dates may
// live at the top level of a record or under a nested "metadata" object, under
// different spellings, or be missing entirely. Everything in this package is pure
// and deterministic so that the reconciliation can be tested without a network.
package meeting

import (
	"fmt"
	"strconv"
	"strings"
)

// RawRecord is a decoded JSON object exactly as the backend returned it.
type RawRecord map[string]any

// Sentinel identifiers the backend has been observed to emit instead of omitting the field.
const (
	sentinelUndefined = "undefined"
	sentinelNull      = "null"
)

// Fallback display values.
const (
	UnknownDate = "Unknown date"
	namePrefix  = "Meeting "
	idPrefixLen = 8
)

// IsValidID reports whether id can address a meeting for load or delete.
func IsValidID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != sentinelUndefined && id != sentinelNull
}

// metadata returns the nested metadata object, or nil.
func (r RawRecord) metadata() RawRecord {
	if m, ok := r["metadata"].(map[string]any); ok {
		return m
	}
	if m, ok := r["metadata"].(RawRecord); ok {
		return m
	}
	return nil
}

// str returns the value at key as a trimmed string. Numbers are formatted without
// an exponent so numeric ids from older backends survive.
func (r RawRecord) str(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	switch v := r[key].(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case fmt.Stringer:
		s := strings.TrimSpace(v.String())
		return s, s != ""
	}
	return "", false
}

// Text returns the value at key as a trimmed, non-empty string.
func (r RawRecord) Text(key string) (string, bool) {
	return r.str(key)
}

// stringList returns the value at key as a string slice when it is an array.
func (r RawRecord) stringList(key string) ([]string, bool) {
	if r == nil {
		return nil, false
	}
	switch v := r[key].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// items returns an array value with every element rendered as text.
func (r RawRecord) items(key string) []string {
	if r == nil {
		return nil
	}
	arr, ok := r[key].([]any)
	if !ok {
		if ss, ok := r.stringList(key); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		switch v := item.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// flag reports whether key holds the boolean true.
func (r RawRecord) flag(key string) bool {
	if r == nil {
		return false
	}
	b, ok := r[key].(bool)
	return ok && b
}

// has reports whether key is present at all.
func (r RawRecord) has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r[key]
	return ok
}

// firstString returns the first present, non-empty string among the candidates.
func firstString(candidates ...func() (string, bool)) (string, bool) {
	for _, c := range candidates {
		if s, ok := c(); ok {
			return s, true
		}
	}
	return "", false
}

func lookup(r RawRecord, key string) func() (string, bool) {
	return func() (string, bool) { return r.str(key) }
}

// resolveID takes the first identifier present, top-level before nested. A
// sentinel value there drops the record rather than falling through.
func resolveID(r RawRecord) (string, bool) {
	md := r.metadata()
	id, ok := firstString(lookup(r, "id"), lookup(r, "meeting_id"), lookup(md, "id"), lookup(md, "meeting_id"))
	if !ok || !IsValidID(id) {
		return "", false
	}
	return id, true
}

func resolveName(r RawRecord, id string) string {
	md := r.metadata()
	if name, ok := firstString(lookup(r, "name"), lookup(md, "meeting_name"), lookup(md, "name")); ok {
		return name
	}
	return DefaultName(id)
}

func resolveDate(r RawRecord) string {
	md := r.metadata()
	if date, ok := firstString(lookup(r, "date"), lookup(md, "meeting_date"), lookup(md, "date"), lookup(r, "timestamp")); ok {
		return date
	}
	return UnknownDate
}

func resolveAttendees(r RawRecord) []string {
	if a, ok := r.stringList("attendees"); ok {
		return a
	}
	if a, ok := r.metadata().stringList("attendees"); ok {
		return a
	}
	return []string{}
}

// DefaultName synthesizes a display name from the first characters of id.
func DefaultName(id string) string {
	runes := []rune(id)
	if len(runes) > idPrefixLen {
		runes = runes[:idPrefixLen]
	}
	return namePrefix + string(runes)
}
