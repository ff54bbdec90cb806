package meeting

// Summary is the canonical list-display form of a meeting.
type Summary struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Date            string   `json:"date" yaml:"date"`
	Attendees       []string `json:"attendees" yaml:"attendees"`
	HasSummary      bool     `json:"has_summary" yaml:"has_summary"`
	HasEnhancedData bool     `json:"has_enhanced_data" yaml:"has_enhanced_data"`
}

// enhancedKeys mark records the backend has run its extended analysis on.
var enhancedKeys = []string{"action_items", "key_topics", "decisions", "next_steps"}

// Normalize converts raw backend records into canonical summaries. Records without
// a usable identifier are dropped. The input is never modified.
func Normalize(records []RawRecord) []Summary {
	out := make([]Summary, 0, len(records))
	for _, r := range records {
		if s, ok := NormalizeOne(r); ok {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeOne converts a single raw record. It returns false when the record
// cannot be addressed by id.
func NormalizeOne(r RawRecord) (Summary, bool) {
	id, ok := resolveID(r)
	if !ok {
		return Summary{}, false
	}

	return Summary{
		ID:              id,
		Name:            resolveName(r, id),
		Date:            resolveDate(r),
		Attendees:       resolveAttendees(r),
		HasSummary:      hasSummary(r),
		HasEnhancedData: hasEnhancedData(r),
	}, true
}

func hasSummary(r RawRecord) bool {
	if r.flag("has_summary") {
		return true
	}
	if _, ok := r.metadata().str("summary"); ok {
		return true
	}
	_, ok := r.str("summary")
	return ok
}

func hasEnhancedData(r RawRecord) bool {
	if r.flag("has_enhanced_data") {
		return true
	}
	md := r.metadata()
	for _, k := range enhancedKeys {
		if md.has(k) {
			return true
		}
	}
	return false
}

// Remove returns summaries without the meeting identified by id.
func Remove(list []Summary, id string) []Summary {
	out := make([]Summary, 0, len(list))
	for _, s := range list {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
