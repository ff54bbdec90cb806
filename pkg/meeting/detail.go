package meeting

import (
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
)

// Detail is a single meeting as loaded for review.
type Detail struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Date        string   `json:"date" yaml:"date"`
	Attendees   []string `json:"attendees" yaml:"attendees"`
	Transcript  string   `json:"transcript" yaml:"transcript"`
	Summary     string   `json:"summary" yaml:"summary"`
	ActionItems []string `json:"action_items,omitempty" yaml:"action_items,omitempty"`
	KeyTopics   []string `json:"key_topics,omitempty" yaml:"key_topics,omitempty"`
	Decisions   []string `json:"decisions,omitempty" yaml:"decisions,omitempty"`
	NextSteps   []string `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
	ProcessedAt string   `json:"processed_at,omitempty" yaml:"processed_at,omitempty"`
}

// ParseDetail extracts a Detail from a GET /api/meetings/{id} payload.
//
// Current backends wrap the record as {"status": ..., "meeting": {...}}; the first
// release returned the record flat with a comma-separated "emails" field. A payload
// matching neither shape is a DataShapeError.
func ParseDetail(id string, payload RawRecord) (*Detail, error) {
	rec, err := detailRecord(payload)
	if err != nil {
		return nil, err
	}

	if rid, ok := resolveID(rec); ok {
		id = rid
	}

	md := rec.metadata()
	d := &Detail{
		ID:          id,
		Name:        resolveName(rec, id),
		Date:        resolveDate(rec),
		Attendees:   resolveAttendees(rec),
		ActionItems: firstItems(rec, md, "action_items"),
		KeyTopics:   firstItems(rec, md, "key_topics"),
		Decisions:   firstItems(rec, md, "decisions"),
		NextSteps:   firstItems(rec, md, "next_steps"),
	}
	d.Transcript, _ = firstString(lookupRaw(rec, "transcript"), lookupRaw(md, "transcript"))
	d.Summary, _ = firstString(lookupRaw(rec, "summary"), lookupRaw(md, "summary"))
	d.ProcessedAt, _ = firstString(lookup(rec, "processed_at"), lookup(md, "processed_at"))

	if len(d.Attendees) == 0 {
		if emails, ok := rec.str("emails"); ok {
			d.Attendees = SplitEmails(emails)
		}
	}

	return d, nil
}

func detailRecord(payload RawRecord) (RawRecord, error) {
	if payload == nil {
		return nil, &mserrors.DataShapeError{Op: "get_meeting", Field: "meeting"}
	}
	if v, ok := payload["meeting"]; ok {
		switch m := v.(type) {
		case map[string]any:
			return m, nil
		case RawRecord:
			return m, nil
		}
		return nil, &mserrors.DataShapeError{Op: "get_meeting", Field: "meeting"}
	}
	if payload.has("transcript") || payload.has("summary") {
		return payload, nil
	}
	return nil, &mserrors.DataShapeError{Op: "get_meeting", Field: "meeting"}
}

// lookupRaw keeps surrounding whitespace so transcripts round-trip exactly.
func lookupRaw(r RawRecord, key string) func() (string, bool) {
	return func() (string, bool) {
		if r == nil {
			return "", false
		}
		s, ok := r[key].(string)
		return s, ok && s != ""
	}
}

func firstItems(rec, md RawRecord, key string) []string {
	if items := rec.items(key); len(items) > 0 {
		return items
	}
	return md.items(key)
}
