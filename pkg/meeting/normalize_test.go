package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DropsSentinelIDs(t *testing.T) {
	records := []RawRecord{
		{"id": "undefined", "name": "Ghost"},
		{"id": "m-123", "name": "Standup"},
	}

	got := Normalize(records)

	require.Len(t, got, 1)
	assert.Equal(t, "m-123", got[0].ID)
	assert.Equal(t, "Standup", got[0].Name)
}

func TestNormalize_NeverEmitsUnaddressableIDs(t *testing.T) {
	records := []RawRecord{
		{"id": ""},
		{"id": "   "},
		{"id": "null"},
		{"meeting_id": "undefined"},
		{"metadata": map[string]any{"meeting_id": "null"}},
		{"name": "no id at all"},
		{"id": true},
	}

	got := Normalize(records)

	assert.Empty(t, got)
	for _, s := range got {
		assert.True(t, IsValidID(s.ID))
	}
}

func TestNormalize_IDFallbacks(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want string
	}{
		{"top-level id", RawRecord{"id": "a1", "meeting_id": "b2"}, "a1"},
		{"meeting_id", RawRecord{"meeting_id": "b2"}, "b2"},
		{"nested meeting_id", RawRecord{"metadata": map[string]any{"meeting_id": "c3"}}, "c3"},
		{"nested id", RawRecord{"metadata": map[string]any{"id": "d4"}}, "d4"},
		{"nested id before nested meeting_id", RawRecord{"metadata": map[string]any{"id": "d4", "meeting_id": "c3"}}, "d4"},
		{"numeric id", RawRecord{"id": float64(1234567)}, "1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := NormalizeOne(tt.rec)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.ID)
		})
	}
}

func TestNormalize_SentinelTopLevelIDDropsRecord(t *testing.T) {
	for _, rec := range []RawRecord{
		{"id": "null", "meeting_id": "b2"},
		{"id": "undefined", "metadata": map[string]any{"meeting_id": "c3"}},
		{"meeting_id": "null", "metadata": map[string]any{"id": "d4"}},
	} {
		_, ok := NormalizeOne(rec)
		assert.False(t, ok, "%v", rec)
	}
}

func TestNormalize_NameFallbacks(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want string
	}{
		{
			name: "top-level wins",
			rec:  RawRecord{"id": "abc", "name": "Top", "metadata": map[string]any{"meeting_name": "Nested"}},
			want: "Top",
		},
		{
			name: "nested meeting_name used when top-level absent",
			rec:  RawRecord{"id": "abc", "metadata": map[string]any{"meeting_name": "Nested"}},
			want: "Nested",
		},
		{
			name: "nested name used when top-level absent",
			rec:  RawRecord{"id": "abc", "metadata": map[string]any{"name": "Nested Name"}},
			want: "Nested Name",
		},
		{
			name: "blank top-level name ignored",
			rec:  RawRecord{"id": "abc", "name": "  ", "metadata": map[string]any{"name": "Nested Name"}},
			want: "Nested Name",
		},
		{
			name: "synthesized from id prefix",
			rec:  RawRecord{"id": "0123456789abcdef"},
			want: "Meeting 01234567",
		},
		{
			name: "short id kept whole",
			rec:  RawRecord{"id": "abc"},
			want: "Meeting abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := NormalizeOne(tt.rec)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Name)
		})
	}
}

func TestNormalize_DateFallbacks(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want string
	}{
		{"top-level", RawRecord{"id": "x", "date": "2024-03-01"}, "2024-03-01"},
		{"nested meeting_date", RawRecord{"id": "x", "metadata": map[string]any{"meeting_date": "2024-03-02"}}, "2024-03-02"},
		{"nested date", RawRecord{"id": "x", "metadata": map[string]any{"date": "2024-03-03"}}, "2024-03-03"},
		{"legacy timestamp", RawRecord{"id": "x", "timestamp": "2024-03-04T10:00:00"}, "2024-03-04T10:00:00"},
		{"unknown", RawRecord{"id": "x"}, UnknownDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := NormalizeOne(tt.rec)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Date)
		})
	}
}

func TestNormalize_Attendees(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want []string
	}{
		{"top-level array", RawRecord{"id": "x", "attendees": []any{"a@x.com", "b@y.com"}}, []string{"a@x.com", "b@y.com"}},
		{"nested array", RawRecord{"id": "x", "metadata": map[string]any{"attendees": []any{"c@z.com"}}}, []string{"c@z.com"}},
		{"non-string items skipped", RawRecord{"id": "x", "attendees": []any{"a@x.com", 7.0, nil}}, []string{"a@x.com"}},
		{"not an array", RawRecord{"id": "x", "attendees": "a@x.com"}, []string{}},
		{"missing", RawRecord{"id": "x"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := NormalizeOne(tt.rec)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Attendees)
		})
	}
}

func TestNormalize_Flags(t *testing.T) {
	tests := []struct {
		name         string
		rec          RawRecord
		wantSummary  bool
		wantEnhanced bool
	}{
		{"explicit flags", RawRecord{"id": "x", "has_summary": true, "has_enhanced_data": true}, true, true},
		{"nested summary", RawRecord{"id": "x", "metadata": map[string]any{"summary": "done"}}, true, false},
		{"blank nested summary", RawRecord{"id": "x", "metadata": map[string]any{"summary": " "}}, false, false},
		{"top-level summary", RawRecord{"id": "x", "summary": "done"}, true, false},
		{"enhanced keys", RawRecord{"id": "x", "metadata": map[string]any{"key_topics": []any{}}}, false, true},
		{"nothing", RawRecord{"id": "x", "has_summary": "yes"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := NormalizeOne(tt.rec)
			require.True(t, ok)
			assert.Equal(t, tt.wantSummary, s.HasSummary)
			assert.Equal(t, tt.wantEnhanced, s.HasEnhancedData)
		})
	}
}

func TestNormalize_PureAndDeterministic(t *testing.T) {
	records := []RawRecord{
		{"id": "m1", "metadata": map[string]any{"meeting_name": "One", "attendees": []any{"a@x.com"}}},
		{"id": "null"},
		{"meeting_id": "m2", "date": "2024-01-01"},
	}
	before := len(records)

	first := Normalize(records)
	second := Normalize(records)

	assert.Equal(t, first, second)
	assert.Len(t, records, before)
	assert.Equal(t, "null", records[1]["id"])
	_, added := records[0]["name"]
	assert.False(t, added)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.NotNil(t, Normalize(nil))
}

func TestRemove(t *testing.T) {
	list := []Summary{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	got := Remove(list, "b")

	assert.Equal(t, []Summary{{ID: "a"}, {ID: "c"}}, got)
	assert.Len(t, list, 3)
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("m1"))
	assert.False(t, IsValidID(""))
	assert.False(t, IsValidID("  "))
	assert.False(t, IsValidID("undefined"))
	assert.False(t, IsValidID("null"))
}
