package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashavikaSingh/meeting-summariser/config"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/transcript"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	metrics := NewMetrics("msum_test")
	opts := DefaultOptions()
	opts.InitialBackoff = time.Millisecond
	opts.MaxBackoff = 2 * time.Millisecond
	opts.Token = "secret-token"
	opts.Metrics = metrics

	c, err := New(srv.URL, opts)
	require.NoError(t, err)
	return c, metrics
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultMaxRetries, opts.MaxRetries)
	assert.Equal(t, DefaultInitialBackoff, opts.InitialBackoff)
	assert.Equal(t, DefaultMaxBackoff, opts.MaxBackoff)
	assert.Equal(t, DefaultBackoffMultiplier, opts.BackoffMultiplier)
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:3000", "://bad"} {
		_, err := New(raw, nil)
		assert.Error(t, err, raw)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BackendURL = "http://localhost:3000/"

	c, err := NewFromConfig(cfg, "tok", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", c.BaseURL())
}

func TestSummarize(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/summarize", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "msum/"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a@x.com,b@y.com", r.FormValue("emails"))
		assert.Equal(t, "Sync", r.FormValue("meeting_name"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "standup.txt", hdr.Filename)
		assert.Equal(t, "Alice: hi", string(data))

		writeJSON(w, http.StatusOK, map[string]any{
			"summary":    "**Key Point** Done",
			"transcript": "Alice: hi",
			"meeting_id": "m1",
		})
	})

	res, err := c.Summarize(context.Background(), SummarizeRequest{
		File:        &transcript.File{Name: "standup.txt", Content: "Alice: hi"},
		Emails:      "a@x.com,b@y.com",
		MeetingName: "Sync",
	})

	require.NoError(t, err)
	assert.Equal(t, &SummarizeResult{Summary: "**Key Point** Done", Transcript: "Alice: hi", MeetingID: "m1"}, res)
}

func TestSummarize_MissingSummaryIsDataShape(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"transcript": "t"})
	})

	_, err := c.Summarize(context.Background(), SummarizeRequest{File: &transcript.File{Name: "a.txt"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, mserrors.ErrDataShape)
}

func TestSummarize_ErrorEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "Transcript is empty"})
	})

	_, err := c.Summarize(context.Background(), SummarizeRequest{File: &transcript.File{Name: "a.txt"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, mserrors.ErrNetwork)
	assert.Equal(t, "Transcript is empty", mserrors.DisplayMessage(err))
}

func TestSummarize_SentinelMeetingIDIgnored(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"summary": "s", "meeting_id": "undefined"})
	})

	res, err := c.Summarize(context.Background(), SummarizeRequest{File: &transcript.File{Name: "a.txt"}})

	require.NoError(t, err)
	assert.Empty(t, res.MeetingID)
}

func TestSummarize_RequiresFile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})

	_, err := c.Summarize(context.Background(), SummarizeRequest{})

	assert.ErrorIs(t, err, mserrors.ErrValidation)
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"fastapi detail", http.StatusBadRequest, `{"detail":"Only .txt files are supported"}`, "Only .txt files are supported"},
		{"flask message", http.StatusNotFound, `{"status":"error","message":"Meeting not found"}`, "Meeting not found"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","query"],"msg":"field required"}]}`, "field required"},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"html page", http.StatusBadGateway, "<html>bad gateway</html>", mserrors.NetworkMessage},
		{"empty", http.StatusInternalServerError, "", mserrors.NetworkMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := c.SendEmail(context.Background(), EmailRequest{Summary: "s", Emails: "a@x.com"})

			require.Error(t, err)
			assert.ErrorIs(t, err, mserrors.ErrNetwork)
			assert.Equal(t, tt.want, mserrors.DisplayMessage(err))
		})
	}
}

func TestListMeetings_Normalizes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"meetings": []any{
				map[string]any{"id": "undefined", "name": "Ghost"},
				map[string]any{"id": "m1", "metadata": map[string]any{"meeting_name": "Planning"}},
				"not-an-object",
			},
			"total": 3,
		})
	})

	list, err := c.ListMeetings(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, "Planning", list[0].Name)
}

func TestListMeetings_DataShapeAndEnvelopeErrors(t *testing.T) {
	t.Run("missing meetings", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
		})
		_, err := c.ListMeetings(context.Background())
		assert.ErrorIs(t, err, mserrors.ErrDataShape)
	})

	t.Run("status error", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "index unavailable"})
		})
		_, err := c.ListMeetings(context.Background())
		assert.ErrorIs(t, err, mserrors.ErrNetwork)
		assert.Equal(t, "index unavailable", mserrors.DisplayMessage(err))
	})

	t.Run("not json", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		})
		_, err := c.ListMeetings(context.Background())
		assert.ErrorIs(t, err, mserrors.ErrDataShape)
	})
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"meetings": []any{}})
	})

	list, err := c.ListMeetings(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.requests.WithLabelValues(OpListMeetings, "503", "backend_unavailable")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues(OpListMeetings, "200", "ok")))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Meeting not found"})
	})

	_, err := c.GetMeeting(context.Background(), "m1")

	require.Error(t, err)
	assert.ErrorIs(t, err, mserrors.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Chat(context.Background(), ChatRequest{Query: "q", Transcript: "t"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChat(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What was decided?", body["query"])
		assert.Equal(t, "Alice: ship it", body["transcript"])
		assert.Equal(t, "m1", body["meeting_id"])
		writeJSON(w, http.StatusOK, map[string]any{"response": "Ship it."})
	})

	answer, err := c.Chat(context.Background(), ChatRequest{Query: "What was decided?", Transcript: "Alice: ship it", MeetingID: "m1"})

	require.NoError(t, err)
	assert.Equal(t, "Ship it.", answer)
}

func TestChat_MissingResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := c.Chat(context.Background(), ChatRequest{Query: "q"})

	assert.ErrorIs(t, err, mserrors.ErrDataShape)
}

func TestGetMeeting(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings/m1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"meeting": map[string]any{
				"id": "m1", "name": "Sync", "transcript": "t", "summary": "s",
				"attendees": []any{"a@x.com"},
			},
		})
	})

	d, err := c.GetMeeting(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "Sync", d.Name)
	assert.Equal(t, []string{"a@x.com"}, d.Attendees)
}

func TestDeleteMeeting_EscapesID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/meetings/a%2Fb", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "deleted"})
	})

	require.NoError(t, c.DeleteMeeting(context.Background(), "a/b"))
}

func TestUpdateAttendees(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/meetings/m1/attendees", r.URL.Path)
		var body struct {
			Attendees []string `json:"attendees"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a@x.com", "b@y.com"}, body.Attendees)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.UpdateAttendees(context.Background(), "m1", []string{"a@x.com", "b@y.com"}))
}

func TestSearchMeetings(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/meetings/search", r.URL.Path)
		assert.Equal(t, "roadmap review", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{"meetings": []any{
			map[string]any{"id": "m9", "name": "Roadmap", "has_summary": true},
		}})
	})

	list, err := c.SearchMeetings(context.Background(), "roadmap review", 3)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].HasSummary)
}

func TestProcessMeeting(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/process/m1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "processed"})
	})

	res, err := c.ProcessMeeting(context.Background(), "m1")

	require.NoError(t, err)
	msg, _ := res.Text("message")
	assert.Equal(t, "processed", msg)
}

func TestContextDeadline(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.DeleteMeeting(ctx, "m1")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, strings.Contains(mserrors.DisplayMessage(err), "timed out"))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Observe("op", 200, time.Millisecond, nil)
	assert.NoError(t, m.WriteTextfile("/nonexistent/path"))
	assert.Nil(t, m.Registry())
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics("msum")
	m.Observe(OpChat, 200, 30*time.Millisecond, nil)

	path := t.TempDir() + "/msum.prom"
	require.NoError(t, m.WriteTextfile(path))

	problems, err := testutil.GatherAndLint(m.Registry())
	require.NoError(t, err)
	assert.Empty(t, problems)
}
