package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/YashavikaSingh/meeting-summariser/client"
	"github.com/YashavikaSingh/meeting-summariser/cmdlog"
	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/credentials"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

const testMeetingID = "6f1c2b9e-4d1a-4c1e-9a51-2f0e8b7d3c10"

// fakeBackend records calls and serves canned meetings.
type fakeBackend struct {
	mu sync.Mutex

	meetings []meeting.Summary
	details  map[string]*meeting.Detail
	summary  string
	answer   string

	listErr    error
	getErr     error
	chatErr    error
	emailErr   error
	deleteErr  error
	processErr error

	summarized []client.SummarizeRequest
	chats      []client.ChatRequest
	emails     []client.EmailRequest
	attendees  map[string][]string
	deleted    []string
	processed  []string
	searches   []string
	token      string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		meetings: []meeting.Summary{
			{ID: testMeetingID, Name: "Weekly Sync", Date: "2026-10-12", Attendees: []string{"a@x.com"}, HasSummary: true},
			{ID: "0b3d5f7a", Name: "Retro", Date: "Unknown date"},
		},
		details: map[string]*meeting.Detail{
			testMeetingID: {
				ID:          testMeetingID,
				Name:        "Weekly Sync",
				Date:        "2026-10-12",
				Attendees:   []string{"a@x.com", "b@y.com"},
				Transcript:  "Alice: ship on Friday\nBob: I will update the checklist",
				Summary:     "## Summary\n*Ship* on **Friday**.",
				ActionItems: []string{"Bob updates the checklist"},
			},
		},
		summary:   "# Notes\nThe team agreed to *ship* on Friday.",
		answer:    "Bob owns the checklist.",
		attendees: make(map[string][]string),
	}
}

func (f *fakeBackend) Summarize(_ context.Context, req client.SummarizeRequest) (*client.SummarizeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarized = append(f.summarized, req)
	return &client.SummarizeResult{Summary: f.summary, Transcript: req.File.Content, MeetingID: testMeetingID}, nil
}

func (f *fakeBackend) Chat(_ context.Context, req client.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, req)
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.answer, nil
}

func (f *fakeBackend) SendEmail(_ context.Context, req client.EmailRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emailErr != nil {
		return f.emailErr
	}
	f.emails = append(f.emails, req)
	return nil
}

func (f *fakeBackend) ListMeetings(context.Context) ([]meeting.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]meeting.Summary(nil), f.meetings...), nil
}

func (f *fakeBackend) SearchMeetings(_ context.Context, query string, limit int) ([]meeting.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	var out []meeting.Summary
	for _, m := range f.meetings {
		if strings.Contains(strings.ToLower(m.Name), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBackend) GetMeeting(_ context.Context, id string) (*meeting.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.details[id]
	if !ok {
		return nil, &mserrors.NetworkError{Op: client.OpGetMeeting, StatusCode: 404, Message: "Meeting not found"}
	}
	c := *d
	return &c, nil
}

func (f *fakeBackend) UpdateAttendees(_ context.Context, id string, attendees []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attendees[id] = attendees
	return nil
}

func (f *fakeBackend) DeleteMeeting(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	f.meetings = meeting.Remove(f.meetings, id)
	return nil
}

func (f *fakeBackend) ProcessMeeting(_ context.Context, id string) (meeting.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.processErr != nil {
		return nil, f.processErr
	}
	f.processed = append(f.processed, id)
	if d, ok := f.details[id]; ok {
		d.KeyTopics = []string{"release date"}
		d.ProcessedAt = "2026-10-12T10:00:00Z"
	}
	return meeting.RawRecord{"status": "success", "message": "Meeting processed"}, nil
}

// fakeTokens is an in-memory TokenStore.
type fakeTokens struct {
	tokens map[string]string
}

func (s *fakeTokens) Save(backendURL, token string) error {
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}
	s.tokens[backendURL] = token
	return nil
}

func (s *fakeTokens) Load(backendURL string) (string, credentials.Source, error) {
	t, ok := s.tokens[backendURL]
	if !ok {
		return "", "", credentials.ErrNoCredentials
	}
	return t, credentials.SourceKeyring, nil
}

func (s *fakeTokens) Token(backendURL string) string { return s.tokens[backendURL] }

func (s *fakeTokens) Delete(backendURL string) error {
	delete(s.tokens, backendURL)
	return nil
}

// fakeCommandLog keeps entries in memory.
type fakeCommandLog struct {
	entries []cmdlog.Entry
	pingErr error
	closed  int
}

func (l *fakeCommandLog) LogCommand(_ context.Context, e *cmdlog.Entry) error {
	l.entries = append(l.entries, *e)
	return nil
}

func (l *fakeCommandLog) History(_ context.Context, command string, limit int) ([]cmdlog.Entry, error) {
	var out []cmdlog.Entry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if command != "" && l.entries[i].Command != command {
			continue
		}
		out = append(out, l.entries[i])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *fakeCommandLog) Ping(context.Context) error { return l.pingErr }

func (l *fakeCommandLog) Close() error {
	l.closed++
	return nil
}

type noopStopper struct{}

func (noopStopper) Stop() bool { return true }

func noopAfter(time.Duration, func()) session.Stopper { return noopStopper{} }

// testDeps wires a command to backend with a default configuration.
func testDeps(t *testing.T, backend *fakeBackend) *CommandDeps {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BackendURL = "http://summarizer.test"
	tokens := &fakeTokens{}
	return &CommandDeps{
		Config: cfg,
		Logger: logging.NewNopLogger(),
		Connect: func(_ context.Context, _ *config.CLIConfig, token string, _ logging.Logger, _ *client.Metrics) (Backend, func(), error) {
			backend.mu.Lock()
			backend.token = token
			backend.mu.Unlock()
			return backend, func() {}, nil
		},
		Credentials: tokens,
		Stdin:       strings.NewReader(""),
		IsTerminal:  func() bool { return false },
		AfterFunc:   noopAfter,
	}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
