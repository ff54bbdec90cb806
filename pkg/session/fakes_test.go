package session

import (
	"context"
	"sync"
	"time"

	"github.com/YashavikaSingh/meeting-summariser/client"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
)

// fakeBackend records calls and answers from its function fields.
type fakeBackend struct {
	mu sync.Mutex

	summarize func(ctx context.Context, req client.SummarizeRequest) (*client.SummarizeResult, error)
	chat      func(ctx context.Context, req client.ChatRequest) (string, error)
	sendEmail func(ctx context.Context, req client.EmailRequest) error
	list      func(ctx context.Context) ([]meeting.Summary, error)
	get       func(ctx context.Context, id string) (*meeting.Detail, error)
	attendees func(ctx context.Context, id string, attendees []string) error
	del       func(ctx context.Context, id string) error

	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string]int{}}
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Summarize(ctx context.Context, req client.SummarizeRequest) (*client.SummarizeResult, error) {
	f.record("summarize")
	if f.summarize == nil {
		return &client.SummarizeResult{Summary: "summary"}, nil
	}
	return f.summarize(ctx, req)
}

func (f *fakeBackend) Chat(ctx context.Context, req client.ChatRequest) (string, error) {
	f.record("chat")
	if f.chat == nil {
		return "answer", nil
	}
	return f.chat(ctx, req)
}

func (f *fakeBackend) SendEmail(ctx context.Context, req client.EmailRequest) error {
	f.record("send_email")
	if f.sendEmail == nil {
		return nil
	}
	return f.sendEmail(ctx, req)
}

func (f *fakeBackend) ListMeetings(ctx context.Context) ([]meeting.Summary, error) {
	f.record("list")
	if f.list == nil {
		return []meeting.Summary{}, nil
	}
	return f.list(ctx)
}

func (f *fakeBackend) GetMeeting(ctx context.Context, id string) (*meeting.Detail, error) {
	f.record("get")
	if f.get == nil {
		return &meeting.Detail{ID: id}, nil
	}
	return f.get(ctx, id)
}

func (f *fakeBackend) UpdateAttendees(ctx context.Context, id string, attendees []string) error {
	f.record("attendees")
	if f.attendees == nil {
		return nil
	}
	return f.attendees(ctx, id, attendees)
}

func (f *fakeBackend) DeleteMeeting(ctx context.Context, id string) error {
	f.record("delete")
	if f.del == nil {
		return nil
	}
	return f.del(ctx, id)
}

// fakeScheduler captures scheduled functions so tests run them explicitly.
type fakeScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f}
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, t)
	return t
}

// fire runs every scheduled function that was not stopped.
func (s *fakeScheduler) fire() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	n := 0
	for _, t := range pending {
		if !t.stopped {
			t.f()
			n++
		}
	}
	return n
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *noticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) all() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notice(nil), l.notices...)
}
