package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/YashavikaSingh/meeting-summariser/client"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/transcript"
)

// Default timings.
const (
	DefaultDeleteTimeout = 10 * time.Second
	DefaultRefreshDelay  = time.Second
)

// Messages shown for local validation failures.
const (
	msgNameRequired   = "Please enter a meeting name."
	msgInvalidEmails  = "Please enter valid email addresses."
	msgFileRequired   = "Please select a transcript file."
	msgInvalidID      = "Invalid meeting ID."
	msgNoSummary      = "There is no summary to send."
	msgEmptyQuestion  = "Please enter a question."
	msgNothingToAsk   = "Summarize or load a meeting before asking questions."
	msgDeletePrompt   = "Are you sure you want to delete this meeting? This action cannot be undone."
	msgDeleted        = "Meeting deleted successfully."
	msgEmailSent      = "Summary sent successfully!"
	msgChatNoResponse = "Sorry, I could not process that request."
	msgChatFailed     = "Sorry, there was an error processing your request. Please try again."
)

// Backend is the subset of the summarizer API the session drives.
type Backend interface {
	Summarize(ctx context.Context, req client.SummarizeRequest) (*client.SummarizeResult, error)
	Chat(ctx context.Context, req client.ChatRequest) (string, error)
	SendEmail(ctx context.Context, req client.EmailRequest) error
	ListMeetings(ctx context.Context) ([]meeting.Summary, error)
	GetMeeting(ctx context.Context, id string) (*meeting.Detail, error)
	UpdateAttendees(ctx context.Context, id string, attendees []string) error
	DeleteMeeting(ctx context.Context, id string) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// AlwaysConfirm accepts every prompt.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(n Notice)

func (f NotifyFunc) Notify(n Notice) { f(n) }

// Stopper cancels a scheduled function.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. time.AfterFunc satisfies it through
// DefaultAfterFunc.
type AfterFunc func(d time.Duration, f func()) Stopper

// DefaultAfterFunc schedules with time.AfterFunc.
func DefaultAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Options configures a Machine.
type Options struct {
	Backend Backend

	// Confirmer defaults to AlwaysConfirm.
	Confirmer Confirmer
	Notifier  Notifier
	Logger    logging.Logger
	AfterFunc AfterFunc

	// AutoSubmit starts summarization as soon as a file is selected with a
	// valid name and recipient list.
	AutoSubmit bool

	DeleteTimeout time.Duration
	RefreshDelay  time.Duration
}

// readiness is the auto-submit precondition as last observed by SelectFile.
type readiness struct {
	file   *transcript.File
	name   string
	emails string
	ready  bool
}

// sameInputs reports whether r and o describe the same file, name and recipients.
func (r readiness) sameInputs(o readiness) bool {
	return sameFile(r.file, o.file) && r.name == o.name && r.emails == o.emails
}

// Machine owns one session. All methods are safe for concurrent use; the lock
// is never held across a backend call.
type Machine struct {
	mu    sync.Mutex
	state State
	// generation changes on every reset so in-flight results for an abandoned
	// session are dropped.
	generation uint64
	observed   readiness
	refresh    Stopper

	backend   Backend
	confirmer Confirmer
	notifier  Notifier
	logger    logging.Logger
	afterFunc AfterFunc

	autoSubmit    bool
	deleteTimeout time.Duration
	refreshDelay  time.Duration
}

// New creates a Machine at the recipients step.
func New(opts Options) *Machine {
	m := &Machine{
		backend:       opts.Backend,
		confirmer:     opts.Confirmer,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		afterFunc:     opts.AfterFunc,
		autoSubmit:    opts.AutoSubmit,
		deleteTimeout: opts.DeleteTimeout,
		refreshDelay:  opts.RefreshDelay,
	}
	if m.confirmer == nil {
		m.confirmer = AlwaysConfirm
	}
	if m.notifier == nil {
		m.notifier = NotifyFunc(func(Notice) {})
	}
	if m.logger == nil {
		m.logger = logging.NewNopLogger()
	}
	m.logger = m.logger.With(logging.F("component", "session"))
	if m.afterFunc == nil {
		m.afterFunc = DefaultAfterFunc
	}
	if m.deleteTimeout <= 0 {
		m.deleteTimeout = DefaultDeleteTimeout
	}
	if m.refreshDelay <= 0 {
		m.refreshDelay = DefaultRefreshDelay
	}
	m.state.Step = StepRecipients
	return m
}

// State returns a copy of the current session state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Close stops any pending list refresh.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refresh != nil {
		m.refresh.Stop()
		m.refresh = nil
	}
}

// SetMeetingName sets the meeting name.
func (m *Machine) SetMeetingName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.MeetingName = name
}

// SetAttendeeEmails sets the raw comma-separated recipient list.
func (m *Machine) SetAttendeeEmails(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.AttendeeEmails = raw
}

// SelectFile sets the transcript to summarize. At the upload step it advances
// to review. With auto-submit enabled, summarization starts when the
// selection makes the session ready where it was not before, or changes the
// file, meeting name or recipients while ready; re-selecting with identical
// inputs never resubmits.
func (m *Machine) SelectFile(ctx context.Context, file *transcript.File) error {
	m.mu.Lock()
	m.state.SelectedFile = file
	if file != nil && m.state.Step == StepUpload {
		m.state.Step = StepReview
	}

	current := readiness{
		file:   file,
		name:   strings.TrimSpace(m.state.MeetingName),
		emails: strings.TrimSpace(m.state.AttendeeEmails),
		ready:  file != nil && m.detailsValidLocked() == nil,
	}
	fire := m.autoSubmit && current.ready &&
		(!m.observed.ready || !m.observed.sameInputs(current))
	m.observed = current
	m.mu.Unlock()

	if !fire {
		return nil
	}
	m.logger.Debug("auto-submitting transcript", logging.F("file", file.Name))
	return m.Submit(ctx)
}

func sameFile(a, b *transcript.File) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// detailsValidLocked checks the recipients step inputs.
func (m *Machine) detailsValidLocked() error {
	if strings.TrimSpace(m.state.MeetingName) == "" {
		return mserrors.NewValidationError("meeting_name", msgNameRequired)
	}
	if !meeting.ValidateEmails(m.state.AttendeeEmails) {
		return mserrors.NewValidationError("emails", msgInvalidEmails)
	}
	return nil
}

// GoNext advances one step. A blocked transition returns a ValidationError,
// records it as the last error and leaves the step unchanged. Review is the
// last step; GoNext there is a no-op.
func (m *Machine) GoNext() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.Step {
	case StepRecipients:
		if err := m.detailsValidLocked(); err != nil {
			m.state.LastError = mserrors.DisplayMessage(err)
			return err
		}
		m.state.Step = StepUpload
	case StepUpload:
		if m.state.SelectedFile == nil {
			err := mserrors.NewValidationError("file", msgFileRequired)
			m.state.LastError = mserrors.DisplayMessage(err)
			return err
		}
		m.state.Step = StepReview
	}
	return nil
}

// GoBack moves back one step, stopping at recipients.
func (m *Machine) GoBack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Step > StepRecipients {
		m.state.Step--
	}
}

// Reset returns to an empty session at the recipients step. The past-meetings
// list and the flags of operations still in flight are kept.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	prev := m.state
	m.state = State{
		Step:           StepRecipients,
		Meetings:       prev.Meetings,
		IsProcessing:   prev.IsProcessing,
		IsSendingEmail: prev.IsSendingEmail,
		IsDeleting:     prev.IsDeleting,
		IsChatting:     prev.IsChatting,
		IsLoading:      prev.IsLoading,
	}
	m.observed = readiness{}
	m.generation++
}

// begin sets an in-flight flag, or returns ErrBusy when it is already set.
func (m *Machine) begin(flag func(*State) *bool) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := flag(&m.state)
	if *p {
		return 0, mserrors.ErrBusy
	}
	*p = true
	return m.generation, nil
}

// stale reports whether the session was reset since gen was taken.
func (m *Machine) stale(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen != m.generation
}

func (m *Machine) end(flag func(*State) *bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*flag(&m.state) = false
}

func processing(s *State) *bool  { return &s.IsProcessing }
func sendingEmail(s *State) *bool { return &s.IsSendingEmail }
func deleting(s *State) *bool    { return &s.IsDeleting }
func chatting(s *State) *bool    { return &s.IsChatting }
func loading(s *State) *bool     { return &s.IsLoading }

// fail records err as the last error and returns it.
func (m *Machine) fail(msg string, err error) error {
	m.logger.Warn(msg, logging.Err(err))
	m.mu.Lock()
	m.state.LastError = mserrors.DisplayMessage(err)
	m.mu.Unlock()
	return err
}

// Submit uploads the selected transcript and stores the generated summary. On
// success the session moves to review, the attendee list is stored with the
// meeting when the backend assigned an id, and the past-meetings list is
// refreshed.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.state.SelectedFile == nil {
		m.mu.Unlock()
		return m.fail("submit without a file", mserrors.NewValidationError("file", msgFileRequired))
	}
	if m.state.IsProcessing {
		m.mu.Unlock()
		return mserrors.ErrBusy
	}
	m.state.IsProcessing = true
	m.state.SummaryText = ""
	m.state.TranscriptText = ""
	m.state.ProcessingComplete = false
	m.state.LastError = ""
	m.state.Chat = nil
	gen := m.generation
	req := client.SummarizeRequest{
		File:        m.state.SelectedFile,
		Emails:      m.state.AttendeeEmails,
		MeetingName: strings.TrimSpace(m.state.MeetingName),
	}
	m.mu.Unlock()
	defer m.end(processing)

	log := m.logger.With(logging.F("file", req.File.Name))
	log.Info("summarizing transcript", logging.F("size", req.File.Size))

	res, err := m.backend.Summarize(ctx, req)
	if err != nil {
		if m.stale(gen) {
			log.Debug("session reset during summarize, not recording error", logging.Err(err))
			return err
		}
		return m.fail("summarize failed", err)
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		log.Debug("session reset during summarize, dropping result")
		return nil
	}
	m.state.SummaryText = meeting.CleanSummary(res.Summary)
	m.state.TranscriptText = res.Transcript
	m.state.MeetingID = res.MeetingID
	m.state.ProcessingComplete = true
	m.state.Step = StepReview
	m.mu.Unlock()

	log.Info("summary ready", logging.F("meeting_id", res.MeetingID))

	if attendees := meeting.SplitEmails(req.Emails); res.MeetingID != "" && len(attendees) > 0 {
		if err := m.backend.UpdateAttendees(ctx, res.MeetingID, attendees); err != nil {
			log.Warn("storing attendees failed", logging.F("meeting_id", res.MeetingID), logging.Err(err))
		}
	}

	if err := m.RefreshMeetings(ctx); err != nil {
		log.Warn("refreshing meetings after submit failed", logging.Err(err))
	}
	return nil
}

// SendSummaryEmail mails the current summary to the attendee list.
func (m *Machine) SendSummaryEmail(ctx context.Context) error {
	m.mu.Lock()
	var invalid error
	switch {
	case !meeting.ValidateEmails(m.state.AttendeeEmails):
		invalid = mserrors.NewValidationError("emails", msgInvalidEmails)
	case strings.TrimSpace(m.state.SummaryText) == "":
		invalid = mserrors.NewValidationError("summary", msgNoSummary)
	}
	req := client.EmailRequest{
		Summary:   m.state.SummaryText,
		Emails:    strings.Join(meeting.SplitEmails(m.state.AttendeeEmails), ","),
		MeetingID: m.state.MeetingID,
	}
	m.mu.Unlock()

	if invalid != nil {
		return m.fail("email not sent", invalid)
	}

	if _, err := m.begin(sendingEmail); err != nil {
		return err
	}
	defer m.end(sendingEmail)

	if err := m.backend.SendEmail(ctx, req); err != nil {
		err = m.fail("sending summary email failed", err)
		m.notifier.Notify(Notice{Kind: NoticeError, Message: "Failed to send email: " + mserrors.DisplayMessage(err)})
		return err
	}

	m.logger.Info("summary emailed", logging.F("recipients", strings.Count(req.Emails, ",")+1))
	m.notifier.Notify(Notice{Kind: NoticeSuccess, Message: msgEmailSent})
	return nil
}
