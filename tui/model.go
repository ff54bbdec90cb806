// Package tui is the interactive meeting summarizer wizard.
package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
	"github.com/YashavikaSingh/meeting-summariser/pkg/transcript"
)

type mode int

const (
	modeWizard mode = iota
	modeHistory
	modeConfirmDelete
	modeChat
)

// recipients step field indices
const (
	fieldName = iota
	fieldEmails
	fieldCount
)

// Operation names carried by opDoneMsg.
const (
	opRefresh = "refresh"
	opSelect  = "select"
	opSubmit  = "submit"
	opEmail   = "email"
	opLoad    = "load"
	opDelete  = "delete"
	opChat    = "chat"
)

// opDoneMsg reports the end of a backend operation.
type opDoneMsg struct {
	op  string
	err error
}

// refreshedMsg is sent when the delayed list refresh has run.
type refreshedMsg struct{}

// noticeBox collects notifications raised by the session.
type noticeBox struct {
	mu      sync.Mutex
	pending []session.Notice
}

func (b *noticeBox) Notify(n session.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, n)
}

// drain returns the most recent pending notice.
func (b *noticeBox) drain() (session.Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return session.Notice{}, false
	}
	n := b.pending[len(b.pending)-1]
	b.pending = nil
	return n, true
}

// Model is the bubbletea model of the wizard.
type Model struct {
	ctx     context.Context
	machine *session.Machine
	notices *noticeBox

	nameInput   textinput.Model
	emailsInput textinput.Model
	pathInput   textinput.Model
	chatInput   textinput.Model
	focus       int

	spinner spinner.Model
	busy    string // label of the running operation, empty when idle
	busyOp  string

	mode          mode
	cursor        int
	pendingDelete string

	notice   *session.Notice
	opErr    string
	width    int
	height   int
	quitting bool
}

// newModel builds the wizard around a session machine whose notifications
// are delivered to notices.
func newModel(ctx context.Context, machine *session.Machine, notices *noticeBox) Model {
	ni := textinput.New()
	ni.Placeholder = "Weekly sync"
	ni.CharLimit = 200
	ni.Focus()

	ei := textinput.New()
	ei.Placeholder = "alice@example.com, bob@example.com"
	ei.CharLimit = 1000

	pi := textinput.New()
	pi.Placeholder = "~/transcripts/standup.txt"
	pi.CharLimit = 500

	ci := textinput.New()
	ci.Placeholder = "Ask about this meeting..."
	ci.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	if notices == nil {
		notices = &noticeBox{}
	}

	return Model{
		ctx:         ctx,
		machine:     machine,
		notices:     notices,
		nameInput:   ni,
		emailsInput: ei,
		pathInput:   pi,
		chatInput:   ci,
		spinner:     sp,
		width:       100,
		height:      30,
	}
}

// Init loads the past meetings list in the background.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(opRefresh, m.machine.RefreshMeetings))
}

// run starts fn in the background and keeps the spinner ticking until it ends.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return tea.Batch(
		func() tea.Msg {
			return opDoneMsg{op: op, err: fn(ctx)}
		},
		m.spinner.Tick,
	)
}

func (m Model) start(label, op string, fn func(context.Context) error) (Model, tea.Cmd) {
	m.busy = label
	m.busyOp = op
	m.notice = nil
	m.opErr = ""
	return m, m.run(op, fn)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case opDoneMsg:
		return m.finish(msg), nil

	case refreshedMsg:
		m.clampCursor()
		if n, ok := m.notices.drain(); ok {
			m.notice = &n
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy != "" {
			return m, nil
		}
		switch m.mode {
		case modeHistory:
			return m.updateHistory(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeChat:
			return m.updateChat(msg)
		default:
			return m.updateWizard(msg)
		}
	}
	return m, nil
}

// finish applies the outcome of a background operation.
func (m Model) finish(msg opDoneMsg) Model {
	if msg.op == m.busyOp {
		m.busy = ""
		m.busyOp = ""
	}
	if n, ok := m.notices.drain(); ok {
		m.notice = &n
	}

	s := m.machine.State()
	if msg.err != nil && s.LastError == "" && m.notice == nil {
		m.opErr = mserrors.DisplayMessage(msg.err)
	}

	switch msg.op {
	case opLoad:
		if msg.err == nil {
			m.mode = modeWizard
		}
	case opDelete:
		m.mode = modeHistory
		m.pendingDelete = ""
	case opChat:
		m.mode = modeChat
	}

	m.clampCursor()
	m.syncInputs(s)
	m.focusStep(s.Step)
	return m
}

// syncInputs copies the session's name and emails into the text inputs.
func (m *Model) syncInputs(s session.State) {
	if m.nameInput.Value() != s.MeetingName {
		m.nameInput.SetValue(s.MeetingName)
	}
	if m.emailsInput.Value() != s.AttendeeEmails {
		m.emailsInput.SetValue(s.AttendeeEmails)
	}
	if s.SelectedFile == nil && s.Step == session.StepRecipients {
		m.pathInput.Reset()
	}
}

// focusStep focuses the input belonging to step.
func (m *Model) focusStep(step session.Step) {
	m.nameInput.Blur()
	m.emailsInput.Blur()
	m.pathInput.Blur()
	m.chatInput.Blur()

	if m.mode == modeChat {
		m.chatInput.Focus()
		return
	}
	if m.mode != modeWizard {
		return
	}
	switch step {
	case session.StepRecipients:
		if m.focus == fieldEmails {
			m.emailsInput.Focus()
		} else {
			m.nameInput.Focus()
		}
	case session.StepUpload:
		m.pathInput.Focus()
	}
}

func (m *Model) clampCursor() {
	n := len(m.machine.State().Meetings)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) enterHistory() (Model, tea.Cmd) {
	m.mode = modeHistory
	m.notice = nil
	m.opErr = ""
	m.clampCursor()
	m.focusStep(m.machine.State().Step)
	return m, nil
}

func (m Model) updateWizard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+l" {
		return m.enterHistory()
	}

	s := m.machine.State()
	switch s.Step {
	case session.StepRecipients:
		return m.updateRecipients(msg)
	case session.StepUpload:
		return m.updateUpload(msg)
	default:
		return m.updateReview(msg, s)
	}
}

func (m Model) updateRecipients(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.focus = (m.focus + 1) % fieldCount
		m.focusStep(session.StepRecipients)
		return m, nil

	case "enter":
		m.opErr = ""
		if err := m.machine.GoNext(); err == nil {
			m.focusStep(m.machine.State().Step)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == fieldEmails {
		m.emailsInput, cmd = m.emailsInput.Update(msg)
		m.machine.SetAttendeeEmails(m.emailsInput.Value())
	} else {
		m.nameInput, cmd = m.nameInput.Update(msg)
		m.machine.SetMeetingName(m.nameInput.Value())
	}
	return m, cmd
}

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.machine.GoBack()
		m.focusStep(m.machine.State().Step)
		return m, nil

	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		machine := m.machine
		return m.start("Reading transcript", opSelect, func(ctx context.Context) error {
			file, err := transcript.Open(path)
			if err != nil {
				return err
			}
			return machine.SelectFile(ctx, file)
		})
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) updateReview(msg tea.KeyMsg, s session.State) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "s":
		if !s.ProcessingComplete && s.SelectedFile != nil {
			return m.start("Summarizing", opSubmit, m.machine.Submit)
		}

	case "e":
		if s.HasSummary() {
			return m.start("Sending email", opEmail, m.machine.SendSummaryEmail)
		}

	case "c":
		if s.HasSummary() {
			m.mode = modeChat
			m.notice = nil
			m.opErr = ""
			m.focusStep(s.Step)
		}

	case "l":
		return m.enterHistory()

	case "n":
		m.machine.Reset()
		m.notice = nil
		m.opErr = ""
		m.focus = fieldName
		m.pathInput.Reset()
		m.chatInput.Reset()
		next := m.machine.State()
		m.syncInputs(next)
		m.focusStep(next.Step)

	case "esc", "b":
		m.machine.GoBack()
		m.focusStep(m.machine.State().Step)

	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	meetings := m.machine.State().Meetings

	switch msg.String() {
	case "esc", "q":
		m.mode = modeWizard
		m.focusStep(m.machine.State().Step)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(meetings)-1 {
			m.cursor++
		}

	case "r":
		return m.start("Loading meetings", opRefresh, m.machine.RefreshMeetings)

	case "enter":
		if len(meetings) == 0 {
			return m, nil
		}
		id := meetings[m.cursor].ID
		machine := m.machine
		m.chatInput.Reset()
		return m.start("Loading meeting", opLoad, func(ctx context.Context) error {
			return machine.LoadMeeting(ctx, id)
		})

	case "d", "delete":
		if len(meetings) == 0 {
			return m, nil
		}
		m.pendingDelete = meetings[m.cursor].ID
		m.mode = modeConfirmDelete
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	switch msg.String() {
	case "y", "Y":
		machine := m.machine
		return m.start("Deleting meeting", opDelete, func(ctx context.Context) error {
			_, err := machine.DeleteMeeting(ctx, id)
			return err
		})
	default:
		m.pendingDelete = ""
		m.mode = modeHistory
		return m, nil
	}
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeWizard
		m.focusStep(m.machine.State().Step)
		return m, nil

	case "enter":
		question := strings.TrimSpace(m.chatInput.Value())
		if question == "" {
			return m, nil
		}
		m.chatInput.Reset()
		machine := m.machine
		return m.start("Thinking", opChat, func(ctx context.Context) error {
			_, err := machine.Ask(ctx, question)
			return err
		})
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}
