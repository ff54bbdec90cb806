// Package session implements the three-step summarization workflow: collect the
// meeting name and recipients, upload a transcript, then review, mail or discuss
// the generated summary. A Machine owns the session state; front ends (the CLI
// commands and the terminal wizard) drive it and render snapshots of it.
package session

import (
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/transcript"
)

// Step is a position in the workflow.
type Step int

const (
	StepRecipients Step = iota
	StepUpload
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepRecipients:
		return "recipients"
	case StepUpload:
		return "upload"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the follow-up conversation about a meeting.
type ChatMessage struct {
	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// State is a snapshot of the session.
type State struct {
	Step           Step
	MeetingName    string
	AttendeeEmails string
	SelectedFile   *transcript.File
	MeetingID      string
	SummaryText    string
	TranscriptText string

	IsProcessing   bool
	IsSendingEmail bool
	IsDeleting     bool
	IsChatting     bool
	IsLoading      bool

	// LastError is the message of the most recent failure, empty once cleared.
	LastError          string
	ProcessingComplete bool

	Meetings []meeting.Summary
	Chat     []ChatMessage
}

// Busy reports whether any backend operation is in flight.
func (s State) Busy() bool {
	return s.IsProcessing || s.IsSendingEmail || s.IsDeleting || s.IsChatting || s.IsLoading
}

// HasSummary reports whether the session holds a summary to review.
func (s State) HasSummary() bool {
	return s.SummaryText != ""
}

func (s State) clone() State {
	out := s
	if s.SelectedFile != nil {
		f := *s.SelectedFile
		out.SelectedFile = &f
	}
	out.Meetings = append([]meeting.Summary(nil), s.Meetings...)
	out.Chat = append([]ChatMessage(nil), s.Chat...)
	return out
}

// NoticeKind distinguishes success and failure notices.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a message the user has to see before continuing.
type Notice struct {
	Kind    NoticeKind
	Message string
}
