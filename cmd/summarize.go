package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
	"github.com/YashavikaSingh/meeting-summariser/pkg/transcript"
)

type summarizeOptions struct {
	name   string
	emails string
	send   bool
}

// summaryView is the machine-readable result of a summarization.
type summaryView struct {
	MeetingID string            `json:"meeting_id,omitempty" yaml:"meeting_id,omitempty"`
	Name      string            `json:"name" yaml:"name"`
	Attendees []string          `json:"attendees" yaml:"attendees"`
	File      string            `json:"file,omitempty" yaml:"file,omitempty"`
	Summary   string            `json:"summary" yaml:"summary"`
	Stats     *transcript.Stats `json:"transcript_stats,omitempty" yaml:"transcript_stats,omitempty"`
	EmailSent bool              `json:"email_sent" yaml:"email_sent"`
}

// NewSummarizeCommand creates the 'summarize' command.
func NewSummarizeCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	opts := &summarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize <transcript.txt|captions.vtt>",
		Short: "Summarize a meeting transcript",
		Long: `Upload a meeting transcript and print the generated summary.

The meeting name and the attendee list are required, as in the wizard.
Attendees are given as a comma-separated list of email addresses and are
stored with the meeting. Use --send to mail the summary to them afterwards.

WebVTT caption exports (.vtt) are converted to a speaker-labelled .txt
transcript before upload.

Examples:
  # Summarize a transcript
  msum summarize standup.txt --name "Daily Standup" --emails "a@x.com,b@y.com"

  # Summarize and mail the attendees
  msum summarize standup.txt --name "Daily Standup" --emails a@x.com --send

  # Machine-readable output
  msum summarize standup.txt --name Sync --emails a@x.com --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd.Context(), deps, opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Meeting name (required)")
	cmd.Flags().StringVarP(&opts.emails, "emails", "e", "", "Comma-separated attendee emails (required)")
	cmd.Flags().BoolVar(&opts.send, "send", false, "Email the summary to the attendees")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("emails")

	return cmd
}

func runSummarize(ctx context.Context, deps *CommandDeps, opts *summarizeOptions, path string, out, errOut io.Writer) error {
	file, err := transcript.Open(path)
	if err != nil {
		return err
	}

	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	m := deps.machine(cfg, backend, errOut, nil)
	defer m.Close()

	m.SetMeetingName(opts.name)
	m.SetAttendeeEmails(opts.emails)
	if err := m.GoNext(); err != nil {
		return err
	}
	if err := m.SelectFile(ctx, file); err != nil {
		return err
	}

	if file.ConvertedFrom != "" {
		fmt.Fprintf(errOut, "Converted captions %s to %s\n", file.ConvertedFrom, file.Name)
	}
	fmt.Fprintf(errOut, "Summarizing %s (%s)...\n", file.Name, file.SizeLabel())
	if err := m.Submit(ctx); err != nil {
		return fmt.Errorf("summarizing transcript: %w", err)
	}

	view := summaryView{File: file.Name}
	if opts.send {
		if err := m.SendSummaryEmail(ctx); err != nil {
			return fmt.Errorf("sending summary: %w", err)
		}
		view.EmailSent = true
	}

	s := m.State()
	stats := transcript.Analyze(s.TranscriptText)
	view.MeetingID = s.MeetingID
	view.Name = s.MeetingName
	view.Attendees = meeting.SplitEmails(s.AttendeeEmails)
	view.Summary = s.SummaryText
	view.Stats = &stats

	return writeOutput(out, cfg.OutputFormat, view, func(w io.Writer) error {
		renderSummary(w, s)
		fmt.Fprintf(w, "\nTranscript: %d words, %d lines", stats.Words, stats.Lines)
		if len(stats.Speakers) > 0 {
			fmt.Fprintf(w, ", %d speakers", len(stats.Speakers))
		}
		fmt.Fprintln(w)
		return nil
	})
}

// renderSummary prints the review step of a session.
func renderSummary(w io.Writer, s session.State) {
	fmt.Fprintf(w, "Meeting:   %s\n", s.MeetingName)
	if s.MeetingID != "" {
		fmt.Fprintf(w, "ID:        %s\n", s.MeetingID)
	}
	if s.AttendeeEmails != "" {
		fmt.Fprintf(w, "Attendees: %s\n", meeting.JoinEmails(meeting.SplitEmails(s.AttendeeEmails)))
	}
	fmt.Fprintf(w, "\nSummary:\n%s\n", indent(meeting.CleanSummary(s.SummaryText), "  "))
}
