package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

// DefaultSearchLimit is the number of search results shown by default.
const DefaultSearchLimit = 10

// NewMeetingsCommand creates the root meetings command with all subcommands.
func NewMeetingsCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Manage past meetings",
		Long: `List, inspect, search and delete meetings stored by the summarizer backend.

Examples:
  # List past meetings
  msum meetings list

  # Show one meeting with its summary
  msum meetings show 6f1c2b9e

  # Find meetings about a topic
  msum meetings search "quarterly roadmap"

  # Delete a meeting without prompting
  msum meetings delete 6f1c2b9e --yes`,
		Aliases: []string{"meeting"},
	}

	cmd.AddCommand(newMeetingsListCommand(deps))
	cmd.AddCommand(newMeetingsShowCommand(deps))
	cmd.AddCommand(newMeetingsDeleteCommand(deps))
	cmd.AddCommand(newMeetingsSearchCommand(deps))
	cmd.AddCommand(newMeetingsAttendeesCommand(deps))
	cmd.AddCommand(newMeetingsProcessCommand(deps))

	return cmd
}

func newMeetingsListCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List past meetings",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsList(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runMeetingsList(ctx context.Context, deps *CommandDeps, out, errOut io.Writer) error {
	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	m := deps.machine(cfg, backend, errOut, nil)
	defer m.Close()

	if err := m.RefreshMeetings(ctx); err != nil {
		return fmt.Errorf("listing meetings: %w", err)
	}

	meetings := m.State().Meetings
	return writeOutput(out, cfg.OutputFormat, map[string]interface{}{
		"meetings": meetings,
		"count":    len(meetings),
	}, func(w io.Writer) error {
		return outputMeetingListText(w, meetings)
	})
}

// outputMeetingListText formats a meeting list for terminal display.
func outputMeetingListText(w io.Writer, meetings []meeting.Summary) error {
	if len(meetings) == 0 {
		fmt.Fprintln(w, "No meetings found.")
		return nil
	}

	fmt.Fprintf(w, "Meetings (%d):\n\n", len(meetings))
	fmt.Fprintf(w, "  %-36s  %-32s  %-20s  %-9s  %s\n", "ID", "NAME", "DATE", "ATTENDEES", "SUMMARY")
	for _, m := range meetings {
		fmt.Fprintf(w, "  %-36s  %-32s  %-20s  %-9d  %s\n",
			truncate(m.ID, 36), truncate(m.Name, 32), truncate(m.Date, 20), len(m.Attendees), yesNo(m.HasSummary))
	}
	fmt.Fprintln(w)
	return nil
}

func newMeetingsShowCommand(deps *CommandDeps) *cobra.Command {
	var showTranscript bool

	cmd := &cobra.Command{
		Use:         "show <meeting-id>",
		Short:       "Show a meeting's summary and details",
		Annotations: meetingArg,
		Long: `Show a stored meeting: name, date, attendees, summary and, when the
backend has analysed it, action items, key topics, decisions and next steps.

Examples:
  msum meetings show 6f1c2b9e
  msum meetings show 6f1c2b9e --transcript
  msum meetings show 6f1c2b9e --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsShow(cmd.Context(), deps, args[0], showTranscript, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&showTranscript, "transcript", "t", false, "Include the full transcript")
	return cmd
}

func runMeetingsShow(ctx context.Context, deps *CommandDeps, id string, withTranscript bool, out io.Writer) error {
	if !meeting.IsValidID(id) {
		return mserrors.NewValidationError("meeting_id", "Invalid meeting ID.")
	}

	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := backend.GetMeeting(ctx, id)
	if err != nil {
		return fmt.Errorf("loading meeting %s: %w", id, err)
	}
	if !withTranscript {
		view := *d
		view.Transcript = ""
		d = &view
	}

	return writeOutput(out, cfg.OutputFormat, d, func(w io.Writer) error {
		outputMeetingDetailText(w, d)
		return nil
	})
}

func outputMeetingDetailText(w io.Writer, d *meeting.Detail) {
	fmt.Fprintf(w, "Meeting:   %s\n", d.Name)
	fmt.Fprintf(w, "ID:        %s\n", d.ID)
	fmt.Fprintf(w, "Date:      %s\n", d.Date)
	if len(d.Attendees) > 0 {
		fmt.Fprintf(w, "Attendees: %s\n", meeting.JoinEmails(d.Attendees))
	}
	if d.ProcessedAt != "" {
		fmt.Fprintf(w, "Analysed:  %s\n", d.ProcessedAt)
	}

	if d.Summary != "" {
		fmt.Fprintf(w, "\nSummary:\n%s\n", indent(meeting.CleanSummary(d.Summary), "  "))
	} else {
		fmt.Fprintln(w, "\nNo summary available.")
	}

	printList(w, "Action items", d.ActionItems)
	printList(w, "Key topics", d.KeyTopics)
	printList(w, "Decisions", d.Decisions)
	printList(w, "Next steps", d.NextSteps)

	if d.Transcript != "" {
		fmt.Fprintf(w, "\nTranscript:\n%s\n", indent(d.Transcript, "  "))
	}
}

func newMeetingsDeleteCommand(deps *CommandDeps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:         "delete <meeting-id>",
		Short:       "Delete a meeting",
		Annotations: meetingArg,
		Long: `Delete a stored meeting. This cannot be undone.

You are asked to confirm unless --yes is given. Without a terminal, --yes is required.

Examples:
  msum meetings delete 6f1c2b9e
  msum meetings delete 6f1c2b9e --yes`,
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsDelete(cmd.Context(), deps, args[0], yes, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func runMeetingsDelete(ctx context.Context, deps *CommandDeps, id string, yes bool, out, errOut io.Writer) error {
	var confirmer session.Confirmer = session.AlwaysConfirm
	if !yes {
		if !deps.terminal() {
			return fmt.Errorf("refusing to delete without confirmation; pass --yes when not running in a terminal")
		}
		confirmer = newLineConfirmer(deps.stdin(), errOut)
	}

	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	m := deps.machine(cfg, backend, out, confirmer)
	defer m.Close()

	deleted, err := m.DeleteMeeting(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting meeting %s: %w", id, err)
	}
	if !deleted {
		fmt.Fprintln(errOut, "Cancelled.")
	}
	return nil
}

func newMeetingsSearchCommand(deps *CommandDeps) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search past meetings",
		Long: `Search stored meetings by meaning rather than exact words.

Examples:
  msum meetings search "hiring plan"
  msum meetings search budget --limit 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsSearch(cmd.Context(), deps, strings.Join(args, " "), limit, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")
	return cmd
}

func runMeetingsSearch(ctx context.Context, deps *CommandDeps, query string, limit int, out io.Writer) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return mserrors.NewValidationError("query", "Please enter a search query.")
	}

	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := backend.SearchMeetings(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("searching meetings: %w", err)
	}

	return writeOutput(out, cfg.OutputFormat, map[string]interface{}{
		"query":    query,
		"meetings": results,
		"count":    len(results),
	}, func(w io.Writer) error {
		return outputMeetingListText(w, results)
	})
}

func newMeetingsAttendeesCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:         "attendees <meeting-id> <emails>",
		Short:       "Replace a meeting's attendee list",
		Annotations: meetingArg,
		Long: `Replace the attendees stored with a meeting. Emails are comma-separated.

Examples:
  msum meetings attendees 6f1c2b9e "a@x.com, b@y.com"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsAttendees(cmd.Context(), deps, args[0], args[1], cmd.OutOrStdout())
		},
	}
}

func runMeetingsAttendees(ctx context.Context, deps *CommandDeps, id, emails string, out io.Writer) error {
	if !meeting.IsValidID(id) {
		return mserrors.NewValidationError("meeting_id", "Invalid meeting ID.")
	}
	if !meeting.ValidateEmails(emails) {
		return mserrors.NewValidationError("emails", "Please enter valid email addresses.")
	}

	_, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	attendees := meeting.SplitEmails(emails)
	if err := backend.UpdateAttendees(ctx, id, attendees); err != nil {
		return fmt.Errorf("updating attendees: %w", err)
	}
	fmt.Fprintf(out, "Updated attendees of %s: %s\n", id, meeting.JoinEmails(attendees))
	return nil
}

func newMeetingsProcessCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:         "process <meeting-id>",
		Short:       "Run extended analysis on a meeting",
		Annotations: meetingArg,
		Long: `Ask the backend to extract action items, key topics, decisions and next
steps from a stored meeting, then show the result.

Examples:
  msum meetings process 6f1c2b9e`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingsProcess(cmd.Context(), deps, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runMeetingsProcess(ctx context.Context, deps *CommandDeps, id string, out, errOut io.Writer) error {
	if !meeting.IsValidID(id) {
		return mserrors.NewValidationError("meeting_id", "Invalid meeting ID.")
	}

	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := backend.ProcessMeeting(ctx, id)
	if err != nil {
		return fmt.Errorf("processing meeting %s: %w", id, err)
	}
	if msg, ok := res.Text("message"); ok {
		fmt.Fprintln(errOut, msg)
	}

	d, err := backend.GetMeeting(ctx, id)
	if err != nil {
		return fmt.Errorf("loading meeting %s: %w", id, err)
	}
	d.Transcript = ""

	return writeOutput(out, cfg.OutputFormat, d, func(w io.Writer) error {
		outputMeetingDetailText(w, d)
		return nil
	})
}
