package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewEmailCommand creates the 'email' command.
func NewEmailCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	var emails string

	cmd := &cobra.Command{
		Use:         "email <meeting-id>",
		Short:       "Email a meeting summary",
		Annotations: meetingArg,
		Long: `Send the summary of a stored meeting to its attendees, or to the
addresses given with --emails.

Examples:
  msum email 6f1c2b9e
  msum email 6f1c2b9e --emails "lead@x.com, pm@y.com"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmail(cmd.Context(), deps, args[0], emails, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&emails, "emails", "e", "", "Comma-separated recipients (default: the meeting's attendees)")
	return cmd
}

func runEmail(ctx context.Context, deps *CommandDeps, id, emails string, out io.Writer) error {
	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	m := deps.machine(cfg, backend, out, nil)
	defer m.Close()

	if err := m.LoadMeeting(ctx, id); err != nil {
		return fmt.Errorf("loading meeting %s: %w", id, err)
	}
	if emails != "" {
		m.SetAttendeeEmails(emails)
	}

	if err := m.SendSummaryEmail(ctx); err != nil {
		return fmt.Errorf("emailing summary of %s: %w", id, err)
	}
	return nil
}
