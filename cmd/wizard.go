package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/tui"
)

// WizardRunner runs the interactive wizard.
type WizardRunner func(ctx context.Context, opts tui.Options) error

// NewWizardCommand creates the 'wizard' command.
func NewWizardCommand(deps *CommandDeps, run WizardRunner) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	if run == nil {
		run = tui.Run
	}
	var autoSubmit bool

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Summarize and review meetings interactively",
		Long: `Open the interactive summarizer.

The wizard walks through three steps: the meeting name and attendees, the
transcript file, and the review of the generated summary. From the review you
can email the summary, chat about the meeting, or browse and delete past
meetings.

With --auto-submit (or auto_submit in the config file) the transcript is
summarized as soon as it is selected.`,
		Aliases: []string{"ui"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !deps.terminal() {
				return fmt.Errorf("the wizard needs an interactive terminal; use 'msum summarize' instead")
			}

			cfg, backend, closeFn, err := deps.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			// Log lines would be drawn over the alternate screen.
			return run(cmd.Context(), tui.Options{
				Backend:       backend,
				Logger:        logging.NewNopLogger(),
				AutoSubmit:    autoSubmit || cfg.AutoSubmit,
				DeleteTimeout: cfg.DeleteTimeout,
				RefreshDelay:  cfg.RefreshDelay,
			})
		},
	}

	cmd.Flags().BoolVar(&autoSubmit, "auto-submit", false, "Summarize as soon as a transcript is selected")
	return cmd
}
