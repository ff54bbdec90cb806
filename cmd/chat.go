package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

// NewChatCommand creates the 'chat' command.
func NewChatCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:         "chat <meeting-id> [question]",
		Short:       "Ask questions about a meeting",
		Annotations: meetingArg,
		Long: `Ask a follow-up question about a stored meeting. Answers are grounded in
the meeting transcript, or in its summary when no transcript was kept.

Without a question, chat reads questions from the terminal until an empty
line, "exit" or end of input.

Examples:
  # One question
  msum chat 6f1c2b9e "Who owns the launch checklist?"

  # Interactive conversation
  msum chat 6f1c2b9e`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args[1:], " ")
			return runChat(cmd.Context(), deps, args[0], question, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}

func runChat(ctx context.Context, deps *CommandDeps, id, question string, out, errOut io.Writer) error {
	if strings.TrimSpace(question) == "" && !deps.terminal() {
		return fmt.Errorf("a question is required when not running in a terminal")
	}

	cfg, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	m := deps.machine(cfg, backend, errOut, nil)
	defer m.Close()

	if err := m.LoadMeeting(ctx, id); err != nil {
		return fmt.Errorf("loading meeting %s: %w", id, err)
	}

	if strings.TrimSpace(question) != "" {
		answer, err := m.Ask(ctx, question)
		if err != nil {
			return fmt.Errorf("asking about meeting %s: %w", id, err)
		}
		return writeOutput(out, cfg.OutputFormat, session.ChatMessage{Role: session.RoleAssistant, Text: answer}, func(w io.Writer) error {
			fmt.Fprintln(w, answer)
			return nil
		})
	}

	s := m.State()
	fmt.Fprintf(errOut, "Chatting about %q. Empty line or \"exit\" to quit.\n", s.MeetingName)
	return chatLoop(ctx, m, deps.stdin(), out)
}

// chatLoop answers questions read from in until it sees an empty line, "exit"
// or EOF. A failed answer is printed and the loop continues.
func chatLoop(ctx context.Context, m *session.Machine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" || q == "exit" || q == "quit" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		answer, _ := m.Ask(ctx, q)
		fmt.Fprintf(out, "%s\n\n", answer)
	}
}
