package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YashavikaSingh/meeting-summariser/cmdlog"
	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
)

// CommandLog records and lists command executions.
type CommandLog interface {
	LogCommand(ctx context.Context, entry *cmdlog.Entry) error
	History(ctx context.Context, command string, limit int) ([]cmdlog.Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// CommandLogFactory opens the command log.
type CommandLogFactory func(ctx context.Context, cfg *config.CommandLogConfig) (CommandLog, error)

// OpenCommandLog connects to the PostgreSQL command log and creates its table
// when missing.
func OpenCommandLog(ctx context.Context, cfg *config.CommandLogConfig) (CommandLog, error) {
	c, err := cmdlog.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.EnsureSchema(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// openCommandLog returns nil when no command log is configured.
func (d *CommandDeps) openCommandLog(ctx context.Context, cfg *config.CLIConfig) (CommandLog, error) {
	if !cfg.CommandLog.IsConfigured() {
		return nil, nil
	}
	open := d.CommandLog
	if open == nil {
		open = OpenCommandLog
	}
	return open(ctx, cfg.CommandLog)
}

// RecordCommand stores one execution in the command log, if configured.
// Failures are logged and never change the command's outcome.
func (d *CommandDeps) RecordCommand(ctx context.Context, entry *cmdlog.Entry) {
	cfg, err := d.config()
	if err != nil {
		return
	}
	log, err := d.openCommandLog(ctx, cfg)
	if err != nil {
		d.logger().Debug("command log unavailable", logging.Err(err))
		return
	}
	if log == nil {
		return
	}
	defer log.Close()

	if err := log.LogCommand(ctx, entry); err != nil {
		d.logger().Debug("failed to log command", logging.Err(err))
	}
}

type historyOptions struct {
	command string
	limit   int
}

// NewHistoryCommand creates the 'history' command.
func NewHistoryCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent msum commands",
		Long: `Show recent msum command executions from the shared command log.

The command log is a PostgreSQL table configured under command_log in
~/.msum/config.yaml.

Examples:
  msum history
  msum history --command "meetings delete" --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), deps, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.command, "command", "c", "", "Only show this command")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", cmdlog.DefaultHistoryLimit, "Maximum number of entries")
	return cmd
}

func runHistory(ctx context.Context, deps *CommandDeps, opts *historyOptions, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}

	log, err := deps.openCommandLog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening command log: %w", err)
	}
	if log == nil {
		return fmt.Errorf("command log not configured; set command_log.host with 'msum config set' or in the config file")
	}
	defer log.Close()

	entries, err := log.History(ctx, opts.command, opts.limit)
	if err != nil {
		return err
	}

	return writeOutput(out, cfg.OutputFormat, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}, func(w io.Writer) error {
		outputHistoryText(w, entries)
		return nil
	})
}

func outputHistoryText(w io.Writer, entries []cmdlog.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No commands logged.")
		return
	}

	fmt.Fprintf(w, "  %-19s  %-12s  %-7s  %8s  %s\n", "TIME", "USER", "STATUS", "DURATION", "COMMAND")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "  %-19s  %-12s  %-7s  %8s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(e.User, 12),
			status,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			strings.TrimSpace(e.FullCommand))
		if e.ErrorMessage != "" {
			fmt.Fprintf(w, "  %19s  %s\n", "", truncate(e.ErrorMessage, 80))
		}
	}
}
