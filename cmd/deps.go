// Package cmd provides the msum subcommands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/YashavikaSingh/meeting-summariser/client"
	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/credentials"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

// AnnotationMeetingArg marks commands whose first argument is a meeting id,
// which is then recorded in the command log.
const AnnotationMeetingArg = "msum/meeting-arg"

var meetingArg = map[string]string{AnnotationMeetingArg: "true"}

// TokenStore is where API tokens are kept.
type TokenStore interface {
	Save(backendURL, token string) error
	Load(backendURL string) (string, credentials.Source, error)
	Token(backendURL string) string
	Delete(backendURL string) error
}

// BackendFactory connects to the summarizer backend. The returned function
// releases whatever the connection opened.
type BackendFactory func(ctx context.Context, cfg *config.CLIConfig, token string, logger logging.Logger, metrics *client.Metrics) (Backend, func(), error)

// CommandDeps holds dependencies shared by the msum commands.
type CommandDeps struct {
	// Config is set by the root command before any subcommand runs; when nil
	// LoadConfig is used.
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)

	Logger      logging.Logger
	Metrics     *client.Metrics
	Connect     BackendFactory
	Credentials TokenStore
	CommandLog  CommandLogFactory

	Stdin      io.Reader
	IsTerminal func() bool
	AfterFunc  session.AfterFunc
}

// DefaultDeps returns default dependencies for production use.
func DefaultDeps() *CommandDeps {
	return &CommandDeps{
		LoadConfig:  config.LoadConfig,
		Connect:     ConnectBackend,
		Credentials: credentials.NewStore(),
		CommandLog:  OpenCommandLog,
		Stdin:       os.Stdin,
		IsTerminal:  stdinIsTerminal,
	}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (d *CommandDeps) config() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	if d.LoadConfig == nil {
		d.LoadConfig = config.LoadConfig
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	d.Config = cfg
	return cfg, nil
}

func (d *CommandDeps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NewNopLogger()
	}
	return d.Logger
}

func (d *CommandDeps) terminal() bool {
	return d.IsTerminal != nil && d.IsTerminal()
}

func (d *CommandDeps) stdin() io.Reader {
	if d.Stdin == nil {
		return os.Stdin
	}
	return d.Stdin
}

func (d *CommandDeps) token(cfg *config.CLIConfig) string {
	if d.Credentials == nil {
		return ""
	}
	return d.Credentials.Token(cfg.BackendURL)
}

// backend loads the configuration and connects to the backend.
func (d *CommandDeps) backend(ctx context.Context) (*config.CLIConfig, Backend, func(), error) {
	cfg, err := d.config()
	if err != nil {
		return nil, nil, nil, err
	}
	connect := d.Connect
	if connect == nil {
		connect = ConnectBackend
	}
	b, closeFn, err := connect(ctx, cfg, d.token(cfg), d.logger(), d.Metrics)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, b, closeFn, nil
}

// machine builds a session for one command run.
func (d *CommandDeps) machine(cfg *config.CLIConfig, b Backend, notices io.Writer, confirmer session.Confirmer) *session.Machine {
	return session.New(session.Options{
		Backend:       b,
		Confirmer:     confirmer,
		Notifier:      printNotifier(notices),
		Logger:        d.logger(),
		AfterFunc:     d.AfterFunc,
		AutoSubmit:    false,
		DeleteTimeout: cfg.DeleteTimeout,
		RefreshDelay:  cfg.RefreshDelay,
	})
}

func printNotifier(w io.Writer) session.Notifier {
	return session.NotifyFunc(func(n session.Notice) {
		if n.Kind == session.NoticeError {
			fmt.Fprintf(w, "Error: %s\n", n.Message)
			return
		}
		fmt.Fprintln(w, n.Message)
	})
}
