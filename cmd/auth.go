package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YashavikaSingh/meeting-summariser/credentials"
)

type loginOptions struct {
	token          string
	nonInteractive bool
}

// NewAuthCommand creates the 'auth' command group.
func NewAuthCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the backend API token",
		Long: `Manage the API token sent to the summarizer backend.

Tokens are stored in the system keyring, one per backend URL. The
MSUM_API_TOKEN environment variable takes precedence over the keyring.
Backends without authentication need no token.`,
	}

	cmd.AddCommand(newAuthLoginCommand(deps))
	cmd.AddCommand(newAuthLogoutCommand(deps))
	cmd.AddCommand(newAuthStatusCommand(deps))
	return cmd
}

func newAuthLoginCommand(deps *CommandDeps) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token for the configured backend",
		Long: `Store an API token for the configured backend in the system keyring.

Examples:
  # Prompt for the token
  msum auth login

  # Token from a flag
  msum auth login --token sk-abc123...

  # Store the token currently in the environment
  MSUM_API_TOKEN=sk-abc123... msum auth login --non-interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(deps, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", "", "API token")
	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Fail instead of prompting for input")
	return cmd
}

func runLogin(deps *CommandDeps, opts *loginOptions, out, errOut io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}
	if deps.Credentials == nil {
		return fmt.Errorf("no credential store available")
	}

	token := strings.TrimSpace(opts.token)
	if token == "" {
		if env := strings.TrimSpace(os.Getenv(credentials.TokenEnvVar)); env != "" {
			token = env
			fmt.Fprintf(errOut, "Using token from %s environment variable\n", credentials.TokenEnvVar)
		}
	}
	if token == "" {
		if opts.nonInteractive {
			return fmt.Errorf("no token provided and --non-interactive flag set")
		}
		token, err = readSecret(deps.stdin(), errOut, "API token: ", deps.terminal())
		if err != nil {
			return err
		}
	}
	if err := validateToken(token); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	if err := deps.Credentials.Save(cfg.BackendURL, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(out, "Login successful!")
	fmt.Fprintf(out, "  Backend: %s\n", cfg.BackendURL)
	fmt.Fprintf(out, "  Token:   %s\n", credentials.MaskToken(token))
	fmt.Fprintf(out, "  Stored in: %s\n", credentials.Description())
	return nil
}

func validateToken(token string) error {
	switch {
	case token == "":
		return fmt.Errorf("token is empty")
	case len(token) < 8:
		return fmt.Errorf("token is too short")
	case strings.ContainsAny(token, " \t\r\n"):
		return fmt.Errorf("token must not contain whitespace")
	}
	return nil
}

func newAuthLogoutCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		Long: `Remove the API token stored for the configured backend.
The MSUM_API_TOKEN environment variable is not affected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(deps, cmd.OutOrStdout())
		},
	}
}

func runLogout(deps *CommandDeps, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}
	if deps.Credentials == nil {
		return fmt.Errorf("no credential store available")
	}

	if err := deps.Credentials.Delete(cfg.BackendURL); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	fmt.Fprintf(out, "Logged out of %s.\n", cfg.BackendURL)

	if os.Getenv(credentials.TokenEnvVar) != "" {
		fmt.Fprintf(out, "\nNote: %s environment variable is still set.\n", credentials.TokenEnvVar)
		fmt.Fprintf(out, "Unset it with: unset %s\n", credentials.TokenEnvVar)
	}
	return nil
}

// authStatus is the machine-readable form of 'auth status'.
type authStatus struct {
	Backend       string `json:"backend" yaml:"backend"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Source        string `json:"source,omitempty" yaml:"source,omitempty"`
	Token         string `json:"token,omitempty" yaml:"token,omitempty"`
}

func newAuthStatusCommand(deps *CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which token is used for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(deps, cmd.OutOrStdout())
		},
	}
}

func runAuthStatus(deps *CommandDeps, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}

	status := authStatus{Backend: cfg.BackendURL}
	if deps.Credentials != nil {
		token, source, err := deps.Credentials.Load(cfg.BackendURL)
		switch {
		case errors.Is(err, credentials.ErrNoCredentials):
		case err != nil:
			return fmt.Errorf("loading token: %w", err)
		default:
			status.Authenticated = true
			status.Source = string(source)
			status.Token = credentials.MaskToken(token)
		}
	}

	return writeOutput(out, cfg.OutputFormat, status, func(w io.Writer) error {
		fmt.Fprintln(w, "Authentication Status")
		fmt.Fprintln(w, "=====================")
		fmt.Fprintf(w, "  Backend: %s\n", status.Backend)
		if !status.Authenticated {
			fmt.Fprintln(w, "  Token:   none")
			fmt.Fprintln(w, "\nNot authenticated. Run 'msum auth login' if the backend requires a token.")
			return nil
		}
		fmt.Fprintf(w, "  Token:   %s\n", status.Token)
		fmt.Fprintf(w, "  Source:  %s\n", status.Source)
		return nil
	})
}
