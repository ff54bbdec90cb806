// Package main provides the msum CLI entry point.
// msum uploads meeting transcripts to the summarizer backend and manages the
// stored meetings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YashavikaSingh/meeting-summariser/client"
	"github.com/YashavikaSingh/meeting-summariser/cmd"
	"github.com/YashavikaSingh/meeting-summariser/cmdlog"
	"github.com/YashavikaSingh/meeting-summariser/config"
	"github.com/YashavikaSingh/meeting-summariser/pkg/buildinfo"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
	"github.com/YashavikaSingh/meeting-summariser/pkg/logging"
)

// Global flags and state.
var (
	cfgFile      string
	backendURL   string
	timeout      time.Duration
	outputFormat string
	debug        bool
	insecure     bool

	// deps is shared by every subcommand; PersistentPreRunE fills in the
	// configuration, logger and metrics.
	deps = cmd.DefaultDeps()

	// cmdStartTime is recorded for the command log.
	cmdStartTime time.Time
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "msum",
	Short: "Meeting summarizer CLI",
	Long: `msum uploads meeting transcripts to the summarizer backend, prints and
emails the generated summaries, and manages past meetings.

COMMON WORKFLOWS:
  Summarize:      msum summarize standup.txt --name "Standup" --emails a@x.com
  Interactive:    msum wizard
  Past meetings:  msum meetings list  →  msum meetings show <id>
  Follow-up:      msum chat <id> "What did we decide about pricing?"
  Share:          msum email <id>

Commands support --output json|yaml for structured data. Run
'msum <command> --help' for subcommands, flags and examples.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		cmdStartTime = time.Now()

		// Skip initialization for commands that don't need it; config
		// subcommands must work on a broken config file.
		if skipsConfig(c) {
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		deps.Config = cfg
		deps.Logger = logging.NewLogger(logging.CLIConfig(cfg.Debug, cfg.LogJSON))
		deps.Metrics = client.NewMetrics("msum")
		return nil
	},
}

func skipsConfig(c *cobra.Command) bool {
	switch c.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return c.Parent() != nil && c.Parent().Name() == "config"
}

// configPath is --config or the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.ConfigPath()
}

func loadConfig() (*config.CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	cfg, err := config.LoadConfigFrom(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// applyFlagOverrides applies the global flags on top of file and environment.
func applyFlagOverrides(cfg *config.CLIConfig) {
	if backendURL != "" {
		cfg.BackendURL = strings.TrimRight(backendURL, "/")
	}
	if timeout != 0 {
		cfg.Timeout = timeout
	}
	if outputFormat != "" {
		cfg.OutputFormat = config.OutputFormat(outputFormat)
	}
	if debug {
		cfg.Debug = true
	}
	if insecure {
		cfg.Insecure = true
	}
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash and build time of the msum CLI.

Examples:
  msum version
  msum version --output json`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get()
		out := c.OutOrStdout()

		switch config.OutputFormat(outputFormat) {
		case config.OutputFormatJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case config.OutputFormatYAML:
			return yaml.NewEncoder(out).Encode(info)
		}

		fmt.Fprintf(out, "%s version %s\n", info.Name, info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		fmt.Fprintf(out, "  platform:   %s\n", info.Platform)
		return nil
	},
}

// configCmd groups the configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the msum CLI configuration settings.`,
}

// configView is the displayed form of the configuration.
type configView struct {
	ConfigFile      string `json:"config_file" yaml:"config_file"`
	BackendURL      string `json:"backend_url" yaml:"backend_url"`
	Timeout         string `json:"timeout" yaml:"timeout"`
	DeleteTimeout   string `json:"delete_timeout" yaml:"delete_timeout"`
	RefreshDelay    string `json:"refresh_delay" yaml:"refresh_delay"`
	OutputFormat    string `json:"output_format" yaml:"output_format"`
	AutoSubmit      bool   `json:"auto_submit" yaml:"auto_submit"`
	Debug           bool   `json:"debug" yaml:"debug"`
	Insecure        bool   `json:"insecure" yaml:"insecure"`
	LogJSON         bool   `json:"log_json" yaml:"log_json"`
	MetricsTextfile string `json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty"`
	Cache           string `json:"cache" yaml:"cache"`
	CommandLog      string `json:"command_log" yaml:"command_log"`
}

func newConfigView(path string, cfg *config.CLIConfig) configView {
	v := configView{
		ConfigFile:      path,
		BackendURL:      cfg.BackendURL,
		Timeout:         cfg.Timeout.String(),
		DeleteTimeout:   cfg.DeleteTimeout.String(),
		RefreshDelay:    cfg.RefreshDelay.String(),
		OutputFormat:    cfg.OutputFormat.String(),
		AutoSubmit:      cfg.AutoSubmit,
		Debug:           cfg.Debug,
		Insecure:        cfg.Insecure,
		LogJSON:         cfg.LogJSON,
		MetricsTextfile: cfg.MetricsTextfile,
		Cache:           "(not configured)",
		CommandLog:      "(not configured)",
	}
	if cfg.Cache.IsConfigured() {
		v.Cache = fmt.Sprintf("redis://%s/%d (ttl %s)", cfg.Cache.RedisAddr, cfg.Cache.DB, cfg.Cache.GetTTL())
	}
	if cfg.CommandLog.IsConfigured() {
		v.CommandLog = fmt.Sprintf("postgres://%s@%s/%s", cfg.CommandLog.User, cfg.CommandLog.Host, cfg.CommandLog.Database)
	}
	return v
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration: file values, MSUM_* environment overrides and global flags.`,
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)

		v := newConfigView(path, cfg)
		out := c.OutOrStdout()
		switch cfg.OutputFormat {
		case config.OutputFormatJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		case config.OutputFormatYAML:
			return yaml.NewEncoder(out).Encode(v)
		}

		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintf(out, "  Config file:      %s\n", v.ConfigFile)
		fmt.Fprintf(out, "  Backend URL:      %s\n", v.BackendURL)
		fmt.Fprintf(out, "  Timeout:          %s\n", v.Timeout)
		fmt.Fprintf(out, "  Delete timeout:   %s\n", v.DeleteTimeout)
		fmt.Fprintf(out, "  Refresh delay:    %s\n", v.RefreshDelay)
		fmt.Fprintf(out, "  Output format:    %s\n", v.OutputFormat)
		fmt.Fprintf(out, "  Auto submit:      %t\n", v.AutoSubmit)
		fmt.Fprintf(out, "  Debug:            %t\n", v.Debug)
		fmt.Fprintf(out, "  Insecure:         %t\n", v.Insecure)
		fmt.Fprintf(out, "  Log JSON:         %t\n", v.LogJSON)
		fmt.Fprintf(out, "  Metrics textfile: %s\n", valueOrDefault(v.MetricsTextfile, "(not set)"))
		fmt.Fprintf(out, "  Cache:            %s\n", v.Cache)
		fmt.Fprintf(out, "  Command log:      %s\n", v.CommandLog)

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\nWarning: %v\n", err)
		}
		return nil
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}
		out := c.OutOrStdout()

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", path)
			fmt.Fprintln(out, "Use 'msum config show' to view current settings.")
			return nil
		}

		defaultCfg := config.DefaultConfig()
		if err := config.SaveConfigTo(defaultCfg, path); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Fprintf(out, "Created configuration file: %s\n", path)
		fmt.Fprintln(out, "\nDefault settings:")
		fmt.Fprintf(out, "  Backend URL:    %s\n", defaultCfg.BackendURL)
		fmt.Fprintf(out, "  Timeout:        %s\n", defaultCfg.Timeout)
		fmt.Fprintf(out, "  Output format:  %s\n", defaultCfg.OutputFormat)
		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Available keys:
  ` + strings.Join(config.SettableKeys(), "\n  ") + `

Examples:
  msum config set backend_url https://summarizer.example.com
  msum config set timeout 5m
  msum config set output_format json
  msum config set cache.redis_addr localhost:6379`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.SettableKeys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(c *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		path, err := configPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}
		current, err := config.LoadConfigFrom(path)
		if err != nil {
			// A broken file is replaced by defaults plus this key.
			current = config.DefaultConfig()
		}

		if err := current.Set(key, value); err != nil {
			return err
		}
		if err := config.SaveConfigTo(current, path); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Fprintf(c.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for msum.

To load completions:

Bash:
  $ source <(msum completion bash)

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ msum completion zsh > "${fpath[1]}/_msum"

Fish:
  $ msum completion fish | source

PowerShell:
  PS> msum completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		out := c.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.msum/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "server", "", "summarizer backend URL (e.g., http://localhost:3000)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout (e.g., 30s, 2m)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "disable TLS verification")

	// Add command groups for organized help output.
	rootCmd.AddGroup(
		&cobra.Group{ID: "meetings", Title: "Meetings:"},
		&cobra.Group{ID: "ops", Title: "Operations:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	// Meetings
	summarizeCmd := cmd.NewSummarizeCommand(deps)
	summarizeCmd.GroupID = "meetings"
	rootCmd.AddCommand(summarizeCmd)

	wizardCmd := cmd.NewWizardCommand(deps, nil)
	wizardCmd.GroupID = "meetings"
	rootCmd.AddCommand(wizardCmd)

	meetingsCmd := cmd.NewMeetingsCommand(deps)
	meetingsCmd.GroupID = "meetings"
	rootCmd.AddCommand(meetingsCmd)

	chatCmd := cmd.NewChatCommand(deps)
	chatCmd.GroupID = "meetings"
	rootCmd.AddCommand(chatCmd)

	emailCmd := cmd.NewEmailCommand(deps)
	emailCmd.GroupID = "meetings"
	rootCmd.AddCommand(emailCmd)

	// Operations
	statusCmd := cmd.NewStatusCommand(deps)
	statusCmd.GroupID = "ops"
	rootCmd.AddCommand(statusCmd)

	historyCmd := cmd.NewHistoryCommand(deps)
	historyCmd.GroupID = "ops"
	rootCmd.AddCommand(historyCmd)

	// Setup
	authCmd := cmd.NewAuthCommand(deps)
	authCmd.GroupID = "setup"
	rootCmd.AddCommand(authCmd)

	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Execute root command and capture the error for logging.
	executed, cmdErr := rootCmd.ExecuteContextC(ctx)

	logCommandExecution(executed, os.Args, cmdErr)
	writeMetrics()

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(cmdErr))
		os.Exit(1)
	}
}

// errorMessage formats a command failure, adding the suggested action for
// backend errors.
func errorMessage(err error) string {
	msg := err.Error()
	if mserrors.IsNetwork(err) || mserrors.IsDataShape(err) || errors.Is(err, context.DeadlineExceeded) {
		msg += "\nHint: " + mserrors.GetSuggestedAction(mserrors.Classify(err))
	}
	return msg
}

// logCommandExecution records the command in the command log.
// This is best-effort; failures never affect the command result.
func logCommandExecution(executed *cobra.Command, args []string, cmdErr error) {
	if executed == nil || deps.Config == nil || skipsConfig(executed) {
		return
	}

	entry := &cmdlog.Entry{
		Command:     commandName(executed),
		Args:        executed.Flags().Args(),
		FullCommand: strings.Join(args, " "),
		MeetingID:   meetingID(executed),
		DurationMs:  int(time.Since(cmdStartTime).Milliseconds()),
		Success:     cmdErr == nil,
	}
	if cmdErr != nil {
		entry.ErrorMessage = cmdErr.Error()
	}

	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deps.RecordCommand(logCtx, entry)
}

// commandName is the command path without the program name, e.g. "meetings delete".
func commandName(c *cobra.Command) string {
	name := strings.TrimPrefix(c.CommandPath(), rootCmd.Name())
	name = strings.TrimSpace(name)
	if name == "" {
		return rootCmd.Name()
	}
	return name
}

// meetingID returns the meeting a command acted on, if it takes one.
func meetingID(c *cobra.Command) string {
	if c.Annotations[cmd.AnnotationMeetingArg] != "true" {
		return ""
	}
	if args := c.Flags().Args(); len(args) > 0 {
		return args[0]
	}
	return ""
}

// writeMetrics exports client metrics when metrics_textfile is configured.
func writeMetrics() {
	if deps.Config == nil || deps.Config.MetricsTextfile == "" {
		return
	}
	if err := deps.Metrics.WriteTextfile(deps.Config.MetricsTextfile); err != nil && deps.Logger != nil {
		deps.Logger.Warn("failed to write metrics", logging.Err(err))
	}
}
