package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/YashavikaSingh/meeting-summariser/cache"
	"github.com/YashavikaSingh/meeting-summariser/config"
	mserrors "github.com/YashavikaSingh/meeting-summariser/pkg/errors"
)

// Service states reported by 'status'.
const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusNotConfigured = "not configured"
)

// HealthStatus is the result of 'msum status'.
type HealthStatus struct {
	Overall   string                   `json:"overall" yaml:"overall"`
	Timestamp time.Time                `json:"timestamp" yaml:"timestamp"`
	Services  map[string]ServiceStatus `json:"services" yaml:"services"`
}

// ServiceStatus is the state of one dependency.
type ServiceStatus struct {
	Status  string `json:"status" yaml:"status"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty"`
	Latency string `json:"latency,omitempty" yaml:"latency,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// statusServices is the display order of checked services.
var statusServices = []string{"backend", "cache", "command_log"}

// NewStatusCommand creates the 'status' command.
func NewStatusCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the backend, cache and command log",
		Long: `Check that the summarizer backend answers and that the optional Redis
meeting cache and PostgreSQL command log are reachable.

Checks run concurrently. The command fails when the backend is unhealthy;
optional services only report their state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), deps, timeout, cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&timeout, "check-timeout", 5*time.Second, "Timeout for each check")
	return cmd
}

func runStatus(ctx context.Context, deps *CommandDeps, timeout time.Duration, out io.Writer) error {
	cfg, err := deps.config()
	if err != nil {
		return err
	}

	status := HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]ServiceStatus, len(statusServices)),
	}
	var mu sync.Mutex
	record := func(name string, s ServiceStatus) {
		mu.Lock()
		status.Services[name] = s
		mu.Unlock()
	}

	// A plain group: a failing backend must not cancel the other probes.
	var g errgroup.Group
	g.Go(func() error {
		s := timed(ctx, timeout, cfg.BackendURL, func(ctx context.Context) (string, error) {
			return checkBackend(ctx, deps)
		})
		record("backend", s)
		if s.Status != statusHealthy {
			return fmt.Errorf("backend %s is unhealthy: %s", cfg.BackendURL, s.Error)
		}
		return nil
	})
	g.Go(func() error {
		record("cache", checkCache(ctx, cfg.Cache, timeout))
		return nil
	})
	g.Go(func() error {
		record("command_log", checkCommandLog(ctx, deps, cfg, timeout))
		return nil
	})
	backendErr := g.Wait()

	status.Overall = statusHealthy
	for _, s := range status.Services {
		if s.Status == statusUnhealthy {
			status.Overall = statusUnhealthy
		}
	}

	if err := writeOutput(out, cfg.OutputFormat, status, func(w io.Writer) error {
		outputStatusText(w, status)
		return nil
	}); err != nil {
		return err
	}

	return backendErr
}

// timed runs check with a deadline and fills in latency and errors.
func timed(ctx context.Context, timeout time.Duration, target string, check func(context.Context) (string, error)) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	details, err := check(ctx)
	s := ServiceStatus{Status: statusHealthy, Target: target, Latency: time.Since(start).Round(time.Millisecond).String(), Details: details}
	if err != nil {
		s.Status = statusUnhealthy
		s.Error = mserrors.DisplayMessage(err)
	}
	return s
}

func checkBackend(ctx context.Context, deps *CommandDeps) (string, error) {
	_, backend, closeFn, err := deps.backend(ctx)
	if err != nil {
		return "", err
	}
	defer closeFn()

	meetings, err := backend.ListMeetings(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d meetings", len(meetings)), nil
}

func checkCache(ctx context.Context, cfg *config.CacheConfig, timeout time.Duration) ServiceStatus {
	if !cfg.IsConfigured() {
		return ServiceStatus{Status: statusNotConfigured}
	}
	return timed(ctx, timeout, cfg.RedisAddr, func(ctx context.Context) (string, error) {
		rdb, err := cache.Connect(ctx, cfg)
		if err != nil {
			return "", err
		}
		defer rdb.Close()
		return fmt.Sprintf("ttl %s", cfg.GetTTL()), nil
	})
}

func checkCommandLog(ctx context.Context, deps *CommandDeps, cfg *config.CLIConfig, timeout time.Duration) ServiceStatus {
	if !cfg.CommandLog.IsConfigured() {
		return ServiceStatus{Status: statusNotConfigured}
	}
	target := fmt.Sprintf("%s/%s", cfg.CommandLog.Host, cfg.CommandLog.Database)
	return timed(ctx, timeout, target, func(ctx context.Context) (string, error) {
		log, err := deps.openCommandLog(ctx, cfg)
		if err != nil {
			return "", err
		}
		defer log.Close()
		return "", log.Ping(ctx)
	})
}

func outputStatusText(w io.Writer, status HealthStatus) {
	fmt.Fprintf(w, "Overall: %s\n\n", status.Overall)
	for _, name := range statusServices {
		s, ok := status.Services[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s", name, s.Status)
		if s.Target != "" {
			fmt.Fprintf(w, "  (%s)", s.Target)
		}
		if s.Latency != "" && s.Status == statusHealthy {
			fmt.Fprintf(w, "  %s", s.Latency)
		}
		fmt.Fprintln(w)
		if s.Details != "" {
			fmt.Fprintf(w, "  %-12s %s\n", "", s.Details)
		}
		if s.Error != "" {
			fmt.Fprintf(w, "  %-12s error: %s\n", "", s.Error)
		}
	}
}
