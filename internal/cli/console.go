package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwizi/ops-console/internal/config"
	"github.com/dwizi/ops-console/internal/console"
	"github.com/dwizi/ops-console/internal/credwatch"
	"github.com/dwizi/ops-console/internal/dispatch"
	"github.com/dwizi/ops-console/internal/health"
	"github.com/dwizi/ops-console/internal/refresh"
	"github.com/dwizi/ops-console/internal/session"
	"github.com/dwizi/ops-console/internal/tui"
)

func newConsoleCommand(logger *slog.Logger) *cobra.Command {
	var (
		flags    connectionFlags
		schedule string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the interactive terminal console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.apply(config.FromEnv())
			if cmd.Flags().Changed("refresh") {
				cfg.RefreshSchedule = schedule
			}
			if cmd.Flags().Changed("verify") {
				cfg.RequireVerification = verify
			}

			tuiLogger, closeLog, err := consoleLogger(cfg.LogFile, logger)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runConsole(ctx, cfg, tuiLogger)
		},
	}
	flags.bind(cmd.Flags())
	cmd.Flags().StringVar(&schedule, "refresh", "", "cron schedule for background state refresh, e.g. \"@every 30s\"")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify a new credential with the backend before accepting commands")
	return cmd
}

func runConsole(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	client, err := dispatch.New(cfg, cfg.EndpointURL, logger)
	if err != nil {
		return err
	}
	controller := console.New(console.Options{
		Dispatcher:          client,
		Prompt:              cfg.Prompt,
		RequireVerification: cfg.RequireVerification,
		VerifyCommand:       cfg.RefreshCommand,
		Logger:              logger,
	})

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	group, groupCtx := errgroup.WithContext(runCtx)
	services := health.NewRegistry()
	program := tui.New(groupCtx, cfg, controller, logger, tui.WithServices(services))

	scheduler, err := refresh.New(cfg.RefreshSchedule, cfg.RefreshCommand, logger, func(_ context.Context, command string) {
		program.RequestRefresh(command)
	})
	if err != nil {
		return err
	}
	scheduler.SetReporter(services)

	if strings.TrimSpace(cfg.TokenFile) != "" {
		watcher, err := credwatch.New(cfg.TokenFile, logger, func(_ context.Context, value string) {
			program.SendCredential(value)
		})
		if err != nil {
			return err
		}
		watcher.SetReporter(services)
		group.Go(nonFatal(logger, "credential watcher", func() error {
			return watcher.Start(groupCtx)
		}))
	}
	if initial, ok := initialCredential(cfg, time.Now()); ok {
		group.Go(func() error {
			program.SignIn(initial)
			return nil
		})
	}
	if scheduler.Enabled() {
		group.Go(func() error {
			return scheduler.Start(groupCtx)
		})
	}
	group.Go(func() error {
		defer stop()
		return program.Run()
	})
	return group.Wait()
}

// initialCredential resolves --token or --secret for the first sign-in. The token file
// is left to the watcher.
func initialCredential(cfg config.Config, now time.Time) (session.Credential, bool) {
	cfg.TokenFile = ""
	credential, err := resolveCredential(cfg, now)
	if err != nil {
		return session.Credential{}, false
	}
	return credential, true
}

// nonFatal keeps a background service failure from ending the interactive console.
// The service reports its own degraded state.
func nonFatal(logger *slog.Logger, name string, run func() error) func() error {
	return func() error {
		if err := run(); err != nil {
			logger.Error(name+" stopped", "error", err)
		}
		return nil
	}
}

// consoleLogger keeps log output off the screen the TUI draws on.
func consoleLogger(path string, fallback *slog.Logger) (*slog.Logger, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fallback, func() {}, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = file.Close() }, nil
}
