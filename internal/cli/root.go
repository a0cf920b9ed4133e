// Package cli provides the command-line interface for gamblebot.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/command"
	"github.com/treykane/gamblebot/internal/credentials"
	"github.com/treykane/gamblebot/internal/events"
	"github.com/treykane/gamblebot/internal/gateway"
	"github.com/treykane/gamblebot/internal/logging"
	"github.com/treykane/gamblebot/internal/prompt"
	"github.com/treykane/gamblebot/internal/stats"
	"github.com/treykane/gamblebot/internal/supervisor"
	"github.com/treykane/gamblebot/internal/ui"
)

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var headless bool
	root := &cobra.Command{
		Use:           "gamblebot",
		Short:         "Chat gateway coin-flip bot with an operator dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			slog.SetDefault(logging.NewCommandLogger(os.Getenv("GAMBLEBOT_LOG_LEVEL")))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), headless)
		},
	}
	root.Flags().BoolVar(&headless, "headless", false, "run without the dashboard until SIGINT/SIGTERM")

	root.AddCommand(newStatsCmd())
	root.AddCommand(newEventsCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newTokenCmd())
	return root
}

// ExitCode maps the error returned by the root command to the process exit
// status: 0 for a clean exit or a requested restart, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, supervisor.ErrRestartRequested),
		errors.Is(err, context.Canceled):
		return 0
	default:
		return 1
	}
}

func runBot(parent context.Context, headless bool) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if headless {
		slog.SetDefault(logging.NewCommandLogger(cfg.LogLevel))
	} else {
		path, err := appconfig.LogFilePath()
		if err != nil {
			return err
		}
		logger, closer, err := logging.OpenFile(path, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer closer.Close()
		slog.SetDefault(logger)
	}

	creds, err := credentials.NewDefaultStore()
	if err != nil {
		return err
	}
	if _, _, err := creds.Load(); err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if tok := strings.TrimSpace(os.Getenv("GAMBLEBOT_TOKEN")); tok != "" && tok != creds.Token() {
		if err := creds.SaveToken(tok); err != nil {
			return fmt.Errorf("save token from environment: %w", err)
		}
		slog.Info("using bot token from GAMBLEBOT_TOKEN")
	}

	statStore, err := stats.NewDefaultStore()
	if err != nil {
		return err
	}
	if _, err := statStore.Load(); err != nil {
		return fmt.Errorf("load statistics: %w", err)
	}
	journal, err := events.NewDefaultStore()
	if err != nil {
		return err
	}

	session := gateway.New(command.NewHandler(creds.Prefix, statStore, nil))
	sup := supervisor.New(session, supervisor.Options{
		ConnectTimeout: cfg.ConnectTimeout(),
		SwapTimeout:    cfg.SwapTimeout(),
		CleanupGrace:   cfg.CleanupGrace(),
		RedactErrors:   cfg.RedactErrors,
		Journal:        journal,
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := sup.Establish(ctx, creds, prompt.NewConsole(), cfg.RestartMode, os.Stdout); err != nil {
		return err
	}
	defer func() {
		if err := sup.Stop(); err != nil {
			slog.Warn("failed to stop session", "error", err)
		}
	}()

	if headless {
		slog.Info("running headless; send SIGINT or SIGTERM to stop")
		<-ctx.Done()
		return nil
	}
	return ui.Run(ctx, ui.Deps{
		Session: sup,
		Swapper: supervisor.NewSwapController(sup, creds),
		Creds:   creds,
		Stats:   statStore,
		Config:  cfg,
	})
}
