package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/ClientReviews/internal/app"
	"github.com/utafrali/ClientReviews/internal/config"
	"github.com/utafrali/ClientReviews/internal/service"
	"github.com/utafrali/ClientReviews/pkg/logger"
	"github.com/utafrali/ClientReviews/pkg/middleware"
)

func main() {
	// Create a context that is cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "reviews",
		Short:        "Moderated client reviews service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newAdminTokenCommand(),
		newHashPasswordCommand(),
	)
	return rootCmd
}

// loadConfig loads configuration from the environment and applies flag
// overrides.
func loadConfig(opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	return cfg, logger.New(cfg.ServiceName, cfg.LogLevel), nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.HTTPPort = port
			}

			log.Info("starting reviews service",
				slog.String("environment", cfg.Environment),
				slog.Int("http_port", cfg.HTTPPort),
				slog.String("store", cfg.StoreDriver),
				slog.String("notify", cfg.NotifyDriver),
			)

			// Create the application with all dependencies wired.
			application, err := app.NewApp(cfg, log)
			if err != nil {
				log.Error("failed to initialize application", slog.String("error", err.Error()))
				return err
			}

			// Run the application. This blocks until shutdown.
			if err := application.Run(cmd.Context()); err != nil {
				log.Error("application error", slog.String("error", err.Error()))
				return err
			}

			log.Info("reviews service stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Override HTTP_PORT")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := app.Migrate(cmd.Context(), cfg, log); err != nil {
				log.Error("migration failed", slog.String("error", err.Error()))
				return err
			}
			log.Info("migrations complete")
			return nil
		},
	}
}

func newAdminTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Print a bearer token for the moderation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.AdminTokenTTL
			}

			token, err := middleware.SignHS256([]byte(cfg.AdminJWTSecret), subject, service.AdminRole, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject, recorded as changed_by on status changes")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default ADMIN_TOKEN_TTL)")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its ADMIN_PASSWORD_HASH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			hash, err := service.HashPassword(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
