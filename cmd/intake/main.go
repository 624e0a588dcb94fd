package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/internal/config"
	"github.com/goliatone/go-intake/internal/logging"
	"github.com/goliatone/go-intake/internal/store"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "intake:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "intake",
	Short:         "Consultation intake wizard with an embedded back-office",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `intake collects consultation requests through a four-step wizard,
served over HTTP or run in the terminal, and keeps requests, posts,
newsletter subscribers and work sessions in an embedded NATS JetStream store.

Commands that open the store take an exclusive lock on the data directory;
stop a running server before using the wizard or admin commands locally.`,
}

func init() {
	d := config.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.String("addr", d.Addr, "HTTP listen address")
	flags.String("data-dir", d.DataDir, "Directory for the embedded store")
	flags.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", d.LogFormat, "Log format (json, text)")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("admin-token", "", "Bearer token for the admin API")
	flags.String("thank-you-path", d.ThankYouPath, "Where the browser lands after a successful request")
	flags.Duration("session-ttl", d.SessionTTL, "Idle lifetime of a browser session")
	flags.String("theme", d.Theme, "Theme manifest name")
	flags.String("theme-variant", d.ThemeVariant, "Theme variant (light, dark)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(configCmd)
}

// runtime holds what every command needs once flags are parsed.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(config.WithFlags(cmd.Flags()))
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, closer: closer}, nil
}

func (rt *runtime) Close() error {
	return rt.closer.Close()
}

// withStore opens the embedded store and the back-office services, runs fn
// and shuts everything down.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime, srv *store.Server, services *admin.Services) error) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	srv, err := store.Open(rt.cfg.DataDir, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			rt.logger.Warn("closing store", "error", err)
		}
	}()

	ctx := cmd.Context()
	services, err := admin.Open(ctx, srv, nil)
	if err != nil {
		return err
	}
	return fn(ctx, rt, srv, services)
}
