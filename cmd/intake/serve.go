package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/internal/web"
	"github.com/goliatone/go-intake/pkg/auth"
	"github.com/goliatone/go-intake/pkg/consultation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wizard, public API and admin back-office over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, rt *runtime, srv *store.Server, services *admin.Services) error {
			form, err := consultation.Form()
			if err != nil {
				return err
			}

			manifest := web.DefaultManifest()
			if rt.cfg.Theme != "" {
				manifest.Name = rt.cfg.Theme
			}
			options := []web.Option{
				web.WithLogger(rt.logger),
				web.WithThankYouPath(rt.cfg.ThankYouPath),
				web.WithSessionTTL(rt.cfg.SessionTTL),
				web.WithTheme(manifest, rt.cfg.ThemeVariant),
				web.WithPinger(srv),
			}
			if rt.cfg.AdminToken != "" {
				options = append(options, web.WithAuthenticator(auth.StaticToken{Token: rt.cfg.AdminToken}))
			} else {
				rt.logger.Warn("admin token not set, admin API disabled")
			}

			server, err := web.New(form, services.Records, services, options...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, rt.cfg.Addr)
		})
	},
}
