package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/internal/tui"
	"github.com/goliatone/go-intake/pkg/consultation"
	"github.com/goliatone/go-intake/pkg/notify"
	"github.com/goliatone/go-intake/pkg/wizard"
)

var plainOutput bool

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Fill in a consultation request from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, rt *runtime, _ *store.Server, services *admin.Services) error {
			styles := tui.DefaultStyles()
			if plainOutput {
				styles = tui.PlainStyles()
			}

			session, err := wizard.NewSession(consultation.MustForm(), wizard.WithLogger(rt.logger))
			if err != nil {
				return err
			}
			prompter := tui.NewSurveyPrompter(cmd.OutOrStdout())
			runner := tui.NewRunner(prompter,
				tui.WithStyles(styles),
				tui.WithLogger(rt.logger),
			)
			controller, err := wizard.NewController(session, consultation.Encode, wizard.Inserter[consultation.Record](services.Records),
				wizard.WithNotifier(notify.Multi(tui.Notifier(prompter, styles), notify.Log(rt.logger))),
				wizard.WithRedirector(runner.Redirector()),
				wizard.WithThankYouPath(rt.cfg.ThankYouPath),
				wizard.WithControllerLogger(rt.logger),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = runner.Run(ctx, session, controller)
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			return err
		})
	},
}

func init() {
	wizardCmd.Flags().BoolVar(&plainOutput, "plain", false, "Disable colors")
}
