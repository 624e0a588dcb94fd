package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/pkg/consultation"
)

var (
	watchNew     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	watchChanged = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	watchDeleted = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	watchMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print consultation requests as they arrive or change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, rt *runtime, _ *store.Server, services *admin.Services) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			changes, err := services.Records.Watch(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, watchMuted.Render("watching consultations, ctrl-c to stop"))
			for change := range changes {
				fmt.Fprintln(out, formatChange(change))
			}
			return nil
		})
	},
}

func formatChange(change store.Change[consultation.Record]) string {
	if change.Op == store.OpDelete {
		return watchDeleted.Render("deleted") + " " + change.Key
	}
	rec := change.Value
	label := watchChanged.Render(string(rec.Status))
	if rec.Status == consultation.StatusNew {
		label = watchNew.Render(string(rec.Status))
	}
	return fmt.Sprintf("%s %s %s <%s> %s %s",
		label,
		watchMuted.Render(rec.ID),
		rec.Name,
		rec.Email,
		rec.BusinessType,
		watchMuted.Render(strings.Join(rec.ServicesInterested, ", ")),
	)
}
