package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-intake/internal/admin"
	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/pkg/consultation"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage consultations, posts, subscribers and work sessions",
}

func init() {
	adminCmd.AddCommand(consultationsCmd(), postsCmd(), subscribersCmd(), workCmd())
}

// adminRun adapts a service call to a cobra RunE.
func adminRun(fn func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, _ *runtime, _ *store.Server, services *admin.Services) error {
			return fn(ctx, cmd, args, services)
		})
	}
}

func printTable(out io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "nothing to show")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("244"))).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(out, t.String())
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func consultationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "consultations",
		Aliases: []string{"c"},
		Short:   "Review consultation requests",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List requests, newest first",
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, _ []string, services *admin.Services) error {
			recs, err := services.Consultations.List(ctx, consultation.Status(status))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(recs))
			for _, rec := range recs {
				rows = append(rows, []string{
					rec.ID, stamp(rec.CreatedAt), string(rec.Status), rec.Name, rec.Email,
					rec.BusinessType, consultation.FormatAmount(rec.Budget),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Created", "Status", "Name", "Email", "Type", "Budget"}, rows)
			return nil
		}),
	}
	list.Flags().StringVar(&status, "status", "", "Only show this status (new, contacted, closed, archived)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one request",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			rec, err := services.Consultations.Get(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>  %s  %s\n", rec.Name, rec.Email, rec.Status, stamp(rec.CreatedAt))
			if rec.Website != nil {
				fmt.Fprintf(out, "Website:    %s\n", *rec.Website)
			}
			fmt.Fprintf(out, "Business:   %s (%s)\n", rec.BusinessType, rec.OnlinePresence)
			if rec.BusinessDetails != nil {
				fmt.Fprintf(out, "Details:    %s\n", *rec.BusinessDetails)
			}
			fmt.Fprintf(out, "Goal:       %s\n", rec.Goal)
			fmt.Fprintf(out, "Challenge:  %s\n", rec.MainChallenge)
			fmt.Fprintf(out, "Services:   %s\n", strings.Join(rec.ServicesInterested, ", "))
			fmt.Fprintf(out, "Budget:     %s\n", consultation.FormatAmount(rec.Budget))
			return nil
		}),
	}

	setStatus := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a request to another status",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			rec, err := services.Consultations.SetStatus(ctx, args[0], consultation.Status(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", rec.ID, rec.Status)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a request",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			if err := services.Consultations.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, show, setStatus, del)
	return cmd
}

func postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage blog posts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every post",
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, _ []string, services *admin.Services) error {
			posts, err := services.Posts.List(ctx, false)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(posts))
			for _, p := range posts {
				state := "draft"
				if p.Published {
					state = "published"
				}
				rows = append(rows, []string{p.ID, p.Slug, p.Title, state, stamp(p.UpdatedAt)})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Slug", "Title", "State", "Updated"}, rows)
			return nil
		}),
	}

	var in admin.PostInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a draft post",
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, _ []string, services *admin.Services) error {
			post, err := services.Posts.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (/%s)\n", post.ID, post.Slug)
			return nil
		}),
	}
	create.Flags().StringVar(&in.Title, "title", "", "Post title")
	create.Flags().StringVar(&in.Summary, "summary", "", "Short summary")
	create.Flags().StringVar(&in.Content, "content", "", "HTML body, sanitised on save")

	publish := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a post",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			post, err := services.Posts.Publish(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published /%s\n", post.Slug)
			return nil
		}),
	}

	unpublish := &cobra.Command{
		Use:   "unpublish <id>",
		Short: "Return a post to draft",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			post, err := services.Posts.Unpublish(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unpublished /%s\n", post.Slug)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			if err := services.Posts.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, create, publish, unpublish, del)
	return cmd
}

func subscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage newsletter subscribers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subscribers",
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, _ []string, services *admin.Services) error {
			subs, err := services.Subscribers.List(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(subs))
			for _, s := range subs {
				rows = append(rows, []string{s.Email, stamp(s.SubscribedAt)})
			}
			printTable(cmd.OutOrStdout(), []string{"Email", "Subscribed"}, rows)
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Subscribe an address",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			sub, err := services.Subscribers.Subscribe(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscribed %s\n", sub.Email)
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <email>",
		Short: "Unsubscribe an address",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			if err := services.Subscribers.Unsubscribe(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func workCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Track time spent on client projects",
	}

	var note string
	start := &cobra.Command{
		Use:   "start <project>",
		Short: "Start a work session",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			session, err := services.Work.Start(ctx, args[0], note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started %s at %s\n", session.Project, stamp(session.StartedAt))
			return nil
		}),
	}
	start.Flags().StringVar(&note, "note", "", "What the session is about")

	stop := &cobra.Command{
		Use:   "stop <project>",
		Short: "Stop the running session",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			session, err := services.Work.Stop(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped %s after %s\n", session.Project, session.Duration(time.Now()).Round(time.Second))
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list [project]",
		Short: "List sessions",
		Args:  cobra.MaximumNArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			project := ""
			if len(args) == 1 {
				project = args[0]
			}
			sessions, err := services.Work.List(ctx, project)
			if err != nil {
				return err
			}
			now := time.Now()
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				ended := "running"
				if s.EndedAt != nil {
					ended = stamp(*s.EndedAt)
				}
				rows = append(rows, []string{s.Project, stamp(s.StartedAt), ended, s.Duration(now).Round(time.Second).String(), s.Note})
			}
			printTable(cmd.OutOrStdout(), []string{"Project", "Started", "Ended", "Duration", "Note"}, rows)
			return nil
		}),
	}

	total := &cobra.Command{
		Use:   "total <project>",
		Short: "Sum the time spent on a project",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, cmd *cobra.Command, args []string, services *admin.Services) error {
			d, err := services.Work.Total(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], d.Round(time.Minute))
			return nil
		}),
	}

	cmd.AddCommand(start, stop, list, total)
	return cmd
}
