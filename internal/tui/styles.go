package tui

import (
	"context"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-intake/pkg/notify"
)

// Styles holds the lipgloss styles the terminal wizard prints with.
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Info    lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	}
}

// PlainStyles renders text unstyled.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Title: plain, Muted: plain, Error: plain, Success: plain, Info: plain}
}

// Notifier says notifications through p as styled lines.
func Notifier(p Prompter, styles Styles) notify.Notifier {
	return notify.Func(func(ctx context.Context, n notify.Notification) {
		style := styles.Info
		marker := "•"
		switch n.Severity {
		case notify.SeveritySuccess:
			style, marker = styles.Success, "✓"
		case notify.SeverityError:
			style, marker = styles.Error, "✗"
		}
		_ = p.Say(ctx, style.Render(marker+" "+n.Message))
	})
}
