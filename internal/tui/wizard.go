// Package tui runs the consultation wizard in a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/wizard"
)

// Submitter sends the completed form. *wizard.Controller satisfies it.
type Submitter interface {
	Submit(ctx context.Context) error
}

// Step actions offered after a step's fields.
const (
	actionNext   = "Next"
	actionBack   = "Back"
	actionSubmit = "Send request"
	actionCancel = "Cancel"
)

// Option configures a Runner.
type Option func(*Runner)

// WithStyles overrides the palette.
func WithStyles(styles Styles) Option {
	return func(r *Runner) { r.styles = styles }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner walks a wizard session step by step through a Prompter.
type Runner struct {
	prompter Prompter
	styles   Styles
	logger   *slog.Logger
}

// NewRunner returns a Runner over prompter.
func NewRunner(prompter Prompter, options ...Option) *Runner {
	r := &Runner{
		prompter: prompter,
		styles:   DefaultStyles(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run prompts until the form is submitted or the user cancels. A failed
// submission offers a retry; declining returns the submission error.
func (r *Runner) Run(ctx context.Context, session *wizard.Session, submitter Submitter) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := session.Snapshot()
		r.printHeader(ctx, snap)

		for _, spec := range snap.Fields {
			if !session.Visible(spec.Key) {
				continue
			}
			value, err := r.prompt(ctx, spec, snap.Values[spec.Key], snap.Errors[spec.Key])
			if err != nil {
				return err
			}
			if err := session.SetValue(spec.Key, value); err != nil {
				return fmt.Errorf("tui: set %s: %w", spec.Key, err)
			}
		}

		action, err := r.chooseAction(ctx, snap.Progress)
		if err != nil {
			return err
		}

		switch action {
		case actionCancel:
			return ErrAborted
		case actionBack:
			if err := session.Back(); err != nil {
				return err
			}
		case actionNext:
			err := session.Next()
			if errors.Is(err, wizard.ErrStepInvalid) {
				r.printErrors(ctx, session.Errors())
				continue
			}
			if err != nil {
				return err
			}
		case actionSubmit:
			done, err := r.submit(ctx, session, submitter)
			if done || err != nil {
				return err
			}
		}
	}
}

// submit reports done when the submission succeeded.
func (r *Runner) submit(ctx context.Context, session *wizard.Session, submitter Submitter) (bool, error) {
	err := submitter.Submit(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, wizard.ErrValidation):
		errs := session.Errors()
		r.printErrors(ctx, errs)
		if step, ok := firstInvalidStep(session.Form(), errs); ok {
			if err := session.JumpTo(step); err != nil {
				return false, err
			}
		}
		return false, nil
	case errors.Is(err, wizard.ErrPersist):
		r.logger.Warn("submission failed", "error", err)
		retry, cerr := r.prompter.Confirm(ctx, "Try sending again?", true)
		if cerr != nil {
			return false, cerr
		}
		if !retry {
			return false, err
		}
		return false, nil
	default:
		return false, err
	}
}

func (r *Runner) chooseAction(ctx context.Context, p wizard.Progress) (string, error) {
	var actions []string
	if p.IsLast {
		actions = append(actions, actionSubmit)
	} else {
		actions = append(actions, actionNext)
	}
	if !p.IsFirst {
		actions = append(actions, actionBack)
	}
	actions = append(actions, actionCancel)

	idx, err := r.prompter.Choose(ctx, Question{Label: "What next?", Options: actions})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(actions) {
		return "", fmt.Errorf("tui: invalid action index %d", idx)
	}
	return actions[idx], nil
}

func (r *Runner) prompt(ctx context.Context, spec model.FieldSpec, current model.Value, fieldErr string) (model.Value, error) {
	if fieldErr != "" {
		r.say(ctx, r.styles.Error.Render("  "+fieldErr))
	}
	q := Question{Label: spec.DisplayLabel(), Help: spec.Description}
	if !spec.Required && spec.Kind != model.KindRange {
		q.Label += " (optional)"
	}

	switch spec.Kind {
	case model.KindText, model.KindEmail, model.KindURLOptional:
		q.Default = current.Text
		text, err := r.prompter.Line(ctx, q)
		return model.TextValue(strings.TrimSpace(text)), err

	case model.KindLongText:
		q.Default = current.Text
		text, err := r.prompter.Paragraph(ctx, q)
		return model.TextValue(strings.TrimSpace(text)), err

	case model.KindSelect, model.KindRadio:
		values := spec.OptionValues()
		labels := make([]string, 0, len(values)+1)
		if !spec.Required {
			labels = append(labels, "(none)")
		}
		offset := len(labels)
		for _, v := range values {
			labels = append(labels, spec.OptionLabel(v))
		}
		q.Options = labels
		if def := slices.Index(values, current.Text); def >= 0 {
			q.Selected = []int{def + offset}
		}
		idx, err := r.prompter.Choose(ctx, q)
		if err != nil {
			return model.Value{}, err
		}
		if idx < offset || idx-offset >= len(values) {
			return model.TextValue(""), nil
		}
		return model.TextValue(values[idx-offset]), nil

	case model.KindMultiSelect:
		values := spec.OptionValues()
		for i, v := range values {
			q.Options = append(q.Options, spec.OptionLabel(v))
			if slices.Contains(current.Set, v) {
				q.Selected = append(q.Selected, i)
			}
		}
		picked, err := r.prompter.ChooseMany(ctx, q)
		if err != nil {
			return model.Value{}, err
		}
		items := make([]string, 0, len(picked))
		for _, i := range picked {
			if i >= 0 && i < len(values) {
				items = append(items, values[i])
			}
		}
		return model.SetValue(items...), nil

	case model.KindRange:
		return r.promptRange(ctx, spec, q, current)

	default:
		return model.Value{}, fmt.Errorf("tui: unsupported field kind %q", spec.Kind)
	}
}

func (r *Runner) promptRange(ctx context.Context, spec model.FieldSpec, q Question, current model.Value) (model.Value, error) {
	bounds := spec.Constraints.Range
	n, ok := current.Number()
	if !ok && bounds != nil {
		n = bounds.Default
	}
	if bounds != nil {
		q.Help = strings.TrimSpace(fmt.Sprintf("%s Between %s and %s in steps of %s.", q.Help,
			formatNumber(bounds.Min), formatNumber(bounds.Max), formatNumber(bounds.Step)))
	}
	q.Default = formatNumber(n)
	q.Check = validateNumber

	text, err := r.prompter.Line(ctx, q)
	if err != nil {
		return model.Value{}, err
	}
	parsed, err := parseNumber(text)
	if err != nil {
		return model.Value{}, err
	}
	return model.RangeValue(parsed), nil
}

func (r *Runner) printHeader(ctx context.Context, snap wizard.Snapshot) {
	p := snap.Progress
	r.say(ctx, "")
	r.say(ctx, r.styles.Title.Render(fmt.Sprintf("Step %d of %d · %s", p.Current+1, p.Total, snap.Step.Title)))
	if snap.Step.Description != "" {
		r.say(ctx, r.styles.Muted.Render(snap.Step.Description))
	}
}

func (r *Runner) printErrors(ctx context.Context, errs map[string]string) {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		r.say(ctx, r.styles.Error.Render("  "+errs[key]))
	}
}

func (r *Runner) say(ctx context.Context, line string) {
	if err := r.prompter.Say(ctx, line); err != nil {
		r.logger.Debug("terminal write failed", "error", err)
	}
}

func firstInvalidStep(form *model.Form, errs map[string]string) (int, bool) {
	best := -1
	for key := range errs {
		if step, ok := form.StepOf(key); ok && (best < 0 || step < best) {
			best = step
		}
	}
	return best, best >= 0
}

func validateNumber(s string) error {
	_, err := parseNumber(s)
	return err
}

func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "_", "", " ", "").Replace(s)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("please enter a number")
	}
	return n, nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Redirector prints the landing message the browser would navigate to.
func (r *Runner) Redirector() wizard.Redirector {
	return wizard.RedirectFunc(func(ctx context.Context, path string) {
		r.say(ctx, r.styles.Muted.Render("Thank you! We will be in touch within two business days. ("+path+")"))
	})
}
