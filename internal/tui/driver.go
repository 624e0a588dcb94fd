package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user left the wizard (Ctrl+C or Cancel).
var ErrAborted = errors.New("tui: aborted")

// Question is one prompt. Options and Selected only apply to choices;
// Selected holds indices into Options.
type Question struct {
	Label    string
	Help     string
	Default  string
	Options  []string
	Selected []int
	Check    func(string) error
}

// Prompter is the terminal as the runner sees it. Tests script it; the
// survey implementation drives a real TTY.
type Prompter interface {
	Line(ctx context.Context, q Question) (string, error)
	Paragraph(ctx context.Context, q Question) (string, error)
	Choose(ctx context.Context, q Question) (int, error)
	ChooseMany(ctx context.Context, q Question) ([]int, error)
	Confirm(ctx context.Context, label string, def bool) (bool, error)
	Say(ctx context.Context, line string) error
}

type surveyPrompter struct {
	out io.Writer
}

// NewSurveyPrompter returns the interactive Prompter. Say writes to out, or
// stdout when out is nil.
func NewSurveyPrompter(out io.Writer) Prompter {
	if out == nil {
		out = os.Stdout
	}
	return &surveyPrompter{out: out}
}

func (p *surveyPrompter) Line(ctx context.Context, q Question) (string, error) {
	var answer string
	err := ask(ctx, &survey.Input{Message: q.Label, Help: q.Help, Default: q.Default}, &answer, q.Check)
	return answer, err
}

func (p *surveyPrompter) Paragraph(ctx context.Context, q Question) (string, error) {
	var answer string
	err := ask(ctx, &survey.Multiline{Message: q.Label, Help: q.Help, Default: q.Default}, &answer, q.Check)
	return answer, err
}

// Choose returns -1 when the answer matches no option.
func (p *surveyPrompter) Choose(ctx context.Context, q Question) (int, error) {
	prompt := &survey.Select{Message: q.Label, Help: q.Help, Options: q.Options}
	if len(q.Selected) > 0 && q.Selected[0] >= 0 && q.Selected[0] < len(q.Options) {
		prompt.Default = q.Options[q.Selected[0]]
	}
	var answer string
	if err := ask(ctx, prompt, &answer, nil); err != nil {
		return -1, err
	}
	return slices.Index(q.Options, answer), nil
}

func (p *surveyPrompter) ChooseMany(ctx context.Context, q Question) ([]int, error) {
	prompt := &survey.MultiSelect{Message: q.Label, Help: q.Help, Options: q.Options}
	var defaults []string
	for _, i := range q.Selected {
		if i >= 0 && i < len(q.Options) {
			defaults = append(defaults, q.Options[i])
		}
	}
	if len(defaults) > 0 {
		prompt.Default = defaults
	}
	var answers []string
	if err := ask(ctx, prompt, &answers, nil); err != nil {
		return nil, err
	}
	picked := make([]int, 0, len(answers))
	for i, option := range q.Options {
		if slices.Contains(answers, option) {
			picked = append(picked, i)
		}
	}
	return picked, nil
}

func (p *surveyPrompter) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	var answer bool
	err := ask(ctx, &survey.Confirm{Message: label, Default: def}, &answer, nil)
	return answer, err
}

func (p *surveyPrompter) Say(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

// ask runs one survey prompt, maps Ctrl+C to ErrAborted, and applies check
// to string answers.
func ask(ctx context.Context, prompt survey.Prompt, answer any, check func(string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var opts []survey.AskOpt
	if check != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return check(s)
		}))
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
