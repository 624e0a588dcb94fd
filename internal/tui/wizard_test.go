package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/consultation"
	"github.com/goliatone/go-intake/pkg/wizard"
)

// scripted answers prompts from fixed queues and collects everything said.
type scripted struct {
	lines      []string
	paragraphs []string
	choices    []int
	many       [][]int
	confirms   []bool

	asked []Question
	said  bytes.Buffer
}

func next[T any](queue *[]T, kind string) (T, error) {
	var zero T
	if len(*queue) == 0 {
		return zero, fmt.Errorf("no %s scripted", kind)
	}
	v := (*queue)[0]
	*queue = (*queue)[1:]
	return v, nil
}

func (s *scripted) Line(_ context.Context, q Question) (string, error) {
	s.asked = append(s.asked, q)
	v, err := next(&s.lines, "line")
	if err == nil && q.Check != nil {
		err = q.Check(v)
	}
	return v, err
}

func (s *scripted) Paragraph(_ context.Context, q Question) (string, error) {
	s.asked = append(s.asked, q)
	return next(&s.paragraphs, "paragraph")
}

func (s *scripted) Choose(_ context.Context, q Question) (int, error) {
	s.asked = append(s.asked, q)
	return next(&s.choices, "choice")
}

func (s *scripted) ChooseMany(_ context.Context, q Question) ([]int, error) {
	s.asked = append(s.asked, q)
	return next(&s.many, "multi choice")
}

func (s *scripted) Confirm(_ context.Context, label string, _ bool) (bool, error) {
	s.asked = append(s.asked, Question{Label: label})
	return next(&s.confirms, "confirm")
}

func (s *scripted) Say(_ context.Context, line string) error {
	s.said.WriteString(line + "\n")
	return nil
}

func (s *scripted) question(label string) (Question, bool) {
	for i := len(s.asked) - 1; i >= 0; i-- {
		if strings.HasPrefix(s.asked[i].Label, label) {
			return s.asked[i], true
		}
	}
	return Question{}, false
}

type captureInserter struct {
	records []consultation.Record
	fail    int
}

func (c *captureInserter) Insert(_ context.Context, rec consultation.Record) error {
	if c.fail > 0 {
		c.fail--
		return errors.New("network error")
	}
	c.records = append(c.records, rec)
	return nil
}

type fixture struct {
	runner     *Runner
	session    *wizard.Session
	controller *wizard.Controller[consultation.Record]
	out        *bytes.Buffer
}

func setup(t *testing.T, p *scripted, ins *captureInserter) fixture {
	t.Helper()
	runner := NewRunner(p, WithStyles(PlainStyles()))

	session, err := wizard.NewSession(consultation.MustForm())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	controller, err := wizard.NewController(session, consultation.Encode, wizard.Inserter[consultation.Record](ins),
		wizard.WithNotifier(Notifier(p, PlainStyles())),
		wizard.WithRedirector(runner.Redirector()),
	)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return fixture{runner: runner, session: session, controller: controller, out: &p.said}
}

func (f fixture) run(t *testing.T) error {
	t.Helper()
	return f.runner.Run(context.Background(), f.session, f.controller)
}

// Business type options start at ecommerce (0), so saas is 1. Online
// presence "yes" is 0. Services: web-design is 0, seo is 3. Business details
// stay hidden unless the type is other. The action menu always follows the
// step's own prompts.
func TestRunner_HappyPath(t *testing.T) {
	p := &scripted{
		lines: []string{
			"Ada Lovelace", "ada@example.com", "",
			"2,500,000",
		},
		choices: []int{
			0,
			1, 0, 0,
			0,
			0,
		},
		paragraphs: []string{"Double our inbound leads", "Our site is slow and hard to update"},
		many:       [][]int{{0, 3}},
	}
	ins := &captureInserter{}
	f := setup(t, p, ins)

	if err := f.run(t); err != nil {
		t.Fatalf("run: %v\n%s", err, f.out)
	}

	if len(ins.records) != 1 {
		t.Fatalf("want one record, got %d", len(ins.records))
	}
	got := ins.records[0]
	if diff := cmp.Diff([]string{"web-design", "seo"}, got.ServicesInterested); diff != "" {
		t.Fatalf("services mismatch (-want +got):\n%s", diff)
	}
	if got.Budget != 2500000 {
		t.Fatalf("budget: want 2500000, got %v", got.Budget)
	}
	budget, ok := p.question("Budget")
	if !ok || budget.Check == nil || !strings.Contains(budget.Help, "Between") {
		t.Fatalf("budget prompt lacks bounds or check: %+v", budget)
	}
	if got.BusinessType != "saas" {
		t.Fatalf("business type: want saas, got %q", got.BusinessType)
	}
	output := f.out.String()
	for _, want := range []string{"Step 1 of 4", "Step 4 of 4", wizard.MessageSuccess, "/thank-you"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
	if f.session.CurrentStep() != 0 {
		t.Fatalf("session not reset after success")
	}
}

func TestRunner_InvalidStepReprompts(t *testing.T) {
	p := &scripted{
		lines: []string{
			"", "ada@example.com", "",
			"Ada Lovelace", "ada@example.com", "",
		},
		choices: []int{
			0,
			0,
			1, 0, 2,
		},
	}
	f := setup(t, p, &captureInserter{})

	err := f.run(t)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	if !strings.Contains(f.out.String(), "Name is required.") {
		t.Fatalf("field error not shown:\n%s", f.out)
	}
	if f.session.CurrentStep() != 1 {
		t.Fatalf("want step 1, got %d", f.session.CurrentStep())
	}
}

func TestRunner_BackKeepsValues(t *testing.T) {
	p := &scripted{
		lines: []string{
			"Ada Lovelace", "ada@example.com", "",
			"Ada L.", "ada@example.com", "",
		},
		choices: []int{
			0,
			2, 1, 1,
			1,
		},
	}
	f := setup(t, p, &captureInserter{})

	if err := f.run(t); !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	values := f.session.Values()
	if got := values.Text(consultation.FieldBusinessType); got != "agency" {
		t.Fatalf("business type lost on back: %q", got)
	}
	if got := values.Text(consultation.FieldName); got != "Ada L." {
		t.Fatalf("name not updated: %q", got)
	}
	q, ok := p.question("Name")
	if !ok || q.Default != "Ada Lovelace" {
		t.Fatalf("second name prompt should default to the stored value, got %+v", q)
	}
}

func TestRunner_RetryAfterPersistFailure(t *testing.T) {
	p := &scripted{
		lines: []string{
			"Ada Lovelace", "ada@example.com", "",
			"1000000",
			"1000000",
		},
		choices: []int{
			0,
			1, 0, 0,
			0,
			0,
			0,
		},
		paragraphs: []string{"Double our inbound leads", "Our site is slow and hard to update"},
		many:       [][]int{{1}, {1}},
		confirms:   []bool{true},
	}
	ins := &captureInserter{fail: 1}
	f := setup(t, p, ins)

	if err := f.run(t); err != nil {
		t.Fatalf("run: %v\n%s", err, f.out)
	}
	if len(ins.records) != 1 {
		t.Fatalf("want one stored record, got %d", len(ins.records))
	}
	if !strings.Contains(f.out.String(), wizard.MessageFailure) {
		t.Fatalf("failure not reported:\n%s", f.out)
	}
}

func TestRunner_DeclineRetryReturnsError(t *testing.T) {
	p := &scripted{
		lines:      []string{"Ada Lovelace", "ada@example.com", "", "1000000"},
		choices:    []int{0, 1, 0, 0, 0, 0},
		paragraphs: []string{"Double our inbound leads", "Our site is slow and hard to update"},
		many:       [][]int{{2}},
		confirms:   []bool{false},
	}
	f := setup(t, p, &captureInserter{fail: 1})

	err := f.run(t)
	if !errors.Is(err, wizard.ErrPersist) {
		t.Fatalf("want ErrPersist, got %v", err)
	}
	if f.session.Status() != wizard.StatusFailed {
		t.Fatalf("want failed status, got %s", f.session.Status())
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1000000", 1000000, true},
		{"2,500,000", 2500000, true},
		{" 1_000 ", 1000, true},
		{"lots", 0, false},
	}
	for _, tt := range tests {
		got, err := parseNumber(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseNumber(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunner_OtherPromptsForDetails(t *testing.T) {
	p := &scripted{
		lines: []string{
			"Ada Lovelace", "ada@example.com", "",
			"We repair vintage synthesizers",
		},
		choices: []int{
			0,
			5, 0, 2,
		},
	}
	f := setup(t, p, &captureInserter{})

	if err := f.run(t); !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	if got := f.session.Values().Text(consultation.FieldBusinessDetails); got != "We repair vintage synthesizers" {
		t.Fatalf("details not captured: %q", got)
	}
}

func TestSurveyPrompter_Say(t *testing.T) {
	var out bytes.Buffer
	p := NewSurveyPrompter(&out)

	if err := p.Say(context.Background(), "hello"); err != nil {
		t.Fatalf("say: %v", err)
	}
	if out.String() != "hello\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Say(ctx, "late"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if _, err := p.Line(ctx, Question{Label: "Name"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled before prompting, got %v", err)
	}
}
