package wizard_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/consultation"
	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/wizard"
)

func newSession(t *testing.T, options ...wizard.Option) *wizard.Session {
	t.Helper()
	s, err := wizard.NewSession(consultation.MustForm(), options...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func set(t *testing.T, s *wizard.Session, key string, v model.Value) {
	t.Helper()
	if err := s.SetValue(key, v); err != nil {
		t.Fatalf("set %s: %v", key, err)
	}
}

func fillStep(t *testing.T, s *wizard.Session, step int) {
	t.Helper()
	switch step {
	case 0:
		set(t, s, consultation.FieldName, model.TextValue("Ada Lovelace"))
		set(t, s, consultation.FieldEmail, model.TextValue("ada@example.com"))
	case 1:
		set(t, s, consultation.FieldBusinessType, model.TextValue("saas"))
		set(t, s, consultation.FieldOnlinePresence, model.TextValue("yes"))
	case 2:
		set(t, s, consultation.FieldMainGoal, model.TextValue("Double our inbound leads"))
		set(t, s, consultation.FieldBiggestChallenge, model.TextValue("Our site is slow and hard to update"))
	case 3:
		set(t, s, consultation.FieldInterestedServices, model.SetValue("web-design", "seo"))
	}
}

// walkToLast fills and advances through every step, leaving the session on
// the last one with all values set.
func walkToLast(t *testing.T, s *wizard.Session) {
	t.Helper()
	for step := 0; step < s.StepCount(); step++ {
		fillStep(t, s, step)
		if step < s.StepCount()-1 {
			if err := s.Next(); err != nil {
				t.Fatalf("next from %d: %v", step, err)
			}
		}
	}
}

func TestNewSession_Defaults(t *testing.T) {
	s := newSession(t)

	if got := s.CurrentStep(); got != 0 {
		t.Fatalf("want step 0, got %d", got)
	}
	if got := s.Status(); got != wizard.StatusIdle {
		t.Fatalf("want idle, got %s", got)
	}
	budget, ok := s.Value(consultation.FieldBudget)
	if !ok {
		t.Fatalf("budget has no default")
	}
	if n, _ := budget.Number(); n != consultation.DefaultBudget {
		t.Fatalf("want default budget %d, got %v", consultation.DefaultBudget, n)
	}
	if len(s.Errors()) != 0 {
		t.Fatalf("fresh session has errors: %v", s.Errors())
	}
}

func TestNext_BlocksOnInvalidStep(t *testing.T) {
	s := newSession(t)
	set(t, s, consultation.FieldEmail, model.TextValue("ada@example.com"))

	if err := s.Next(); !errors.Is(err, wizard.ErrStepInvalid) {
		t.Fatalf("want ErrStepInvalid, got %v", err)
	}
	if got := s.CurrentStep(); got != 0 {
		t.Fatalf("want step 0, got %d", got)
	}
	want := map[string]string{consultation.FieldName: "Name is required."}
	if diff := cmp.Diff(want, s.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNext_ClearsStaleErrors(t *testing.T) {
	s := newSession(t)
	if err := s.Next(); !errors.Is(err, wizard.ErrStepInvalid) {
		t.Fatalf("want ErrStepInvalid, got %v", err)
	}
	fillStep(t, s, 0)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(s.Errors()) != 0 {
		t.Fatalf("errors not cleared: %v", s.Errors())
	}
	if got := s.CurrentStep(); got != 1 {
		t.Fatalf("want step 1, got %d", got)
	}
}

func TestNext_OnLastStep(t *testing.T) {
	s := newSession(t)
	walkToLast(t, s)
	if err := s.Next(); !errors.Is(err, wizard.ErrLastStep) {
		t.Fatalf("want ErrLastStep, got %v", err)
	}
}

func TestBack_PreservesValues(t *testing.T) {
	s := newSession(t)
	fillStep(t, s, 0)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	set(t, s, consultation.FieldBusinessType, model.TextValue("agency"))

	before := s.Values()
	if err := s.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if diff := cmp.Diff(before, s.Values()); diff != "" {
		t.Fatalf("values changed on back (-want +got):\n%s", diff)
	}
	if err := s.Back(); !errors.Is(err, wizard.ErrFirstStep) {
		t.Fatalf("want ErrFirstStep, got %v", err)
	}
}

func TestCrossFieldRule(t *testing.T) {
	s := newSession(t)
	fillStep(t, s, 0)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	set(t, s, consultation.FieldBusinessType, model.TextValue(consultation.BusinessTypeOther))
	set(t, s, consultation.FieldOnlinePresence, model.TextValue("no"))
	if err := s.Next(); !errors.Is(err, wizard.ErrStepInvalid) {
		t.Fatalf("want ErrStepInvalid, got %v", err)
	}
	if got := s.Error(consultation.FieldBusinessDetails); got != "Please describe your business." {
		t.Fatalf("unexpected message %q", got)
	}

	set(t, s, consultation.FieldBusinessDetails, model.TextValue("We repair vintage synthesizers"))
	if err := s.Next(); err != nil {
		t.Fatalf("next with details: %v", err)
	}
}

func TestVisibility_HidesBusinessDetails(t *testing.T) {
	s := newSession(t)
	fillStep(t, s, 0)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	if s.Visible(consultation.FieldBusinessDetails) {
		t.Fatalf("details visible before a business type is chosen")
	}
	if !s.Snapshot().Hidden[consultation.FieldBusinessDetails] {
		t.Fatalf("snapshot does not mark details hidden")
	}

	set(t, s, consultation.FieldBusinessType, model.TextValue(consultation.BusinessTypeOther))
	if !s.Visible(consultation.FieldBusinessDetails) {
		t.Fatalf("details hidden for other")
	}

	// A hidden field never blocks the step, whatever it holds.
	set(t, s, consultation.FieldBusinessDetails, model.TextValue(strings.Repeat("x", 600)))
	set(t, s, consultation.FieldBusinessType, model.TextValue("saas"))
	set(t, s, consultation.FieldOnlinePresence, model.TextValue("yes"))
	if err := s.Next(); err != nil {
		t.Fatalf("hidden field blocked next: %v", err)
	}
}

func TestSetValue_Rejections(t *testing.T) {
	s := newSession(t)

	if err := s.SetValue("nope", model.TextValue("x")); !errors.Is(err, wizard.ErrUnknownField) {
		t.Fatalf("want ErrUnknownField, got %v", err)
	}
	if err := s.SetValue(consultation.FieldBudget, model.TextValue("lots")); !errors.Is(err, wizard.ErrValueKind) {
		t.Fatalf("want ErrValueKind, got %v", err)
	}
}

func TestSetValue_NormalisesRange(t *testing.T) {
	s := newSession(t)
	set(t, s, consultation.FieldBudget, model.RangeValue(123456789))

	got, _ := s.Value(consultation.FieldBudget)
	if diff := cmp.Diff(model.RangeValue(10000000), got); diff != "" {
		t.Fatalf("budget mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateAll_ReportsEveryInvalidField(t *testing.T) {
	s := newSession(t)
	if s.ValidateAll() {
		t.Fatalf("empty form validated")
	}

	got := make([]string, 0)
	for key := range s.Errors() {
		got = append(got, key)
	}
	want := []string{
		consultation.FieldName,
		consultation.FieldEmail,
		consultation.FieldBusinessType,
		consultation.FieldOnlinePresence,
		consultation.FieldMainGoal,
		consultation.FieldBiggestChallenge,
		consultation.FieldInterestedServices,
	}
	if diff := cmp.Diff(want, got, sortStrings); diff != "" {
		t.Fatalf("invalid fields mismatch (-want +got):\n%s", diff)
	}
}

func TestJumpTo(t *testing.T) {
	s := newSession(t)

	if err := s.JumpTo(2); !errors.Is(err, wizard.ErrStepLocked) {
		t.Fatalf("want ErrStepLocked, got %v", err)
	}
	if err := s.JumpTo(9); !errors.Is(err, wizard.ErrStepOutOfRange) {
		t.Fatalf("want ErrStepOutOfRange, got %v", err)
	}

	walkToLast(t, s)
	if err := s.JumpTo(0); err != nil {
		t.Fatalf("jump back: %v", err)
	}
	if err := s.JumpTo(3); err != nil {
		t.Fatalf("jump forward over validated steps: %v", err)
	}

	want := []bool{true, true, true, true}
	if diff := cmp.Diff(want, s.Progress().Reachable); diff != "" {
		t.Fatalf("reachable mismatch (-want +got):\n%s", diff)
	}
}

func TestProgress(t *testing.T) {
	s := newSession(t)
	fillStep(t, s, 0)
	if err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	want := wizard.Progress{
		Current:   1,
		Total:     4,
		Percent:   50,
		IsFirst:   false,
		IsLast:    false,
		Reachable: []bool{true, true, false, false},
	}
	if diff := cmp.Diff(want, s.Progress()); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_CurrentStepFields(t *testing.T) {
	s := newSession(t)
	snap := s.Snapshot()

	var keys []string
	for _, f := range snap.Fields {
		keys = append(keys, f.Key)
	}
	want := []string{consultation.FieldName, consultation.FieldEmail, consultation.FieldWebsite}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if snap.Step.Title != "Basic info" {
		t.Fatalf("unexpected step %q", snap.Step.Title)
	}
}

func TestReset(t *testing.T) {
	s := newSession(t)
	walkToLast(t, s)
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.CurrentStep() != 0 {
		t.Fatalf("reset did not rewind")
	}
	if got := s.Values().Text(consultation.FieldName); got != "" {
		t.Fatalf("name survived reset: %q", got)
	}
	if err := s.JumpTo(2); !errors.Is(err, wizard.ErrStepLocked) {
		t.Fatalf("reset must relock later steps, got %v", err)
	}
}
