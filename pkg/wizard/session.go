package wizard

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/validation"
	"github.com/goliatone/go-intake/pkg/visibility"
)

// Status is the submission lifecycle of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// StatusObserver is called after every status change, outside the session
// lock.
type StatusObserver func(from, to Status)

// Option configures a Session.
type Option func(*Session)

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatusObserver registers a callback for status transitions.
func WithStatusObserver(fn StatusObserver) Option {
	return func(s *Session) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithRules adds step rules that apply to every step on top of the rules the
// form declares.
func WithRules(rules ...validation.StepRule) Option {
	return func(s *Session) {
		s.rules = append(s.rules, rules...)
	}
}

// WithVisibility replaces the evaluator for fields that declare VisibleWhen.
func WithVisibility(eval visibility.Evaluator) Option {
	return func(s *Session) {
		if eval != nil {
			s.visibility = eval
		}
	}
}

// Session is the single source of truth for one run through a form: values,
// per-field errors, the current step, and the submission status. It is safe
// for concurrent use; while a submission is in flight every mutation is
// rejected with ErrBusy.
type Session struct {
	mu sync.Mutex

	form      *model.Form
	values    model.Values
	errors    map[string]string
	current   int
	status    Status
	validated []bool

	rules      []validation.StepRule
	visibility visibility.Evaluator
	observers  []StatusObserver
	logger     *slog.Logger
}

// NewSession starts a session on step 0 with default values.
func NewSession(form *model.Form, options ...Option) (*Session, error) {
	if form == nil {
		return nil, fmt.Errorf("wizard: form is required")
	}
	s := &Session{
		form:       form,
		visibility: visibility.Expressions,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.resetLocked()
	return s, nil
}

// Form returns the form definition the session runs on.
func (s *Session) Form() *model.Form { return s.form }

// SetValue writes a field value without validating it.
func (s *Session) SetValue(key string, value model.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSubmitting {
		return ErrBusy
	}
	spec, ok := s.form.Field(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if !spec.Accepts(value) {
		return fmt.Errorf("%w: %q expects %s", ErrValueKind, key, spec.Kind)
	}
	s.values[key] = spec.Normalize(value.Clone())
	return nil
}

// Value returns a copy of the current value for key.
func (s *Session) Value(key string) (model.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v.Clone(), ok
}

// Values returns a copy of every current value.
func (s *Session) Values() model.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Errors returns a copy of the per-field messages from the last validation.
func (s *Session) Errors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.errors)
}

// Error returns the message for key, or "" when the field is valid.
func (s *Session) Error(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[key]
}

// Visible reports whether key is shown given the current values. Hidden
// fields keep their values but are skipped by validation.
func (s *Session) Visible(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked(key)
}

// Status returns the submission status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ValidateStep validates exactly the fields of step index, replaces their
// messages in the error map, and reports whether they all passed.
func (s *Session) ValidateStep(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateStepLocked(index)
}

// ValidateAll validates every step, never short-circuiting, so the error map
// covers every invalid field in the form.
func (s *Session) ValidateAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateAllLocked()
}

// Reset restores defaults, clears errors, returns to step 0, and sets the
// status to idle. It is rejected with ErrBusy while a submission is in flight.
func (s *Session) Reset() error {
	s.mu.Lock()
	from := s.status
	if from == StatusSubmitting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.resetLocked()
	s.mu.Unlock()
	s.emit(from, StatusIdle)
	return nil
}

// Snapshot is a consistent copy of the session, suitable for rendering.
type Snapshot struct {
	Step     model.StepSpec
	Fields   []model.FieldSpec
	Values   model.Values
	Errors   map[string]string
	Hidden   map[string]bool
	Progress Progress
	Status   Status
}

// Snapshot captures the current step, its fields, and the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, _ := s.form.Step(s.current)
	fields := s.form.StepFields(s.current)
	hidden := make(map[string]bool)
	for _, f := range fields {
		if !s.visibleLocked(f.Key) {
			hidden[f.Key] = true
		}
	}
	return Snapshot{
		Step:     step,
		Fields:   fields,
		Values:   s.values.Clone(),
		Errors:   maps.Clone(s.errors),
		Hidden:   hidden,
		Progress: s.progressLocked(),
		Status:   s.status,
	}
}

func (s *Session) validateStepLocked(index int) bool {
	if !s.form.HasStep(index) {
		return false
	}
	result := validation.ValidateStep(s.form, index, s.values, s.rules...)
	for key := range result.Errors {
		if !s.visibleLocked(key) {
			delete(result.Errors, key)
		}
	}
	result.Valid = len(result.Errors) == 0
	for _, key := range s.stepKeys(index) {
		delete(s.errors, key)
	}
	maps.Copy(s.errors, result.Errors)
	if result.Valid {
		s.validated[index] = true
	}
	return result.Valid
}

func (s *Session) validateAllLocked() bool {
	valid := true
	for i := 0; i < s.form.StepCount(); i++ {
		if !s.validateStepLocked(i) {
			valid = false
		}
	}
	return valid
}

func (s *Session) visibleLocked(key string) bool {
	spec, ok := s.form.Field(key)
	if !ok || spec.VisibleWhen == "" {
		return true
	}
	shown, err := s.visibility.Eval(key, spec.VisibleWhen, visibility.Context{Values: s.values.Plain()})
	if err != nil {
		s.logger.Warn("visibility rule failed, showing field", "field", key, "rule", spec.VisibleWhen, "error", err)
		return true
	}
	return shown
}

func (s *Session) stepKeys(index int) []string {
	step, _ := s.form.Step(index)
	return step.FieldKeys
}

func (s *Session) resetLocked() {
	s.values = s.form.Defaults()
	s.errors = make(map[string]string)
	s.current = 0
	s.status = StatusIdle
	s.validated = make([]bool, s.form.StepCount())
}

// setStatusLocked records a transition and returns the previous status.
func (s *Session) setStatusLocked(to Status) Status {
	from := s.status
	s.status = to
	return from
}

func (s *Session) emit(from, to Status) {
	if from == to {
		return
	}
	s.logger.Debug("wizard status changed", "form", s.form.ID(), "from", string(from), "to", string(to))
	for _, fn := range s.observers {
		fn(from, to)
	}
}
