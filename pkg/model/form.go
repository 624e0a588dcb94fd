package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-intake/pkg/visibility"
)

// ErrInvalidForm is returned by NewForm when the declaration is inconsistent.
var ErrInvalidForm = errors.New("model: invalid form definition")

// RuleRequiredWhen marks Target as required while Source equals Equals.
const RuleRequiredWhen = "requiredWhen"

// RuleSpec declares a step-level rule that inspects sibling values.
type RuleSpec struct {
	Kind    string `json:"kind" yaml:"kind"`
	Target  string `json:"target" yaml:"target"`
	Source  string `json:"source" yaml:"source"`
	Equals  string `json:"equals" yaml:"equals"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// StepSpec groups fields into one wizard page. Title and Description are
// presentation only.
type StepSpec struct {
	Order       int        `json:"order" yaml:"order"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	FieldKeys   []string   `json:"fields" yaml:"fields"`
	Rules       []RuleSpec `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Form is the validated, immutable pairing of fields and steps.
type Form struct {
	id     string
	fields map[string]FieldSpec
	steps  []StepSpec
	owner  map[string]int
}

// NewForm checks the declaration and builds a Form. Every field must be owned
// by exactly one step, and step orders must run 0..N-1.
func NewForm(id string, fields []FieldSpec, steps []StepSpec) (*Form, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps declared", ErrInvalidForm)
	}

	form := &Form{
		id:     strings.TrimSpace(id),
		fields: make(map[string]FieldSpec, len(fields)),
		owner:  make(map[string]int, len(fields)),
	}

	for _, field := range fields {
		if err := field.check(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
		if _, exists := form.fields[field.Key]; exists {
			return nil, fmt.Errorf("%w: duplicate field key %q", ErrInvalidForm, field.Key)
		}
		form.fields[field.Key] = field
	}

	for i, step := range steps {
		if step.Order != i {
			return nil, fmt.Errorf("%w: step %q has order %d, expected %d", ErrInvalidForm, step.Title, step.Order, i)
		}
		if len(step.FieldKeys) == 0 {
			return nil, fmt.Errorf("%w: step %d declares no fields", ErrInvalidForm, i)
		}
		for _, key := range step.FieldKeys {
			if _, ok := form.fields[key]; !ok {
				return nil, fmt.Errorf("%w: step %d references undeclared field %q", ErrInvalidForm, i, key)
			}
			if prev, owned := form.owner[key]; owned {
				return nil, fmt.Errorf("%w: field %q owned by steps %d and %d", ErrInvalidForm, key, prev, i)
			}
			form.owner[key] = i
		}
		for _, rule := range step.Rules {
			if err := checkRule(rule, form.fields); err != nil {
				return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidForm, i, err)
			}
		}
		form.steps = append(form.steps, cloneStep(step))
	}

	for key, field := range form.fields {
		if _, ok := form.owner[key]; !ok {
			return nil, fmt.Errorf("%w: field %q is not owned by any step", ErrInvalidForm, key)
		}
		if err := checkVisibility(field, form.fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
	}

	return form, nil
}

// MustNewForm panics on invalid declarations. Intended for embedded fixtures.
func MustNewForm(id string, fields []FieldSpec, steps []StepSpec) *Form {
	form, err := NewForm(id, fields, steps)
	if err != nil {
		panic(err)
	}
	return form
}

func checkRule(rule RuleSpec, fields map[string]FieldSpec) error {
	switch rule.Kind {
	case RuleRequiredWhen:
	default:
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	if _, ok := fields[rule.Target]; !ok {
		return fmt.Errorf("rule target %q is not declared", rule.Target)
	}
	if _, ok := fields[rule.Source]; !ok {
		return fmt.Errorf("rule source %q is not declared", rule.Source)
	}
	return nil
}

func checkVisibility(field FieldSpec, fields map[string]FieldSpec) error {
	if strings.TrimSpace(field.VisibleWhen) == "" {
		return nil
	}
	if field.Required {
		return fmt.Errorf("field %q is required and cannot be conditionally hidden", field.Key)
	}
	rule, err := visibility.ParseRule(field.VisibleWhen)
	if err != nil {
		return fmt.Errorf("field %q: %v", field.Key, err)
	}
	if rule.Key == field.Key {
		return fmt.Errorf("field %q: visibility depends on itself", field.Key)
	}
	if _, ok := fields[rule.Key]; !ok {
		return fmt.Errorf("field %q: visibility references undeclared field %q", field.Key, rule.Key)
	}
	return nil
}

func cloneStep(step StepSpec) StepSpec {
	out := step
	out.FieldKeys = append([]string(nil), step.FieldKeys...)
	out.Rules = append([]RuleSpec(nil), step.Rules...)
	return out
}

// ID returns the form identifier.
func (f *Form) ID() string { return f.id }

// StepCount returns the number of steps.
func (f *Form) StepCount() int { return len(f.steps) }

// IsLastStep reports whether index is the final step.
func (f *Form) IsLastStep(index int) bool { return index == len(f.steps)-1 }

// HasStep reports whether index addresses a declared step.
func (f *Form) HasStep(index int) bool { return index >= 0 && index < len(f.steps) }

// Step returns a copy of the step at index.
func (f *Form) Step(index int) (StepSpec, bool) {
	if !f.HasStep(index) {
		return StepSpec{}, false
	}
	return cloneStep(f.steps[index]), true
}

// Steps returns copies of every step in order.
func (f *Form) Steps() []StepSpec {
	out := make([]StepSpec, 0, len(f.steps))
	for _, step := range f.steps {
		out = append(out, cloneStep(step))
	}
	return out
}

// StepFields returns the ordered field specs rendered on step index.
func (f *Form) StepFields(index int) []FieldSpec {
	if !f.HasStep(index) {
		return nil
	}
	keys := f.steps[index].FieldKeys
	out := make([]FieldSpec, 0, len(keys))
	for _, key := range keys {
		out = append(out, f.fields[key])
	}
	return out
}

// Field looks up a field spec by key.
func (f *Form) Field(key string) (FieldSpec, bool) {
	spec, ok := f.fields[key]
	return spec, ok
}

// StepOf returns the step index that owns key.
func (f *Form) StepOf(key string) (int, bool) {
	idx, ok := f.owner[key]
	return idx, ok
}

// Keys returns every field key in step order.
func (f *Form) Keys() []string {
	out := make([]string, 0, len(f.fields))
	for _, step := range f.steps {
		out = append(out, step.FieldKeys...)
	}
	return out
}

// Defaults returns a fresh map of initial values.
func (f *Form) Defaults() Values {
	out := make(Values, len(f.fields))
	for key, spec := range f.fields {
		out[key] = spec.Default()
	}
	return out
}
