package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-intake/pkg/model"
)

// StepRule inspects sibling values and reports messages keyed by field. Rules
// only run for fields that already passed their own FieldSpec check.
type StepRule interface {
	Check(values model.Values) map[string]string
}

// StepRuleFunc adapts a function into a StepRule.
type StepRuleFunc func(values model.Values) map[string]string

// Check implements StepRule.
func (fn StepRuleFunc) Check(values model.Values) map[string]string {
	return fn(values)
}

// RequiredWhen makes target required while source holds equals. When source
// holds anything else target always passes.
func RequiredWhen(target, source, equals, message string) StepRule {
	return StepRuleFunc(func(values model.Values) map[string]string {
		if values[source].Text != equals {
			return nil
		}
		if !values[target].IsEmpty() {
			return nil
		}
		msg := strings.TrimSpace(message)
		if msg == "" {
			msg = fmt.Sprintf("%s is required.", target)
		}
		return map[string]string{target: msg}
	})
}

// CompileRule turns a declarative rule into a StepRule.
func CompileRule(spec model.RuleSpec) (StepRule, error) {
	switch spec.Kind {
	case model.RuleRequiredWhen:
		return RequiredWhen(spec.Target, spec.Source, spec.Equals, spec.Message), nil
	default:
		return nil, fmt.Errorf("validation: unknown rule kind %q", spec.Kind)
	}
}

// StepResult carries the outcome of validating one step.
type StepResult struct {
	Valid  bool
	Errors map[string]string
}

// ValidateStep validates exactly the fields owned by step index, then its
// rules. Errors holds one message per failing field; passing fields are absent.
func ValidateStep(form *model.Form, index int, values model.Values, extra ...StepRule) StepResult {
	result := StepResult{Valid: true, Errors: map[string]string{}}
	step, found := form.Step(index)
	if !found {
		result.Valid = false
		return result
	}

	owned := make(map[string]struct{}, len(step.FieldKeys))
	for _, spec := range form.StepFields(index) {
		owned[spec.Key] = struct{}{}
		verdict := ValidateField(spec, values[spec.Key])
		if !verdict.Valid {
			result.Errors[spec.Key] = verdict.Message
		}
	}

	rules := make([]StepRule, 0, len(step.Rules)+len(extra))
	for _, spec := range step.Rules {
		rule, err := CompileRule(spec)
		if err != nil {
			result.Errors[spec.Target] = "This field could not be validated."
			continue
		}
		rules = append(rules, rule)
	}
	rules = append(rules, extra...)

	for _, rule := range rules {
		for key, msg := range rule.Check(values) {
			if _, mine := owned[key]; !mine {
				continue
			}
			if _, failed := result.Errors[key]; failed {
				continue
			}
			result.Errors[key] = msg
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
