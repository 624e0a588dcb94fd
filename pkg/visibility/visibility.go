// Package visibility decides whether a field is shown, given the values the
// user has entered so far.
package visibility

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidRule is returned for rules that do not parse.
var ErrInvalidRule = errors.New("visibility: invalid rule")

// Evaluator determines whether a field should be visible based on a rule
// string and the current values.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the form values keyed
// by field: strings, string slices, or float64. Extras allows callers to
// inject arbitrary context such as feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Operators understood by ParseRule.
const (
	OpEquals    = "=="
	OpNotEquals = "!="
	OpIn        = "in"
)

// Rule is a parsed visibility expression.
type Rule struct {
	Key    string
	Op     string
	Values []string
}

// ParseRule parses "key == value", "key != value" or "key in a, b, c".
// Values may be quoted.
func ParseRule(rule string) (Rule, error) {
	rule = strings.TrimSpace(rule)
	for _, op := range []string{OpEquals, OpNotEquals} {
		if key, value, ok := strings.Cut(rule, op); ok {
			return newRule(key, op, []string{value})
		}
	}
	if key, list, ok := strings.Cut(rule, " "+OpIn+" "); ok {
		return newRule(key, OpIn, strings.Split(list, ","))
	}
	return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, rule)
}

func newRule(key, op string, raw []string) (Rule, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Rule{}, fmt.Errorf("%w: missing field in %q", ErrInvalidRule, op)
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if v == "" && op == OpIn {
			continue
		}
		values = append(values, v)
	}
	if op == OpIn && len(values) == 0 {
		return Rule{}, fmt.Errorf("%w: %q has an empty list", ErrInvalidRule, key)
	}
	return Rule{Key: key, Op: op, Values: values}, nil
}

// Match reports whether the rule holds for ctx. A multi-value field matches
// when any of its items does.
func (r Rule) Match(ctx Context) bool {
	current := asStrings(ctx.Values[r.Key])
	hit := slices.ContainsFunc(current, func(v string) bool {
		return slices.Contains(r.Values, v)
	})
	if r.Op == OpNotEquals {
		return !hit
	}
	return hit
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{t}
	case []string:
		return t
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(t)}
	case bool:
		return []string{strconv.FormatBool(t)}
	default:
		return []string{fmt.Sprint(t)}
	}
}

// Expressions evaluates rules with ParseRule. An empty rule is always
// visible.
var Expressions Evaluator = EvaluatorFunc(func(_ string, rule string, ctx Context) (bool, error) {
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	parsed, err := ParseRule(rule)
	if err != nil {
		return false, err
	}
	return parsed.Match(ctx), nil
})
