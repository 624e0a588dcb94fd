// Package validation turns field specs and step rules into verdicts. Every
// function here is pure: it reads a spec and values and returns messages.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-intake/pkg/model"
)

// Verdict is the outcome of validating a single field. Message is empty when
// Valid is true.
type Verdict struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func ok() Verdict { return Verdict{Valid: true} }

func fail(format string, args ...any) Verdict {
	return Verdict{Message: fmt.Sprintf(format, args...)}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

// IsEmail reports whether s has the shape local@domain.tld.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidateField checks value against spec. The first violated rule wins.
func ValidateField(spec model.FieldSpec, value model.Value) Verdict {
	if !spec.Accepts(value) {
		return fail("%s has an unexpected value.", spec.DisplayLabel())
	}

	switch spec.Kind {
	case model.KindText, model.KindLongText:
		return validateText(spec, value.Text)
	case model.KindEmail:
		return validateEmail(spec, value.Text)
	case model.KindURLOptional:
		return ok()
	case model.KindSelect, model.KindRadio:
		return validateChoice(spec, value.Text)
	case model.KindMultiSelect:
		return validateSet(spec, value.Set)
	case model.KindRange:
		return ok()
	default:
		return fail("%s has an unsupported field kind %q.", spec.DisplayLabel(), spec.Kind)
	}
}

func validateText(spec model.FieldSpec, raw string) Verdict {
	text := CleanText(raw)
	length := utf8.RuneCountInString(text)
	c := spec.Constraints

	if text == "" {
		if spec.Required {
			return fail("%s is required.", spec.DisplayLabel())
		}
		return ok()
	}
	if spec.Required && c.MinLength > 0 && length < c.MinLength {
		return fail("%s must be at least %d characters.", spec.DisplayLabel(), c.MinLength)
	}
	if c.MaxLength > 0 && length > c.MaxLength {
		return fail("%s must be at most %d characters.", spec.DisplayLabel(), c.MaxLength)
	}
	if re := compiled(c.Pattern); re != nil && !re.MatchString(text) {
		return fail("%s has an invalid format.", spec.DisplayLabel())
	}
	return ok()
}

// Email fields are always treated as required.
func validateEmail(spec model.FieldSpec, raw string) Verdict {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fail("%s is required.", spec.DisplayLabel())
	}
	re := compiled(spec.Constraints.Pattern)
	if re == nil {
		re = emailPattern
	}
	if !re.MatchString(text) {
		return fail("Please enter a valid email address.")
	}
	return ok()
}

func validateChoice(spec model.FieldSpec, value string) Verdict {
	if value == "" {
		if !spec.Required {
			return ok()
		}
		return fail("Please select %s.", strings.ToLower(spec.DisplayLabel()))
	}
	if !spec.Allows(value) {
		return fail("%q is not a valid option for %s.", value, spec.DisplayLabel())
	}
	return ok()
}

func validateSet(spec model.FieldSpec, items []string) Verdict {
	for _, item := range items {
		if !spec.Allows(item) {
			return fail("%q is not a valid option for %s.", item, spec.DisplayLabel())
		}
	}
	minItems := spec.Constraints.MinItems
	if spec.Required && minItems < 1 {
		minItems = 1
	}
	if len(model.SetValue(items...).Set) < minItems {
		if minItems == 1 {
			return fail("Please select at least one option for %s.", strings.ToLower(spec.DisplayLabel()))
		}
		return fail("Please select at least %d options for %s.", minItems, strings.ToLower(spec.DisplayLabel()))
	}
	return ok()
}

func compiled(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, found := patternCache[pattern]; found {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	patternCache[pattern] = re
	return re
}
