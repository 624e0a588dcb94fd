package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/validation"
)

func businessForm(t *testing.T) *model.Form {
	t.Helper()
	form, err := model.NewForm("business",
		[]model.FieldSpec{
			{Key: "businessType", Label: "Business type", Kind: model.KindSelect, Required: true, Constraints: model.Constraints{
				Options: []model.Option{{Value: "saas"}, {Value: "other"}},
			}},
			{Key: "businessDetails", Label: "Business details", Kind: model.KindText},
			{Key: "note", Label: "Note", Kind: model.KindText, Required: true},
		},
		[]model.StepSpec{
			{Order: 0, Title: "Business", FieldKeys: []string{"businessType", "businessDetails"}, Rules: []model.RuleSpec{{
				Kind:    model.RuleRequiredWhen,
				Target:  "businessDetails",
				Source:  "businessType",
				Equals:  "other",
				Message: "Please describe your business.",
			}}},
			{Order: 1, Title: "Note", FieldKeys: []string{"note"}},
		},
	)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

func TestValidateStep_RequiredWhen(t *testing.T) {
	form := businessForm(t)

	tests := []struct {
		name   string
		values model.Values
		want   map[string]string
		wantOK bool
	}{
		{
			name:   "other without details fails",
			values: model.Values{"businessType": model.TextValue("other"), "businessDetails": model.TextValue("")},
			want:   map[string]string{"businessDetails": "Please describe your business."},
		},
		{
			name:   "other with details passes",
			values: model.Values{"businessType": model.TextValue("other"), "businessDetails": model.TextValue("Bakery")},
			want:   map[string]string{},
			wantOK: true,
		},
		{
			name:   "non-other ignores empty details",
			values: model.Values{"businessType": model.TextValue("saas"), "businessDetails": model.TextValue("")},
			want:   map[string]string{},
			wantOK: true,
		},
		{
			name:   "non-other ignores any details",
			values: model.Values{"businessType": model.TextValue("saas"), "businessDetails": model.TextValue("x")},
			want:   map[string]string{},
			wantOK: true,
		},
		{
			name:   "field error wins over rule",
			values: model.Values{"businessType": model.TextValue(""), "businessDetails": model.TextValue("")},
			want:   map[string]string{"businessType": "Please select business type."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validation.ValidateStep(form, 0, tt.values)
			if got.Valid != tt.wantOK {
				t.Fatalf("valid: want %v, got %v", tt.wantOK, got.Valid)
			}
			if diff := cmp.Diff(tt.want, got.Errors); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateStep_OnlyTouchesOwnedFields(t *testing.T) {
	form := businessForm(t)
	values := model.Values{
		"businessType":    model.TextValue("saas"),
		"businessDetails": model.TextValue(""),
		"note":            model.TextValue(""),
	}

	got := validation.ValidateStep(form, 0, values)
	if !got.Valid {
		t.Fatalf("step 0 should pass, got %v", got.Errors)
	}

	// Rules reporting on another step's field are ignored.
	foreign := validation.StepRuleFunc(func(model.Values) map[string]string {
		return map[string]string{"note": "nope"}
	})
	got = validation.ValidateStep(form, 0, values, foreign)
	if !got.Valid {
		t.Fatalf("foreign rule leaked into step 0: %v", got.Errors)
	}
}

func TestValidateStep_OutOfRange(t *testing.T) {
	form := businessForm(t)
	if got := validation.ValidateStep(form, 7, model.Values{}); got.Valid {
		t.Fatalf("out of range step should not validate")
	}
}

func TestCompileRule_Unknown(t *testing.T) {
	if _, err := validation.CompileRule(model.RuleSpec{Kind: "matches"}); err == nil {
		t.Fatalf("expected error for unknown rule kind")
	}
}
