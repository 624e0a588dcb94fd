// Package consultation defines the four-step consultation request form, the
// record it produces for the data store, and the schema that record must meet.
package consultation

import (
	_ "embed"
	"sync"

	"github.com/goliatone/go-intake/pkg/model"
)

// Field keys of the consultation form.
const (
	FieldName               = "name"
	FieldEmail              = "email"
	FieldWebsite            = "website"
	FieldBusinessType       = "businessType"
	FieldBusinessDetails    = "businessDetails"
	FieldOnlinePresence     = "onlinePresence"
	FieldMainGoal           = "mainGoal"
	FieldBiggestChallenge   = "biggestChallenge"
	FieldInterestedServices = "interestedServices"
	FieldBudget             = "budget"
)

// BusinessTypeOther activates the businessDetails requirement.
const BusinessTypeOther = "other"

// DefaultBudget is the slider's starting value.
const DefaultBudget = 1000000

//go:embed form.yaml
var definition []byte

var (
	formOnce sync.Once
	form     *model.Form
	formErr  error
)

// Form returns the shared, immutable consultation form definition.
func Form() (*model.Form, error) {
	formOnce.Do(func() {
		form, formErr = model.LoadDefinition(definition, "consultation/form.yaml")
	})
	return form, formErr
}

// MustForm is Form for callers that treat an invalid embedded definition as a
// programming error.
func MustForm() *model.Form {
	f, err := Form()
	if err != nil {
		panic(err)
	}
	return f
}
