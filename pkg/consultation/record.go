package consultation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/validation"
)

// Status tracks a consultation through the back-office.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusClosed    Status = "closed"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusClosed, StatusArchived:
		return true
	default:
		return false
	}
}

// Record is the row written to the consultations table. Column names follow
// the data store, not the form keys.
type Record struct {
	ID                 string    `json:"id,omitempty"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Website            *string   `json:"website"`
	BusinessType       string    `json:"business_type"`
	BusinessDetails    *string   `json:"business_details"`
	OnlinePresence     string    `json:"online_presence"`
	Goal               string    `json:"goal"`
	MainChallenge      string    `json:"main_challenge"`
	ServicesInterested []string  `json:"services_interested"`
	Budget             float64   `json:"budget"`
	Status             Status    `json:"status,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitzero"`
}

// ErrMissingBudget is returned by Encode when the budget slider has no value.
var ErrMissingBudget = errors.New("consultation: budget is missing")

// Encode maps wizard values onto a Record: keys are renamed to column names,
// the budget is lifted out of its one-element array, and free text is
// sanitised. Empty optional text becomes null.
func Encode(values model.Values) (Record, error) {
	budget, ok := values[FieldBudget].Number()
	if !ok {
		return Record{}, ErrMissingBudget
	}

	rec := Record{
		Name:               validation.CleanText(values.Text(FieldName)),
		Email:              strings.ToLower(strings.TrimSpace(values.Text(FieldEmail))),
		Website:            optional(values.Text(FieldWebsite)),
		BusinessType:       values.Text(FieldBusinessType),
		OnlinePresence:     values.Text(FieldOnlinePresence),
		Goal:               validation.CleanText(values.Text(FieldMainGoal)),
		MainChallenge:      validation.CleanText(values.Text(FieldBiggestChallenge)),
		ServicesInterested: append([]string{}, values[FieldInterestedServices].Set...),
		Budget:             budget,
	}
	if rec.BusinessType == BusinessTypeOther {
		rec.BusinessDetails = optional(values.Text(FieldBusinessDetails))
	}
	if rec.Name == "" || rec.Goal == "" || rec.MainChallenge == "" {
		return Record{}, fmt.Errorf("consultation: text fields are empty after sanitising")
	}
	return rec, nil
}

func optional(raw string) *string {
	cleaned := validation.CleanText(raw)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// FormatAmount renders a whole amount with thousands separators.
func FormatAmount(n float64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := fmt.Sprintf("%.0f", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
