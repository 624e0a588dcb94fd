package admin

import (
	"context"
	"fmt"

	"github.com/goliatone/go-intake/pkg/consultation"
)

// ConsultationStore is the persistence the triage service needs.
type ConsultationStore interface {
	List(ctx context.Context) ([]consultation.Record, error)
	Get(ctx context.Context, id string) (consultation.Record, error)
	Update(ctx context.Context, id string, fn func(*consultation.Record) error) (consultation.Record, error)
	Delete(ctx context.Context, id string) error
}

// Consultations triages incoming consultation requests.
type Consultations struct {
	store ConsultationStore
}

// NewConsultations returns the triage service.
func NewConsultations(store ConsultationStore) *Consultations {
	return &Consultations{store: store}
}

// List returns consultations newest first, optionally filtered by status.
func (c *Consultations) List(ctx context.Context, status consultation.Status) ([]consultation.Record, error) {
	recs, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return recs, nil
	}
	out := recs[:0]
	for _, rec := range recs {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get loads one consultation.
func (c *Consultations) Get(ctx context.Context, id string) (consultation.Record, error) {
	return c.store.Get(ctx, id)
}

// SetStatus moves a consultation along new, contacted, closed. Any open
// consultation can be archived; archived and closed are final apart from
// archiving a closed one.
func (c *Consultations) SetStatus(ctx context.Context, id string, to consultation.Status) (consultation.Record, error) {
	if !to.Valid() {
		return consultation.Record{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, to)
	}
	return c.store.Update(ctx, id, func(rec *consultation.Record) error {
		if !canTransition(rec.Status, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, rec.Status, to)
		}
		rec.Status = to
		return nil
	})
}

// Delete removes a consultation.
func (c *Consultations) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

func canTransition(from, to consultation.Status) bool {
	if from == "" {
		from = consultation.StatusNew
	}
	switch to {
	case consultation.StatusArchived:
		return from != consultation.StatusArchived
	case consultation.StatusContacted:
		return from == consultation.StatusNew
	case consultation.StatusClosed:
		return from == consultation.StatusNew || from == consultation.StatusContacted
	default:
		return false
	}
}
