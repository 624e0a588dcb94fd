package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-intake/pkg/consultation"
)

// Consultations persists consultation records. It is the wizard's inserter:
// each record is checked against the table schema, then stored with a fresh
// id, status new, and a creation time.
type Consultations struct {
	bucket *Bucket[consultation.Record]
	schema *consultation.RecordSchema
	now    func() time.Time
	newID  func() string
}

// ConsultationsOption configures Consultations.
type ConsultationsOption func(*Consultations)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ConsultationsOption {
	return func(c *Consultations) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDs replaces the uuid generator.
func WithIDs(next func() string) ConsultationsOption {
	return func(c *Consultations) {
		if next != nil {
			c.newID = next
		}
	}
}

// OpenConsultations opens the consultations bucket.
func OpenConsultations(ctx context.Context, s *Server, options ...ConsultationsOption) (*Consultations, error) {
	bucket, err := OpenBucket[consultation.Record](ctx, s, BucketConsultations)
	if err != nil {
		return nil, err
	}
	schema, err := consultation.Schema()
	if err != nil {
		return nil, fmt.Errorf("store: consultation schema: %w", err)
	}
	c := &Consultations{bucket: bucket, schema: schema, now: time.Now, newID: uuid.NewString}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Insert validates and stores rec. Schema violations are returned as
// *consultation.SchemaError.
func (c *Consultations) Insert(ctx context.Context, rec consultation.Record) error {
	if err := c.schema.Validate(rec); err != nil {
		return err
	}
	rec.ID = c.newID()
	rec.Status = consultation.StatusNew
	rec.CreatedAt = c.now().UTC()

	if err := c.bucket.Create(ctx, rec.ID, rec); err != nil {
		return err
	}
	c.bucket.logger.Info("consultation stored", "id", rec.ID, "business_type", rec.BusinessType)
	return nil
}

// Get loads one consultation.
func (c *Consultations) Get(ctx context.Context, id string) (consultation.Record, error) {
	return c.bucket.Get(ctx, id)
}

// List returns every consultation, newest first.
func (c *Consultations) List(ctx context.Context) ([]consultation.Record, error) {
	recs, err := c.bucket.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

// Update applies fn to the stored record.
func (c *Consultations) Update(ctx context.Context, id string, fn func(*consultation.Record) error) (consultation.Record, error) {
	return c.bucket.Update(ctx, id, fn)
}

// Delete removes a consultation.
func (c *Consultations) Delete(ctx context.Context, id string) error {
	return c.bucket.Delete(ctx, id)
}

// Watch streams consultations created or changed after the call.
func (c *Consultations) Watch(ctx context.Context) (<-chan Change[consultation.Record], error) {
	return c.bucket.Watch(ctx)
}
