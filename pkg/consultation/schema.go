package consultation

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPIDocument []byte

const recordSchemaName = "ConsultationRecord"

// columnFields maps store columns back to form keys so schema violations can
// be attributed to a field.
var columnFields = map[string]string{
	"name":                FieldName,
	"email":               FieldEmail,
	"website":             FieldWebsite,
	"business_type":       FieldBusinessType,
	"business_details":    FieldBusinessDetails,
	"online_presence":     FieldOnlinePresence,
	"goal":                FieldMainGoal,
	"main_challenge":      FieldBiggestChallenge,
	"services_interested": FieldInterestedServices,
	"budget":              FieldBudget,
}

// SchemaError reports a record that the data store would refuse.
type SchemaError struct {
	Column string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return "consultation: record rejected by schema: " + e.Reason
	}
	return fmt.Sprintf("consultation: column %q rejected by schema: %s", e.Column, e.Reason)
}

// SafeMessage is shown to the user instead of the raw schema reason.
func (e *SchemaError) SafeMessage() string {
	return "Some of your answers could not be saved. Please review them and try again."
}

// RecordSchema validates records against the embedded OpenAPI description of
// the consultations table.
type RecordSchema struct {
	doc    *openapi3.T
	schema *openapi3.Schema
}

var (
	schemaOnce sync.Once
	schemaInst *RecordSchema
	schemaErr  error
)

// Schema returns the shared record schema.
func Schema() (*RecordSchema, error) {
	schemaOnce.Do(func() {
		schemaInst, schemaErr = LoadSchema(context.Background(), openAPIDocument)
	})
	return schemaInst, schemaErr
}

// LoadSchema parses an OpenAPI document and resolves the record schema.
func LoadSchema(ctx context.Context, raw []byte) (*RecordSchema, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("consultation: load openapi document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("consultation: validate openapi document: %w", err)
	}
	ref, ok := doc.Components.Schemas[recordSchemaName]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("consultation: schema %q not found", recordSchemaName)
	}
	return &RecordSchema{doc: doc, schema: ref.Value}, nil
}

// Validate checks the JSON form of rec against the schema.
func (s *RecordSchema) Validate(rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("consultation: encode record: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("consultation: decode record: %w", err)
	}

	if err := s.schema.VisitJSON(payload); err != nil {
		return toSchemaError(err)
	}
	return nil
}

func toSchemaError(err error) error {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return &SchemaError{Reason: strings.TrimSpace(err.Error())}
	}
	column := ""
	if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
		column = pointer[0]
	}
	return &SchemaError{
		Column: column,
		Field:  columnFields[column],
		Reason: strings.TrimSpace(schemaErr.Reason),
	}
}
