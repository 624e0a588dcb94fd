package model

import (
	"fmt"
	"math"
	"strings"
)

// FieldKind enumerates the input variants a wizard field can take. The set is
// closed: validators and renderers switch over it exhaustively.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindEmail       FieldKind = "email"
	KindURLOptional FieldKind = "url-optional"
	KindSelect      FieldKind = "single-select-enum"
	KindRadio       FieldKind = "single-choice-radio"
	KindMultiSelect FieldKind = "multi-select-set"
	KindLongText    FieldKind = "long-text"
	KindRange       FieldKind = "numeric-range-single"
)

// Kinds lists every supported FieldKind in declaration order.
func Kinds() []FieldKind {
	return []FieldKind{
		KindText, KindEmail, KindURLOptional, KindSelect,
		KindRadio, KindMultiSelect, KindLongText, KindRange,
	}
}

// Shape reports which Value member carries data for the kind.
func (k FieldKind) Shape() (ValueShape, error) {
	switch k {
	case KindText, KindEmail, KindURLOptional, KindSelect, KindRadio, KindLongText:
		return ShapeText, nil
	case KindMultiSelect:
		return ShapeSet, nil
	case KindRange:
		return ShapeRange, nil
	default:
		return "", fmt.Errorf("model: unknown field kind %q", string(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k FieldKind) Valid() bool {
	_, err := k.Shape()
	return err == nil
}

// HasOptions reports whether the kind draws its values from Constraints.Options.
func (k FieldKind) HasOptions() bool {
	return k == KindSelect || k == KindRadio || k == KindMultiSelect
}

// Option is a single allowed value for enum, radio, and multi-select fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// RangeBounds configures numeric-range-single fields.
type RangeBounds struct {
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Step    float64 `json:"step" yaml:"step"`
	Default float64 `json:"default" yaml:"default"`
}

// Constraints holds the kind-dependent validation parameters of a field. Zero
// values mean "unconstrained".
type Constraints struct {
	MinLength int          `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int          `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string       `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Options   []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	MinItems  int          `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	Range     *RangeBounds `json:"range,omitempty" yaml:"range,omitempty"`
}

// FieldSpec declares one form field. Label, Placeholder, and Description are
// presentation only. VisibleWhen is a visibility rule over sibling values
// such as "businessType == other"; empty means always shown.
type FieldSpec struct {
	Key         string      `json:"key" yaml:"key"`
	Kind        FieldKind   `json:"kind" yaml:"kind"`
	Required    bool        `json:"required" yaml:"required"`
	Label       string      `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string      `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	VisibleWhen string      `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Constraints Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// DisplayLabel falls back to the key when no label is declared.
func (f FieldSpec) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Key
}

// Allows reports whether value is one of the declared options.
func (f FieldSpec) Allows(value string) bool {
	for _, opt := range f.Constraints.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// OptionValues returns the allowed option values in declaration order.
func (f FieldSpec) OptionValues() []string {
	out := make([]string, 0, len(f.Constraints.Options))
	for _, opt := range f.Constraints.Options {
		out = append(out, opt.Value)
	}
	return out
}

// OptionLabel resolves the display label for an option value.
func (f FieldSpec) OptionLabel(value string) string {
	for _, opt := range f.Constraints.Options {
		if opt.Value == value {
			if opt.Label != "" {
				return opt.Label
			}
			return opt.Value
		}
	}
	return value
}

// Default returns the initial value of the field.
func (f FieldSpec) Default() Value {
	shape, _ := f.Kind.Shape()
	switch shape {
	case ShapeSet:
		return SetValue()
	case ShapeRange:
		if f.Constraints.Range != nil {
			return RangeValue(f.Constraints.Range.Default)
		}
		return RangeValue(0)
	default:
		return TextValue("")
	}
}

// Accepts reports whether value has the shape the field kind expects.
func (f FieldSpec) Accepts(value Value) bool {
	shape, err := f.Kind.Shape()
	if err != nil {
		return false
	}
	return value.Shape() == shape
}

// Normalize prepares a value for storage. Range values are clamped to the
// declared bounds and snapped to the step; set values are de-duplicated.
func (f FieldSpec) Normalize(value Value) Value {
	switch f.Kind {
	case KindRange:
		bounds := f.Constraints.Range
		if bounds == nil || len(value.Range) == 0 {
			return f.Default()
		}
		return RangeValue(snap(value.Range[0], *bounds))
	case KindMultiSelect:
		return SetValue(value.Set...)
	default:
		return value
	}
}

func (f FieldSpec) check() error {
	if strings.TrimSpace(f.Key) == "" {
		return fmt.Errorf("field with empty key")
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("field %q: unknown kind %q", f.Key, f.Kind)
	}
	c := f.Constraints
	if c.MinLength < 0 || c.MaxLength < 0 || c.MinItems < 0 {
		return fmt.Errorf("field %q: negative constraint", f.Key)
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("field %q: minLength %d exceeds maxLength %d", f.Key, c.MinLength, c.MaxLength)
	}
	if f.Kind.HasOptions() && len(c.Options) == 0 {
		return fmt.Errorf("field %q: %s requires options", f.Key, f.Kind)
	}
	if f.Kind == KindRange {
		r := c.Range
		switch {
		case r == nil:
			return fmt.Errorf("field %q: range bounds are required", f.Key)
		case r.Min > r.Max:
			return fmt.Errorf("field %q: range min %v exceeds max %v", f.Key, r.Min, r.Max)
		case r.Step <= 0:
			return fmt.Errorf("field %q: range step must be positive", f.Key)
		case r.Default < r.Min || r.Default > r.Max:
			return fmt.Errorf("field %q: range default %v outside [%v, %v]", f.Key, r.Default, r.Min, r.Max)
		}
	}
	return nil
}

func snap(v float64, b RangeBounds) float64 {
	if math.IsNaN(v) {
		return b.Default
	}
	if v < b.Min {
		v = b.Min
	}
	if v > b.Max {
		v = b.Max
	}
	steps := math.Round((v - b.Min) / b.Step)
	out := b.Min + steps*b.Step
	if out > b.Max {
		out = b.Max
	}
	return out
}
