package model

import (
	"slices"
	"strings"
)

// ValueShape identifies which member of a Value carries data.
type ValueShape string

const (
	ShapeText  ValueShape = "text"
	ShapeSet   ValueShape = "set"
	ShapeRange ValueShape = "range"
)

// Value is the current content of a single field. Exactly one member is
// meaningful and the shape is fixed at construction.
type Value struct {
	shape ValueShape
	Text  string
	Set   []string
	Range []float64
}

// TextValue wraps a string for text-like kinds.
func TextValue(s string) Value {
	return Value{shape: ShapeText, Text: s}
}

// SetValue wraps a de-duplicated list of selections, preserving first-seen order.
func SetValue(items ...string) Value {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || slices.Contains(out, item) {
			continue
		}
		out = append(out, item)
	}
	return Value{shape: ShapeSet, Set: out}
}

// RangeValue wraps the single selected value of a range slider.
func RangeValue(n float64) Value {
	return Value{shape: ShapeRange, Range: []float64{n}}
}

// Shape reports the value variant.
func (v Value) Shape() ValueShape {
	if v.shape == "" {
		return ShapeText
	}
	return v.shape
}

// IsEmpty reports whether the value carries no user content.
func (v Value) IsEmpty() bool {
	switch v.Shape() {
	case ShapeSet:
		return len(v.Set) == 0
	case ShapeRange:
		return len(v.Range) == 0
	default:
		return strings.TrimSpace(v.Text) == ""
	}
}

// Number returns the first range element.
func (v Value) Number() (float64, bool) {
	if len(v.Range) == 0 {
		return 0, false
	}
	return v.Range[0], true
}

// Clone returns a deep copy so callers cannot alias internal slices.
func (v Value) Clone() Value {
	out := v
	if v.Set != nil {
		out.Set = append([]string(nil), v.Set...)
	}
	if v.Range != nil {
		out.Range = append([]float64(nil), v.Range...)
	}
	return out
}

// Equal compares two values by shape and content.
func (v Value) Equal(other Value) bool {
	return v.Shape() == other.Shape() &&
		v.Text == other.Text &&
		slices.Equal(v.Set, other.Set) &&
		slices.Equal(v.Range, other.Range)
}

// Values maps field keys to their current values.
type Values map[string]Value

// Text returns the text member for key, or "" when absent.
func (vs Values) Text(key string) string {
	return vs[key].Text
}

// Clone deep-copies the map.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v.Clone()
	}
	return out
}

// Plain flattens the map to strings, string slices and numbers, the shapes
// visibility rules compare against.
func (vs Values) Plain() map[string]any {
	out := make(map[string]any, len(vs))
	for k, v := range vs {
		switch v.Shape() {
		case ShapeSet:
			out[k] = append([]string(nil), v.Set...)
		case ShapeRange:
			n, _ := v.Number()
			out[k] = n
		default:
			out[k] = v.Text
		}
	}
	return out
}
