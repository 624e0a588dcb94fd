package model

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the serialisable form declaration accepted by LoadDefinition.
type Definition struct {
	ID     string      `json:"id" yaml:"id"`
	Fields []FieldSpec `json:"fields" yaml:"fields"`
	Steps  []StepSpec  `json:"steps" yaml:"steps"`
}

// LoadDefinition parses a JSON or YAML declaration and builds a Form.
func LoadDefinition(data []byte, source string) (*Form, error) {
	def, err := parseDefinition(data, source)
	if err != nil {
		return nil, err
	}
	form, err := NewForm(def.ID, def.Fields, def.Steps)
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", source, err)
	}
	return form, nil
}

// LoadDefinitionFS reads path from fsys and delegates to LoadDefinition.
func LoadDefinitionFS(fsys fs.FS, path string) (*Form, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	return LoadDefinition(data, path)
}

func parseDefinition(data []byte, source string) (Definition, error) {
	var def Definition
	if len(strings.TrimSpace(string(data))) == 0 {
		return Definition{}, fmt.Errorf("model: definition %s is empty", source)
	}

	if err := json.Unmarshal(data, &def); err == nil {
		return def, nil
	}

	def = Definition{}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("model: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return def, nil
}
