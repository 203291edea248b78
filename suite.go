package formrun

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ParseSuite decodes a suite from YAML. Unknown keys are rejected so a typo in a
// case surfaces as an authoring error instead of a silently ignored field.
func ParseSuite(data []byte) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Suite
	if err := dec.Decode(&s); err != nil {
		return nil, &MalformedCaseError{Reason: err.Error()}
	}

	return &s, nil
}

// LoadSuite reads and decodes a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	s, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.Path = path
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}

	return s, nil
}

// ParseForm decodes a form catalog from YAML.
func ParseForm(data []byte) (*Form, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f Form
	if err := dec.Decode(&f); err != nil {
		return nil, &MalformedCaseError{Reason: err.Error()}
	}

	return &f, nil
}

// LoadForm reads, decodes and validates a form catalog.
func LoadForm(path string) (*Form, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	f, err := ParseForm(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := ValidateForm(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// decodeStrict decodes node into out, rejecting keys out does not declare.
// Node.Decode does not inherit a decoder's KnownFields setting, so the node is
// re-encoded and decoded again.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(out); err != nil {
		return &MalformedCaseError{Reason: fmt.Sprintf("line %d: %v", node.Line, err)}
	}

	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
