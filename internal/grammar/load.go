package grammar

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a JSON object of nonterminal -> production strings.
func Decode(r io.Reader) (Rules, error) {
	var rules Rules
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rules); err != nil {
		return nil, fmt.Errorf("grammar: decode: %w", err)
	}
	if rules == nil {
		return nil, fmt.Errorf("grammar: decode: expected a JSON object")
	}
	return rules, nil
}

// ReadFile decodes the grammar stored at path.
func ReadFile(path string) (Rules, error) {
	// #nosec G304 -- grammar path is supplied by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	rules, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadFile reads, builds and validates the grammar at path.
func LoadFile(path string, opts ...Option) (*Grammar, error) {
	rules, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := New(rules, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Encode writes rules as indented JSON.
func Encode(w io.Writer, rules Rules) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rules)
}
