package itp

import (
	"encoding/json"
	"fmt"
	"os"
)

// Example is one entry of the example catalogue served verbatim at
// GET /api/examples. cmd/bfserver parses examples.json into a slice of
// these purely to fail fast on a malformed file; the HTTP handler
// still serves the file's raw bytes.
type Example struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// LoadExamples reads and validates the example catalogue. Every entry
// must have non-empty Name and Code, and Code must nest correctly —
// a broken examples.json should fail at startup, not surface a 500 to
// the first browser that opens the examples dropdown.
func LoadExamples(path string) ([]Example, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("itp: reading example file %q: %w", path, err)
	}
	var examples []Example
	if err := json.Unmarshal(raw, &examples); err != nil {
		return nil, fmt.Errorf("itp: parsing example file %q: %w", path, err)
	}
	for i, ex := range examples {
		if ex.Name == "" {
			return nil, fmt.Errorf("itp: example %d in %q has no name", i, path)
		}
		if ex.Code == "" {
			return nil, fmt.Errorf("itp: example %q in %q has no code", ex.Name, path)
		}
		if !IsNestingCorrect(ex.Code) {
			return nil, fmt.Errorf("itp: example %q in %q has invalid nesting", ex.Name, path)
		}
	}
	return examples, nil
}
