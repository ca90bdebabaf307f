package hw

import (
	"encoding/json"
	"fmt"
	"os"
)

// PinMap is the {io:[11 pins], program:[3 pins], control:[3 pins]}
// shape read from pins.json.
type PinMap struct {
	IO      []int `json:"io"`
	Program []int `json:"program"`
	Control []int `json:"control"`
}

// LoadPinMap reads and validates a pin file. cmd/bfserver calls it at
// startup with the path from the PIN_FILE environment variable
// (default "pins.json"); on any error it returns, bfserver falls back
// to the mock hardware.
func LoadPinMap(path string) (PinMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PinMap{}, fmt.Errorf("hw: reading pin file %q: %w", path, err)
	}
	var pm PinMap
	if err := json.Unmarshal(raw, &pm); err != nil {
		return PinMap{}, fmt.Errorf("hw: parsing pin file %q: %w", path, err)
	}
	if len(pm.IO) != 11 {
		return PinMap{}, fmt.Errorf("hw: pin file %q: io must list 11 pins, got %d", path, len(pm.IO))
	}
	if len(pm.Program) != 3 {
		return PinMap{}, fmt.Errorf("hw: pin file %q: program must list 3 pins, got %d", path, len(pm.Program))
	}
	if len(pm.Control) != 3 {
		return PinMap{}, fmt.Errorf("hw: pin file %q: control must list 3 pins, got %d", path, len(pm.Control))
	}
	return pm, nil
}
