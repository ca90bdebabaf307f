package hw

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempPinFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pins.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp pin file: %v", err)
	}
	return path
}

func TestLoadPinMapValid(t *testing.T) {
	path := writeTempPinFile(t, `{
		"io": [1,2,3,4,5,6,7,8,9,10,11],
		"program": [12,13,14],
		"control": [15,16,17]
	}`)
	pm, err := LoadPinMap(path)
	if err != nil {
		t.Fatalf("LoadPinMap: %v", err)
	}
	if len(pm.IO) != 11 || len(pm.Program) != 3 || len(pm.Control) != 3 {
		t.Errorf("pin counts = %d/%d/%d, want 11/3/3", len(pm.IO), len(pm.Program), len(pm.Control))
	}
}

func TestLoadPinMapWrongIOCount(t *testing.T) {
	path := writeTempPinFile(t, `{"io":[1,2,3],"program":[1,2,3],"control":[1,2,3]}`)
	if _, err := LoadPinMap(path); err == nil {
		t.Fatal("expected an error for a short io pin list")
	}
}

func TestLoadPinMapMissingFile(t *testing.T) {
	if _, err := LoadPinMap(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadPinMapMalformedJSON(t *testing.T) {
	path := writeTempPinFile(t, `not json`)
	if _, err := LoadPinMap(path); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}
