package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(jsonDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v, want nil", err)
	}
	if _, ok := doc.RuleSets()["Account"]; !ok {
		t.Errorf("Account rule set missing after file load")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v, want nil", err)
	}
	if _, ok := doc.RuleSets()["Account"]; !ok {
		t.Errorf("Account rule set missing after file load")
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "unsupported metadata file extension") {
		t.Errorf("error = %v, want unsupported extension error", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Errorf("error = nil, want read failure")
	}
}

func TestNewWatcher_RequiresCallback(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "metadata.json"), nil, nil)
	if err == nil {
		t.Errorf("error = nil, want callback requirement error")
	}
}
