package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name   string   `yaml:"name"   json:"name"   toml:"name"`
	Points []string `yaml:"points" json:"points" toml:"points"`
}

func writeData(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadData_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"data.yaml", "name: Migration\npoints:\n  - Discovery\n  - Re-hosting\n"},
		{"data.yml", "name: Migration\npoints: [Discovery, Re-hosting]\n"},
		{"data.json", `{"name": "Migration", "points": ["Discovery", "Re-hosting"]}`},
		{"data.toml", "name = \"Migration\"\npoints = [\"Discovery\", \"Re-hosting\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			var got sample
			if err := LoadData(writeData(t, tt.file, tt.content), &got); err != nil {
				t.Fatalf("LoadData() error = %v", err)
			}
			if got.Name != "Migration" {
				t.Errorf("Name = %q, want Migration", got.Name)
			}
			if len(got.Points) != 2 || got.Points[1] != "Re-hosting" {
				t.Errorf("Points = %v", got.Points)
			}
		})
	}
}

func TestLoadData_Errors(t *testing.T) {
	var v sample

	err := LoadData(filepath.Join(t.TempDir(), "missing.yaml"), &v)
	if err == nil || !strings.Contains(err.Error(), "reading data file") {
		t.Errorf("missing file: err = %v", err)
	}

	err = LoadData(writeData(t, "data.ini", "name=x"), &v)
	if err == nil || !strings.Contains(err.Error(), "unsupported extension") {
		t.Errorf("unsupported extension: err = %v", err)
	}

	err = LoadData(writeData(t, "bad.json", "{"), &v)
	if err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("bad json: err = %v", err)
	}
}
