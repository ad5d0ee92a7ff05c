package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `version: "2"
steps:
  - id: project-basics
    title: Project Basics
    description: What the project is.
    icon: clipboard
    fields:
      - project_type
      - industry
  - id: color
    title: Color
    icon: palette
    fields:
      - preferred_colors
      - avoided_colors
`

func writeTempCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp catalog: %v", err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeTempCatalog(t, sampleYAML)

	cat, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cat.Version != "2" {
		t.Errorf("Version = %q, want 2", cat.Version)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cat.Len())
	}
	if cat.Steps[0].ID != "project-basics" {
		t.Errorf("Steps[0].ID = %q", cat.Steps[0].ID)
	}
	if cat.Steps[1].Icon != "palette" {
		t.Errorf("Steps[1].Icon = %q", cat.Steps[1].Icon)
	}
	if len(cat.Steps[0].Fields) != 2 {
		t.Errorf("Steps[0].Fields = %v", cat.Steps[0].Fields)
	}
	if cat.Checksum == "" {
		t.Error("expected non-empty checksum")
	}
	if cat.SourceFile != path {
		t.Errorf("SourceFile = %q, want %q", cat.SourceFile, path)
	}
}

func TestLoader_checksumTracksContent(t *testing.T) {
	loader := NewLoader()

	a, err := loader.LoadFile(writeTempCatalog(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	b, err := loader.LoadFile(writeTempCatalog(t, sampleYAML+"  - id: typography\n    title: Typography\n    icon: type\n    fields: [serif_or_sans]\n"))
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if a.Checksum == b.Checksum {
		t.Error("different content must produce different checksums")
	}
}

func TestLoader_missingFile(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoader_malformedYAML(t *testing.T) {
	path := writeTempCatalog(t, "version: [unclosed")
	_, err := NewLoader().LoadFile(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
}
