// Package catalog loads the step catalog, validates it, and provides the
// built-in default used when no catalog file is configured.
package catalog

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/briefkit/wizard/model"
)

// Loader parses step catalog YAML files and computes SHA-256 checksums.
type Loader struct{}

// NewLoader creates a new catalog Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile loads and parses a single YAML catalog file. It computes the
// SHA-256 checksum and records the source file path.
func (l *Loader) LoadFile(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cat model.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return model.Catalog{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	cat.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	cat.SourceFile = path

	return cat, nil
}
