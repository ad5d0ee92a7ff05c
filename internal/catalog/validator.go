package catalog

import (
	"fmt"

	"github.com/briefkit/wizard/model"
)

// VError describes a single validation error in a catalog.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator validates a step catalog structurally: unique non-empty step IDs,
// at least one field per step, unique field keys within a step, and icon keys
// drawn from the closed icon set.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the catalog and returns every violation found.
func (v *Validator) Validate(cat model.Catalog) []VError {
	var errs []VError

	if cat.Version == "" {
		errs = append(errs, VError{Path: "version", Code: "REQUIRED", Message: "version is required"})
	}
	if len(cat.Steps) == 0 {
		errs = append(errs, VError{Path: "steps", Code: "REQUIRED", Message: "at least one step is required"})
	}

	seenSteps := make(map[string]bool)
	for i, s := range cat.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)

		if s.ID == "" {
			errs = append(errs, VError{Path: prefix + ".id", Code: "REQUIRED", Message: "step id is required"})
		} else if seenSteps[s.ID] {
			errs = append(errs, VError{
				Path:    prefix + ".id",
				Code:    "DUPLICATE",
				Message: fmt.Sprintf("step id %q appears more than once", s.ID),
			})
		}
		seenSteps[s.ID] = true

		if s.Title == "" {
			errs = append(errs, VError{Path: prefix + ".title", Code: "REQUIRED", Message: "step title is required"})
		}
		if !model.ValidIconKey(s.Icon) {
			errs = append(errs, VError{
				Path:    prefix + ".icon",
				Code:    "UNKNOWN_ICON",
				Message: fmt.Sprintf("icon %q is not a known icon key", s.Icon),
			})
		}
		if len(s.Fields) == 0 {
			errs = append(errs, VError{Path: prefix + ".fields", Code: "REQUIRED", Message: "at least one field is required"})
		}

		seenFields := make(map[string]bool)
		for j, f := range s.Fields {
			fp := fmt.Sprintf("%s.fields[%d]", prefix, j)
			if f == "" {
				errs = append(errs, VError{Path: fp, Code: "REQUIRED", Message: "field key must not be empty"})
				continue
			}
			if seenFields[f] {
				errs = append(errs, VError{
					Path:    fp,
					Code:    "DUPLICATE",
					Message: fmt.Sprintf("field key %q appears more than once in step %q", f, s.ID),
				})
			}
			seenFields[f] = true
		}
	}

	return errs
}
