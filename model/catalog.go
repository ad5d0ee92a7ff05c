package model

// IconKey identifies the icon shown next to a step. The set is closed: the
// catalog validator rejects unknown keys at load time so the render mapping
// stays exhaustive.
type IconKey string

// Known icon keys.
const (
	IconClipboard IconKey = "clipboard"
	IconUsers     IconKey = "users"
	IconSparkles  IconKey = "sparkles"
	IconEye       IconKey = "eye"
	IconPalette   IconKey = "palette"
	IconType      IconKey = "type"
	IconPackage   IconKey = "package"
)

// KnownIconKeys lists every valid icon key.
var KnownIconKeys = []IconKey{
	IconClipboard, IconUsers, IconSparkles, IconEye,
	IconPalette, IconType, IconPackage,
}

// ValidIconKey reports whether k is a member of the closed icon set.
func ValidIconKey(k IconKey) bool {
	for _, known := range KnownIconKeys {
		if k == known {
			return true
		}
	}
	return false
}

// StepDefinition describes one page of the wizard: identity, display strings,
// and the ordered set of field keys the step may persist. Definitions are
// fixed at deployment time and never mutated at runtime.
type StepDefinition struct {
	ID          string   `yaml:"id"          json:"id"`
	Title       string   `yaml:"title"       json:"title"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Icon        IconKey  `yaml:"icon"        json:"icon"`
	Fields      []string `yaml:"fields"      json:"fields"`
}

// Catalog is the ordered, immutable list of step definitions. Ordinal position
// is implicit in slice order. Adding, removing, or reordering steps is a
// deployment-time change, not a runtime one.
type Catalog struct {
	Version string           `yaml:"version" json:"version"`
	Steps   []StepDefinition `yaml:"steps"   json:"steps"`

	// Checksum is computed at load time and not part of the YAML.
	Checksum string `yaml:"-" json:"-"`
	// SourceFile records the originating file path, empty for the built-in
	// catalog.
	SourceFile string `yaml:"-" json:"-"`
}

// Len returns the number of steps.
func (c *Catalog) Len() int {
	return len(c.Steps)
}

// IndexOf returns the ordinal position of the step with the given ID, or -1.
func (c *Catalog) IndexOf(stepID string) int {
	for i := range c.Steps {
		if c.Steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

// ByID returns the step definition with the given ID.
func (c *Catalog) ByID(stepID string) (StepDefinition, bool) {
	if i := c.IndexOf(stepID); i >= 0 {
		return c.Steps[i], true
	}
	return StepDefinition{}, false
}

// FieldSet returns the declared field keys for a step as a lookup set.
func (c *Catalog) FieldSet(stepID string) map[string]bool {
	def, ok := c.ByID(stepID)
	if !ok {
		return nil
	}
	set := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		set[f] = true
	}
	return set
}

// ClampIndex clamps idx into the valid step range [0, Len-1].
func (c *Catalog) ClampIndex(idx int) int {
	if idx < 0 {
		return 0
	}
	if last := len(c.Steps) - 1; idx > last {
		if last < 0 {
			return 0
		}
		return last
	}
	return idx
}
