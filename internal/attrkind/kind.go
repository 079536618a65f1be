// Package attrkind is the type registry of the attribute schema engine.
//
// A kind is anything implementing Kind. Rendering, value validation and
// sanitization are optional capabilities expressed as the Renderer,
// Validator and Sanitizer interfaces; the registry falls back to the text
// kind for any capability a kind does not implement, and for kinds it does
// not know at all, so every definition stays renderable and validatable.
package attrkind

import (
	"slices"
	"time"

	"attrschema/internal/domain/entity"
)

// Capability is a feature a kind supports in its definition configuration.
type Capability string

const (
	CapPlaceholder Capability = "placeholder"
	CapOptions     Capability = "options"
	CapMinMax      Capability = "min_max"
	CapLength      Capability = "length"
	CapPattern     Capability = "pattern"
	CapMultiple    Capability = "multiple"
	CapComposite   Capability = "composite"
)

// Kind categories.
const (
	CategoryInput  = "input"
	CategoryChoice = "choice"
	CategoryDomain = "domain"
)

// Descriptor describes a kind to the validator and to admin tooling.
type Descriptor struct {
	Name           string       `json:"name"`
	Label          string       `json:"label"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Capabilities   []Capability `json:"capabilities"`
	ValidationKeys []string     `json:"validation_keys"`
	// RequiresChoices marks kinds that are unusable without a choice list.
	RequiresChoices bool `json:"requires_choices"`

	// DefaultOptions returns a fresh options template for new definitions.
	DefaultOptions func() *entity.Document `json:"-"`
}

// Has reports whether the kind supports capability.
func (d Descriptor) Has(c Capability) bool {
	return slices.Contains(d.Capabilities, c)
}

// Supports reports whether the kind understands the validation key.
func (d Descriptor) Supports(key string) bool {
	return slices.Contains(d.ValidationKeys, key)
}

// Template returns the default options template, never nil.
func (d Descriptor) Template() *entity.Document {
	if d.DefaultOptions == nil {
		return &entity.Document{}
	}

	return d.DefaultOptions()
}

// Kind is a pluggable attribute type.
type Kind interface {
	Descriptor() Descriptor
}

// RenderArgs carries presentation context into Render.
type RenderArgs struct {
	// InputName overrides the form input name; defaults to the definition name.
	InputName string
	// IDPrefix is prepended to generated element ids.
	IDPrefix string
	Disabled bool
	ReadOnly bool
	// Values holds the other submitted values keyed by definition name, for conditional logic.
	Values map[string]any
}

// Renderer produces form markup for a definition and its current value.
type Renderer interface {
	Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error)
}

// Validator checks an end-user value against a definition.
type Validator interface {
	Validate(def *entity.AttributeDefinition, value any) Result
}

// Sanitizer normalizes an end-user value into its stored form.
type Sanitizer interface {
	Sanitize(def *entity.AttributeDefinition, value any) any
}

// Projector derives the typed projections stored next to a raw value so it
// can be queried by number or date.
type Projector interface {
	Project(def *entity.AttributeDefinition, value any) Projection
}

// Projection holds the indexed forms of a value. Both are optional.
type Projection struct {
	Numeric *float64
	Date    *time.Time
}
