// Package entity contains the core business objects of the attribute schema engine.
package entity

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an attribute definition.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusDraft      Status = "draft"
	StatusDeprecated Status = "deprecated"
	StatusArchived   Status = "archived"
)

// AllStatuses lists every valid status.
var AllStatuses = []Status{StatusActive, StatusInactive, StatusDraft, StatusDeprecated, StatusArchived}

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the Status is a valid value.
func (s Status) IsValid() bool {
	return slices.Contains(AllStatuses, s)
}

// CanTransitionTo reports whether moving from s to next is allowed.
// draft → active; active → inactive|deprecated|archived; inactive, deprecated
// and archived only go back to active. Staying in place is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusActive
	case StatusActive:
		return next == StatusInactive || next == StatusDeprecated || next == StatusArchived
	case StatusInactive, StatusDeprecated, StatusArchived:
		return next == StatusActive
	default:
		return false
	}
}

// Width is the presentation width of a field.
type Width string

const (
	WidthFull    Width = "full"
	WidthHalf    Width = "half"
	WidthThird   Width = "third"
	WidthQuarter Width = "quarter"
)

// IsValid checks if the Width is a valid value.
func (w Width) IsValid() bool {
	switch w {
	case WidthFull, WidthHalf, WidthThird, WidthQuarter:
		return true
	default:
		return false
	}
}

// AttributeDefinition is the schema of one profile attribute.
type AttributeDefinition struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Label            string            `json:"label"`
	Kind             string            `json:"kind"`
	Description      string            `json:"description,omitempty"`
	Placeholder      string            `json:"placeholder,omitempty"`
	HelpText         string            `json:"help_text,omitempty"`
	Options          *Document         `json:"options,omitempty"`
	ValidationRules  ValidationRules   `json:"validation_rules"`
	DisplayOptions   *Document         `json:"display_options,omitempty"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty"`
	Group            string            `json:"group"`
	Order            int               `json:"order"`
	IsRequired       bool              `json:"is_required"`
	IsSearchable     bool              `json:"is_searchable"`
	IsPublic         bool              `json:"is_public"`
	IsEditable       bool              `json:"is_editable"`
	Status           Status            `json:"status"`
	MinValue         *float64          `json:"min_value,omitempty"`
	MaxValue         *float64          `json:"max_value,omitempty"`
	MinLength        *int              `json:"min_length,omitempty"`
	MaxLength        *int              `json:"max_length,omitempty"`
	RegexPattern     string            `json:"regex_pattern,omitempty"`
	DefaultValue     string            `json:"default_value,omitempty"`
	Width            Width             `json:"width"`
	CSSClass         string            `json:"css_class,omitempty"`
	IsSystem         bool              `json:"is_system"`
	CreatedBy        string            `json:"created_by,omitempty"`
	UpdatedBy        string            `json:"updated_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the definition.
func (d *AttributeDefinition) Clone() *AttributeDefinition {
	if d == nil {
		return nil
	}
	out := *d
	out.Options = d.Options.Clone()
	out.DisplayOptions = d.DisplayOptions.Clone()
	out.ConditionalLogic = d.ConditionalLogic.Clone()
	out.ValidationRules = d.ValidationRules.Clone()
	out.MinValue = cloneFloat(d.MinValue)
	out.MaxValue = cloneFloat(d.MaxValue)
	out.MinLength = cloneInt(d.MinLength)
	out.MaxLength = cloneInt(d.MaxLength)

	return &out
}

// Choices returns the choice list configured in the options.
func (d *AttributeDefinition) Choices() Choices {
	return ChoicesFrom(d.Options, "choices")
}

// EffectiveRules merges the top-level constraint columns over the structured
// validation rules. Top-level columns win when they are set.
func (d *AttributeDefinition) EffectiveRules() ValidationRules {
	rules := d.ValidationRules.Clone()
	if d.IsRequired {
		rules.Required = true
	}
	if d.MinValue != nil {
		rules.MinValue = cloneFloat(d.MinValue)
	}
	if d.MaxValue != nil {
		rules.MaxValue = cloneFloat(d.MaxValue)
	}
	if d.MinLength != nil {
		rules.MinLength = cloneInt(d.MinLength)
	}
	if d.MaxLength != nil {
		rules.MaxLength = cloneInt(d.MaxLength)
	}
	if d.RegexPattern != "" {
		rules.Pattern = d.RegexPattern
	}

	return rules
}

// Snapshot encodes the definition as a Document for audit records and purge snapshots.
func (d *AttributeDefinition) Snapshot() *Document {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	doc := &Document{}
	if err := doc.UnmarshalJSON(raw); err != nil {
		return nil
	}

	return doc
}

// DefinitionFromSnapshot rebuilds a definition from a snapshot document.
func DefinitionFromSnapshot(doc *Document) (*AttributeDefinition, error) {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var d AttributeDefinition
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}

	return &d, nil
}

// ValidationRules holds the structured value constraints of a definition.
type ValidationRules struct {
	Required       bool     `json:"required,omitempty"`
	MinLength      *int     `json:"min_length,omitempty"`
	MaxLength      *int     `json:"max_length,omitempty"`
	MinValue       *float64 `json:"min_value,omitempty"`
	MaxValue       *float64 `json:"max_value,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	PatternMessage string   `json:"pattern_message,omitempty"`
	MaxSelections  *int     `json:"max_selections,omitempty"`
}

// IsZero reports whether no rule is set.
func (r ValidationRules) IsZero() bool {
	return r == ValidationRules{}
}

// Clone returns a deep copy.
func (r ValidationRules) Clone() ValidationRules {
	out := r
	out.MinLength = cloneInt(r.MinLength)
	out.MaxLength = cloneInt(r.MaxLength)
	out.MinValue = cloneFloat(r.MinValue)
	out.MaxValue = cloneFloat(r.MaxValue)
	out.MaxSelections = cloneInt(r.MaxSelections)

	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v

	return &out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v

	return &out
}
