// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"
	"strings"
	"time"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"

	"github.com/google/uuid"
)

// DefinitionUsecase is the only entry point allowed to mutate attribute
// definitions, their groups and their audit trail.
type DefinitionUsecase interface {
	Create(ctx context.Context, input *DefinitionInput) (*entity.AttributeDefinition, error)
	Update(ctx context.Context, id uuid.UUID, input *DefinitionInput, force bool) (*entity.AttributeDefinition, error)
	// Delete removes a definition. When principals still hold values and force
	// is false, the definition is deprecated instead and the returned error
	// matches domainerrors.ErrHasDependentData.
	Delete(ctx context.Context, id uuid.UUID, force bool) error
	Reorder(ctx context.Context, placements map[uuid.UUID]Placement) error
	Get(ctx context.Context, id uuid.UUID) (*entity.AttributeDefinition, error)
	GetByName(ctx context.Context, name string) (*entity.AttributeDefinition, error)
	List(ctx context.Context, filter repository.DefinitionFilter) (*DefinitionPage, error)
	ListGroups(ctx context.Context) ([]*GroupSummary, error)
	Duplicate(ctx context.Context, id uuid.UUID, targetGroup string) (*entity.AttributeDefinition, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status entity.Status, reason string) (*entity.AttributeDefinition, error)
	BulkChangeStatus(ctx context.Context, ids []uuid.UUID, status entity.Status, reason string) (*BulkStatusResult, error)
	History(ctx context.Context, id uuid.UUID, limit int) ([]*entity.HistoryRecord, error)
	DuePurges(ctx context.Context, now time.Time, limit int) ([]*entity.PendingPurge, error)
	Purge(ctx context.Context, id uuid.UUID) error
	SaveGroup(ctx context.Context, input *GroupInput) (*entity.AttributeGroup, error)
	Stats(ctx context.Context) (*repository.DefinitionStats, error)
}

// --- Input DTOs ---

// DefinitionInput carries the caller-editable fields of a definition.
// Pointer fields distinguish "not provided" from a zero value: create fills
// defaults for them and update keeps the stored value.
type DefinitionInput struct {
	Name             string                   `json:"name"`
	Label            string                   `json:"label"`
	Kind             string                   `json:"kind"`
	Description      string                   `json:"description,omitempty"`
	Placeholder      string                   `json:"placeholder,omitempty"`
	HelpText         string                   `json:"help_text,omitempty"`
	Options          *entity.Document         `json:"options,omitempty"`
	ValidationRules  entity.ValidationRules   `json:"validation_rules"`
	DisplayOptions   *entity.Document         `json:"display_options,omitempty"`
	ConditionalLogic *entity.ConditionalLogic `json:"conditional_logic,omitempty"`
	Group            string                   `json:"group,omitempty"`
	Order            *int                     `json:"order,omitempty"`
	IsRequired       *bool                    `json:"is_required,omitempty"`
	IsSearchable     *bool                    `json:"is_searchable,omitempty"`
	IsPublic         *bool                    `json:"is_public,omitempty"`
	IsEditable       *bool                    `json:"is_editable,omitempty"`
	Status           entity.Status            `json:"status,omitempty"`
	MinValue         *float64                 `json:"min_value,omitempty"`
	MaxValue         *float64                 `json:"max_value,omitempty"`
	MinLength        *int                     `json:"min_length,omitempty"`
	MaxLength        *int                     `json:"max_length,omitempty"`
	RegexPattern     string                   `json:"regex_pattern,omitempty"`
	DefaultValue     string                   `json:"default_value,omitempty"`
	Width            entity.Width             `json:"width,omitempty"`
	CSSClass         string                   `json:"css_class,omitempty"`
}

// Normalize trims text fields and fills the create defaults: status active,
// width full, group general, public and editable.
func (in *DefinitionInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Label = strings.TrimSpace(in.Label)
	in.Kind = strings.TrimSpace(strings.ToLower(in.Kind))
	in.Group = strings.TrimSpace(in.Group)
	in.CSSClass = strings.TrimSpace(in.CSSClass)
	if in.Status == "" {
		in.Status = entity.StatusActive
	}
	if in.Width == "" {
		in.Width = entity.WidthFull
	}
	if in.Group == "" {
		in.Group = entity.DefaultGroup
	}
	if in.IsPublic == nil {
		public := true
		in.IsPublic = &public
	}
	if in.IsEditable == nil {
		editable := true
		in.IsEditable = &editable
	}
}

// Apply copies the input onto def. Name, ID, system flag and audit fields are
// never touched.
func (in *DefinitionInput) Apply(def *entity.AttributeDefinition) {
	def.Label = in.Label
	def.Kind = in.Kind
	def.Description = in.Description
	def.Placeholder = in.Placeholder
	def.HelpText = in.HelpText
	def.Options = in.Options.Clone()
	def.ValidationRules = in.ValidationRules.Clone()
	def.DisplayOptions = in.DisplayOptions.Clone()
	def.ConditionalLogic = in.ConditionalLogic.Clone()
	def.Group = in.Group
	if in.Order != nil {
		def.Order = *in.Order
	}
	if in.IsRequired != nil {
		def.IsRequired = *in.IsRequired
	}
	if in.IsSearchable != nil {
		def.IsSearchable = *in.IsSearchable
	}
	if in.IsPublic != nil {
		def.IsPublic = *in.IsPublic
	}
	if in.IsEditable != nil {
		def.IsEditable = *in.IsEditable
	}
	def.Status = in.Status
	def.MinValue = in.MinValue
	def.MaxValue = in.MaxValue
	def.MinLength = in.MinLength
	def.MaxLength = in.MaxLength
	def.RegexPattern = in.RegexPattern
	def.DefaultValue = in.DefaultValue
	def.Width = in.Width
	def.CSSClass = in.CSSClass
}

// KeepStored fills every field the caller left out (empty text, nil pointer,
// zero validation rules) with the value stored on def. Update relies on it so
// a partial body never clears what it does not mention.
func (in *DefinitionInput) KeepStored(def *entity.AttributeDefinition) {
	keepText := func(field *string, stored string) {
		if strings.TrimSpace(*field) == "" {
			*field = stored
		}
	}
	keepText(&in.Name, def.Name)
	keepText(&in.Label, def.Label)
	keepText(&in.Kind, def.Kind)
	keepText(&in.Description, def.Description)
	keepText(&in.Placeholder, def.Placeholder)
	keepText(&in.HelpText, def.HelpText)
	keepText(&in.Group, def.Group)
	keepText(&in.RegexPattern, def.RegexPattern)
	keepText(&in.DefaultValue, def.DefaultValue)
	keepText(&in.CSSClass, def.CSSClass)

	if in.Options == nil {
		in.Options = def.Options.Clone()
	}
	if in.DisplayOptions == nil {
		in.DisplayOptions = def.DisplayOptions.Clone()
	}
	if in.ConditionalLogic == nil {
		in.ConditionalLogic = def.ConditionalLogic.Clone()
	}
	if in.ValidationRules.IsZero() {
		in.ValidationRules = def.ValidationRules.Clone()
	}
	if in.Status == "" {
		in.Status = def.Status
	}
	if in.Width == "" {
		in.Width = def.Width
	}
	if in.MinValue == nil {
		in.MinValue = def.MinValue
	}
	if in.MaxValue == nil {
		in.MaxValue = def.MaxValue
	}
	if in.MinLength == nil {
		in.MinLength = def.MinLength
	}
	if in.MaxLength == nil {
		in.MaxLength = def.MaxLength
	}
	if in.IsRequired == nil {
		in.IsRequired = &def.IsRequired
	}
	if in.IsSearchable == nil {
		in.IsSearchable = &def.IsSearchable
	}
	if in.IsPublic == nil {
		in.IsPublic = &def.IsPublic
	}
	if in.IsEditable == nil {
		in.IsEditable = &def.IsEditable
	}
}

// DefinitionInputFrom builds an input that reproduces def.
func DefinitionInputFrom(def *entity.AttributeDefinition) *DefinitionInput {
	order := def.Order
	required := def.IsRequired
	searchable := def.IsSearchable
	public := def.IsPublic
	editable := def.IsEditable

	return &DefinitionInput{
		Name:             def.Name,
		Label:            def.Label,
		Kind:             def.Kind,
		Description:      def.Description,
		Placeholder:      def.Placeholder,
		HelpText:         def.HelpText,
		Options:          def.Options.Clone(),
		ValidationRules:  def.ValidationRules.Clone(),
		DisplayOptions:   def.DisplayOptions.Clone(),
		ConditionalLogic: def.ConditionalLogic.Clone(),
		Group:            def.Group,
		Order:            &order,
		IsRequired:       &required,
		IsSearchable:     &searchable,
		IsPublic:         &public,
		IsEditable:       &editable,
		Status:           def.Status,
		MinValue:         def.MinValue,
		MaxValue:         def.MaxValue,
		MinLength:        def.MinLength,
		MaxLength:        def.MaxLength,
		RegexPattern:     def.RegexPattern,
		DefaultValue:     def.DefaultValue,
		Width:            def.Width,
		CSSClass:         def.CSSClass,
	}
}

// Placement is the target order and group of one definition in a reorder.
// An empty group keeps the current one.
type Placement struct {
	Order int    `json:"order"`
	Group string `json:"group,omitempty"`
}

// GroupInput defines the metadata stored for a group key.
type GroupInput struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// --- Output DTOs ---

// DefinitionPage is one page of a definition listing.
type DefinitionPage struct {
	Items  []*entity.AttributeDefinition `json:"items"`
	Total  int64                         `json:"total"`
	Limit  int                           `json:"limit"`
	Offset int                           `json:"offset"`
}

// GroupSummary combines a group key used by definitions with its optional metadata.
type GroupSummary struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Count       int    `json:"count"`
}

// StatusOutcome is the result of one entry in a bulk status change.
type StatusOutcome struct {
	ID     uuid.UUID     `json:"id"`
	Status entity.Status `json:"status,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BulkStatusResult collects the per-entry outcomes of a bulk status change.
type BulkStatusResult struct {
	Updated  int             `json:"updated"`
	Failed   int             `json:"failed"`
	Outcomes []StatusOutcome `json:"outcomes"`
}
