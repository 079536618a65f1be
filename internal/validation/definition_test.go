package validation

import (
	"math"
	"strings"
	"testing"

	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"
	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func eyeColor() *entity.AttributeDefinition {
	return &entity.AttributeDefinition{
		Name:       "eye_color",
		Label:      "Eye Color",
		Kind:       "select",
		Options:    entity.NewDocument("choices", entity.NewDocument("brown", "Brown", "blue", "Blue")),
		Group:      "appearance",
		Width:      entity.WidthHalf,
		Status:     entity.StatusActive,
		IsPublic:   true,
		IsEditable: true,
	}
}

func newValidator(mutate ...func(*Policy)) *Validator {
	policy := DefaultPolicy()
	for _, m := range mutate {
		m(&policy)
	}

	return New(attrkind.NewDefaultRegistry(), policy)
}

func TestValidateDefinition_Valid(t *testing.T) {
	t.Parallel()

	report := newValidator().ValidateDefinition(eyeColor(), nil)

	assert.True(t, report.Valid(), "errors: %+v", report.Errors)
	assert.Empty(t, report.Warnings)
	assert.NoError(t, report.Err())
}

func TestValidateDefinition_Rules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(d *entity.AttributeDefinition)
		policy func(p *Policy)
		field  string
		code   string
	}{
		{name: "missing name", mutate: func(d *entity.AttributeDefinition) { d.Name = "" }, field: "name", code: CodeRequired},
		{name: "missing label", mutate: func(d *entity.AttributeDefinition) { d.Label = "" }, field: "label", code: CodeRequired},
		{name: "missing kind", mutate: func(d *entity.AttributeDefinition) { d.Kind = "" }, field: "kind", code: CodeRequired},
		{name: "name starting with a digit", mutate: func(d *entity.AttributeDefinition) { d.Name = "123bad" }, field: "name", code: CodeInvalidFormat},
		{name: "name with capitals", mutate: func(d *entity.AttributeDefinition) { d.Name = "EyeColor" }, field: "name", code: CodeInvalidFormat},
		{name: "name too short", mutate: func(d *entity.AttributeDefinition) { d.Name = "e" }, field: "name", code: CodeTooShort},
		{name: "name too long", mutate: func(d *entity.AttributeDefinition) { d.Name = "e" + strings.Repeat("x", 64) }, field: "name", code: CodeTooLong},
		{name: "reserved name", mutate: func(d *entity.AttributeDefinition) { d.Name = "email" }, field: "name", code: CodeReserved},
		{name: "storage prefix", mutate: func(d *entity.AttributeDefinition) { d.Name = "pg_shadow" }, field: "name", code: CodeForbiddenPrefix},
		{name: "system prefix", mutate: func(d *entity.AttributeDefinition) { d.Name = "wp_meta" }, field: "name", code: CodeForbiddenPrefix},
		{
			name:   "custom reserved word",
			mutate: func(d *entity.AttributeDefinition) { d.Name = "karma" },
			policy: func(p *Policy) { p.ReservedWords = []string{"Karma"} },
			field:  "name",
			code:   CodeReserved,
		},
		{name: "label too long", mutate: func(d *entity.AttributeDefinition) { d.Label = strings.Repeat("ä", 256) }, field: "label", code: CodeTooLong},
		{name: "label with markup", mutate: func(d *entity.AttributeDefinition) { d.Label = "<b>Eye</b>" }, field: "label", code: CodeMarkup},
		{name: "description ceiling", mutate: func(d *entity.AttributeDefinition) { d.Description = strings.Repeat("d", 1001) }, field: "description", code: CodeTooLong},
		{name: "help text ceiling", mutate: func(d *entity.AttributeDefinition) { d.HelpText = strings.Repeat("h", 501) }, field: "help_text", code: CodeTooLong},
		{name: "placeholder ceiling", mutate: func(d *entity.AttributeDefinition) { d.Placeholder = strings.Repeat("p", 256) }, field: "placeholder", code: CodeTooLong},
		{name: "unknown kind", mutate: func(d *entity.AttributeDefinition) { d.Kind = "hologram" }, field: "kind", code: CodeUnknownKind},
		{name: "choice kind without choices", mutate: func(d *entity.AttributeDefinition) { d.Options = nil }, field: "options.choices", code: CodeRequired},
		{
			name:   "duplicate choice",
			mutate: func(d *entity.AttributeDefinition) { d.Options = entity.NewDocument("choices", []any{"brown", "blue", "brown"}) },
			field:  "options.choices",
			code:   CodeDuplicateChoice,
		},
		{
			name:   "empty choice value",
			mutate: func(d *entity.AttributeDefinition) { d.Options = entity.NewDocument("choices", []any{"brown", " "}) },
			field:  "options.choices",
			code:   CodeInvalidFormat,
		},
		{
			name:   "too many choices",
			mutate: func(d *entity.AttributeDefinition) { d.Options = entity.NewDocument("choices", []any{"a", "b", "c"}) },
			policy: func(p *Policy) { p.MaxChoices = 2 },
			field:  "options.choices",
			code:   CodeTooMany,
		},
		{
			name: "min value above max value",
			mutate: func(d *entity.AttributeDefinition) {
				d.Kind, d.Options = "number", nil
				d.MinValue, d.MaxValue = floatPtr(10), floatPtr(5)
			},
			field: "min_value",
			code:  CodeInvalidRange,
		},
		{
			name: "equal min and max value",
			mutate: func(d *entity.AttributeDefinition) {
				d.Kind, d.Options = "number", nil
				d.MinValue, d.MaxValue = floatPtr(5), floatPtr(5)
			},
			field: "min_value",
			code:  CodeInvalidRange,
		},
		{
			name: "non finite bound",
			mutate: func(d *entity.AttributeDefinition) {
				d.Kind, d.Options = "number", nil
				d.MaxValue = floatPtr(math.Inf(1))
			},
			field: "max_value",
			code:  CodeInvalidFormat,
		},
		{
			name: "range option bounds inverted",
			mutate: func(d *entity.AttributeDefinition) {
				d.Kind, d.Options = "range", entity.NewDocument("min", 10, "max", 5)
			},
			field: "options.min",
			code:  CodeInvalidRange,
		},
		{
			name: "min length above max length",
			mutate: func(d *entity.AttributeDefinition) {
				d.Kind, d.Options = "text", nil
				d.MinLength, d.MaxLength = intPtr(5), intPtr(2)
			},
			field: "min_length",
			code:  CodeInvalidRange,
		},
		{
			name: "negative length",
			mutate: func(d *entity.AttributeDefinition) {
				d.Kind, d.Options = "text", nil
				d.MinLength = intPtr(-1)
			},
			field: "min_length",
			code:  CodeBelowMin,
		},
		{
			name:   "pattern does not compile",
			mutate: func(d *entity.AttributeDefinition) { d.Kind, d.Options, d.RegexPattern = "text", nil, "([" },
			field:  "regex_pattern",
			code:   CodeInvalidPattern,
		},
		{
			name:   "rule pattern does not compile",
			mutate: func(d *entity.AttributeDefinition) { d.ValidationRules.Pattern = "a{2,1}" },
			field:  "validation_rules.pattern",
			code:   CodeInvalidPattern,
		},
		{name: "unknown width", mutate: func(d *entity.AttributeDefinition) { d.Width = "double" }, field: "width", code: CodeInvalidChoice},
		{name: "unknown status", mutate: func(d *entity.AttributeDefinition) { d.Status = "gone" }, field: "status", code: CodeInvalidChoice},
		{name: "group key format", mutate: func(d *entity.AttributeDefinition) { d.Group = "Looks & Style" }, field: "group", code: CodeInvalidFormat},
		{name: "css class list", mutate: func(d *entity.AttributeDefinition) { d.CSSClass = "wide bad!class" }, field: "css_class", code: CodeInvalidFormat},
		{
			name:   "max selections below one",
			mutate: func(d *entity.AttributeDefinition) { d.Kind, d.ValidationRules.MaxSelections = "multiselect", intPtr(0) },
			field:  "validation_rules.max_selections",
			code:   CodeBelowMin,
		},
		{
			name: "conditional operator",
			mutate: func(d *entity.AttributeDefinition) {
				d.ConditionalLogic = &entity.ConditionalLogic{Rules: []entity.ConditionRule{{Field: "has_pets", Operator: "resembles"}}}
			},
			field: "conditional_logic.rules[0].operator",
			code:  CodeInvalidChoice,
		},
		{
			name: "conditional self reference",
			mutate: func(d *entity.AttributeDefinition) {
				d.ConditionalLogic = &entity.ConditionalLogic{Rules: []entity.ConditionRule{{Field: "eye_color", Operator: "empty"}}}
			},
			field: "conditional_logic.rules[0].field",
			code:  CodeInvalidFormat,
		},
		{
			name:   "searchable but private",
			mutate: func(d *entity.AttributeDefinition) { d.IsSearchable, d.IsPublic = true, false },
			field:  "is_searchable",
			code:   CodeSearchableNotPublic,
		},
		{
			name:   "required but private under the error policy",
			mutate: func(d *entity.AttributeDefinition) { d.IsRequired, d.IsPublic = true, false },
			policy: func(p *Policy) { p.RequiredPublic = RequiredPublicError },
			field:  "is_required",
			code:   CodeRequiredNotPublic,
		},
		{
			name:   "default value outside the choices",
			mutate: func(d *entity.AttributeDefinition) { d.DefaultValue = "green" },
			field:  "default_value",
			code:   CodeInvalidDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := eyeColor()
			tt.mutate(def)
			v := newValidator()
			if tt.policy != nil {
				v = newValidator(tt.policy)
			}

			report := v.ValidateDefinition(def, nil)
			require.False(t, report.Valid())
			assert.True(t, report.HasCode(tt.field, tt.code), "errors: %+v", report.Errors)

			err := report.Err()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
			vErr, ok := errors.AsType[*domainerrors.ValidationError](err)
			require.True(t, ok)
			assert.True(t, vErr.HasField(tt.field))
		})
	}
}

func TestValidateDefinition_Accumulates(t *testing.T) {
	t.Parallel()

	def := eyeColor()
	def.Name = "123bad"
	def.Label = strings.Repeat("x", 300)

	report := newValidator().ValidateDefinition(def, nil)

	require.GreaterOrEqual(t, len(report.Errors), 2)
	assert.True(t, report.HasCode("name", CodeInvalidFormat))
	assert.True(t, report.HasCode("label", CodeTooLong))
}

func TestValidateDefinition_AccumulatesProperty(t *testing.T) {
	t.Parallel()

	v := newValidator()
	rapid.Check(t, func(t *rapid.T) {
		def := eyeColor()
		def.Name = rapid.StringMatching(`[0-9][a-z0-9_]{1,20}`).Draw(t, "name")
		def.Label = strings.Repeat("l", rapid.IntRange(256, 600).Draw(t, "labelLength"))
		if rapid.Bool().Draw(t, "searchable") {
			def.IsSearchable, def.IsPublic = true, false
		}

		report := v.ValidateDefinition(def, nil)
		if !report.HasCode("name", CodeInvalidFormat) || !report.HasCode("label", CodeTooLong) {
			t.Fatalf("expected both name and label errors, got %+v", report.Errors)
		}
		if def.IsSearchable && !report.HasCode("is_searchable", CodeSearchableNotPublic) {
			t.Fatalf("expected searchable error, got %+v", report.Errors)
		}
	})
}

func TestValidateDefinition_RequiredPublicPolicy(t *testing.T) {
	t.Parallel()

	def := eyeColor()
	def.IsRequired, def.IsPublic = true, false

	off := newValidator().ValidateDefinition(def, nil)
	assert.True(t, off.Valid())
	assert.Empty(t, off.Warnings)

	warn := newValidator(func(p *Policy) { p.RequiredPublic = RequiredPublicWarn }).ValidateDefinition(def, nil)
	assert.True(t, warn.Valid())
	require.Len(t, warn.Warnings, 1)
	assert.Equal(t, CodeRequiredNotPublic, warn.Warnings[0].Code)

	unknown := newValidator(func(p *Policy) { p.RequiredPublic = "sometimes" })
	assert.Equal(t, RequiredPublicOff, unknown.Policy().RequiredPublic)
}

func TestValidateDefinition_Update(t *testing.T) {
	t.Parallel()

	v := newValidator()

	t.Run("name is immutable", func(t *testing.T) {
		t.Parallel()

		existing := eyeColor()
		def := eyeColor()
		def.Name = "iris_color"

		assert.True(t, v.ValidateDefinition(def, existing).HasCode("name", CodeImmutable))
	})

	t.Run("stored reserved names are kept", func(t *testing.T) {
		t.Parallel()

		existing := eyeColor()
		existing.Name = "profile"
		def := existing.Clone()
		def.Label = "Profile"

		report := v.ValidateDefinition(def, existing)
		assert.True(t, report.Valid(), "errors: %+v", report.Errors)
	})

	t.Run("status transitions", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			from, to entity.Status
			ok       bool
		}{
			{entity.StatusDraft, entity.StatusActive, true},
			{entity.StatusDraft, entity.StatusArchived, false},
			{entity.StatusActive, entity.StatusDeprecated, true},
			{entity.StatusArchived, entity.StatusActive, true},
			{entity.StatusArchived, entity.StatusInactive, false},
			{entity.StatusDeprecated, entity.StatusDeprecated, true},
		}
		for _, tt := range tests {
			existing := eyeColor()
			existing.Status = tt.from
			def := eyeColor()
			def.Status = tt.to

			report := v.ValidateDefinition(def, existing)
			assert.Equal(t, tt.ok, !report.HasCode("status", CodeInvalidTransition), "%s -> %s", tt.from, tt.to)
		}
	})
}

func TestValidateDefinition_CapabilityWarnings(t *testing.T) {
	t.Parallel()

	def := eyeColor()
	def.Kind = "checkbox"
	def.Placeholder = "Tick all that apply"
	def.MinValue = floatPtr(1)

	report := newValidator().ValidateDefinition(def, nil)

	assert.True(t, report.Valid(), "errors: %+v", report.Errors)
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "placeholder", report.Warnings[0].Field)
	assert.Equal(t, "min_value", report.Warnings[1].Field)
}

func TestValidateDefinition_DefaultValue(t *testing.T) {
	t.Parallel()

	v := newValidator()

	def := eyeColor()
	def.DefaultValue = "blue"
	def.IsRequired = true
	assert.True(t, v.ValidateDefinition(def, nil).Valid())

	multi := eyeColor()
	multi.Kind = "multiselect"
	multi.DefaultValue = "blue, brown"
	assert.True(t, v.ValidateDefinition(multi, nil).Valid())

	consent := eyeColor()
	consent.Kind, consent.Options, consent.DefaultValue = "checkbox", nil, "1"
	assert.True(t, v.ValidateDefinition(consent, nil).Valid())
}

func TestValidateDefinition_Nil(t *testing.T) {
	t.Parallel()

	report := newValidator().ValidateDefinition(nil, nil)
	assert.False(t, report.Valid())
}

func TestValidateGroup(t *testing.T) {
	t.Parallel()

	v := newValidator()

	tests := []struct {
		name  string
		group *entity.AttributeGroup
		field string
		code  string
	}{
		{name: "valid", group: &entity.AttributeGroup{Key: "appearance", Label: "Appearance"}},
		{name: "missing key", group: &entity.AttributeGroup{Label: "x"}, field: "key", code: CodeRequired},
		{name: "bad key", group: &entity.AttributeGroup{Key: "Bad Key"}, field: "key", code: CodeInvalidFormat},
		{name: "markup label", group: &entity.AttributeGroup{Key: "a", Label: "<b>A</b>"}, field: "label", code: CodeMarkup},
		{name: "nil", group: nil, field: "group", code: CodeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report := v.ValidateGroup(tt.group)
			if tt.code == "" {
				assert.True(t, report.Valid(), "errors: %+v", report.Errors)

				return
			}
			assert.True(t, report.HasCode(tt.field, tt.code), "errors: %+v", report.Errors)
		})
	}
}

func TestValidateTransition(t *testing.T) {
	t.Parallel()

	v := newValidator()

	assert.True(t, v.ValidateTransition(entity.StatusDraft, entity.StatusActive).Valid())
	assert.True(t, v.ValidateTransition(entity.StatusArchived, entity.StatusActive).Valid())
	assert.True(t, v.ValidateTransition(entity.StatusDraft, "bogus").HasCode("status", CodeInvalidChoice))
	assert.True(t, v.ValidateTransition(entity.StatusDraft, entity.StatusArchived).HasCode("status", CodeInvalidTransition))
	assert.True(t, v.ValidateTransition(entity.StatusInactive, entity.StatusDeprecated).HasCode("status", CodeInvalidTransition))
}
