package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"
	"attrschema/internal/errors"

	"github.com/go-playground/validator/v10"
)

// definitionShape holds the definition keys checked through struct tags.
type definitionShape struct {
	Name         string `json:"name" validate:"required,min=2,max=64,attrname"`
	Label        string `json:"label" validate:"required,max=255"`
	Kind         string `json:"kind" validate:"required"`
	Description  string `json:"description" validate:"max=1000"`
	HelpText     string `json:"help_text" validate:"max=500"`
	Placeholder  string `json:"placeholder" validate:"max=255"`
	Group        string `json:"group" validate:"omitempty,max=64,groupkey"`
	Width        string `json:"width" validate:"omitempty,oneof=full half third quarter"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive draft deprecated archived"`
	CSSClass     string `json:"css_class" validate:"omitempty,max=255,cssclasses"`
	DefaultValue string `json:"default_value" validate:"max=1000"`
	RegexPattern string `json:"regex_pattern" validate:"max=500"`
	MinLength    *int   `json:"min_length" validate:"omitempty,min=0"`
	MaxLength    *int   `json:"max_length" validate:"omitempty,min=0"`
}

// definitionCheck is one entry of the definition rule table.
type definitionCheck func(v *Validator, c *checkContext)

type checkContext struct {
	def      *entity.AttributeDefinition
	existing *entity.AttributeDefinition
	desc     attrkind.Descriptor
	known    bool
	report   *Report
}

// definitionChecks run in order and never stop early, so a caller sees every
// problem in one pass.
var definitionChecks = []definitionCheck{
	(*Validator).checkShape,
	(*Validator).checkName,
	(*Validator).checkLabel,
	(*Validator).checkKind,
	(*Validator).checkBounds,
	(*Validator).checkChoices,
	(*Validator).checkPatterns,
	(*Validator).checkRules,
	(*Validator).checkConditionalLogic,
	(*Validator).checkStatus,
	(*Validator).checkCapabilities,
	(*Validator).checkVisibility,
	(*Validator).checkDefaultValue,
}

// ValidateDefinition validates a candidate definition. existing is the stored
// version when the candidate updates one, nil on creation.
func (v *Validator) ValidateDefinition(def, existing *entity.AttributeDefinition) *Report {
	report := &Report{}
	if def == nil {
		report.add("definition", CodeRequired, "definition is required")

		return report
	}

	c := &checkContext{def: def, existing: existing, report: report}
	if k, ok := v.registry.Lookup(def.Kind); ok {
		c.desc, c.known = k.Descriptor(), true
	}
	for _, check := range definitionChecks {
		check(v, c)
	}

	return report
}

func (v *Validator) checkShape(c *checkContext) {
	d := c.def
	shape := definitionShape{
		Name:         d.Name,
		Label:        d.Label,
		Kind:         d.Kind,
		Description:  d.Description,
		HelpText:     d.HelpText,
		Placeholder:  d.Placeholder,
		Group:        d.Group,
		Width:        string(d.Width),
		Status:       string(d.Status),
		CSSClass:     d.CSSClass,
		DefaultValue: d.DefaultValue,
		RegexPattern: d.RegexPattern,
		MinLength:    d.MinLength,
		MaxLength:    d.MaxLength,
	}

	err := v.structs.Struct(shape)
	if err == nil {
		return
	}
	fieldErrs, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		c.report.add("definition", CodeInvalidFormat, err.Error())

		return
	}
	for _, fe := range fieldErrs {
		code, message := describeFieldError(fe)
		c.report.add(fe.Field(), code, message)
	}
}

// describeFieldError turns a tag failure into a code and a readable message.
func describeFieldError(fe validator.FieldError) (string, string) {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return CodeRequired, field + " is required"
	case "min":
		if isString {
			return CodeTooShort, fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}

		return CodeBelowMin, fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return CodeTooLong, fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}

		return CodeAboveMax, fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return CodeInvalidChoice, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "attrname":
		return CodeInvalidFormat, field + " must start with a lowercase letter and contain only lowercase letters, digits and underscores"
	case "groupkey":
		return CodeInvalidFormat, field + " must start with a lowercase letter and contain only lowercase letters, digits, dashes and underscores"
	case "cssclasses":
		return CodeInvalidFormat, field + " must be a space separated list of CSS class names"
	default:
		return CodeInvalidFormat, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func (v *Validator) checkName(c *checkContext) {
	d := c.def
	if c.existing != nil && c.existing.Name != d.Name {
		c.report.add("name", CodeImmutable, "name cannot be changed after creation")

		return
	}
	// Stored names are grandfathered so a tightened policy does not lock existing definitions.
	if c.existing != nil || d.Name == "" {
		return
	}

	name := strings.ToLower(d.Name)
	if _, reserved := v.reserved[name]; reserved {
		c.report.add("name", CodeReserved, fmt.Sprintf("name %q is reserved", d.Name))
	}
	for _, prefix := range v.policy.ForbiddenPrefixes {
		if prefix != "" && strings.HasPrefix(name, strings.ToLower(prefix)) {
			c.report.add("name", CodeForbiddenPrefix, fmt.Sprintf("name must not start with %q", prefix))

			break
		}
	}
}

func (v *Validator) checkLabel(c *checkContext) {
	if attrkind.HasMarkup(c.def.Label) {
		c.report.add("label", CodeMarkup, "label must not contain markup")
	}
}

func (v *Validator) checkKind(c *checkContext) {
	if c.def.Kind != "" && !c.known {
		c.report.add("kind", CodeUnknownKind, fmt.Sprintf("kind %q is not registered", c.def.Kind))
	}
}

func (v *Validator) checkBounds(c *checkContext) {
	d := c.def
	checkFloatPair(c.report, "min_value", "max_value", d.MinValue, d.MaxValue)
	checkIntPair(c.report, "min_length", "max_length", d.MinLength, d.MaxLength)

	rules := d.ValidationRules
	checkFloatPair(c.report, "validation_rules.min_value", "validation_rules.max_value", rules.MinValue, rules.MaxValue)
	checkIntPair(c.report, "validation_rules.min_length", "validation_rules.max_length", rules.MinLength, rules.MaxLength)
	if rules.MinLength != nil && *rules.MinLength < 0 {
		c.report.add("validation_rules.min_length", CodeBelowMin, "validation_rules.min_length must be at least 0")
	}
	if rules.MaxLength != nil && *rules.MaxLength < 0 {
		c.report.add("validation_rules.max_length", CodeBelowMin, "validation_rules.max_length must be at least 0")
	}

	// Numeric kinds may also carry their bounds as options.
	if c.known && c.desc.Has(attrkind.CapMinMax) {
		lo, hasLo := d.Options.Float("min")
		hi, hasHi := d.Options.Float("max")
		if hasLo && hasHi && lo >= hi {
			c.report.add("options.min", CodeInvalidRange, "options.min must be less than options.max")
		}
	}
	if step, ok := d.Options.Float("step"); ok && step <= 0 {
		c.report.add("options.step", CodeBelowMin, "options.step must be greater than 0")
	}
}

func checkFloatPair(r *Report, minField, maxField string, lo, hi *float64) {
	finite := true
	for _, bound := range []struct {
		field string
		value *float64
	}{{minField, lo}, {maxField, hi}} {
		if bound.value != nil && (math.IsNaN(*bound.value) || math.IsInf(*bound.value, 0)) {
			r.add(bound.field, CodeInvalidFormat, bound.field+" must be a finite number")
			finite = false
		}
	}
	if finite && lo != nil && hi != nil && *lo >= *hi {
		r.add(minField, CodeInvalidRange, fmt.Sprintf("%s must be less than %s", minField, maxField))
	}
}

func checkIntPair(r *Report, minField, maxField string, lo, hi *int) {
	if lo != nil && hi != nil && *lo > *hi {
		r.add(minField, CodeInvalidRange, fmt.Sprintf("%s must not exceed %s", minField, maxField))
	}
}

func (v *Validator) checkChoices(c *checkContext) {
	d := c.def
	choices := d.Choices()
	if c.known && c.desc.RequiresChoices && len(choices) == 0 {
		c.report.add("options.choices", CodeRequired, fmt.Sprintf("kind %q needs at least one choice", d.Kind))

		return
	}
	if len(choices) > v.policy.MaxChoices {
		c.report.add("options.choices", CodeTooMany, fmt.Sprintf("at most %d choices are allowed", v.policy.MaxChoices))
	}

	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		value := strings.TrimSpace(choice.Value)
		if value == "" {
			c.report.add("options.choices", CodeInvalidFormat, "choice values must not be empty")

			continue
		}
		if _, dup := seen[value]; dup {
			c.report.add("options.choices", CodeDuplicateChoice, fmt.Sprintf("choice %q is listed more than once", value))

			continue
		}
		seen[value] = struct{}{}
	}
}

func (v *Validator) checkPatterns(c *checkContext) {
	for _, p := range []struct{ field, pattern string }{
		{"regex_pattern", c.def.RegexPattern},
		{"validation_rules.pattern", c.def.ValidationRules.Pattern},
	} {
		if p.pattern == "" {
			continue
		}
		if _, err := regexp.Compile(p.pattern); err != nil {
			c.report.add(p.field, CodeInvalidPattern, fmt.Sprintf("%s does not compile: %s", p.field, err))
		}
	}
}

func (v *Validator) checkRules(c *checkContext) {
	rules := c.def.ValidationRules
	if rules.MaxSelections != nil && *rules.MaxSelections < 1 {
		c.report.add("validation_rules.max_selections", CodeBelowMin, "validation_rules.max_selections must be at least 1")
	}
}

func (v *Validator) checkConditionalLogic(c *checkContext) {
	logic := c.def.ConditionalLogic
	if logic == nil {
		return
	}
	if logic.Action != "" && logic.Action != entity.ConditionActionShow && logic.Action != entity.ConditionActionHide {
		c.report.add("conditional_logic.action", CodeInvalidChoice, "conditional_logic.action must be show or hide")
	}
	if logic.Match != "" && logic.Match != entity.ConditionMatchAll && logic.Match != entity.ConditionMatchAny {
		c.report.add("conditional_logic.match", CodeInvalidChoice, "conditional_logic.match must be all or any")
	}
	for i, rule := range logic.Rules {
		prefix := fmt.Sprintf("conditional_logic.rules[%d]", i)
		switch {
		case !namePattern.MatchString(rule.Field):
			c.report.add(prefix+".field", CodeInvalidFormat, prefix+".field must reference a definition name")
		case rule.Field == c.def.Name:
			c.report.add(prefix+".field", CodeInvalidFormat, prefix+".field must not reference the definition itself")
		}
		if !slices.Contains(entity.ConditionOperators, rule.Operator) {
			c.report.add(prefix+".operator", CodeInvalidChoice, fmt.Sprintf("%s.operator must be one of: %s", prefix, strings.Join(entity.ConditionOperators, ", ")))
		}
	}
}

func (v *Validator) checkStatus(c *checkContext) {
	if c.existing == nil || c.def.Status == "" || !c.def.Status.IsValid() {
		return
	}
	if !c.existing.Status.CanTransitionTo(c.def.Status) {
		c.report.add("status", CodeInvalidTransition, fmt.Sprintf("status cannot change from %s to %s", c.existing.Status, c.def.Status))
	}
}

// checkCapabilities warns about configuration the kind ignores.
func (v *Validator) checkCapabilities(c *checkContext) {
	if !c.known {
		return
	}
	d, desc := c.def, c.desc
	if d.Placeholder != "" && !desc.Has(attrkind.CapPlaceholder) {
		c.report.warn("placeholder", CodeUnsupported, fmt.Sprintf("kind %q does not show a placeholder", d.Kind))
	}
	if (d.MinLength != nil || d.MaxLength != nil) && !desc.Has(attrkind.CapLength) {
		c.report.warn("min_length", CodeUnsupported, fmt.Sprintf("kind %q ignores length bounds", d.Kind))
	}
	if (d.MinValue != nil || d.MaxValue != nil) && !desc.Has(attrkind.CapMinMax) {
		c.report.warn("min_value", CodeUnsupported, fmt.Sprintf("kind %q ignores value bounds", d.Kind))
	}
	if d.RegexPattern != "" && !desc.Has(attrkind.CapPattern) {
		c.report.warn("regex_pattern", CodeUnsupported, fmt.Sprintf("kind %q ignores patterns", d.Kind))
	}
	if d.ValidationRules.MaxSelections != nil && !desc.Has(attrkind.CapMultiple) {
		c.report.warn("validation_rules.max_selections", CodeUnsupported, fmt.Sprintf("kind %q holds a single value", d.Kind))
	}
}

func (v *Validator) checkVisibility(c *checkContext) {
	d := c.def
	if d.IsSearchable && !d.IsPublic {
		c.report.add("is_searchable", CodeSearchableNotPublic, "a searchable attribute must be public")
	}
	if !d.IsRequired || d.IsPublic {
		return
	}
	const message = "a required attribute is not public, members cannot see what they must fill in"
	switch v.policy.RequiredPublic {
	case RequiredPublicError:
		c.report.add("is_required", CodeRequiredNotPublic, message)
	case RequiredPublicWarn:
		c.report.warn("is_required", CodeRequiredNotPublic, message)
	case RequiredPublicOff:
	}
}

// checkDefaultValue runs the default value through the kind's own value
// validation, ignoring the required flag.
func (v *Validator) checkDefaultValue(c *checkContext) {
	d := c.def
	if !v.policy.ValidateDefaultValue || d.DefaultValue == "" || !c.known || c.desc.Has(attrkind.CapComposite) {
		return
	}

	probe := d.Clone()
	probe.IsRequired = false
	probe.ValidationRules.Required = false

	var value any = d.DefaultValue
	if c.desc.Has(attrkind.CapMultiple) && strings.Contains(d.DefaultValue, ",") {
		parts := strings.Split(d.DefaultValue, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		value = parts
	}
	if res := v.registry.Validate(probe, value); !res.Valid() {
		c.report.add("default_value", CodeInvalidDefault, "default_value: "+res.Errors[0].Message)
	}
}
