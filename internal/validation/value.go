package validation

import (
	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"
)

// ValidateValue checks one submitted value against its definition.
func (v *Validator) ValidateValue(def *entity.AttributeDefinition, value any) attrkind.Result {
	return v.registry.Validate(def, value)
}

// SanitizeValue returns the stored form of a submitted value.
func (v *Validator) SanitizeValue(def *entity.AttributeDefinition, value any) any {
	return v.registry.Sanitize(def, value)
}

// ValidateSubmission validates a set of values keyed by definition name.
// Definitions hidden by their conditional logic are skipped, so a hidden
// required field does not block the submission.
func (v *Validator) ValidateSubmission(defs []*entity.AttributeDefinition, values map[string]any) attrkind.Result {
	var res attrkind.Result
	for _, def := range defs {
		if !def.ConditionalLogic.Visible(values) {
			continue
		}
		res.Merge(v.registry.Validate(def, values[def.Name]))
	}

	return res
}

// SanitizeSubmission sanitizes the submitted values of visible definitions.
// Keys that match no definition are dropped.
func (v *Validator) SanitizeSubmission(defs []*entity.AttributeDefinition, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for _, def := range defs {
		raw, submitted := values[def.Name]
		if !submitted || !def.ConditionalLogic.Visible(values) {
			continue
		}
		out[def.Name] = v.registry.Sanitize(def, raw)
	}

	return out
}
