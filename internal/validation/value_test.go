package validation

import (
	"testing"

	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestValidateValue_EyeColor(t *testing.T) {
	t.Parallel()

	v := newValidator()
	def := eyeColor()

	res := v.ValidateValue(def, "green")
	assert.False(t, res.Valid())
	assert.Equal(t, []string{attrkind.CodeInvalidChoice}, res.Codes())

	assert.True(t, v.ValidateValue(def, "brown").Valid())
	assert.Equal(t, "brown", v.SanitizeValue(def, "brown"))
}

func TestValidateValue_UnknownKindFallsBack(t *testing.T) {
	t.Parallel()

	v := newValidator()
	def := &entity.AttributeDefinition{Name: "legacy", Label: "Legacy", Kind: "removed_plugin_kind", IsRequired: true}

	assert.Equal(t, []string{attrkind.CodeRequired}, v.ValidateValue(def, "").Codes())
	assert.Equal(t, "kept", v.SanitizeValue(def, "<em>kept</em>"))
}

func TestValidateSubmission(t *testing.T) {
	t.Parallel()

	v := newValidator()
	hasPets := &entity.AttributeDefinition{
		Name: "has_pets", Label: "Has pets", Kind: "radio", IsRequired: true,
		Options: entity.NewDocument("choices", []any{"yes", "no"}),
	}
	petName := &entity.AttributeDefinition{
		Name: "pet_name", Label: "Pet name", Kind: "text", IsRequired: true,
		ConditionalLogic: &entity.ConditionalLogic{
			Action: entity.ConditionActionShow,
			Match:  entity.ConditionMatchAll,
			Rules:  []entity.ConditionRule{{Field: "has_pets", Operator: "equals", Value: "yes"}},
		},
	}
	defs := []*entity.AttributeDefinition{hasPets, petName}

	assert.True(t, v.ValidateSubmission(defs, map[string]any{"has_pets": "no"}).Valid(), "hidden field is not required")

	res := v.ValidateSubmission(defs, map[string]any{"has_pets": "yes"})
	assert.Equal(t, []string{attrkind.CodeRequired}, res.Codes())
	assert.Equal(t, "pet_name", res.Errors[0].Field)

	clean := v.SanitizeSubmission(defs, map[string]any{"has_pets": "yes", "pet_name": " <b>Rex</b>", "other": "x"})
	assert.Equal(t, map[string]any{"has_pets": "yes", "pet_name": "Rex"}, clean)

	clean = v.SanitizeSubmission(defs, map[string]any{"has_pets": "no", "pet_name": "Rex"})
	assert.Equal(t, map[string]any{"has_pets": "no"}, clean)
}
