package attrkind

import (
	"strings"
	"testing"

	"attrschema/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func definition(kind string, mutate ...func(*entity.AttributeDefinition)) *entity.AttributeDefinition {
	def := &entity.AttributeDefinition{
		Name:       "field_" + kind,
		Label:      "Field",
		Kind:       kind,
		IsEditable: true,
		Status:     entity.StatusActive,
		Width:      entity.WidthFull,
	}
	for _, m := range mutate {
		m(def)
	}

	return def
}

func withOptions(pairs ...any) func(*entity.AttributeDefinition) {
	return func(d *entity.AttributeDefinition) { d.Options = entity.NewDocument(pairs...) }
}

func required(d *entity.AttributeDefinition) { d.IsRequired = true }

func TestKinds_Validate(t *testing.T) {
	t.Parallel()

	eyeColors := withOptions("choices", entity.NewDocument("brown", "Brown", "blue", "Blue"))

	tests := []struct {
		name  string
		def   *entity.AttributeDefinition
		value any
		codes []string
	}{
		{name: "select accepts a listed choice", def: definition("select", eyeColors), value: "brown"},
		{name: "select rejects an unlisted choice", def: definition("select", eyeColors), value: "green", codes: []string{CodeInvalidChoice}},
		{name: "select rejects a list", def: definition("select", eyeColors), value: []any{"brown"}, codes: []string{CodeInvalidType}},
		{name: "empty optional select", def: definition("select", eyeColors), value: ""},
		{name: "empty required select", def: definition("select", eyeColors, required), value: nil, codes: []string{CodeRequired}},
		{name: "radio uses the same choice check", def: definition("radio", eyeColors), value: "grey", codes: []string{CodeInvalidChoice}},
		{
			name:  "multiselect caps selections",
			def:   definition("multiselect", eyeColors, func(d *entity.AttributeDefinition) { d.ValidationRules.MaxSelections = intPtr(1) }),
			value: []any{"brown", "blue"},
			codes: []string{CodeTooMany},
		},
		{name: "multiselect reports each bad value", def: definition("multiselect", eyeColors), value: []string{"red", "brown", "pink"}, codes: []string{CodeInvalidChoice, CodeInvalidChoice}},
		{name: "consent checkbox must be checked", def: definition("checkbox", required), value: "0", codes: []string{CodeRequired}},
		{name: "consent checkbox checked", def: definition("checkbox", required), value: "on"},
		{name: "checkbox list", def: definition("checkbox", eyeColors), value: []any{"blue"}},
		{name: "number below min", def: definition("number", func(d *entity.AttributeDefinition) { d.MinValue = floatPtr(1) }), value: "0", codes: []string{CodeBelowMin}},
		{name: "number not numeric", def: definition("number"), value: "many", codes: []string{CodeInvalidType}},
		{name: "number integer only", def: definition("number", withOptions("integer_only", true)), value: 2.5, codes: []string{CodeInvalidFormat}},
		{name: "range uses option bounds", def: definition("range"), value: 150, codes: []string{CodeAboveMax}},
		{
			name: "text length and pattern accumulate",
			def: definition("text", func(d *entity.AttributeDefinition) {
				d.MaxLength = intPtr(3)
				d.RegexPattern = `^[0-9]+$`
			}),
			value: "abcd",
			codes: []string{CodeTooLong, CodePatternMismatch},
		},
		{name: "text min length", def: definition("text", func(d *entity.AttributeDefinition) { d.MinLength = intPtr(3) }), value: "ab", codes: []string{CodeTooShort}},
		{name: "text rejects objects", def: definition("text"), value: map[string]any{"a": 1}, codes: []string{CodeInvalidType}},
		{name: "markup only text is empty", def: definition("text", required), value: "<b></b>", codes: []string{CodeRequired}},
		{name: "email malformed", def: definition("email"), value: "not-an-email", codes: []string{CodeInvalidFormat}},
		{name: "email valid", def: definition("email"), value: "Someone@Example.org"},
		{name: "url rejects other schemes", def: definition("url"), value: "ftp://example.com", codes: []string{CodeInvalidFormat}},
		{name: "url without scheme is accepted", def: definition("url"), value: "example.com/about"},
		{name: "date malformed", def: definition("date"), value: "31/31/2020", codes: []string{CodeInvalidFormat}},
		{name: "date before min", def: definition("date", withOptions("min_date", "2000-01-01")), value: "1999-12-31", codes: []string{CodeBelowMin}},
		{name: "height in feet", def: definition("height"), value: map[string]any{"value": 6, "unit": "ft"}},
		{name: "height out of range", def: definition("height"), value: 300, codes: []string{CodeAboveMax}},
		{name: "height unknown unit", def: definition("height"), value: map[string]any{"value": 6, "unit": "cubits"}, codes: []string{CodeInvalidType}},
		{name: "weight in pounds", def: definition("weight"), value: map[string]any{"value": 150, "unit": "lb"}},
		{name: "age range reversed", def: definition("age_range"), value: map[string]any{"min": 30, "max": 25}, codes: []string{CodeInvalidFormat}},
		{name: "age range below floor", def: definition("age_range"), value: map[string]any{"min": 10, "max": 40}, codes: []string{CodeBelowMin}},
		{name: "age range missing end", def: definition("age_range"), value: map[string]any{"min": 20}, codes: []string{CodeRequired}},
		{name: "gender default choices", def: definition("gender"), value: "woman"},
		{name: "gender custom rejected by default", def: definition("gender"), value: "agender", codes: []string{CodeInvalidChoice}},
		{name: "gender custom allowed", def: definition("gender", withOptions("allow_custom", true)), value: "agender"},
		{name: "relationship status", def: definition("relationship_status"), value: "married"},
		{name: "looking for", def: definition("looking_for"), value: []any{"dating", "romance"}, codes: []string{CodeInvalidChoice}},
		{name: "education", def: definition("education"), value: "master"},
		{name: "zodiac from birth date", def: definition("zodiac"), value: "1990-04-05"},
		{name: "zodiac unknown sign", def: definition("zodiac"), value: "ophiuchus", codes: []string{CodeInvalidChoice}},
		{name: "interests too many", def: definition("interests", withOptions("max_tags", 2)), value: "hiking, cooking, chess", codes: []string{CodeTooMany}},
		{name: "interests restricted", def: definition("interests", withOptions("choices", []any{"hiking", "chess"})), value: []any{"hiking", "golf"}, codes: []string{CodeInvalidChoice}},
		{
			name:  "location bad coordinates and country",
			def:   definition("location"),
			value: map[string]any{"city": "Taipei", "country": "Taiwan", "latitude": 95, "longitude": 121.5},
			codes: []string{CodeInvalidFormat, CodeInvalidFormat},
		},
		{name: "location needs city", def: definition("location", withOptions("require_city", true)), value: map[string]any{"country": "TW"}, codes: []string{CodeRequired}},
		{name: "location half coordinates", def: definition("location"), value: map[string]any{"city": "Taipei", "latitude": 25}, codes: []string{CodeInvalidFormat}},
		{
			name:  "location country not allowed",
			def:   definition("location", withOptions("allowed_countries", []any{"TW", "JP"})),
			value: map[string]any{"city": "Seoul", "country": "kr"},
			codes: []string{CodeInvalidChoice},
		},
		{name: "profession unknown industry", def: definition("profession"), value: map[string]any{"title": "Baker", "industry": "bakery"}, codes: []string{CodeInvalidChoice}},
		{name: "profession as plain title", def: definition("profession"), value: "Engineer"},
		{
			name:  "lifestyle unknown aspect and bad choice",
			def:   definition("lifestyle"),
			value: map[string]any{"smoking": "always", "music": "loud"},
			codes: []string{CodeInvalidFormat, CodeInvalidChoice},
		},
		{name: "lifestyle restricted aspects", def: definition("lifestyle", withOptions("aspects", []any{"diet"})), value: map[string]any{"pets": "dog"}, codes: []string{CodeInvalidFormat}},
	}

	r := NewDefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := r.Validate(tt.def, tt.value)
			if len(tt.codes) == 0 {
				assert.True(t, res.Valid(), "unexpected errors: %+v", res.Errors)

				return
			}
			assert.Equal(t, tt.codes, res.Codes(), "errors: %+v", res.Errors)
		})
	}
}

func TestKinds_Sanitize(t *testing.T) {
	t.Parallel()

	eyeColors := withOptions("choices", entity.NewDocument("brown", "Brown", "blue", "Blue"))

	tests := []struct {
		name     string
		def      *entity.AttributeDefinition
		value    any
		expected any
	}{
		{name: "select keeps a valid choice", def: definition("select", eyeColors), value: "brown", expected: "brown"},
		{name: "select drops an invalid choice", def: definition("select", eyeColors), value: "green", expected: ""},
		{name: "multiselect dedupes and filters", def: definition("multiselect", eyeColors), value: []any{"blue", "green", "blue", "brown"}, expected: []string{"blue", "brown"}},
		{name: "consent checkbox", def: definition("checkbox"), value: "yes", expected: true},
		{name: "text strips markup", def: definition("text"), value: "  <script>x</script>Hello <i>there</i> ", expected: "Hello there"},
		{name: "textarea keeps lines", def: definition("textarea"), value: "line one  \r\nline <b>two</b>\n", expected: "line one\nline two"},
		{name: "email lowercased", def: definition("email"), value: " Someone@Example.ORG ", expected: "someone@example.org"},
		{name: "invalid email dropped", def: definition("email"), value: "nope", expected: ""},
		{name: "url gets a scheme", def: definition("url"), value: "example.com", expected: "https://example.com"},
		{name: "number whole", def: definition("number"), value: "42", expected: int64(42)},
		{name: "number fraction", def: definition("number"), value: "3.5", expected: 3.5},
		{name: "number decimals", def: definition("number", withOptions("decimals", 1)), value: 2.349, expected: 2.3},
		{name: "number integer only", def: definition("number", withOptions("integer_only", true)), value: 2.6, expected: int64(3)},
		{name: "number garbage", def: definition("number"), value: "abc", expected: nil},
		{name: "date normalized", def: definition("date"), value: "2001/02/03", expected: "2001-02-03"},
		{name: "gender custom trimmed", def: definition("gender", withOptions("allow_custom", true)), value: " <b>agender</b> ", expected: "agender"},
		{name: "zodiac from date", def: definition("zodiac"), value: "1990-04-05", expected: "aries"},
		{name: "interests dedupe case-insensitively", def: definition("interests"), value: "Hiking, hiking,  Cooking ,", expected: []string{"Hiking", "Cooking"}},
		{name: "interests capped", def: definition("interests", withOptions("max_tags", 1)), value: []any{"a", "b"}, expected: []string{"a"}},
	}

	r := NewDefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, r.Sanitize(tt.def, tt.value))
		})
	}
}

func TestKinds_SanitizeComposite(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()

	height, ok := r.Sanitize(definition("height"), map[string]any{"feet": 5, "inches": 10}).(*entity.Document)
	require.True(t, ok)
	f, _ := height.Float("value")
	assert.InDelta(t, 177.8, f, 0.001)
	assert.Equal(t, "cm", height.String("unit"))

	weight, ok := r.Sanitize(definition("weight"), map[string]any{"value": 150, "unit": "lb"}).(*entity.Document)
	require.True(t, ok)
	f, _ = weight.Float("value")
	assert.InDelta(t, 68.0, f, 0.001)

	ages, ok := r.Sanitize(definition("age_range"), map[string]any{"min": 40, "max": 12}).(*entity.Document)
	require.True(t, ok)
	assert.Equal(t, []string{"min", "max"}, ages.Keys())
	lo, _ := ages.Int("min")
	hi, _ := ages.Int("max")
	assert.Equal(t, 18, lo, "clamped to the floor after swapping")
	assert.Equal(t, 40, hi)

	loc, ok := r.Sanitize(definition("location"), map[string]any{
		"city": " Taipei ", "country": "tw", "lat": 25.0330001234, "lng": 121.5654,
	}).(*entity.Document)
	require.True(t, ok)
	assert.Equal(t, []string{"city", "country", "latitude", "longitude"}, loc.Keys())
	assert.Equal(t, "TW", loc.String("country"))
	lat, _ := loc.Float("latitude")
	assert.InDelta(t, 25.033, lat, 1e-9)

	style, ok := r.Sanitize(definition("lifestyle"), map[string]any{"diet": "vegan", "smoking": "always", "music": "loud"}).(*entity.Document)
	require.True(t, ok)
	assert.Equal(t, []string{"diet"}, style.Keys())

	job, ok := r.Sanitize(definition("profession"), map[string]any{"title": "<b>Chef</b>", "industry": "hospitality", "company": ""}).(*entity.Document)
	require.True(t, ok)
	assert.Equal(t, []string{"title", "industry"}, job.Keys())
	assert.Equal(t, "Chef", job.String("title"))

	assert.Nil(t, r.Sanitize(definition("location"), "somewhere"))
}

func TestKinds_Render(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()

	t.Run("escapes labels and values", func(t *testing.T) {
		t.Parallel()

		def := definition("text", func(d *entity.AttributeDefinition) {
			d.Label = `<script>alert(1)</script>`
			d.HelpText = "Use <b>bold</b>"
		})
		markup, err := r.Render(def, `"><img src=x>`, RenderArgs{})
		require.NoError(t, err)
		assert.NotContains(t, markup, "<script>")
		assert.NotContains(t, markup, "<img")
		assert.Contains(t, markup, "&lt;script&gt;")
	})

	t.Run("select marks the current choice", func(t *testing.T) {
		t.Parallel()

		def := definition("select", withOptions("choices", entity.NewDocument("brown", "Brown", "blue", "Blue")))
		markup, err := r.Render(def, "blue", RenderArgs{IDPrefix: "p1-"})
		require.NoError(t, err)
		assert.Contains(t, markup, `<option value="blue" selected>Blue</option>`)
		assert.Contains(t, markup, `id="p1-attr-field_select"`)
	})

	t.Run("hidden by conditional logic", func(t *testing.T) {
		t.Parallel()

		def := definition("text", func(d *entity.AttributeDefinition) {
			d.ConditionalLogic = &entity.ConditionalLogic{
				Action: entity.ConditionActionShow,
				Match:  entity.ConditionMatchAll,
				Rules:  []entity.ConditionRule{{Field: "has_pets", Operator: "equals", Value: "yes"}},
			}
		})
		markup, err := r.Render(def, nil, RenderArgs{Values: map[string]any{"has_pets": "no"}})
		require.NoError(t, err)
		assert.Contains(t, markup, "data-conditional=")
		assert.Contains(t, markup, " hidden")

		markup, err = r.Render(def, nil, RenderArgs{Values: map[string]any{"has_pets": "yes"}})
		require.NoError(t, err)
		assert.NotContains(t, markup, " hidden")
	})

	t.Run("every builtin renders", func(t *testing.T) {
		t.Parallel()

		for _, name := range r.Names() {
			def := definition(name, required, func(d *entity.AttributeDefinition) { d.CSSClass = "wide accent" })
			markup, err := r.Render(def, nil, RenderArgs{Disabled: true})
			require.NoError(t, err, name)
			assert.True(t, strings.HasPrefix(markup, "<div"), name)
			assert.Contains(t, markup, "attr-kind-"+name, name)
			assert.Contains(t, markup, "wide accent", name)
		}
	})
}
