package attrkind

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"attrschema/internal/domain/entity"
)

const (
	defaultMaxTags      = 20
	defaultMaxTagLength = 50
)

// interests is a tag list. With choices configured the tags are restricted
// to them, otherwise any tag is accepted.
type interests struct{}

func newInterests() Kind { return interests{} }

func (interests) Descriptor() Descriptor {
	return Descriptor{
		Name:           "interests",
		Label:          "Interests",
		Description:    "Free-form or predefined interest tags.",
		Category:       CategoryDomain,
		Capabilities:   []Capability{CapOptions, CapMultiple, CapPlaceholder},
		ValidationKeys: []string{"required", "max_selections"},
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument(
				"choices", &entity.Document{},
				"max_tags", int64(defaultMaxTags),
				"max_tag_length", int64(defaultMaxTagLength),
			)
		},
	}
}

// tags splits comma separated strings and lists into trimmed tags.
func tags(value any) ([]string, bool) {
	if s, ok := value.(string); ok {
		value = strings.Split(s, ",")
	}
	raw, ok := asStrings(value)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = sanitizeLine(t); t != "" {
			out = append(out, t)
		}
	}

	return out, true
}

func maxTags(def *entity.AttributeDefinition) int {
	if rules := def.EffectiveRules(); rules.MaxSelections != nil {
		return *rules.MaxSelections
	}

	return optionInt(def, "max_tags", defaultMaxTags)
}

func (interests) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	current, _ := tags(value)
	if choices := def.Choices(); len(choices) > 0 {
		return wrapField(def, args, renderChoiceList(def, args, "checkbox", choices, current)), nil
	}

	control := renderInput(def, args, "text", strings.Join(current, ", "),
		attr{"data-max-tags", fmt.Sprint(maxTags(def))}, attr{"class", "attr-tags"})

	return wrapField(def, args, control), nil
}

func (interests) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	name := displayName(def)
	list, ok := tags(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be a list of tags", name))

		return res
	}
	list = dedupe(list, strings.ToLower)
	if limit := maxTags(def); limit > 0 && len(list) > limit {
		res.Add(def.Name, CodeTooMany, fmt.Sprintf("%s allows at most %d tags", name, limit))
	}

	choices := def.Choices()
	tagLimit := optionInt(def, "max_tag_length", defaultMaxTagLength)
	for _, t := range list {
		if len(choices) > 0 && !choices.Contains(t) {
			res.Add(def.Name, CodeInvalidChoice, fmt.Sprintf("%q is not a valid choice for %s", t, name))

			continue
		}
		if utf8.RuneCountInString(t) > tagLimit {
			res.Add(def.Name, CodeTooLong, fmt.Sprintf("tag %q is longer than %d characters", t, tagLimit))
		}
	}

	return res
}

// Sanitize dedupes case-insensitively, drops invalid tags and caps the list.
func (interests) Sanitize(def *entity.AttributeDefinition, value any) any {
	list, _ := tags(value)
	choices := def.Choices()
	tagLimit := optionInt(def, "max_tag_length", defaultMaxTagLength)

	out := make([]string, 0, len(list))
	for _, t := range dedupe(list, strings.ToLower) {
		if len(choices) > 0 && !choices.Contains(t) {
			continue
		}
		out = append(out, truncate(t, tagLimit))
	}
	if limit := maxTags(def); limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
