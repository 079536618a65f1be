package attrkind

import (
	"fmt"
	"strings"
	"time"

	"attrschema/internal/domain/entity"
)

// DateLayout is the stored form of date values.
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, time.RFC3339, "2006/01/02", "02.01.2006"}

// now is replaced in tests.
var now = time.Now

type dateKind struct{}

func newDate() Kind { return dateKind{} }

func (dateKind) Descriptor() Descriptor {
	return Descriptor{
		Name:           "date",
		Label:          "Date",
		Description:    "A calendar date, optionally bounded or age gated.",
		Category:       CategoryInput,
		Capabilities:   []Capability{CapPlaceholder},
		ValidationKeys: []string{"required", "min_date", "max_date", "min_age", "max_age"},
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument("min_date", "", "max_date", "", "min_age", nil)
		},
	}
}

// ParseDate accepts the supported input layouts and returns the date at UTC midnight.
func ParseDate(value any) (time.Time, bool) {
	if t, ok := value.(time.Time); ok {
		return truncateDay(t), true
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}

	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateOption resolves a date bound; "today" is relative to now.
func dateOption(def *entity.AttributeDefinition, key string) (time.Time, bool) {
	raw := def.Options.String(key)
	if raw == "" {
		return time.Time{}, false
	}
	if raw == "today" {
		return truncateDay(now()), true
	}

	return ParseDate(raw)
}

// ageOn returns the age in whole years of someone born on birth at day.
func ageOn(birth, day time.Time) int {
	age := day.Year() - birth.Year()
	if day.Month() < birth.Month() || (day.Month() == birth.Month() && day.Day() < birth.Day()) {
		age--
	}

	return age
}

func (dateKind) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	current := ""
	if t, ok := ParseDate(value); ok {
		current = t.Format(DateLayout)
	} else if value == nil {
		current = def.DefaultValue
	}

	var extra []attr
	if t, ok := dateOption(def, "min_date"); ok {
		extra = append(extra, attr{"min", t.Format(DateLayout)})
	}
	if t, ok := dateOption(def, "max_date"); ok {
		extra = append(extra, attr{"max", t.Format(DateLayout)})
	}

	return wrapField(def, args, renderInput(def, args, "date", current, extra...)), nil
}

func (dateKind) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	t, ok := ParseDate(value)
	if !ok {
		res.Add(def.Name, CodeInvalidFormat, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", displayName(def)))

		return res
	}
	name := displayName(def)
	if bound, ok := dateOption(def, "min_date"); ok && t.Before(bound) {
		res.Add(def.Name, CodeBelowMin, fmt.Sprintf("%s must be on or after %s", name, bound.Format(DateLayout)))
	}
	if bound, ok := dateOption(def, "max_date"); ok && t.After(bound) {
		res.Add(def.Name, CodeAboveMax, fmt.Sprintf("%s must be on or before %s", name, bound.Format(DateLayout)))
	}

	age := ageOn(t, truncateDay(now()))
	if minAge, ok := def.Options.Int("min_age"); ok && age < minAge {
		res.Add(def.Name, CodeBelowMin, fmt.Sprintf("you must be at least %d years old", minAge))
	}
	if maxAge, ok := def.Options.Int("max_age"); ok && age > maxAge {
		res.Add(def.Name, CodeAboveMax, fmt.Sprintf("%s implies an age above %d", name, maxAge))
	}

	return res
}

func (dateKind) Sanitize(_ *entity.AttributeDefinition, value any) any {
	t, ok := ParseDate(value)
	if !ok {
		return ""
	}

	return t.Format(DateLayout)
}

func (dateKind) Project(_ *entity.AttributeDefinition, value any) Projection {
	t, ok := ParseDate(value)
	if !ok {
		return Projection{}
	}

	return Projection{Date: &t}
}
