package attrkind

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"attrschema/internal/domain/entity"
)

const maxProfessionLength = 100

var industryChoices = choicesOf(
	"technology", "Technology",
	"healthcare", "Healthcare",
	"education", "Education",
	"finance", "Finance",
	"arts", "Arts & entertainment",
	"hospitality", "Hospitality",
	"retail", "Retail",
	"manufacturing", "Manufacturing",
	"government", "Government",
	"self_employed", "Self-employed",
	"student", "Student",
	"other", "Other",
)

// profession is stored as {"title", "industry", "company"}.
type profession struct{}

func newProfession() Kind { return profession{} }

func (profession) Descriptor() Descriptor {
	return Descriptor{
		Name:           "profession",
		Label:          "Profession",
		Description:    "Job title, industry and employer.",
		Category:       CategoryDomain,
		Capabilities:   []Capability{CapOptions, CapComposite, CapPlaceholder},
		ValidationKeys: []string{"required"},
		DefaultOptions: func() *entity.Document {
			return entity.NewDocument(
				"industries", entity.ChoicesDocument(industryChoices),
				"show_company", true,
			)
		},
	}
}

func industries(def *entity.AttributeDefinition) entity.Choices {
	if cs := entity.ChoicesFrom(def.Options, "industries"); len(cs) > 0 {
		return cs
	}

	return industryChoices
}

func professionParts(value any) (title, industry, company string, ok bool) {
	if s, isString := value.(string); isString {
		return s, "", "", true
	}
	m, isMap := asMap(value)
	if !isMap {
		return "", "", "", false
	}
	title, _ = asString(m["title"])
	industry, _ = asString(m["industry"])
	company, _ = asString(m["company"])

	return title, industry, company, true
}

func (profession) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	title, industry, company, _ := professionParts(value)

	text := func(sub, label, current string) string {
		attrs := append(controlAttrs(def, args, subfieldName(def, args, sub), subfieldID(def, args, sub)),
			attr{"type", "text"}, attr{"value", current}, attr{"placeholder", label}, attr{"maxlength", fmt.Sprint(maxProfessionLength)})

		return tag("input", attrs, "", true)
	}

	var selected []string
	if industry != "" {
		selected = []string{industry}
	}
	control := text("title", "Job title", title) +
		renderSelect(def, args, subfieldName(def, args, "industry"), subfieldID(def, args, "industry"), industries(def), selected, false)
	if !def.Options.Has("show_company") || def.Options.Bool("show_company") {
		control += text("company", "Company", company)
	}

	return wrapField(def, args, tag("div", []attr{{"class", "attr-profession"}}, control, false)), nil
}

func (profession) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	name := displayName(def)
	title, industry, company, ok := professionParts(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be a job title or an object with title, industry and company", name))

		return res
	}
	if strings.TrimSpace(title) == "" && def.EffectiveRules().Required {
		res.Add(def.Name+".title", CodeRequired, fmt.Sprintf("%s needs a job title", name))
	}
	if utf8.RuneCountInString(title) > maxProfessionLength {
		res.Add(def.Name+".title", CodeTooLong, fmt.Sprintf("%s title must be at most %d characters", name, maxProfessionLength))
	}
	if utf8.RuneCountInString(company) > maxProfessionLength {
		res.Add(def.Name+".company", CodeTooLong, fmt.Sprintf("%s company must be at most %d characters", name, maxProfessionLength))
	}
	if industry != "" && !industries(def).Contains(industry) {
		res.Add(def.Name+".industry", CodeInvalidChoice, fmt.Sprintf("%q is not a valid industry", industry))
	}

	return res
}

func (profession) Sanitize(def *entity.AttributeDefinition, value any) any {
	title, industry, company, ok := professionParts(value)
	if !ok {
		return nil
	}

	out := &entity.Document{}
	if t := truncate(sanitizeLine(title), maxProfessionLength); t != "" {
		out.Set("title", t)
	}
	if industries(def).Contains(industry) {
		out.Set("industry", industry)
	}
	if c := truncate(sanitizeLine(company), maxProfessionLength); c != "" {
		out.Set("company", c)
	}
	if out.Len() == 0 {
		return nil
	}

	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
