package attrkind

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"attrschema/internal/domain/entity"
)

var textValidationKeys = []string{"required", "min_length", "max_length", "pattern", "pattern_message"}

// textual implements the free-text kinds. The variants differ in their
// input type, their format check and their normalization.
type textual struct {
	desc      Descriptor
	inputType string
	multiline bool
	// check returns a message when the normalized value is malformed.
	check func(s string) string
}

// NewText returns the single line text kind. It is also the registry fallback.
func NewText() Kind {
	return newText()
}

func newText() *textual {
	return &textual{
		desc: Descriptor{
			Name:           "text",
			Label:          "Text",
			Description:    "Single line of free text.",
			Category:       CategoryInput,
			Capabilities:   []Capability{CapPlaceholder, CapLength, CapPattern},
			ValidationKeys: textValidationKeys,
		},
		inputType: "text",
	}
}

func newTextarea() Kind {
	return &textual{
		desc: Descriptor{
			Name:           "textarea",
			Label:          "Paragraph",
			Description:    "Multiple lines of free text.",
			Category:       CategoryInput,
			Capabilities:   []Capability{CapPlaceholder, CapLength, CapPattern},
			ValidationKeys: textValidationKeys,
			DefaultOptions: func() *entity.Document { return entity.NewDocument("rows", int64(4)) },
		},
		multiline: true,
	}
}

func newEmail() Kind {
	return &textual{
		desc: Descriptor{
			Name:           "email",
			Label:          "Email",
			Description:    "An email address.",
			Category:       CategoryInput,
			Capabilities:   []Capability{CapPlaceholder, CapLength},
			ValidationKeys: []string{"required", "max_length"},
		},
		inputType: "email",
		check: func(s string) string {
			addr, err := mail.ParseAddress(s)
			if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
				return "is not a valid email address"
			}

			return ""
		},
	}
}

func newURL() Kind {
	return &textual{
		desc: Descriptor{
			Name:           "url",
			Label:          "Website",
			Description:    "An http or https address.",
			Category:       CategoryInput,
			Capabilities:   []Capability{CapPlaceholder, CapLength, CapPattern},
			ValidationKeys: textValidationKeys,
		},
		inputType: "url",
		check: func(s string) string {
			u, err := url.Parse(s)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return "is not a valid http(s) address"
			}

			return ""
		},
	}
}

func (k *textual) Descriptor() Descriptor { return k.desc }

func (k *textual) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	current, _ := asString(value)
	if current == "" && value == nil {
		current = def.DefaultValue
	}

	var extra []attr
	rules := def.EffectiveRules()
	if rules.MaxLength != nil {
		extra = append(extra, attr{"maxlength", fmt.Sprint(*rules.MaxLength)})
	}

	if k.multiline {
		attrs := controlAttrs(def, args, inputName(def, args), elementID(def, args))
		attrs = append(attrs, attr{"rows", fmt.Sprint(optionInt(def, "rows", 4))}, attr{"placeholder", def.Placeholder})
		attrs = append(attrs, extra...)

		return wrapField(def, args, tag("textarea", attrs, escape(current), false)), nil
	}
	if rules.Pattern != "" && k.inputType != "email" {
		extra = append(extra, attr{"pattern", rules.Pattern})
	}

	return wrapField(def, args, renderInput(def, args, k.inputType, current, extra...)), nil
}

func (k *textual) Validate(def *entity.AttributeDefinition, value any) Result {
	var res Result
	if checkRequired(def, value, &res) {
		return res
	}

	raw, ok := asString(value)
	if !ok {
		res.Add(def.Name, CodeInvalidType, fmt.Sprintf("%s must be text", displayName(def)))

		return res
	}
	s := k.normalize(raw)
	if s == "" {
		if def.EffectiveRules().Required {
			res.Add(def.Name, CodeRequired, fmt.Sprintf("%s is required", displayName(def)))
		}

		return res
	}

	rules := def.EffectiveRules()
	checkLength(def.Name, displayName(def), s, rules, &res)
	if k.check != nil {
		if msg := k.check(s); msg != "" {
			res.Add(def.Name, CodeInvalidFormat, displayName(def)+" "+msg)

			return res
		}
	}
	checkPattern(def.Name, displayName(def), s, rules, &res)

	return res
}

func (k *textual) Sanitize(_ *entity.AttributeDefinition, value any) any {
	raw, ok := asString(value)
	if !ok {
		return ""
	}
	s := k.normalize(raw)
	if k.check != nil && s != "" && k.check(s) != "" {
		return ""
	}

	return s
}

func (k *textual) normalize(raw string) string {
	switch {
	case k.multiline:
		s := strings.ReplaceAll(StripMarkup(raw), "\r\n", "\n")
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t")
		}

		return strings.TrimSpace(strings.Join(lines, "\n"))
	case k.inputType == "email":
		return strings.ToLower(strings.TrimSpace(StripMarkup(raw)))
	case k.inputType == "url":
		s := strings.TrimSpace(raw)
		if s != "" && !strings.Contains(s, "://") {
			s = "https://" + s
		}

		return s
	default:
		return sanitizeLine(raw)
	}
}
