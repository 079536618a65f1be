package attrkind

import (
	"encoding/json"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"attrschema/internal/domain/entity"
)

type attr struct {
	key   string
	value string
}

// tag writes an element. Attributes with an empty value are written as
// boolean attributes only when flagged with a "!" prefix in the key.
func tag(name string, attrs []attr, inner string, void bool) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range attrs {
		if strings.HasPrefix(a.key, "!") {
			b.WriteByte(' ')
			b.WriteString(a.key[1:])

			continue
		}
		if a.value == "" {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, a.key, template.HTMLEscapeString(a.value))
	}
	b.WriteByte('>')
	if void {
		return b.String()
	}
	b.WriteString(inner)
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')

	return b.String()
}

func escape(s string) string {
	return template.HTMLEscapeString(s)
}

func inputName(def *entity.AttributeDefinition, args RenderArgs) string {
	if args.InputName != "" {
		return args.InputName
	}

	return def.Name
}

func elementID(def *entity.AttributeDefinition, args RenderArgs) string {
	return args.IDPrefix + "attr-" + def.Name
}

// controlAttrs are the attributes shared by every form control of a definition.
func controlAttrs(def *entity.AttributeDefinition, args RenderArgs, name, id string) []attr {
	attrs := []attr{{"name", name}, {"id", id}}
	if def.EffectiveRules().Required {
		attrs = append(attrs, attr{key: "!required"})
	}
	if args.Disabled {
		attrs = append(attrs, attr{key: "!disabled"})
	}
	if args.ReadOnly || !def.IsEditable {
		attrs = append(attrs, attr{key: "!readonly"})
	}

	return attrs
}

// wrapField surrounds a control with the label, help text and the
// conditional logic metadata consumed by the front end.
func wrapField(def *entity.AttributeDefinition, args RenderArgs, control string) string {
	classes := []string{"attr-field", "attr-kind-" + def.Kind}
	if def.Width != "" {
		classes = append(classes, "attr-width-"+string(def.Width))
	}
	if def.CSSClass != "" {
		classes = append(classes, strings.Fields(def.CSSClass)...)
	}

	attrs := []attr{{"class", strings.Join(classes, " ")}, {"data-attribute", def.Name}}
	if def.ConditionalLogic != nil && len(def.ConditionalLogic.Rules) > 0 {
		if raw, err := json.Marshal(def.ConditionalLogic); err == nil {
			attrs = append(attrs, attr{"data-conditional", string(raw)})
		}
		if args.Values != nil && !def.ConditionalLogic.Visible(args.Values) {
			attrs = append(attrs, attr{key: "!hidden"})
		}
	}

	label := escape(def.Label)
	if def.EffectiveRules().Required {
		label += ` <span class="attr-required">*</span>`
	}
	inner := tag("label", []attr{{"for", elementID(def, args)}}, label, false) + control
	if def.HelpText != "" {
		inner += tag("p", []attr{{"class", "attr-help"}}, escape(def.HelpText), false)
	}

	return tag("div", attrs, inner, false)
}

// renderInput renders a single input element.
func renderInput(def *entity.AttributeDefinition, args RenderArgs, inputType, value string, extra ...attr) string {
	attrs := append([]attr{{"type", inputType}}, controlAttrs(def, args, inputName(def, args), elementID(def, args))...)
	attrs = append(attrs, attr{"value", value})
	if def.Placeholder != "" {
		attrs = append(attrs, attr{"placeholder", def.Placeholder})
	}
	attrs = append(attrs, extra...)

	return tag("input", attrs, "", true)
}

// renderSelect renders a select element with the given choices.
func renderSelect(def *entity.AttributeDefinition, args RenderArgs, name, id string, choices entity.Choices, selected []string, multiple bool) string {
	attrs := controlAttrs(def, args, name, id)
	if multiple {
		attrs = append(attrs, attr{key: "!multiple"})
	}

	var b strings.Builder
	if !multiple {
		placeholder := def.Placeholder
		if placeholder == "" {
			placeholder = "Select…"
		}
		b.WriteString(tag("option", []attr{{"value", ""}}, escape(placeholder), false))
	}
	for _, c := range choices {
		optAttrs := []attr{{"value", c.Value}}
		if slices.Contains(selected, c.Value) {
			optAttrs = append(optAttrs, attr{key: "!selected"})
		}
		b.WriteString(tag("option", optAttrs, escape(c.Label), false))
	}

	return tag("select", attrs, b.String(), false)
}

// renderChoiceList renders a radio or checkbox group.
func renderChoiceList(def *entity.AttributeDefinition, args RenderArgs, inputType string, choices entity.Choices, selected []string) string {
	name := inputName(def, args)
	if inputType == "checkbox" {
		name += "[]"
	}

	var b strings.Builder
	for i, c := range choices {
		id := fmt.Sprintf("%s-%d", elementID(def, args), i)
		attrs := append([]attr{{"type", inputType}}, controlAttrs(def, args, name, id)...)
		attrs = append(attrs, attr{"value", c.Value})
		if slices.Contains(selected, c.Value) {
			attrs = append(attrs, attr{key: "!checked"})
		}
		input := tag("input", attrs, "", true)
		b.WriteString(tag("label", []attr{{"for", id}}, input+" "+escape(c.Label), false))
	}

	return tag("div", []attr{{"class", "attr-choices attr-" + inputType + "-list"}}, b.String(), false)
}

// subfieldName builds the input name of a composite subfield.
func subfieldName(def *entity.AttributeDefinition, args RenderArgs, sub string) string {
	return inputName(def, args) + "[" + sub + "]"
}

func subfieldID(def *entity.AttributeDefinition, args RenderArgs, sub string) string {
	return elementID(def, args) + "-" + sub
}
