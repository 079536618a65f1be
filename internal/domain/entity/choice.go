package entity

import (
	"fmt"
	"slices"
)

// Choice is one selectable option of a choice-style attribute.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Choices is an ordered choice list.
type Choices []Choice

// Values returns the choice values in order.
func (cs Choices) Values() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}

	return out
}

// Contains reports whether value is one of the choice values.
func (cs Choices) Contains(value string) bool {
	return slices.ContainsFunc(cs, func(c Choice) bool { return c.Value == value })
}

// Label returns the label for value, or value itself when unknown.
func (cs Choices) Label(value string) string {
	for _, c := range cs {
		if c.Value == value {
			return c.Label
		}
	}

	return value
}

// ChoicesFrom reads a choice list stored under key. Three shapes are accepted:
// an object of value → label, an array of {value,label} objects and an array
// of plain strings (value and label are equal).
func ChoicesFrom(doc *Document, key string) Choices {
	raw, ok := doc.Get(key)
	if !ok || raw == nil {
		return nil
	}

	switch v := raw.(type) {
	case *Document:
		out := make(Choices, 0, v.Len())
		for _, k := range v.Keys() {
			out = append(out, Choice{Value: k, Label: v.String(k)})
		}

		return out
	case []any:
		out := make(Choices, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case *Document:
				value := it.String("value")
				label := it.String("label")
				if label == "" {
					label = value
				}
				out = append(out, Choice{Value: value, Label: label})
			case map[string]any:
				value := fmt.Sprint(it["value"])
				label, _ := it["label"].(string)
				if label == "" {
					label = value
				}
				out = append(out, Choice{Value: value, Label: label})
			default:
				s := fmt.Sprint(it)
				out = append(out, Choice{Value: s, Label: s})
			}
		}

		return out
	case Choices:
		return v
	default:
		return nil
	}
}

// ChoicesDocument encodes choices as an ordered value → label object.
func ChoicesDocument(cs Choices) *Document {
	doc := &Document{}
	for _, c := range cs {
		doc.Set(c.Value, c.Label)
	}

	return doc
}
