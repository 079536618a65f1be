package entity

import (
	"fmt"
	"slices"
	"strings"
)

// Conditional logic actions and match modes.
const (
	ConditionActionShow = "show"
	ConditionActionHide = "hide"

	ConditionMatchAll = "all"
	ConditionMatchAny = "any"
)

// ConditionOperators lists the operators a ConditionRule may use.
var ConditionOperators = []string{"equals", "not_equals", "contains", "not_contains", "empty", "not_empty", "greater_than", "less_than"}

// ConditionalLogic shows or hides a field depending on the values of other definitions.
type ConditionalLogic struct {
	Action string          `json:"action"`
	Match  string          `json:"match"`
	Rules  []ConditionRule `json:"rules"`
}

// ConditionRule compares the value of the definition named Field.
type ConditionRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// Clone returns a deep copy.
func (c *ConditionalLogic) Clone() *ConditionalLogic {
	if c == nil {
		return nil
	}
	out := *c
	out.Rules = slices.Clone(c.Rules)

	return &out
}

// Visible evaluates the logic against the submitted values, keyed by definition name.
// A nil logic or one without rules is always visible.
func (c *ConditionalLogic) Visible(values map[string]any) bool {
	if c == nil || len(c.Rules) == 0 {
		return true
	}

	matched := c.Match != ConditionMatchAny
	for _, rule := range c.Rules {
		ok := rule.Matches(values[rule.Field])
		if c.Match == ConditionMatchAny && ok {
			matched = true

			break
		}
		if c.Match != ConditionMatchAny && !ok {
			matched = false

			break
		}
	}

	if c.Action == ConditionActionHide {
		return !matched
	}

	return matched
}

// Matches reports whether the rule holds for value.
func (r ConditionRule) Matches(value any) bool {
	actual := stringify(value)
	expected := stringify(r.Value)

	switch r.Operator {
	case "equals":
		return actual == expected
	case "not_equals":
		return actual != expected
	case "contains":
		if list, ok := value.([]any); ok {
			return slices.ContainsFunc(list, func(v any) bool { return stringify(v) == expected })
		}
		if list, ok := value.([]string); ok {
			return slices.Contains(list, expected)
		}

		return strings.Contains(actual, expected)
	case "not_contains":
		return !ConditionRule{Field: r.Field, Operator: "contains", Value: r.Value}.Matches(value)
	case "empty":
		return actual == ""
	case "not_empty":
		return actual != ""
	case "greater_than", "less_than":
		a, aok := ToFloat(value)
		b, bok := ToFloat(r.Value)
		if !aok || !bok {
			return false
		}
		if r.Operator == "greater_than" {
			return a > b
		}

		return a < b
	default:
		return false
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		if len(val) == 0 {
			return ""
		}
	case []string:
		if len(val) == 0 {
			return ""
		}

		return strings.Join(val, ",")
	}

	return fmt.Sprint(v)
}
