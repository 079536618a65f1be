package attrkind

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"attrschema/internal/domain/entity"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripMarkup removes every tag from s and decodes the entities the policy
// escapes, leaving plain text.
func StripMarkup(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// HasMarkup reports whether s contains anything the strict policy would strip.
func HasMarkup(s string) bool {
	return StripMarkup(s) != s
}

// sanitizeLine strips markup and collapses whitespace onto one line.
func sanitizeLine(s string) string {
	return strings.Join(strings.Fields(StripMarkup(s)), " ")
}

// IsEmpty reports whether value carries no data.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		for _, item := range v {
			if !IsEmpty(item) {
				return false
			}
		}

		return true
	case *entity.Document:
		if v == nil {
			return true
		}
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			if !IsEmpty(item) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// asString converts scalar values to a string.
func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case int, int32, int64, uint64:
		return fmt.Sprint(v), true
	case float32, float64:
		f, _ := entity.ToFloat(v)

		return strconv.FormatFloat(f, 'f', -1, 64), true
	default:
		return "", false
	}
}

// asStrings converts list-like values to a string slice. A scalar becomes a
// single element list.
func asStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := asString(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}

		return out, true
	default:
		s, ok := asString(v)
		if !ok {
			return nil, false
		}
		if strings.TrimSpace(s) == "" {
			return nil, true
		}

		return []string{s}, true
	}
}

// asMap converts object-like values to a plain map.
func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}

		return out, true
	case *entity.Document:
		if v == nil {
			return nil, false
		}

		return v.Map(), true
	default:
		return nil, false
	}
}

// dedupe drops repeated entries while keeping first-seen order.
func dedupe(values []string, key func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}

	return out
}

func identity(s string) string { return s }

// displayName is what messages call the field.
func displayName(def *entity.AttributeDefinition) string {
	if def.Label != "" {
		return def.Label
	}

	return def.Name
}

// checkRequired records a required error for an empty value and reports
// whether the value was empty, in which case callers skip further checks.
func checkRequired(def *entity.AttributeDefinition, value any, res *Result) bool {
	if !IsEmpty(value) {
		return false
	}
	if def.EffectiveRules().Required {
		res.Add(def.Name, CodeRequired, fmt.Sprintf("%s is required", displayName(def)))
	}

	return true
}

func checkLength(field, name string, s string, rules entity.ValidationRules, res *Result) {
	n := utf8.RuneCountInString(s)
	if rules.MinLength != nil && n < *rules.MinLength {
		res.Add(field, CodeTooShort, fmt.Sprintf("%s must be at least %d characters", name, *rules.MinLength))
	}
	if rules.MaxLength != nil && n > *rules.MaxLength {
		res.Add(field, CodeTooLong, fmt.Sprintf("%s must be at most %d characters", name, *rules.MaxLength))
	}
}

func checkPattern(field, name string, s string, rules entity.ValidationRules, res *Result) {
	if rules.Pattern == "" {
		return
	}
	re, err := compilePattern(rules.Pattern)
	if err != nil {
		return
	}
	if re.MatchString(s) {
		return
	}
	msg := rules.PatternMessage
	if msg == "" {
		msg = fmt.Sprintf("%s has an invalid format", name)
	}
	res.Add(field, CodePatternMismatch, msg)
}

func checkRange(field, name string, f float64, minValue, maxValue *float64, res *Result) {
	if minValue != nil && f < *minValue {
		res.Add(field, CodeBelowMin, fmt.Sprintf("%s must be at least %s", name, formatFloat(*minValue)))
	}
	if maxValue != nil && f > *maxValue {
		res.Add(field, CodeAboveMax, fmt.Sprintf("%s must be at most %s", name, formatFloat(*maxValue)))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func floatPtr(f float64) *float64 { return &f }

var patternCache sync.Map

// compilePattern compiles and memoizes a user supplied pattern.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil //nolint:forcetypeassert // only *regexp.Regexp is stored.
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)

	return re, nil
}

// optionFloat reads a numeric option, falling back to def.
func optionFloat(d *entity.AttributeDefinition, key string, fallback float64) float64 {
	if f, ok := d.Options.Float(key); ok {
		return f
	}

	return fallback
}

// optionInt reads an integer option, falling back to def.
func optionInt(d *entity.AttributeDefinition, key string, fallback int) int {
	if n, ok := d.Options.Int(key); ok {
		return n
	}

	return fallback
}
