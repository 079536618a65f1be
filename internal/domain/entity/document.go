package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"attrschema/internal/errors"
)

// Document is an ordered key/value map used for the JSON-shaped configuration
// of a definition (options, display options). Nested objects decode into
// *Document as well, so key order survives a decode/encode round trip.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument builds a Document from alternating key/value pairs.
func NewDocument(pairs ...any) *Document {
	doc := &Document{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		doc.Set(key, pairs[i+1])
	}

	return doc
}

// Len returns the number of keys.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}

	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)

	return out
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	if d == nil || d.values == nil {
		return nil, false
	}
	v, ok := d.values[key]

	return v, ok
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)

	return ok
}

// Set stores value under key, appending the key if it is new.
func (d *Document) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes key.
func (d *Document) Delete(key string) {
	if d == nil || d.values == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)

			break
		}
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{}
	for _, k := range d.keys {
		out.Set(k, cloneValue(d.values[k]))
	}

	return out
}

// Merge copies every key of other into d, overwriting existing keys.
func (d *Document) Merge(other *Document) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		d.Set(k, cloneValue(other.values[k]))
	}
}

// String returns the value under key as a string.
func (d *Document) String(key string) string {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Bool returns the value under key as a bool.
func (d *Document) Bool(key string) bool {
	v, ok := d.Get(key)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)

		return b
	default:
		f, ok := ToFloat(val)

		return ok && f != 0
	}
}

// Float returns the value under key as a float64.
func (d *Document) Float(key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}

	return ToFloat(v)
}

// Int returns the value under key as an int.
func (d *Document) Int(key string) (int, bool) {
	f, ok := d.Float(key)
	if !ok {
		return 0, false
	}

	return int(f), true
}

// Strings returns the value under key as a string slice.
func (d *Document) Strings(key string) []string {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}

		return out
	case string:
		if val == "" {
			return nil
		}

		return []string{val}
	default:
		return nil
	}
}

// Doc returns the nested document under key.
func (d *Document) Doc(key string) *Document {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	nested, _ := v.(*Document)

	return nested
}

// Map converts the document into plain maps, for consumers that do not care about order.
func (d *Document) Map() map[string]any {
	if d == nil {
		return nil
	}
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		out[k] = plainValue(d.values[k])
	}

	return out
}

// MarshalJSON encodes the document preserving key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, errors.Wrapf(err, "marshal key %q", k)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object preserving key order.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return errors.WithStack(err)
	}
	if tok == nil {
		*d = Document{}

		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("document must be a JSON object, got %v", tok)
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = *parsed

	return nil
}

func decodeObject(dec *json.Decoder) (*Document, error) {
	doc := &Document{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("expected object key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		doc.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.WithStack(err)
	}

	return doc, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			arr := []any{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, errors.WithStack(err)
			}

			return arr, nil
		default:
			return nil, errors.Errorf("unexpected delimiter %v", v)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return f, nil
	default:
		return v, nil
	}
}

// ToFloat converts the numeric shapes produced by JSON, YAML and form
// decoding into a float64.
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case *Document:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)

		return out
	default:
		return val
	}
}

func plainValue(v any) any {
	switch val := v.(type) {
	case *Document:
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}

		return out
	default:
		return val
	}
}
