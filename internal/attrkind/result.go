package attrkind

import "slices"

// Value validation codes.
const (
	CodeRequired        = "required"
	CodeInvalidChoice   = "invalid_choice"
	CodeTooShort        = "too_short"
	CodeTooLong         = "too_long"
	CodeBelowMin        = "below_min"
	CodeAboveMax        = "above_max"
	CodePatternMismatch = "pattern_mismatch"
	CodeInvalidFormat   = "invalid_format"
	CodeInvalidType     = "invalid_type"
	CodeTooMany         = "too_many"
)

// FieldError is one problem with a submitted value. Field is the definition
// name, or name.subfield for composite kinds.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of validating one value.
type Result struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid reports whether no errors were recorded.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Add records a problem.
func (r *Result) Add(field, code, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Message: message})
}

// Merge appends the errors of other.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
}

// HasCode reports whether any error carries code.
func (r Result) HasCode(code string) bool {
	return slices.ContainsFunc(r.Errors, func(e FieldError) bool { return e.Code == code })
}

// Codes returns the error codes in order.
func (r Result) Codes() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Code
	}

	return out
}
