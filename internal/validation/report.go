package validation

import (
	domainerrors "attrschema/internal/domain/errors"
)

// Definition validation codes. Value validation codes live in attrkind.
const (
	CodeRequired            = "required"
	CodeTooShort            = "too_short"
	CodeTooLong             = "too_long"
	CodeBelowMin            = "below_min"
	CodeAboveMax            = "above_max"
	CodeInvalidFormat       = "invalid_format"
	CodeInvalidChoice       = "invalid_choice"
	CodeReserved            = "reserved"
	CodeForbiddenPrefix     = "forbidden_prefix"
	CodeImmutable           = "immutable"
	CodeMarkup              = "markup"
	CodeUnknownKind         = "unknown_kind"
	CodeInvalidRange        = "invalid_range"
	CodeDuplicateChoice     = "duplicate_choice"
	CodeTooMany             = "too_many"
	CodeInvalidPattern      = "invalid_pattern"
	CodeInvalidTransition   = "invalid_transition"
	CodeSearchableNotPublic = "searchable_not_public"
	CodeRequiredNotPublic   = "required_not_public"
	CodeInvalidDefault      = "invalid_default"
	CodeUnsupported         = "unsupported"
)

// Report collects every problem found in one definition validation pass.
// Warnings never make a definition invalid.
type Report struct {
	Errors   []domainerrors.FieldMessage `json:"errors,omitempty"`
	Warnings []domainerrors.FieldMessage `json:"warnings,omitempty"`
}

func (r *Report) add(field, code, message string) {
	r.Errors = append(r.Errors, domainerrors.FieldMessage{Field: field, Code: code, Message: message})
}

func (r *Report) warn(field, code, message string) {
	r.Warnings = append(r.Warnings, domainerrors.FieldMessage{Field: field, Code: code, Message: message})
}

// Valid reports whether no errors were recorded.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns a ValidationFailed error listing every problem, or nil.
func (r *Report) Err() error {
	if r.Valid() {
		return nil
	}

	return domainerrors.NewValidationError(r.Errors)
}

// HasCode reports whether an error with code was recorded for field.
func (r *Report) HasCode(field, code string) bool {
	for _, e := range r.Errors {
		if e.Field == field && e.Code == code {
			return true
		}
	}

	return false
}
