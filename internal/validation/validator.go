// Package validation checks attribute definitions and the values submitted
// for them. Every check is pure: nothing here reads or writes storage.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"attrschema/internal/attrkind"

	"github.com/go-playground/validator/v10"
)

// RequiredPublicPolicy decides how a required field that is not public is reported.
type RequiredPublicPolicy string

const (
	RequiredPublicOff   RequiredPublicPolicy = "off"
	RequiredPublicWarn  RequiredPublicPolicy = "warn"
	RequiredPublicError RequiredPublicPolicy = "error"
)

// IsValid checks if the policy is a known value.
func (p RequiredPublicPolicy) IsValid() bool {
	switch p {
	case RequiredPublicOff, RequiredPublicWarn, RequiredPublicError:
		return true
	default:
		return false
	}
}

// DefaultReservedWords cannot be used as definition names.
var DefaultReservedWords = []string{
	"id", "user", "users", "user_id", "email", "password", "username", "login",
	"role", "roles", "admin", "root", "system", "status", "type", "null",
	"true", "false", "select", "from", "where", "order", "group", "table",
	"key", "value", "meta", "attribute", "attributes", "profile",
}

// DefaultForbiddenPrefixes are reserved by the storage layer and the host system.
var DefaultForbiddenPrefixes = []string{"wp_", "_", "sys_", "pg_"}

// Policy tunes the definition rules that differ between deployments.
type Policy struct {
	ReservedWords        []string
	ForbiddenPrefixes    []string
	RequiredPublic       RequiredPublicPolicy
	MaxChoices           int
	ValidateDefaultValue bool
}

// DefaultPolicy returns the policy used when configuration sets nothing.
func DefaultPolicy() Policy {
	return Policy{
		ReservedWords:        DefaultReservedWords,
		ForbiddenPrefixes:    DefaultForbiddenPrefixes,
		RequiredPublic:       RequiredPublicOff,
		MaxChoices:           500,
		ValidateDefaultValue: true,
	}
}

var (
	namePattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	groupPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	cssPattern   = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)
)

// Validator validates definitions and values against a kind registry.
type Validator struct {
	registry *attrkind.Registry
	policy   Policy
	reserved map[string]struct{}
	structs  *validator.Validate
}

// New creates a Validator. Zero policy fields fall back to DefaultPolicy.
func New(registry *attrkind.Registry, policy Policy) *Validator {
	defaults := DefaultPolicy()
	if policy.ReservedWords == nil {
		policy.ReservedWords = defaults.ReservedWords
	}
	if policy.ForbiddenPrefixes == nil {
		policy.ForbiddenPrefixes = defaults.ForbiddenPrefixes
	}
	if !policy.RequiredPublic.IsValid() {
		policy.RequiredPublic = defaults.RequiredPublic
	}
	if policy.MaxChoices <= 0 {
		policy.MaxChoices = defaults.MaxChoices
	}

	reserved := make(map[string]struct{}, len(policy.ReservedWords))
	for _, w := range policy.ReservedWords {
		reserved[strings.ToLower(w)] = struct{}{}
	}

	return &Validator{
		registry: registry,
		policy:   policy,
		reserved: reserved,
		structs:  newStructValidator(),
	}
}

// Registry returns the kind registry the validator dispatches to.
func (v *Validator) Registry() *attrkind.Registry {
	return v.registry
}

// Policy returns the effective policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// newStructValidator builds the tag validator with the definition specific
// rules registered and json names reported as field names.
func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})
	_ = v.RegisterValidation("attrname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("groupkey", func(fl validator.FieldLevel) bool {
		return groupPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("cssclasses", func(fl validator.FieldLevel) bool {
		for _, class := range strings.Fields(fl.Field().String()) {
			if !cssPattern.MatchString(class) {
				return false
			}
		}

		return true
	})

	return v
}
