package validation

import (
	"attrschema/config"
	"attrschema/internal/attrkind"
)

// PolicyFromConfig overlays the schema section of cfg on DefaultPolicy.
func PolicyFromConfig(cfg *config.Config) Policy {
	policy := DefaultPolicy()
	if cfg == nil || cfg.Schema == nil {
		return policy
	}

	schema := cfg.Schema
	if len(schema.ReservedWords) > 0 {
		policy.ReservedWords = schema.ReservedWords
	}
	if len(schema.ForbiddenPrefixes) > 0 {
		policy.ForbiddenPrefixes = schema.ForbiddenPrefixes
	}
	if p := RequiredPublicPolicy(schema.RequiredPublicPolicy); p.IsValid() {
		policy.RequiredPublic = p
	}
	if schema.MaxChoices > 0 {
		policy.MaxChoices = schema.MaxChoices
	}

	return policy
}

// NewFromConfig builds the Validator used by the services.
func NewFromConfig(registry *attrkind.Registry, cfg *config.Config) *Validator {
	return New(registry, PolicyFromConfig(cfg))
}
