package validation

import (
	"fmt"

	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"
)

const (
	maxGroupKeyLength   = 64
	maxGroupLabelLength = 255
)

// ValidateGroup checks group metadata: the key follows the definition group
// format and the label is plain text.
func (v *Validator) ValidateGroup(group *entity.AttributeGroup) *Report {
	report := &Report{}
	if group == nil {
		report.add("group", CodeRequired, "group is required")

		return report
	}

	switch {
	case group.Key == "":
		report.add("key", CodeRequired, "key is required")
	case len(group.Key) > maxGroupKeyLength:
		report.add("key", CodeTooLong, fmt.Sprintf("key must be at most %d characters", maxGroupKeyLength))
	case !groupPattern.MatchString(group.Key):
		report.add("key", CodeInvalidFormat, "key must start with a lowercase letter and contain only lowercase letters, digits, underscores and hyphens")
	}

	if len([]rune(group.Label)) > maxGroupLabelLength {
		report.add("label", CodeTooLong, fmt.Sprintf("label must be at most %d characters", maxGroupLabelLength))
	}
	if attrkind.HasMarkup(group.Label) {
		report.add("label", CodeMarkup, "label must not contain markup")
	}
	if attrkind.HasMarkup(group.Icon) {
		report.add("icon", CodeMarkup, "icon must not contain markup")
	}

	return report
}

// ValidateTransition reports a status change that the lifecycle does not allow.
func (v *Validator) ValidateTransition(from, to entity.Status) *Report {
	report := &Report{}
	if !to.IsValid() {
		report.add("status", CodeInvalidChoice, fmt.Sprintf("status %q is not a valid status", to))

		return report
	}
	if !from.CanTransitionTo(to) {
		report.add("status", CodeInvalidTransition, fmt.Sprintf("status cannot change from %s to %s", from, to))
	}

	return report
}
