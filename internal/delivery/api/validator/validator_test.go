package validator

import (
	"testing"

	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name   string `json:"name" validate:"required,max=8"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Inner  struct {
		Limit int `json:"limit" validate:"min=1"`
	} `json:"inner"`
}

func TestEchoValidator_Validate(t *testing.T) {
	t.Parallel()
	v := New()

	valid := sampleRequest{Name: "eye"}
	valid.Inner.Limit = 1
	require.NoError(t, v.Validate(&valid))

	invalid := sampleRequest{Status: "gone"}
	err := v.Validate(&invalid)
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	validationErr, ok := errors.AsType[*domainerrors.ValidationError](err)
	require.True(t, ok)
	assert.True(t, validationErr.HasField("name"))
	assert.True(t, validationErr.HasField("status"))
	assert.True(t, validationErr.HasField("inner.limit"))
}
