package validation

import (
	"testing"

	"attrschema/config"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.Config
		want func(t *testing.T, p Policy)
	}{
		{
			name: "nil config uses defaults",
			cfg:  nil,
			want: func(t *testing.T, p Policy) {
				assert.Equal(t, DefaultPolicy(), p)
			},
		},
		{
			name: "schema overrides",
			cfg: &config.Config{Schema: &config.SchemaConfig{
				ReservedWords:        []string{"secret"},
				RequiredPublicPolicy: "error",
				MaxChoices:           10,
			}},
			want: func(t *testing.T, p Policy) {
				assert.Equal(t, []string{"secret"}, p.ReservedWords)
				assert.Equal(t, DefaultForbiddenPrefixes, p.ForbiddenPrefixes)
				assert.Equal(t, RequiredPublicError, p.RequiredPublic)
				assert.Equal(t, 10, p.MaxChoices)
				assert.True(t, p.ValidateDefaultValue)
			},
		},
		{
			name: "unknown policy keeps off",
			cfg:  &config.Config{Schema: &config.SchemaConfig{RequiredPublicPolicy: "loud"}},
			want: func(t *testing.T, p Policy) {
				assert.Equal(t, RequiredPublicOff, p.RequiredPublic)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.want(t, PolicyFromConfig(tt.cfg))
		})
	}
}
