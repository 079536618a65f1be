package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeEnvKey(t *testing.T) {
	t.Parallel()

	loaded := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master":  map[string]any{"userName": "attrschema"},
		},
		"schema": map[string]any{
			"purgeRetentionDays":   30,
			"requiredPublicPolicy": "off",
		},
		"export": map[string]any{"bucketUrl": "mem://"},
		"pubsub": map[string]any{"pushAudience": ""},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "SCHEMA_PURGERETENTIONDAYS", want: "schema.purgeRetentionDays"},
		{envKey: "SCHEMA_REQUIRED_PUBLIC_POLICY", want: "schema.required.public.policy"},
		{envKey: "EXPORT_BUCKETURL", want: "export.bucketUrl"},
		{envKey: "PUBSUB_PUSHAUDIENCE", want: "pubsub.pushAudience"},
		{envKey: "SCHEMA_PURGE__INTERVAL", want: "schema.purge.interval"},
		{envKey: "CACHE_DEFAULTTTL", want: "cache.defaultttl"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, loaded))
		})
	}
}
