package auth

import (
	"testing"
	"time"

	"attrschema/config"
	"attrschema/internal/domain/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(issuer string, ttl time.Duration) *config.Config {
	cfg := &config.Config{Auth: &config.AuthConfig{Issuer: issuer, TokenDuration: ttl}}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"

	return cfg
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(newTestConfig("attrschema", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, svc.TokenDuration())

	token, err := svc.GenerateToken("editor-7", []string{constants.CapabilityManage})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "editor-7", claims.Subject)
	assert.Equal(t, "attrschema", claims.Issuer)
	assert.Equal(t, []string{constants.CapabilityManage}, claims.Capabilities)
}

func TestJWTService_Rejections(t *testing.T) {
	t.Parallel()

	svc, err := NewJWTService(newTestConfig("attrschema", time.Minute))
	require.NoError(t, err)
	token, err := svc.GenerateToken("editor-7", nil)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		expired := svc.(*jwtService)
		clone := *expired
		clone.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := clone.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("other issuer", func(t *testing.T) {
		t.Parallel()
		other, err := NewJWTService(newTestConfig("someone-else", time.Minute))
		require.NoError(t, err)
		_, err = other.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		t.Parallel()
		cfg := newTestConfig("attrschema", time.Minute)
		cfg.SecretKey.Access = "a_completely_different_secret_for_testing"
		other, err := NewJWTService(cfg)
		require.NoError(t, err)
		_, err = other.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := svc.ValidateToken("not-a-token")
		require.Error(t, err)
	})
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(&config.Config{})
	require.Error(t, err)

	_, err = NewJWTService(newTestConfig("", 0))
	require.NoError(t, err)
}
