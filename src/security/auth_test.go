package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-of-sufficient-length"

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)
	other := NewAuthService("a-completely-different-secret-value", time.Hour)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(testSecret, -time.Minute)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestGenerateRefreshTokenUnique(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)

	first, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
