package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "worldpass/pkg/domain-errors"
)

var tokenService = NewService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

func Test_GenerateAdminToken(t *testing.T) {
	signed, err := tokenService.GenerateAdminToken("ops@example.org", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := tokenService.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.org", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := tokenService.ValidateToken("invalid-token-string")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	signed, err := tokenService.GenerateAdminToken("ops@example.org", -time.Hour)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(signed)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewService("different-key", "test-issuer", "test-audience")
	signed, err := other.GenerateAdminToken("ops@example.org", time.Hour)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(signed)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_RequireAdmin(t *testing.T) {
	signed, err := tokenService.GenerateAdminToken("ops@example.org", time.Hour)
	require.NoError(t, err)

	claims, err := tokenService.RequireAdmin(signed)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}
