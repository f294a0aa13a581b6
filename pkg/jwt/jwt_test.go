package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "boss@workclock.com", "manager", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.EmployeeID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "a@b.c", "manager", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "a@b.c", "manager", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}
