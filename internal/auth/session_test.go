package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.Generate(42, "+15551234567")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, 42, claims.UserID)
	require.Equal(t, "+15551234567", claims.Phone)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).Generate(1, "+15551234567")
	require.NoError(t, err)

	_, err = NewService("secret-b", time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.Generate(1, "+15551234567")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	_, err := svc.Validate("not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
