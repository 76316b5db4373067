package service

import (
	"ssbprep/internal/authtest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUserToken(t *testing.T) {
	auth := NewAuthService("service-secret")

	claims, err := auth.ValidateUserToken(authtest.Token(t, "service-secret", "cadet-9", "c9@example.test", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "cadet-9", claims.UserID)
	assert.Equal(t, "c9@example.test", claims.Email)

	_, err = auth.ValidateUserToken(authtest.Token(t, "service-secret", "", "", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken, "tokens without a user id are rejected")

	_, err = auth.ValidateUserToken(authtest.Token(t, "other-secret", "cadet-9", "", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewAuthService("").ValidateUserToken(authtest.Token(t, "", "cadet-9", "", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken, "no secret disables identity")
}
