// Package authtest signs user tokens the way the platform's auth system does.
// Production never issues tokens; only tests import this package.
package authtest

import (
	"ssbprep/internal/model"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Token returns an HS256 token for userID signed with secret. A negative ttl
// yields an already expired token.
func Token(t testing.TB, secret, userID, email string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &model.UserClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
