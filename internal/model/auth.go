package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims issued by the platform's auth service.
// Only validation happens here; issuance lives with the surrounding auth system.
type UserClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
