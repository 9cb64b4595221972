package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims scoping a token to one wizard session
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
