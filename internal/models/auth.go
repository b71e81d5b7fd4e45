package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the JWT claims carried by access tokens issued by the
// identity service that fronts this API.
type AccessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
