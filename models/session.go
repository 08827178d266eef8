package models

import (
	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (c *SessionClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
