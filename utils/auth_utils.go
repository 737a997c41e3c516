package utils

import (
	"github.com/gin-gonic/gin"
)

// IdentityClaims is what the auth middleware learns from a verified token.
type IdentityClaims struct {
	IdentityID string `json:"sub"`
	Role       string `json:"role"`
}

func (c *IdentityClaims) HasRole(role string) bool {
	return c != nil && role != "" && c.Role == role
}

type contextKey string

const IdentityContextKey contextKey = "identity"

func GetIdentity(c *gin.Context) *IdentityClaims {
	identity, exists := c.Get(string(IdentityContextKey))
	if !exists {
		return nil
	}
	if claims, ok := identity.(*IdentityClaims); ok {
		return claims
	}
	return nil
}

func SetIdentity(c *gin.Context, claims *IdentityClaims) {
	c.Set(string(IdentityContextKey), claims)
}
