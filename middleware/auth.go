package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/apperrors"
	"github.com/mood-map/api-go/utils"
	"go.uber.org/zap"
)

// IdentityRegistrar records identities the first time they authenticate.
type IdentityRegistrar interface {
	EnsureIdentity(ctx context.Context, identityID string, now time.Time) error
}

// TokenClaims is the payload the campus auth bridge signs.
type TokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.StandardClaims
}

// AuthMiddleware verifies the HS256 bearer token and makes sure the identity
// exists before any handler runs.
func AuthMiddleware(secret string, registrar IdentityRegistrar) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.HandleError(c, apperrors.New(apperrors.ErrUnauthorized, "Authorization header is required"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			apperrors.HandleError(c, apperrors.New(apperrors.ErrUnauthorized, "Invalid token format"))
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1], secret)
		if err != nil {
			apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrInvalidToken, "Invalid token", err))
			c.Abort()
			return
		}

		if err := registrar.EnsureIdentity(c.Request.Context(), claims.IdentityID, time.Now()); err != nil {
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		utils.SetIdentity(c, claims)
		c.Next()
	}
}

// ParseToken validates signature, algorithm and time claims, and requires a subject.
func ParseToken(tokenString, secret string) (*utils.IdentityClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return &utils.IdentityClaims{IdentityID: claims.Subject, Role: claims.Role}, nil
}

// RequireRole lets the request through only when the authenticated identity carries role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := utils.GetIdentity(c)
		if identity == nil {
			apperrors.HandleError(c, apperrors.New(apperrors.ErrUnauthorized, "User not authenticated"))
			c.Abort()
			return
		}
		if !identity.HasRole(role) {
			zap.L().Warn("Role check failed",
				zap.String("identity_id", identity.IdentityID),
				zap.String("required", role),
				zap.String("path", c.Request.URL.Path))
			apperrors.HandleError(c, apperrors.New(apperrors.ErrForbidden, "Insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}
