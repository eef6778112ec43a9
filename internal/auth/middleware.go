package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// contextKeyUserID and contextKeyRole are the gin.Context keys the
// middleware sets for downstream handlers.
const (
	contextKeyUserID = "auth.userID"
	contextKeyRole   = "auth.role"
)

// Middleware validates a "Authorization: Bearer <jwt>" header and sets
// the caller's user id and role on the Gin context. Shape (header
// presence check, "Bearer" split, typed JSON rejection) follows the
// common gin auth-middleware pattern; the comparison itself is JWT
// verification rather than a static-token compare.
func Middleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header format"})
			c.Abort()
			return
		}

		claims, err := issuer.ParseAccessToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyRole, claims.Role)
		c.Next()
	}
}

// UserIDFrom extracts the authenticated caller's user id set by Middleware.
func UserIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// RoleFrom extracts the authenticated caller's role set by Middleware.
func RoleFrom(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(contextKeyRole)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

// RequireRole rejects any caller whose role (set by Middleware) is not
// among the allowed set.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authenticated role"})
			c.Abort()
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role for this operation"})
		c.Abort()
	}
}
