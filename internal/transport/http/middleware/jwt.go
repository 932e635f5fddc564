package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"docforge/internal/pkg/jwtutil"
	"docforge/internal/transport/http/response"
)

const ContextOrgIDKey = "org_id"

// AuthJWT enforces org scoping: every request under the middleware carries a
// bearer token whose org_id claim becomes the tenant for all downstream
// reads and writes.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextOrgIDKey, claims.OrgID)
		c.Next()
	}
}

// OrgID returns the tenant bound to the request by AuthJWT.
func OrgID(c *gin.Context) string {
	return c.GetString(ContextOrgIDKey)
}
