package middleware

import (
	"net/http"
	"strings"

	"busbooking/internal/domain"

	"github.com/gin-gonic/gin"
)

// RequireRoles only lets through callers whose role is in allowedRoles.
// It must run after Auth.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := RequestContext(c).Role
		if role == "" {
			abortJSON(c, http.StatusUnauthorized, domain.CodeUnauthorized, "authentication required")
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			abortJSON(c, http.StatusForbidden, domain.CodeForbidden, "role "+role+" is not allowed here")
			return
		}
		c.Next()
	}
}
