package middleware

import (
	"net/http"
	"strings"

	"busbooking/internal/domain"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

const requestContextKey = "request_context"

// TokenParser validates bearer tokens.
type TokenParser interface {
	ParseToken(raw string) (services.Claims, error)
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}

// Auth requires a valid bearer token and stores the caller in the gin context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortJSON(c, http.StatusUnauthorized, domain.CodeUnauthorized, "missing bearer token")
			return
		}
		claims, err := parser.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, domain.CodeUnauthorized, err.Error())
			return
		}
		c.Set(requestContextKey, domain.RequestContext{
			RequestID:  GetRequestID(c),
			UserID:     claims.UserID,
			Role:       claims.Role,
			VendorID:   claims.VendorID,
			CustomerID: claims.CustomerID,
		})
		c.Next()
	}
}

// RequestContext returns the authenticated caller, or an anonymous context carrying
// only the request id.
func RequestContext(c *gin.Context) domain.RequestContext {
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(domain.RequestContext); ok {
			return rc
		}
	}
	return domain.RequestContext{RequestID: GetRequestID(c)}
}
