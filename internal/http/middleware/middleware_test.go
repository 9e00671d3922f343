package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"busbooking/internal/domain"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubParser struct {
	claims services.Claims
	err    error
}

func (p stubParser) ParseToken(raw string) (services.Claims, error) {
	return p.claims, p.err
}

func engine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, RequestContext(c))
	})...)
	return r
}

func get(r http.Handler, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthStoresRequestContext(t *testing.T) {
	parser := stubParser{claims: services.Claims{UserID: 4, Role: domain.RoleCustomer, CustomerID: 11}}
	w := get(engine(Auth(parser)), "tok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"customerId":11`)
	assert.Contains(t, w.Body.String(), `"role":"Customer"`)
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	r := engine(Auth(stubParser{err: domain.UnauthorizedError{Msg: "invalid or expired token"}}))
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "tok").Code)
}

func TestRequireRolesIsCaseInsensitive(t *testing.T) {
	parser := stubParser{claims: services.Claims{UserID: 1, Role: "admin"}}
	assert.Equal(t, http.StatusOK, get(engine(Auth(parser), RequireRoles(domain.RoleAdmin)), "tok").Code)
	assert.Equal(t, http.StatusForbidden, get(engine(Auth(parser), RequireRoles(domain.RoleVendor)), "tok").Code)
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, get(engine(RequireRoles(domain.RoleAdmin)), "").Code)
}

func TestRateLimitPerIP(t *testing.T) {
	r := engine(RateLimit(2))
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := engine(RateLimit(0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}
}
