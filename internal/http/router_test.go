package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	intconfig "busbooking/internal/config"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/http/handlers"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("router-test-secret")

type stubRoutes struct {
	stops []models.Stop
	err   error
}

func (s *stubRoutes) CreateStop(ctx context.Context, st models.Stop) (models.Stop, error) {
	st.ID = int64(len(s.stops) + 1)
	s.stops = append(s.stops, st)
	return st, nil
}

func (s *stubRoutes) ListStops(ctx context.Context, city string) ([]models.Stop, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Stop{}
	for _, st := range s.stops {
		if city == "" || strings.EqualFold(st.City, city) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubRoutes) CreateRoute(ctx context.Context, r models.Route) (models.Route, error) {
	return r, nil
}

func (s *stubRoutes) GetRoute(ctx context.Context, id int64) (models.Route, error) {
	return models.Route{}, domain.NotFoundError{Resource: "route"}
}

func (s *stubRoutes) ListRoutes(ctx context.Context) ([]models.Route, error) {
	return []models.Route{}, nil
}

func (s *stubRoutes) AddRouteStop(ctx context.Context, rs models.RouteStop) (models.RouteStop, error) {
	return rs, nil
}

func (s *stubRoutes) ListRouteStops(ctx context.Context, routeID, scheduleID int64) ([]models.RouteStop, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, routes *stubRoutes, ping func(context.Context) error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := services.AuthService{Secret: testSecret}
	hs := &handlers.Handlers{
		Auth:   auth,
		Routes: services.RouteService{Routes: routes},
		Ping:   ping,
	}
	return NewRouter(intconfig.Env{}, hs, auth)
}

func token(t *testing.T, role string, vendorID, customerID int64) string {
	t.Helper()
	claims := services.Claims{
		UserID:     7,
		Role:       role,
		VendorID:   vendorID,
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func do(r http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	w := do(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	down := newTestRouter(t, &stubRoutes{}, func(context.Context) error { return errors.New("down") })
	w = do(down, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestListStopsFiltersByCity(t *testing.T) {
	routes := &stubRoutes{stops: []models.Stop{
		{ID: 1, Name: "Majestic", City: "Bengaluru"},
		{ID: 2, Name: "Koyambedu", City: "Chennai"},
	}}
	r := newTestRouter(t, routes, nil)

	w := do(r, http.MethodGet, "/api/stops?city=chennai", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stops []models.Stop
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stops))
	require.Len(t, stops, 1)
	assert.Equal(t, "Koyambedu", stops[0].Name)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)

	w := do(r, http.MethodGet, "/api/customer/bookings", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.CodeUnauthorized, decode(t, w)["code"])

	w = do(r, http.MethodGet, "/api/customer/bookings", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGate(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	vendor := token(t, domain.RoleVendor, 3, 0)

	w := do(r, http.MethodGet, "/api/customer/bookings", vendor, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/admin/vendors", vendor, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateStopAllowsVendorAndAdmin(t *testing.T) {
	routes := &stubRoutes{}
	r := newTestRouter(t, routes, nil)
	body := `{"name":"Majestic","city":"Bengaluru"}`

	w := do(r, http.MethodPost, "/api/stop", token(t, domain.RoleVendor, 3, 0), body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/stop", token(t, domain.RoleAdmin, 0, 0), body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/stop", token(t, domain.RoleCustomer, 0, 9), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBindingErrorsListFields(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	customer := token(t, domain.RoleCustomer, 0, 9)

	w := do(r, http.MethodPost, "/api/customer/bookings", customer, `{"seatNumbers":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, domain.CodeValidation, body["code"])
	details, ok := body["details"].([]any)
	require.True(t, ok, "details should be a list: %v", body)
	assert.NotEmpty(t, details)
	assert.Contains(t, w.Body.String(), `"field":"scheduleId"`)

	w = do(r, http.MethodPost, "/api/customer/bookings", customer, `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/customer/bookings", customer, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClockRuleRejectsBadTimes(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	vendor := token(t, domain.RoleVendor, 3, 0)
	body := `{"busId":1,"routeId":1,"travelDate":"2025-03-05","departureTime":"25:99","arrivalTime":"06:00"}`

	w := do(r, http.MethodPost, "/api/schedule", vendor, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"rule":"clock"`)
}

func TestInvalidPathID(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	w := do(r, http.MethodGet, "/api/routes/abc/stops", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)
	w := do(r, http.MethodGet, "/api/routes/5/stops", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeNotFound, decode(t, w)["code"])

	failing := newTestRouter(t, &stubRoutes{err: errors.New("connection reset")}, nil)
	w = do(failing, http.MethodGet, "/api/stops", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	r := newTestRouter(t, &stubRoutes{}, nil)

	w := do(r, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.CodeNotFound, decode(t, w)["code"])

	w = do(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "busbooking_http_request_duration_seconds")
}
