package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/manulsahu/MediSight/internal/domain"
	"github.com/manulsahu/MediSight/pkg/auth"
	"github.com/manulsahu/MediSight/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	claims *domain.Claims
	err    error
}

func (s stubValidator) ValidateAccessToken(string) (*domain.Claims, error) {
	return s.claims, s.err
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	patientID := uuid.New()
	valid := stubValidator{claims: &domain.Claims{UserID: userID, Role: domain.RolePatient, PatientID: &patientID}}

	handler := func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, caller.UserID.String())
	}

	t.Run("missing header", func(t *testing.T) {
		r := gin.New()
		r.GET("/", Authenticate(valid, zap.NewNop()), handler)
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		r := gin.New()
		r.GET("/", Authenticate(valid, zap.NewNop()), handler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		r := gin.New()
		r.GET("/", Authenticate(stubValidator{err: auth.ErrTokenExpired}, zap.NewNop()), handler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token expired")
	})

	t.Run("query token only for event streams", func(t *testing.T) {
		r := gin.New()
		r.GET("/", Authenticate(valid, zap.NewNop()), handler)

		w := serve(r, httptest.NewRequest(http.MethodGet, "/?access_token=t", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req := httptest.NewRequest(http.MethodGet, "/?access_token=t", nil)
		req.Header.Set("Accept", "text/event-stream")
		w = serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		SetCaller(c, domain.Caller{UserID: uuid.New(), Role: domain.Role(c.Query("role"))})
		c.Next()
	}, RequireRole(domain.RoleDoctor, domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/?role=doctor", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, httptest.NewRequest(http.MethodGet, "/?role=patient", nil)).Code)
}

func TestRateLimit(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(RateLimit(l))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 3600, retryAfterSeconds(rate.Every(time.Hour)))
	assert.Equal(t, 1, retryAfterSeconds(rate.Limit(100)))
	assert.Equal(t, 1, retryAfterSeconds(rate.Inf))
	assert.Equal(t, int(visitorTTL.Seconds()), retryAfterSeconds(0))
}

func TestIPRateLimiterEvictsIdleVisitors(t *testing.T) {
	now := time.Now()
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(visitorTTL + time.Second)
	l.Allow("10.0.0.2")
	l.evict()

	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollectorWith("test", reg, reg)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/patients/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/patients/"+uuid.NewString(), nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/patients/"+uuid.NewString(), nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/patients/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}
