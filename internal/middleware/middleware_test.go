package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/config"
	"github.com/iliyamo/elternsprechtag/internal/utils"
)

const testSecret = "test-secret"

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": UserID(c), "role": Role(c), "teacher": TeacherID(c)})
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(testSecret))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := utils.NewAccessToken("other-secret", utils.Identity{UserID: 1, Role: "admin"}, 5)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me", tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err = utils.NewAccessToken(testSecret, utils.Identity{UserID: 7, Role: "teacher", TeacherID: 3}, 5)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me", tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":7,"role":"teacher","teacher":3}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoAmI, JWTAuth(testSecret), RequireRole("admin"))

	teacher, err := utils.NewAccessToken(testSecret, utils.Identity{UserID: 7, Role: "teacher", TeacherID: 3}, 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(testSecret, utils.Identity{UserID: 1, Role: "admin"}, 5)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", teacher.Token).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", admin.Token).Code)
}

func TestTokenBucketInMemory(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/api/bookings", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		NewTokenBucket(cfg, nil, zap.NewNop()))

	first := serve(e, http.MethodPost, "/api/bookings", "")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/api/bookings", "").Code)

	blocked := serve(e, http.MethodPost, "/api/bookings", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestTokenBucketDisabled(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(config.RateLimitConfig{Capacity: 1}, nil, zap.NewNop()))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "").Code)
	}
}

func TestCacheEntryDecode(t *testing.T) {
	h := http.Header{}
	h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	b, err := encodeEntry(http.StatusOK, h, []byte(`{"teachers":[]}`))
	require.NoError(t, err)

	status, header, body, ok := decodeEntry(b)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSON, header.Get(echo.HeaderContentType))
	assert.Equal(t, `{"teachers":[]}`, string(body))

	_, _, _, ok = decodeEntry(b[:6])
	assert.False(t, ok)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger(zap.NewNop()))
	e.GET("/", func(c echo.Context) error { return echo.ErrNotFound })

	rec := serve(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
