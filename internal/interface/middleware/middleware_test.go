package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func whoami(c *gin.Context) {
	a := Actor(c)
	c.String(http.StatusOK, a.ID+"|"+string(a.Role))
}

func TestAuth_BearerAndCookie(t *testing.T) {
	jwt := helpers.NewJWTManager("access", "refresh", time.Hour, time.Hour)
	token, _, err := jwt.GenerateAccessToken("user-1", "worker", "sid-1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(nil, jwt), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1|worker", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Rejects(t *testing.T) {
	jwt := helpers.NewJWTManager("access", "refresh", time.Hour, time.Hour)
	refresh, _, err := jwt.GenerateRefreshToken("user-1", "worker", "sid-1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(nil, jwt), whoami)

	for name, header := range map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic abc",
		"refresh token": "Bearer " + refresh,
		"garbage":       "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(CtxUserRoleKey, c.GetHeader("X-Role")); c.Next() })
	r.GET("/admin", RequireRole(entity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Role", "worker")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req.Header.Set("X-Role", "admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRealIPAndPrivateAllow(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/debug", OnlyAllowed(AllowPrivateIP()), func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/debug", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 203.0.113.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10.0.0.7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/debug", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.9")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "5d4f8a60-3f0e-4a57-9a53-2f4d2a0c0e11")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "5d4f8a60-3f0e-4a57-9a53-2f4d2a0c0e11", w.Body.String())

	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestRateLimit_DisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
