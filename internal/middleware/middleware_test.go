package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "test response")
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())
	e.GET("/test", okHandler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	headers := rec.Header()
	assert.Equal(t, "*", headers.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, HEAD, POST, OPTIONS", headers.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "max-age=63072000; includeSubDomains; preload", headers.Get("Strict-Transport-Security"))
	assert.Equal(t, "deny", headers.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, contentSecurityPolicy, headers.Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", headers.Get("Referrer-Policy"))
	assert.Empty(t, headers.Get("Server"))
}

func TestSecurityHeadersWithErrorResponse(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders())
	e.GET("/error", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	})

	req := httptest.NewRequest(http.MethodGet, "/error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, contentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))
}

func TestBasicAuth(t *testing.T) {
	e := echo.New()
	e.Use(BasicAuth("alice", "s3cret"))
	e.GET("/", okHandler)
	e.POST("/", okHandler)
	e.GET("/:name", okHandler)

	tests := []struct {
		name     string
		method   string
		path     string
		user     string
		password string
		want     int
	}{
		{"index without credentials", http.MethodGet, "/", "", "", http.StatusUnauthorized},
		{"upload without credentials", http.MethodPost, "/", "", "", http.StatusUnauthorized},
		{"upload with wrong password", http.MethodPost, "/", "alice", "nope", http.StatusUnauthorized},
		{"upload with credentials", http.MethodPost, "/", "alice", "s3cret", http.StatusOK},
		{"index with credentials", http.MethodGet, "/", "alice", "s3cret", http.StatusOK},
		{"stored file is public", http.MethodGet, "/abcd.png", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.password)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get(echo.HeaderWWWAuthenticate), "Access denied")
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	e := echo.New()
	e.Use(RequestLogger(zap.New(core).Sugar()))
	e.GET("/ok", okHandler)
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	for _, path := range []string{"/ok", "/fail"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Request", entries[0].Message)
		assert.Equal(t, "/ok", entries[0].ContextMap()["uri"])
		assert.Equal(t, "Request failed", entries[1].Message)
		assert.EqualValues(t, http.StatusTeapot, entries[1].ContextMap()["status"])
	}
}
