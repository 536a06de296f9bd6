package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, origins ...string) *gin.Engine {
	t.Helper()
	r, err := CreateServer(ServerOptions{AllowedOrigins: origins, TrustedProxies: []string{"127.0.0.1"}})
	require.NoError(t, err)
	return r
}

func TestOriginAllowList(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r := newTestServer(t, "http://localhost:3000", "https://quiz.example.com")
	r.GET("/quizzes", func(ctx *gin.Context) { ctx.String(http.StatusOK, "[]") })

	testCases := []struct {
		name           string
		path           string
		origin         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "health check is public",
			path:           "/health",
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name:           "allowed origin passes",
			path:           "/quizzes",
			origin:         "https://quiz.example.com",
			expectedStatus: http.StatusOK,
			expectedBody:   "[]",
		},
		{
			name:           "missing origin is forbidden",
			path:           "/quizzes",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
		{
			name:           "foreign origin is forbidden",
			path:           "/quizzes",
			origin:         "http://evil.com",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.origin != "" {
				req.Header.Add("Origin", tc.origin)
			}
			res := httptest.NewRecorder()

			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedStatus, res.Code)
			assert.Equal(t, tc.expectedBody, res.Body.String())
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	allowedOrigins := []string{"http://localhost:3000", "https://quiz.example.com"}

	testCases := []struct {
		name        string
		method      string
		path        string
		reqHeaders  map[string]string
		wantCode    int
		wantHeaders map[string]string
	}{
		{
			name:   "preflight for quiz creation",
			method: http.MethodOptions,
			path:   "/quizzes",
			reqHeaders: map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": "POST",
			},
			wantCode: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "http://localhost:3000",
				"Access-Control-Allow-Methods":     "GET,POST,PUT,DELETE,OPTIONS",
				"Access-Control-Allow-Credentials": "true",
			},
		},
		{
			name:   "preflight from forbidden origin",
			method: http.MethodOptions,
			path:   "/quizzes",
			reqHeaders: map[string]string{
				"Origin":                        "http://evil.com",
				"Access-Control-Request-Method": "POST",
			},
			wantCode: http.StatusForbidden,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
		{
			name:   "export exposes the attachment name",
			method: http.MethodGet,
			path:   "/export/ABC123",
			reqHeaders: map[string]string{
				"Origin": "https://quiz.example.com",
			},
			wantCode: http.StatusOK,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":   "https://quiz.example.com",
				"Access-Control-Expose-Headers": "Content-Disposition",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newTestServer(t, allowedOrigins...)
			r.POST("/quizzes", func(c *gin.Context) { c.Status(http.StatusCreated) })
			r.GET("/export/:roomCode", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tc.method, tc.path, nil)
			for k, v := range tc.reqHeaders {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			for k, v := range tc.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), "Header %s mismatch", k)
			}
		})
	}
}

func TestWebsocketHandshakeOrigin(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := newTestServer(t, "http://localhost:3000")
	r.GET("/ws", func(c *gin.Context) {
		c.Status(http.StatusSwitchingProtocols)
	})

	handshake := map[string]string{
		"Connection":            "Upgrade",
		"Upgrade":               "websocket",
		"Sec-WebSocket-Version": "13",
		"Sec-WebSocket-Key":     "dGhlIHNhbXBsZSBub25jZQ==",
	}

	for origin, expected := range map[string]int{
		"http://localhost:3000": http.StatusSwitchingProtocols,
		"http://evil.com":       http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		for k, v := range handshake {
			req.Header.Set(k, v)
		}
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, expected, w.Code, origin)
	}
}

func TestTrustedProxies(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name       string
		proxies    []string
		remoteAddr string
		expectedIP string
	}{
		{
			name:       "forwarded by a trusted proxy",
			proxies:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4000",
			expectedIP: "203.0.113.7",
		},
		{
			name:       "forwarded by a stranger",
			proxies:    []string{"10.0.0.0/8"},
			remoteAddr: "198.51.100.1:4000",
			expectedIP: "198.51.100.1",
		},
		{
			name:       "no proxies trusted",
			remoteAddr: "10.1.2.3:4000",
			expectedIP: "10.1.2.3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := CreateServer(ServerOptions{AllowedOrigins: []string{"http://localhost:3000"}, TrustedProxies: tc.proxies})
			require.NoError(t, err)
			r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, c.ClientIP()) })

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.RemoteAddr = tc.remoteAddr
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("X-Forwarded-For", "203.0.113.7")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.expectedIP, w.Body.String())
		})
	}

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()
		_, err := CreateServer(ServerOptions{TrustedProxies: []string{"not-an-address"}})
		assert.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	setupLogger(true)
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))

	setupLogger(false)
	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}
