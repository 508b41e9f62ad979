package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// perform runs one request through the router and returns the recorder.
func perform(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// okRouter serves GET /test behind the given middleware.
func okRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestID(t *testing.T) {
	var captured string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/capture", func(c *gin.Context) {
		captured = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	t.Run("generates an ID when the header is absent", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/capture", nil)

		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, w.Header().Get(RequestIDKey))
	})

	t.Run("propagates an incoming ID", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/capture", map[string]string{RequestIDKey: "client-supplied-id"})

		assert.Equal(t, "client-supplied-id", captured)
		assert.Equal(t, "client-supplied-id", w.Header().Get(RequestIDKey))
	})

	t.Run("stores the ID under both context keys", func(t *testing.T) {
		var short, header string
		r := gin.New()
		r.Use(RequestID())
		r.GET("/keys", func(c *gin.Context) {
			short = c.GetString("request_id")
			header = c.GetString(RequestIDKey)
			c.Status(http.StatusOK)
		})
		perform(r, http.MethodGet, "/keys", map[string]string{RequestIDKey: "dual-key-id"})

		assert.Equal(t, "dual-key-id", short)
		assert.Equal(t, "dual-key-id", header)
	})

	t.Run("generated IDs are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 10; i++ {
			w := perform(router, http.MethodGet, "/capture", nil)

			id := w.Header().Get(RequestIDKey)
			assert.False(t, seen[id], "request ID %s repeated", id)
			seen[id] = true
		}
	})
}

func TestCORSWithConfig(t *testing.T) {
	const appOrigin = "https://app.example.com"

	corsRouter := func(origins ...string) *gin.Engine {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = origins
		return okRouter(CORSWithConfig(cfg))
	}

	t.Run("allowed origin gets CORS headers", func(t *testing.T) {
		w := perform(corsRouter(appOrigin), http.MethodGet, "/test", map[string]string{"Origin": appOrigin})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, appOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("disallowed origin gets none", func(t *testing.T) {
		w := perform(corsRouter(appOrigin), http.MethodGet, "/test", map[string]string{"Origin": "https://evil.example.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty allow list rejects every origin", func(t *testing.T) {
		w := perform(corsRouter(), http.MethodGet, "/test", map[string]string{"Origin": appOrigin})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		w := perform(corsRouter("*"), http.MethodGet, "/test", map[string]string{"Origin": "https://anywhere.example.com"})

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight from an allowed origin is a 204 with headers", func(t *testing.T) {
		w := perform(corsRouter(appOrigin), http.MethodOptions, "/test", map[string]string{"Origin": appOrigin})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, appOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("preflight from a disallowed origin is a bare 204", func(t *testing.T) {
		w := perform(corsRouter(appOrigin), http.MethodOptions, "/test", map[string]string{"Origin": "https://evil.example.com"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecure(t *testing.T) {
	w := perform(okRouter(Secure()), http.MethodGet, "/test", nil)

	expected := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		assert.Equal(t, want, w.Header().Get(header), header)
	}
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}
