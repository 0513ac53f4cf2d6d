package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func loggedRequest(t *testing.T, path string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	r := gin.New()
	r.Use(Logger())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/recoveries", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return buf.String()
}

func TestLoggerWritesMethodPathAndStatus(t *testing.T) {
	out := loggedRequest(t, "/api/v1/recoveries?limit=5")
	assert.Contains(t, out, "GET /api/v1/recoveries?limit=5 -> 200")
}

func TestLoggerSkipsHealthProbes(t *testing.T) {
	out := loggedRequest(t, "/health")
	assert.Empty(t, out)
}
