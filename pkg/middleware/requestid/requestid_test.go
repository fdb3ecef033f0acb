package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, inbound string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestMiddlewarePropagatesInboundID(t *testing.T) {
	w, seen := serve(t, "client-abc-123")
	assert.Equal(t, "client-abc-123", seen)
	assert.Equal(t, "client-abc-123", w.Header().Get("X-Request-ID"))
}

func TestMiddlewareGeneratesIDWhenAbsent(t *testing.T) {
	w, seen := serve(t, "")
	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	inbound := strings.Repeat("x", maxInboundLen+1)
	w, seen := serve(t, inbound)
	require.NotEmpty(t, seen)
	assert.NotEqual(t, inbound, seen)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}
