package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupAssigned(t *testing.T) {
	m := New()
	m.GroupAssigned("static", false)
	m.GroupAssigned("chat", true)
	m.GroupAssigned("chat", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.groupAssignments.WithLabelValues("static", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.groupAssignments.WithLabelValues("chat", "true")))
}

func TestObserveBackend(t *testing.T) {
	m := New()
	m.ObserveBackend("init", 200, nil, 10*time.Millisecond)
	m.ObserveBackend("init", 0, errors.New("dial tcp: refused"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("init", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("init", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GroupAssigned("chat", true)
		m.ObserveBackend("init", 200, nil, time.Millisecond)
		m.MalformedChunk()
	})
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/config/dataset/:name", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config/dataset/adult", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/config/dataset/:name", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "xaistudy_http_requests_total")
}
