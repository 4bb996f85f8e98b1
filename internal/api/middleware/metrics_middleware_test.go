package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsUseRouteTemplate(t *testing.T) {
	router := gin.New()
	router.Use(NewMetricsMiddleware().CollectMetrics())
	router.GET("/api/habits/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := requestTotal.WithLabelValues(http.MethodGet, "/api/habits/:id", "200")
	before := testutil.ToFloat64(counter)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/habits/"+uuid.NewString(), nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestMetricsUnmatchedRoute(t *testing.T) {
	router := gin.New()
	router.Use(NewMetricsMiddleware().CollectMetrics())

	counter := requestTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
