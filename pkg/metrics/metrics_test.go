package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test"))
	router.GET("/listings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/listings/0190a1b2-0000-7000-8000-000000000001", nil))

	counter := HttpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/listings/:id", "200")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestGinPrometheusMiddleware_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test-404"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	counter := HttpRequestsTotal.WithLabelValues("metrics-test-404", http.MethodGet, "unmatched", "404")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestRecordPurchase(t *testing.T) {
	before := testutil.ToFloat64(PurchasesCompleted)
	amountBefore := testutil.ToFloat64(PurchaseAmount)

	RecordPurchase(49.5)

	assert.Equal(t, before+1, testutil.ToFloat64(PurchasesCompleted))
	assert.InDelta(t, amountBefore+49.5, testutil.ToFloat64(PurchaseAmount), 0.0001)
}

func TestRecordRating_SkipsHistogramForDelete(t *testing.T) {
	before := testutil.ToFloat64(RatingsSaved.WithLabelValues("delete"))

	RecordRating("delete", 0)

	assert.Equal(t, before+1, testutil.ToFloat64(RatingsSaved.WithLabelValues("delete")))
}

func TestRecordDBStats(t *testing.T) {
	RecordDBStats("metrics-test", sql.DBStats{Idle: 3, InUse: 2})

	assert.Equal(t, float64(3), testutil.ToFloat64(DbConnectionsOpen.WithLabelValues("metrics-test", "idle")))
	assert.Equal(t, float64(2), testutil.ToFloat64(DbConnectionsOpen.WithLabelValues("metrics-test", "in_use")))
}
