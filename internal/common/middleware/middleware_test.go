package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/tansive/assetvault/internal/common/logtrace"
	"github.com/tidwall/gjson"
)

func TestRequestLoggerSetsRequestId(t *testing.T) {
	var seen string
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logtrace.RequestIdFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIdHeader))
}

func TestPanicHandler(t *testing.T) {
	h := PanicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, int64(0), gjson.Get(rr.Body.String(), "result").Int())
	assert.NotEmpty(t, gjson.Get(rr.Body.String(), "error").String())
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/assets/{assetName}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/redApple", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	c, err := httpRequestsTotal.GetMetricWithLabelValues(http.MethodGet, "/assets/{assetName}", "200")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c))
}
