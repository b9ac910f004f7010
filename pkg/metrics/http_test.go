package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	metrics := NewHTTPMetrics()

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	mfs, err := metrics.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	count := counterValue(t, mfs, "http_requests_total", map[string]string{
		"method": "GET",
		"route":  "/ping",
		"status": "204",
	})
	if count != 1 {
		t.Fatalf("expected one recorded request, got %f", count)
	}
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, metric := range mf.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metric
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q with labels %v not found", name, labels)
	return 0
}
