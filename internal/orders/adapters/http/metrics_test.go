package http

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newRecordingMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m, reader
}

// requestCounts returns http_requests_total keyed by "route status_class".
func requestCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatal("Expected Sum[int64] data type")
			}
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("route"))
				class, _ := dp.Attributes.Value(attribute.Key("status_class"))
				counts[route.AsString()+" "+class.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "", want: "unmatched"},
		{pattern: "GET /api/orders", want: "/api/orders"},
		{pattern: "POST /api/orders/{id}/send", want: "/api/orders/{id}/send"},
		{pattern: "/healthz", want: "/healthz"},
		{pattern: "GET example.com/api/products/{id}", want: "/api/products/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := routeLabel(tt.pattern); got != tt.want {
				t.Errorf("routeLabel(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		404: "4xx",
		409: "4xx",
		502: "5xx",
		0:   "unknown",
		999: "unknown",
	}

	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestRecordRequest(t *testing.T) {
	m, reader := newRecordingMetrics(t)
	ctx := context.Background()

	m.RecordRequest(ctx, "GET", "GET /api/orders/{id}", 200, 0.01)
	m.RecordRequest(ctx, "GET", "GET /api/orders/{id}", 404, 0.01)
	m.RecordRequest(ctx, "POST", "POST /api/orders/{id}/send", 502, 0.7)
	m.RecordRequest(ctx, "GET", "", 404, 0.001)

	want := map[string]int64{
		"/api/orders/{id} 2xx":      1,
		"/api/orders/{id} 4xx":      1,
		"/api/orders/{id}/send 5xx": 1,
		"unmatched 4xx":             1,
	}
	got := requestCounts(t, reader)
	for key, n := range want {
		if got[key] != n {
			t.Errorf("%s: expected %d, got %d (all: %v)", key, n, got[key], got)
		}
	}
}
