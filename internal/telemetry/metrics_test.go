package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, h http.Handler) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return rec.Code, string(body)
}

func TestOrderMetrics(t *testing.T) {
	t.Run("counts outcomes separately", func(t *testing.T) {
		reg := NewRegistry()
		m := NewOrderMetrics(reg)

		m.OrderSucceeded()
		m.OrderSucceeded()
		m.OrderFailed()

		if got := testutil.ToFloat64(m.Processed().WithLabelValues(OutcomeSuccess)); got != 2 {
			t.Errorf("expected 2 successes, got %v", got)
		}
		if got := testutil.ToFloat64(m.Processed().WithLabelValues(OutcomeFailure)); got != 1 {
			t.Errorf("expected 1 failure, got %v", got)
		}
	})

	t.Run("scrapes are side-effect free", func(t *testing.T) {
		reg := NewRegistry()
		m := NewOrderMetrics(reg)
		m.OrderSucceeded()

		h := MetricsHandler(reg)
		code, first := scrape(t, h)
		if code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", code)
		}
		_, second := scrape(t, h)

		want := `total_orders_processed{status="success"} 1`
		for _, body := range []string{first, second} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %q in exposition, got:\n%s", want, body)
			}
		}
		if !strings.Contains(first, `total_orders_processed{status="failure"} 0`) {
			t.Errorf("expected failure series to be exported at zero")
		}
	})
}

func TestInitMeterProvider(t *testing.T) {
	reg := NewRegistry()
	shutdown, err := InitMeterProvider(reg, "orders-test", "0.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	code, body := scrape(t, MetricsHandler(reg))
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", code, body)
	}
	if !strings.Contains(body, "process_") {
		t.Errorf("expected process metrics in exposition")
	}
}
