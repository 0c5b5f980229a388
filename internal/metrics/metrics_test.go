package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"editpdf/internal/metrics"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	rec := metrics.New()

	rec.ObserveEntry("completed")
	rec.ObserveEntry("completed")
	rec.ObserveEntry("retained")
	rec.ObserveUser("converted", "")
	rec.ObserveUser("failed", "unoconvfailed")
	rec.ObserveDrain(time.Second, nil)
	rec.ObserveDrain(time.Second, errors.New("boom"))

	count, err := testutil.GatherAndCount(rec.Registry(), "editpdf_queue_entries_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two entry outcome series, got %d", count)
	}

	expected := `
# HELP editpdf_conversion_failures_total Per-user conversion failures by converter error code
# TYPE editpdf_conversion_failures_total counter
editpdf_conversion_failures_total{error_code="unoconvfailed"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "editpdf_conversion_failures_total"); err != nil {
		t.Fatalf("unexpected failure metrics: %v", err)
	}

	drains := `
# HELP editpdf_drains_total Count of conversion drain runs
# TYPE editpdf_drains_total counter
editpdf_drains_total{result="error"} 1
editpdf_drains_total{result="ok"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(drains), "editpdf_drains_total"); err != nil {
		t.Fatalf("unexpected drain metrics: %v", err)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	rec := metrics.New()
	rec.ObserveEntry("abandoned")

	server := httptest.NewServer(rec.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `editpdf_queue_entries_total{outcome="abandoned"} 1`) {
		t.Fatalf("metrics output missing entry counter:\n%s", body)
	}
}
