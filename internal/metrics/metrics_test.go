package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithNamespace("test"))

		So(m.Registry(), ShouldEqual, registry)

		Convey("When a batch run is observed", func() {
			m.ObserveRun("recalculate", OutcomePartial, 1500*time.Millisecond)
			m.AddRows("recalculate", 8, 2)

			Convey("Then the run, row and failure counters move", func() {
				So(testutil.ToFloat64(m.runs.WithLabelValues("recalculate", OutcomePartial)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.rowsWritten.WithLabelValues("recalculate")), ShouldEqual, 8)
				So(testutil.ToFloat64(m.rowFailures.WithLabelValues("recalculate")), ShouldEqual, 2)
				So(testutil.CollectAndCount(m.runDuration), ShouldEqual, 1)
			})
		})

		Convey("When zero rows are reported", func() {
			m.AddRows("categorize", 0, 0)

			Convey("Then no series is created", func() {
				So(testutil.CollectAndCount(m.rowsWritten), ShouldEqual, 0)
				So(testutil.CollectAndCount(m.rowFailures), ShouldEqual, 0)
			})
		})

		Convey("When scraping the handler", func() {
			m.ObserveResponse("POST /scores/recalculate", http.StatusOK)
			m.ObserveRun("recalculate", OutcomeSuccess, time.Second)

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)

			Convey("Then the exposition carries the namespaced series", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "test_batch_runs_total")
				So(string(body), ShouldContainSubstring, "test_http_responses_total")
			})
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then recording is a no-op", func() {
			So(func() {
				m.ObserveRun("recalculate", OutcomeError, time.Second)
				m.AddRows("recalculate", 1, 1)
				m.ObserveResponse("GET /health", http.StatusOK)
			}, ShouldNotPanic)
		})
	})
}
