package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "nbai")
				So(manager.subsystem, ShouldEqual, "analytics")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithNamePrefix("pre"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithRecording(true),
				WithConstLabels(map[string]string{"dataset": "synthetic"}),
				WithRegistry(registry),
			)

			Convey("Then metric names carry the prefix", func() {
				manager.cvEvaluations.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, f := range families {
					if f.GetName() != "test_sub_pre_cv_evaluations_total" {
						continue
					}
					found = true
					lp := f.GetMetric()[0].GetLabel()
					So(lp, ShouldHaveLength, 1)
					So(lp[0].GetName(), ShouldEqual, "dataset")
					So(lp[0].GetValue(), ShouldEqual, "synthetic")
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestPipelineMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording stage rows", func() {
			before := testutil.ToFloat64(globalManager.rowsIngested.WithLabelValues("unit"))
			RecordRowsIngested("unit", 7)
			RecordRowsDropped("unit", "duplicate", 0)
			RecordRowsDropped("unit", "duplicate", 2)

			Convey("Then counters move by the recorded amounts", func() {
				So(testutil.ToFloat64(globalManager.rowsIngested.WithLabelValues("unit")), ShouldEqual, before+7)
				So(testutil.ToFloat64(globalManager.rowsDropped.WithLabelValues("unit", "duplicate")), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When updating snapshot and accuracy gauges", func() {
			UpdateSnapshotRows("player_games", 1234)
			UpdateModelAccuracy("win_classifier", "test", 0.64)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.snapshotRows.WithLabelValues("player_games")), ShouldEqual, 1234)
				So(testutil.ToFloat64(globalManager.modelAccuracy.WithLabelValues("win_classifier", "test")), ShouldEqual, 0.64)
			})
		})

		Convey("When recording memo lookups", func() {
			hits := testutil.ToFloat64(globalManager.memoLookups.WithLabelValues("unit", "hit"))
			RecordMemoHit("unit")
			RecordMemoMiss("unit")

			Convey("Then hits and misses are split by label", func() {
				So(testutil.ToFloat64(globalManager.memoLookups.WithLabelValues("unit", "hit")), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.memoLookups.WithLabelValues("unit", "miss")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestOperationalMetrics(t *testing.T) {
	Convey("Given operational metric helpers", t, func() {
		Convey("Then none of them panic", func() {
			So(func() {
				RecordStageDuration("features", 25*time.Millisecond)
				RecordTrainingRun("win_classifier", "ok", time.Second)
				RecordCVEvaluation()
				RecordCVEvaluationError()
				RecordAnalysis("career", "ok", 3*time.Millisecond)
				RecordHTTPRequest("players", "GET", "200")
				RecordHTTPRequestDuration("players", "GET", "200", 1.5)
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(12)
				RecordWorkerError()
				RecordErrorByComponent("ingest", "not_found")
				RecordErrorByType("not_found", "medium")
				RecordErrorByEndpoint("career", "GET", "not_found")
				RecordErrorLatency("http", "not_found", 2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("Then the registry is the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
