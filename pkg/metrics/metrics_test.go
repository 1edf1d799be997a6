package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})

			Convey("And all metrics should be registered", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				// Counters without observations do not show up in Gather;
				// gauges and histograms do.
				So(families, ShouldNotBeEmpty)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("testns"),
				WithSubsystem("testsub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "testns")
				So(manager.subsystem, ShouldEqual, "testsub")
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline events", func() {
			So(func() {
				RecordEventReceived()
				RecordEventDuplicate()
				RecordEventDropped()
				RecordEventParsed()
				RecordParseLatency(1.5)
				RecordWindowFlush(12)
				RecordWindowFlushDuration(3.2)
				RecordWindowCandidates(4)
				RecordEnrichmentHit()
				RecordEnrichmentMiss()
				RecordWriteAccepted()
				RecordWriteStale(StaleReasonGameTime)
				RecordWriteStale(StaleReasonTimestamp)
				RecordStoreReadError()
				RecordStoreWriteError()
				RecordStoreLatency(0.8)
				RecordPollerPoll()
				RecordPollerError()
			}, ShouldNotPanic)
		})

		Convey("When updating gauges", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				UpdateWorkerCount(8)
				UpdateLiveMatchesCount(3)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
			}, ShouldNotPanic)
		})

		Convey("When gathering the registry", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
		})
	})
}
