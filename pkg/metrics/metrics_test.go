package metrics_test

import (
	"testing"

	"github.com/okian/comicboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gauge(t *testing.T, name string) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func counter(t *testing.T, name string) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestNewManager(t *testing.T) {
	Convey("Given an isolated registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When constructing a manager", func() {
			m := metrics.NewManager(metrics.WithPrometheusRegistry(reg))
			So(m, ShouldNotBeNil)

			Convey("Then its metric families register without collision", func() {
				_, err := reg.Gather()
				So(err, ShouldBeNil)
			})

			Convey("And a second manager on another registry is independent", func() {
				So(func() {
					metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				}, ShouldNotPanic)
			})
		})
	})
}

func TestManagerOptions(t *testing.T) {
	Convey("Given a custom namespace and subsystem", t, func() {
		reg := prometheus.NewRegistry()
		metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("custom"),
			metrics.WithSubsystem("unit"),
			metrics.WithHistogramBuckets([]float64{1, 10, 100}),
		)

		Convey("Then default-named metrics still fit on the same registry", func() {
			So(func() {
				metrics.NewManager(metrics.WithPrometheusRegistry(reg))
			}, ShouldNotPanic)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording cache and engine activity", func() {
			hitsBefore := counter(t, "comicboard_engine_cache_hits_total")
			sweptBefore := counter(t, "comicboard_engine_artifacts_swept_total")

			metrics.RecordCacheHit()
			metrics.RecordCacheMiss()
			metrics.RecordFlightShared()
			metrics.RecordGeneration()
			metrics.RecordGenerationError()
			metrics.RecordGenerationLatency(120)
			metrics.RecordLeaderboardUpdate()
			metrics.RecordRankConflict()
			metrics.RecordRankConflictExhausted()
			metrics.RecordArtifactsSwept(3)
			metrics.RecordHTTPRequest("comic", "GET", "200")
			metrics.RecordHTTPRequestDuration("comic", "GET", "200", 42)

			Convey("Then the counters advance", func() {
				So(counter(t, "comicboard_engine_cache_hits_total"), ShouldEqual, hitsBefore+1)
				So(counter(t, "comicboard_engine_artifacts_swept_total"), ShouldEqual, sweptBefore+3)
			})
		})

		Convey("When updating system gauges", func() {
			metrics.UpdateSystemMemoryUsage(1 << 20)
			metrics.UpdateSystemGoroutineCount(7)

			So(gauge(t, "comicboard_engine_system_memory_bytes"), ShouldEqual, float64(1<<20))
			So(gauge(t, "comicboard_engine_system_goroutines"), ShouldEqual, 7)
		})
	})
}
