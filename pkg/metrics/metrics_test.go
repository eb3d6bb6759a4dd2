package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})

			Convey("Then metric names carry the prefix", func() {
				manager.recommendationsTotal.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_recommendations_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithMetricPrefix(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "taskmatch")
				So(manager.subsystem, ShouldEqual, "allocation")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))
			manager.recommendationsTotal.Inc()

			Convey("Then nothing is exposed on the given registry", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording allocation metrics", func() {
			So(func() {
				RecordRecommendation(1.5)
				RecordCandidatesScored(7)
				RecordAssignment("assigned")
				RecordStatusTransition("Pending", "In Progress")
				RecordTaskMutation("created")
				RecordIdempotentReplay()
				UpdateTasksByStatus("Pending", 3)
				UpdateWorkersTotal(4)
				RecordWorkloadCacheHit()
				RecordWorkloadCacheMiss()
				RecordWorkloadInvalidation()
				RecordStoreLatency("memory", "assign", 0.2)
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueDropped()
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordNotificationPublished("kafka", "success")
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/tasks", "GET", "200")
				RecordHTTPRequestDuration("/tasks", "GET", "200", 12)
				RecordErrorByComponent("http", "not_found")
				RecordErrorByType("not_found", "low")
				RecordErrorByEndpoint("/tasks", "GET", "not_found")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("When an assignment outcome is recorded", func() {
			before := testutil.ToFloat64(globalManager.assignmentsTotal.WithLabelValues("not_found"))
			RecordAssignment("not_found")

			Convey("Then the labelled counter grows by one", func() {
				So(testutil.ToFloat64(globalManager.assignmentsTotal.WithLabelValues("not_found")), ShouldEqual, before+1)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordCandidatesScored(1)
					RecordQueueEnqueue()
				}
			}()
		}
		So(func() { wg.Wait() }, ShouldNotPanic)
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured global manager", t, func() {
		manager := Configure(
			WithNamespace("tm"),
			WithSubsystem("test"),
			WithCustomLabels(map[string]string{"env": "ci"}),
			WithRefreshInterval(2*time.Second),
		)
		Reset(func() { Configure() })

		Convey("Then package helpers record into the served registry", func() {
			So(manager, ShouldEqual, globalManager)
			So(RefreshInterval(), ShouldEqual, 2*time.Second)

			RecordRecommendation(3)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "tm_test_recommendations_total")
		})

		Convey("And disabling exposition leaves the served registry empty", func() {
			Configure(WithMetricsEnabled(false))
			RecordRecommendation(1)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldBeEmpty)
		})
	})
}
