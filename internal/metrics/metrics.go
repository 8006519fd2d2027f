// Package metrics exposes the Prometheus collectors of the sample store,
// the prune jobs and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SamplesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landsat_samples_written_total",
		Help: "Samples stored in the live index",
	})
	SamplesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landsat_samples_dropped_total",
		Help: "Samples discarded because their coordinates were already taken or not finite",
	})
	SamplesBufferedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landsat_samples_buffered_total",
		Help: "Samples queued while the store was frozen",
	})
	SamplesReplayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landsat_samples_replayed_total",
		Help: "Buffered samples replayed on thaw",
	})
	FreezesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landsat_freezes_total",
		Help: "Snapshots handed out by FreezeAndCopy",
	})
	ThawsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landsat_thaws_total",
		Help: "Merged indexes installed by MergeAndThaw",
	})
	PruneDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "landsat_prune_duration_ms",
		Help:    "Prune job duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	}, []string{"policy"})
	PruneRemovedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsat_prune_removed_total",
		Help: "Samples removed by prune jobs",
	}, []string{"policy"})
	PruneFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsat_prune_fail_total",
		Help: "Prune jobs that failed and merged back the unmodified snapshot",
	}, []string{"policy"})
	BodySamples = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "landsat_body_samples",
		Help: "Samples currently stored per body",
	}, []string{"body"})
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landsat_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(SamplesWrittenTotal)
	prometheus.MustRegister(SamplesDroppedTotal)
	prometheus.MustRegister(SamplesBufferedTotal)
	prometheus.MustRegister(SamplesReplayedTotal)
	prometheus.MustRegister(FreezesTotal)
	prometheus.MustRegister(ThawsTotal)
	prometheus.MustRegister(PruneDurationMs)
	prometheus.MustRegister(PruneRemovedTotal)
	prometheus.MustRegister(PruneFailTotal)
	prometheus.MustRegister(BodySamples)
	prometheus.MustRegister(RequestsTotal)
}

// Handler returns the handler serving every registered collector
func Handler() http.Handler { return promhttp.Handler() }
