package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	registry *prometheus.Registry

	RequestsReceived    *prometheus.CounterVec
	ExportRunsTotal     *prometheus.CounterVec
	ExportRecordsTotal  prometheus.Counter
	ExportArtifactBytes prometheus.Histogram
	ExportRunLatency    *prometheus.HistogramVec
	QueryLatency        *prometheus.HistogramVec
	StorageWriteLatency *prometheus.HistogramVec
	PageCacheLookups    *prometheus.CounterVec
}

type Options struct {
	// Additional labels necessary
}

func New(name string) (*Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"app": name}

	return &Handler{
		registry: reg,
		RequestsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_received",
			ConstLabels: constLabels,
			Help:        "The total number of http requests received",
		}, []string{"status"}),
		ExportRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "export_runs_total",
			ConstLabels: constLabels,
			Help:        "The total number of export runs",
		}, []string{"trigger", "status"}),
		ExportRecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name:        "export_records_total",
			ConstLabels: constLabels,
			Help:        "The total number of log records archived",
		}),
		ExportArtifactBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "export_artifact_bytes",
			ConstLabels: constLabels,
			Help:        "Compressed size of written export artifacts",
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		ExportRunLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "export_run_latency_seconds",
			ConstLabels: constLabels,
			Help:        "The latency of a full export run",
			Buckets:     prometheus.DefBuckets,
		}, []string{"trigger", "success"}),
		QueryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "query_latency_seconds",
			ConstLabels: constLabels,
			Help:        "The latency of analytics backend queries",
			Buckets:     prometheus.DefBuckets,
		}, []string{"status"}),
		StorageWriteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "storage_write_latency_seconds",
			ConstLabels: constLabels,
			Help:        "The latency of artifact writes to the storage backend",
			Buckets:     prometheus.DefBuckets,
		}, []string{"success"}),
		PageCacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "page_cache_lookups_total",
			ConstLabels: constLabels,
			Help:        "Informational page document cache lookups",
		}, []string{"result"}),
	}, nil
}

// IncRequestsReceived increments the http requests counter
func (h *Handler) IncRequestsReceived(status int) {
	h.RequestsReceived.WithLabelValues(strconv.Itoa(status)).Inc()
}

// IncExportRuns increments the export runs counter
func (h *Handler) IncExportRuns(trigger, status string) {
	h.ExportRunsTotal.WithLabelValues(trigger, status).Inc()
}

// AddExportRecords adds archived records to the total
func (h *Handler) AddExportRecords(n int) {
	h.ExportRecordsTotal.Add(float64(n))
}

// ObserveArtifactBytes records the compressed artifact size
func (h *Handler) ObserveArtifactBytes(n int) {
	h.ExportArtifactBytes.Observe(float64(n))
}

// ObserveExportRunLatency records the latency of an export run
func (h *Handler) ObserveExportRunLatency(duration time.Duration, trigger string, success bool) {
	h.ExportRunLatency.WithLabelValues(trigger, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// ObserveQueryLatency records the latency of a backend query by response status
func (h *Handler) ObserveQueryLatency(duration time.Duration, status int) {
	h.QueryLatency.WithLabelValues(strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObserveStorageWriteLatency records the latency of a storage write
func (h *Handler) ObserveStorageWriteLatency(duration time.Duration, success bool) {
	h.StorageWriteLatency.WithLabelValues(strconv.FormatBool(success)).Observe(duration.Seconds())
}

// IncPageCacheLookup counts a page cache hit or miss
func (h *Handler) IncPageCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	h.PageCacheLookups.WithLabelValues(result).Inc()
}

// HTTPHandler serves the metrics registered on this handler
func (h *Handler) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{Registry: h.registry})
}

// Gatherer exposes the underlying registry
func (h *Handler) Gatherer() prometheus.Gatherer {
	return h.registry
}
