package handler

import (
	"fmt"
	"net/http"

	"github.com/userbase/userbase/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "userbase_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "userbase_users_create_rejected_total{reason=\"conflict\"} %d\n", snap.UserConflicts)
	writeMetric(w, "userbase_users_create_rejected_total{reason=\"validation\"} %d\n", snap.ValidationFailures)

	writeMetric(w, "userbase_users_list_cache_hits_total %d\n", snap.ListCacheHits)
	writeMetric(w, "userbase_users_list_cache_misses_total %d\n", snap.ListCacheMisses)

	writeMetric(w, "userbase_store_duration_seconds_count{op=\"%s\"} %d\n", metrics.OpList, snap.ListQueryCount)
	writeMetric(w, "userbase_store_duration_seconds_sum{op=\"%s\"} %.6f\n", metrics.OpList, float64(snap.ListQueryTotalNs)/1e9)
	writeMetric(w, "userbase_store_duration_seconds_count{op=\"%s\"} %d\n", metrics.OpCreate, snap.CreateQueryCount)
	writeMetric(w, "userbase_store_duration_seconds_sum{op=\"%s\"} %.6f\n", metrics.OpCreate, float64(snap.CreateQueryTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
