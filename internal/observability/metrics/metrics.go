package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardrobe_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wardrobe_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wardrobe_ws_connections",
		Help: "Number of open outfit websocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardrobe_ws_messages_total",
		Help: "Count of websocket messages by type and result",
	}, []string{"type", "result"})

	outfitOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wardrobe_outfit_operation_duration_seconds",
		Help:    "Duration of outfit service operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	catalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wardrobe_catalog_items",
		Help: "Number of items in the clothing catalog",
	})

	registeredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wardrobe_registered_users",
		Help: "Number of registered users",
	})

	outfitCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wardrobe_outfits",
		Help: "Number of stored outfits",
	})

	catalogCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wardrobe_catalog_cache_requests_total",
		Help: "Catalog cache lookups by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// WSConnectionOpened increments the open websocket connection gauge.
func WSConnectionOpened() {
	wsConnections.Inc()
}

// WSConnectionClosed decrements the open websocket connection gauge.
func WSConnectionClosed() {
	wsConnections.Dec()
}

// ObserveWSMessage counts one inbound websocket message with its outcome.
func ObserveWSMessage(msgType, result string) {
	wsMessagesTotal.WithLabelValues(msgType, result).Inc()
}

// ObserveOutfitOperation records the duration of an outfit service call.
func ObserveOutfitOperation(operation, result string, duration time.Duration) {
	outfitOperationDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// SetInventorySizes updates the catalog, user and outfit gauges.
func SetInventorySizes(items, users, outfits int) {
	catalogItems.Set(float64(items))
	registeredUsers.Set(float64(users))
	outfitCount.Set(float64(outfits))
}

// ObserveCatalogCache counts a catalog cache lookup ("hit", "miss",
// "bypass" or "error").
func ObserveCatalogCache(result string) {
	catalogCacheRequests.WithLabelValues(result).Inc()
}
