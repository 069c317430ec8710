package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersReceivedTotal counts orders accepted into a book.
	OrdersReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_received_total",
			Help: "Total number of orders accepted by the matching core",
		},
		[]string{"symbol", "side"},
	)

	// OrdersRejectedTotal counts orders rejected by book preconditions.
	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of orders rejected by book preconditions",
		},
		[]string{"symbol", "reason"},
	)

	// MatchesFoundTotal counts match candidates discovered by matching passes.
	MatchesFoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matches_found_total",
			Help: "Total number of match candidates discovered",
		},
		[]string{"symbol"},
	)

	// OrderbookVolume tracks the total resting volume per book side.
	OrderbookVolume = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderbook_volume",
			Help: "Total resting quantity per book side",
		},
		[]string{"symbol", "side"},
	)

	// OrderProcessingSeconds observes end-to-end order processing latency.
	OrderProcessingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_processing_seconds",
			Help:    "Time taken to process one order request through the engine",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
		[]string{"symbol", "action"},
	)
)
