package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabriq_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fabriq_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Planning engine metrics
	PlanningOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabriq_planning_operations_total",
			Help: "Total number of planning engine operations by type",
		},
		[]string{"operation"},
	)

	ReservationsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabriq_reservations_upserted_total",
			Help: "Total number of raw-stock reservations written",
		},
	)

	ReservationsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabriq_reservations_released_total",
			Help: "Total number of raw-stock reservations fully released",
		},
	)

	PurchaseOrdersDrafted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabriq_purchase_orders_drafted_total",
			Help: "Total number of draft purchase orders created by the auto-drafter",
		},
	)

	PurchaseOrderLinesDrafted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fabriq_purchase_order_lines_drafted_total",
			Help: "Total number of purchase-order lines created by the auto-drafter",
		},
	)

	PlanningItemsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fabriq_planning_items_skipped_total",
			Help: "Total number of shortage items skipped during procurement planning",
		},
		[]string{"reason"},
	)
)
