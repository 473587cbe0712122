package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Ledger metrics
	BalanceMutations      *prometheus.CounterVec
	FrozenInconsistencies prometheus.Counter

	// Market metrics
	ListingsCreated   prometheus.Counter
	ListingsWithdrawn prometheus.Counter
	OrdersCreated     prometheus.Counter
	OrdersSettled     prometheus.Counter
	OrdersCancelled   prometheus.Counter

	// Transaction executor metrics
	TxAttempts prometheus.Counter
	TxRetries  *prometheus.CounterVec
	TxFailures *prometheus.CounterVec

	// Reconciliation metrics
	OrphansDetected prometheus.Gauge
	OrphanAmount    prometheus.Gauge
	OrphansCleaned  prometheus.Counter

	// Database metrics
	DBConnections prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		BalanceMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketledger_balance_mutations_total",
			Help: "Total number of balance mutations by kind",
		}, []string{"kind"}),
		FrozenInconsistencies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_frozen_inconsistencies_total",
			Help: "Total number of detected frozen balance inconsistencies",
		}),

		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_listings_created_total",
			Help: "Total number of listings created",
		}),
		ListingsWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_listings_withdrawn_total",
			Help: "Total number of listings withdrawn",
		}),
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_orders_created_total",
			Help: "Total number of orders created",
		}),
		OrdersSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_orders_settled_total",
			Help: "Total number of orders settled",
		}),
		OrdersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),

		TxAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_tx_attempts_total",
			Help: "Total number of transaction attempts",
		}),
		TxRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketledger_tx_retries_total",
			Help: "Total number of transaction retries by classification reason",
		}, []string{"reason"}),
		TxFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketledger_tx_failures_total",
			Help: "Total number of transactions that failed after exhausting retries",
		}, []string{"reason"}),

		OrphansDetected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "marketledger_orphan_frozen_detected",
			Help: "Orphan frozen balance pairs found by the last detection pass",
		}),
		OrphanAmount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "marketledger_orphan_frozen_amount",
			Help: "Total orphan frozen amount found by the last detection pass",
		}),
		OrphansCleaned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketledger_orphan_frozen_cleaned_total",
			Help: "Total number of orphan frozen corrections applied",
		}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "marketledger_db_connections",
			Help: "Number of open database connections",
		}),
	}
}
