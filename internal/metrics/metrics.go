package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PriceRecomputes counts composed prices by what triggered them
	PriceRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eckpos",
		Name:      "price_recomputes_total",
		Help:      "Number of product price recomputations.",
	}, []string{"trigger"})

	// PriceFloorApplied counts recomputes where the markup floor won
	PriceFloorApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eckpos",
		Name:      "price_floor_applied_total",
		Help:      "Number of recomputes clamped to cost × 1.05.",
	})

	// GroupRebalances counts bulk profit-group adjustments that changed prices
	GroupRebalances = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eckpos",
		Name:      "profit_group_rebalances_total",
		Help:      "Number of profit group even-distribution adjustments.",
	})

	// TrainingDuration observes demand model training time
	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eckpos",
		Name:      "demand_model_training_seconds",
		Help:      "Duration of demand model training runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// ModelScore is the held-out R² of the current demand model
	ModelScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eckpos",
		Name:      "demand_model_score",
		Help:      "Coefficient of determination of the latest training run.",
	})

	// WebsocketClients is the number of connected realtime listeners
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eckpos",
		Name:      "websocket_clients",
		Help:      "Connected websocket clients.",
	})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
