package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - метрики жизненного цикла раундов
type Metrics struct {
	WagersPlaced       *prometheus.CounterVec
	WagersRejected     *prometheus.CounterVec
	Declarations       *prometheus.CounterVec
	WagersSettled      *prometheus.CounterVec
	SettlementDuration prometheus.Histogram
	SettlementPaid     prometheus.Counter
	SchedulerTicks     *prometheus.CounterVec
	RetryQueue         *prometheus.CounterVec
	ForcedUnlocks      prometheus.Counter
}

// NewMetrics - регистрирует метрики в reg. nil означает DefaultRegisterer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		WagersPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numbers_wagers_placed_total",
			Help: "Wagers accepted by game class",
		}, []string{"class"}),
		WagersRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numbers_wagers_rejected_total",
			Help: "Wager placements rejected by reason",
		}, []string{"reason"}),
		Declarations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numbers_declarations_total",
			Help: "Result declarations by source and outcome",
		}, []string{"source", "outcome"}),
		WagersSettled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numbers_wagers_settled_total",
			Help: "Settled wagers by status",
		}, []string{"status"}),
		SettlementDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "numbers_settlement_duration_seconds",
			Help:    "Time to settle one round",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SettlementPaid: f.NewCounter(prometheus.CounterOpts{
			Name: "numbers_settlement_paid_total",
			Help: "Minor units credited to winners",
		}),
		SchedulerTicks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numbers_scheduler_ticks_total",
			Help: "Scheduler ticks by outcome",
		}, []string{"outcome"}),
		RetryQueue: f.NewCounterVec(prometheus.CounterOpts{
			Name: "numbers_declaration_retry_total",
			Help: "Declaration retry queue operations",
		}, []string{"op"}),
		ForcedUnlocks: f.NewCounter(prometheus.CounterOpts{
			Name: "numbers_forced_unlocks_total",
			Help: "Auto declarations that had to unlock a number",
		}),
	}
}
