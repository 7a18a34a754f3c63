package infrastructure

import (
	"context"
	"net/http"
	"time"

	"bookmaker/domain/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the domain counters exported on /metrics
type Metrics struct {
	BetsPlaced    *prometheus.CounterVec
	BetsSettled   *prometheus.CounterVec
	LedgerEntries *prometheus.CounterVec
	BadgesAwarded *prometheus.CounterVec
	FeedUpserts   *prometheus.CounterVec
	FeedErrors    *prometheus.CounterVec
	AmountStaked  prometheus.Counter
	AmountPaidOut prometheus.Counter
}

// NewMetrics creates and registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmaker_bets_placed_total",
			Help: "Bets placed, by bet type",
		}, []string{"type"}),
		BetsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmaker_bets_settled_total",
			Help: "Bets resolved by settlement or cancellation, by final status",
		}, []string{"status"}),
		LedgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmaker_ledger_entries_total",
			Help: "Ledger rows written, by origin",
		}, []string{"origin"}),
		BadgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmaker_badges_awarded_total",
			Help: "Badges awarded, by code",
		}, []string{"code"}),
		FeedUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmaker_feed_upserts_total",
			Help: "Odds feed records applied, by outcome",
		}, []string{"outcome"}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookmaker_feed_errors_total",
			Help: "Odds feed failures, by stage",
		}, []string{"stage"}),
		AmountStaked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookmaker_amount_staked_total",
			Help: "Sum of bet stakes",
		}),
		AmountPaidOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookmaker_amount_paid_out_total",
			Help: "Sum of winnings and refunds credited by settlement",
		}),
	}
	reg.MustRegister(
		m.BetsPlaced,
		m.BetsSettled,
		m.LedgerEntries,
		m.BadgesAwarded,
		m.FeedUpserts,
		m.FeedErrors,
		m.AmountStaked,
		m.AmountPaidOut,
	)
	return m
}

// ObserveEvent updates counters from a committed domain event
func (m *Metrics) ObserveEvent(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		m.BetsPlaced.WithLabelValues(string(e.BetType)).Inc()
		m.AmountStaked.Add(e.Amount.InexactFloat64())
	case events.BetSettledEvent:
		m.BetsSettled.WithLabelValues(string(e.Status)).Inc()
		if e.Payout.IsPositive() {
			m.AmountPaidOut.Add(e.Payout.InexactFloat64())
		}
	case events.BalanceChangeEvent:
		m.LedgerEntries.WithLabelValues(e.Origin.String()).Inc()
	case events.BadgeAwardedEvent:
		m.BadgesAwarded.WithLabelValues(string(e.Code)).Inc()
	}
	return nil
}

// ObserveFeedOutcome counts an applied feed record
func (m *Metrics) ObserveFeedOutcome(outcome string) {
	m.FeedUpserts.WithLabelValues(outcome).Inc()
}

// ObserveFeedError counts a feed failure at stage
func (m *Metrics) ObserveFeedError(stage string) {
	m.FeedErrors.WithLabelValues(stage).Inc()
}

// HealthFunc reports whether a dependency is usable
type HealthFunc func(ctx context.Context) error

// NewMetricsServer serves /metrics from gatherer and /healthz from health
func NewMetricsServer(addr string, gatherer prometheus.Gatherer, health HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy: " + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
