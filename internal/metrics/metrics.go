// internal/metrics/metrics.go
//
// Prometheus counters for table activity, exposed on /metrics.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	roundsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blackjack_rounds_started_total",
		Help: "Rounds dealt.",
	})
	roundOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_round_outcomes_total",
		Help: "Settled rounds by player-centric outcome.",
	}, []string{"outcome"})
	chipsPurchased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blackjack_chips_purchased_total",
		Help: "Gold added to player bankrolls via chip purchases.",
	})
)

func RecordRoundStarted() { roundsStarted.Inc() }

func RecordOutcome(status string) { roundOutcomes.WithLabelValues(status).Inc() }

func RecordChipsPurchased(amount int) { chipsPurchased.Add(float64(amount)) }

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }
