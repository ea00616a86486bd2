// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the debate arena core.
var (
	// Counters.
	DebatesFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_debates_finalized_total",
			Help: "Total number of debates finalized through the rating engine",
		},
		[]string{"result"}, // pro_win, con_win, tie
	)

	FinalizationConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_finalization_conflicts_total",
			Help: "Total finalization attempts rejected because the debate was already finalized",
		},
	)

	VotesCastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_votes_cast_total",
			Help: "Total vote cast attempts by namespace and outcome",
		},
		[]string{"namespace", "outcome"}, // topic|debate, applied|duplicate
	)

	JudgeReviewsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_judge_reviews_recorded_total",
			Help: "Total auditor reviews folded into judge quality scores",
		},
	)

	// Gauges.
	ActiveModels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_active_models",
			Help: "Current number of active models in the registry",
		},
	)

	// Histograms.
	ScoreMargin = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arena_debate_score_margin",
			Help:    "Absolute score margin between pro and con at judgment",
			Buckets: prometheus.LinearBuckets(0, 1, 10), // rubric scale 0-10
		},
	)

	EloDelta = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arena_elo_delta",
			Help:    "Absolute Elo points transferred per finalized debate",
			Buckets: prometheus.LinearBuckets(0, 4, 9), // 0 to K=32
		},
	)
)

// RecordFinalization records a finalized debate with its result kind.
func RecordFinalization(result string) {
	DebatesFinalizedTotal.WithLabelValues(result).Inc()
}

// RecordFinalizationConflict records a rejected double finalization.
func RecordFinalizationConflict() {
	FinalizationConflictsTotal.Inc()
}

// RecordVoteCast records a vote cast attempt.
func RecordVoteCast(namespace string, applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "duplicate"
	}
	VotesCastTotal.WithLabelValues(namespace, outcome).Inc()
}

// RecordJudgeReview records an auditor review applied to a judge.
func RecordJudgeReview() {
	JudgeReviewsRecordedTotal.Inc()
}

// SetActiveModels sets the active model count.
func SetActiveModels(count int) {
	ActiveModels.Set(float64(count))
}

// ObserveScoreMargin observes the pro/con score margin of a judged debate.
func ObserveScoreMargin(margin float64) {
	ScoreMargin.Observe(margin)
}

// ObserveEloDelta observes the Elo points moved in one finalization.
func ObserveEloDelta(delta float64) {
	EloDelta.Observe(delta)
}
