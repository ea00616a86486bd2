// Package rating implements the Elo rating engine applied when a debate
// reaches its terminal judged state.
package rating

import "math"

// KFactor is the maximum Elo points transferable in one debate. It is a
// uniform compile-time constant: changing it per debate would make historical
// Elo trajectories incomparable.
const KFactor = 32.0

// Actual outcome scores.
const (
	ScoreWin  = 1.0
	ScoreLoss = 0.0
	ScoreTie  = 0.5
)

// ExpectedScore returns the probability-like expected score for a player at
// rating against an opponent: 1 / (1 + 10^((opponent-rating)/400)). The two
// sides' expectations always sum to 1.
func ExpectedScore(rating, opponent float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (opponent-rating)/400.0))
}

// Updated returns the post-debate rating: old + K * (actual - expected).
func Updated(rating, expected, actual float64) float64 {
	return rating + KFactor*(actual-expected)
}
