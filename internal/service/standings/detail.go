package standings

import (
	"context"
	"time"

	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/service/judging"
)

// Elo history result labels.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultTie  = "tie"
)

// HistoryPoint is one finalized debate seen from the model's side.
type HistoryPoint struct {
	DebateNumber int        `json:"debate_number"`
	DebateID     uint       `json:"debate_id"`
	EloBefore    float64    `json:"elo_before"`
	EloAfter     float64    `json:"elo_after"`
	OpponentID   uint       `json:"opponent_id"`
	Result       string     `json:"result"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// HeadToHeadRow aggregates a model's finalized debates against one opponent.
type HeadToHeadRow struct {
	OpponentID   uint   `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Ties         int    `json:"ties"`
}

// ScoringStats summarizes the judge scores a model received as a debater.
type ScoringStats struct {
	DebatesScored int      `json:"debates_scored"`
	AvgScore      *float64 `json:"avg_score"`
	BestScore     *float64 `json:"best_score"`
	WorstScore    *float64 `json:"worst_score"`
}

// JudgingStats summarizes a model's work as a judge.
type JudgingStats struct {
	DebatesJudged int64    `json:"debates_judged"`
	TimesReviewed int      `json:"times_reviewed"`
	AvgJudgeScore *float64 `json:"avg_judge_score"`
}

// ModelDetail is the full profile page payload for one model.
type ModelDetail struct {
	ModelID          uint                   `json:"model_id"`
	Name             string                 `json:"name"`
	Slug             string                 `json:"slug"`
	Provider         string                 `json:"provider"`
	IsActive         bool                   `json:"is_active"`
	EloRating        float64                `json:"elo_rating"`
	Wins             int                    `json:"wins"`
	Losses           int                    `json:"losses"`
	WinRate          *float64               `json:"win_rate"`
	RecentTrend      *float64               `json:"elo_trend"`
	EloHistory       []HistoryPoint         `json:"elo_history"`
	HeadToHead       []HeadToHeadRow        `json:"head_to_head"`
	Scoring          ScoringStats           `json:"scoring_stats"`
	Judging          JudgingStats           `json:"judging_stats"`
	AuditorBreakdown []judging.BreakdownRow `json:"auditor_breakdown"`
}

// EloHistory rebuilds a model's rating trajectory from its finalized debates'
// snapshots, in completion order. The formula is never re-run here.
func (s *Service) EloHistory(ctx context.Context, modelID uint) ([]HistoryPoint, error) {
	if _, err := s.modelsR.GetByID(modelID); err != nil {
		return nil, err
	}
	finalized, err := s.debates.ListFinalizedByModel(modelID)
	if err != nil {
		return nil, err
	}
	return historyPoints(modelID, finalized), nil
}

// ModelDetail assembles a model's profile: identity, rating, history,
// head-to-head record and both scoring and judging aggregates.
func (s *Service) ModelDetail(ctx context.Context, modelID uint) (*ModelDetail, error) {
	m, err := s.modelsR.GetByID(modelID)
	if err != nil {
		return nil, err
	}
	finalized, err := s.debates.ListFinalizedByModel(modelID)
	if err != nil {
		return nil, err
	}
	judged, err := s.debates.CountJudgedByModel(modelID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.breakdown.AuditorBreakdown(ctx, modelID)
	if err != nil {
		return nil, err
	}

	detail := &ModelDetail{
		ModelID:          m.ID,
		Name:             m.Name,
		Slug:             m.Slug(),
		Provider:         m.Provider,
		IsActive:         m.IsActive,
		EloRating:        m.EloRating,
		Wins:             m.DebatesWon,
		Losses:           m.DebatesLost,
		WinRate:          m.WinRate(),
		RecentTrend:      recentTrend(modelID, finalized),
		EloHistory:       historyPoints(modelID, finalized),
		HeadToHead:       s.headToHead(modelID, finalized),
		Scoring:          scoringStats(modelID, finalized),
		AuditorBreakdown: breakdown,
	}
	detail.Judging = JudgingStats{
		DebatesJudged: judged,
		TimesReviewed: m.TimesJudged,
		AvgJudgeScore: m.AvgJudgeScore(),
	}
	return detail, nil
}

func historyPoints(modelID uint, finalized []models.Debate) []HistoryPoint {
	points := make([]HistoryPoint, 0, len(finalized))
	for _, d := range finalized {
		before, after := sideSnapshots(modelID, &d)
		if before == nil || after == nil {
			continue
		}
		points = append(points, HistoryPoint{
			DebateNumber: len(points) + 1,
			DebateID:     d.ID,
			EloBefore:    *before,
			EloAfter:     *after,
			OpponentID:   opponentID(modelID, &d),
			Result:       resultFor(modelID, &d),
			CompletedAt:  d.CompletedAt,
		})
	}
	return points
}

func (s *Service) headToHead(modelID uint, finalized []models.Debate) []HeadToHeadRow {
	index := make(map[uint]int)
	rows := make([]HeadToHeadRow, 0)
	for _, d := range finalized {
		opp := opponentID(modelID, &d)
		i, ok := index[opp]
		if !ok {
			i = len(rows)
			index[opp] = i
			row := HeadToHeadRow{OpponentID: opp}
			if opponent, err := s.modelsR.GetByID(opp); err == nil {
				row.OpponentName = opponent.Name
			}
			rows = append(rows, row)
		}
		switch resultFor(modelID, &d) {
		case ResultWin:
			rows[i].Wins++
		case ResultLoss:
			rows[i].Losses++
		default:
			rows[i].Ties++
		}
	}
	return rows
}

func scoringStats(modelID uint, finalized []models.Debate) ScoringStats {
	var (
		sum   float64
		n     int
		best  *float64
		worst *float64
	)
	for _, d := range finalized {
		score := d.ProScore
		if d.ConModelID == modelID {
			score = d.ConScore
		}
		if score == nil {
			continue
		}
		v := *score
		sum += v
		n++
		if best == nil || v > *best {
			best = &v
		}
		if worst == nil || v < *worst {
			worst = &v
		}
	}
	stats := ScoringStats{DebatesScored: n, BestScore: best, WorstScore: worst}
	if n > 0 {
		avg := sum / float64(n)
		stats.AvgScore = &avg
	}
	return stats
}

func opponentID(modelID uint, d *models.Debate) uint {
	if d.ProModelID == modelID {
		return d.ConModelID
	}
	return d.ProModelID
}

func resultFor(modelID uint, d *models.Debate) string {
	switch {
	case d.WinnerModelID == nil:
		return ResultTie
	case *d.WinnerModelID == modelID:
		return ResultWin
	default:
		return ResultLoss
	}
}
