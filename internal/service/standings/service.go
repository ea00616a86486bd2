// Package standings produces ranked, derived views over model and debate
// state. Standings are never a source of truth: every number here folds over
// the immutable snapshots the rating and judging engines wrote.
package standings

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/debatearena/arena/internal/cache"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/internal/service/judging"
	"github.com/debatearena/arena/pkg/logger"
)

// trendWindow is the number of most recent debates the Elo trend covers.
const trendWindow = 5

// StandingsCacheKey mirrors the key the rating engine invalidates.
const StandingsCacheKey = "standings:v1"

// ModelRepository interface for registry reads.
type ModelRepository interface {
	GetByID(id uint) (*models.Model, error)
	List(activeOnly bool) ([]models.Model, error)
}

// DebateRepository interface for finalized-debate reads.
type DebateRepository interface {
	ListFinalized() ([]models.Debate, error)
	ListFinalizedByModel(modelID uint) ([]models.Debate, error)
	CountJudgedByModel(modelID uint) (int64, error)
}

// BreakdownProvider supplies the per-auditor breakdown for model detail.
type BreakdownProvider interface {
	AuditorBreakdown(ctx context.Context, judgeModelID uint) ([]judging.BreakdownRow, error)
}

// DebaterRow is one row of the debater standings.
type DebaterRow struct {
	ModelID   uint     `json:"model_id"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Provider  string   `json:"provider"`
	EloRating float64  `json:"elo_rating"`
	Wins      int      `json:"wins"`
	Losses    int      `json:"losses"`
	WinRate   *float64 `json:"win_rate"`
	// Elo delta over the model's last few debates; nil with no history.
	RecentTrend *float64 `json:"recent_trend"`
	Rank        int      `json:"rank"`
}

// JudgeRow is one row of the judge standings.
type JudgeRow struct {
	ModelID       uint    `json:"model_id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Provider      string  `json:"provider"`
	AvgJudgeScore float64 `json:"avg_judge_score"`
	TimesJudged   int     `json:"times_judged"`
	Rank          int     `json:"rank"`
}

// StandingsResponse bundles both rankings for the leaderboard page.
type StandingsResponse struct {
	DebaterStandings []DebaterRow `json:"debater_standings"`
	JudgeStandings   []JudgeRow   `json:"judge_standings"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// Service computes standings, histories and model detail.
type Service struct {
	modelsR   ModelRepository
	debates   DebateRepository
	breakdown BreakdownProvider
	cache     cache.Cache
	ttl       time.Duration
	log       *logger.Logger
}

// NewService creates a standings service with concrete dependencies. cache
// may be nil to disable the read cache.
func NewService(modelRepo *repository.ModelRepository, debateRepo *repository.DebateRepository, judgingSvc *judging.Service, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{modelsR: modelRepo, debates: debateRepo, breakdown: judgingSvc, cache: c, ttl: ttl, log: log}
}

// NewServiceWithInterfaces creates a standings service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(modelsR ModelRepository, debates DebateRepository, breakdown BreakdownProvider, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{modelsR: modelsR, debates: debates, breakdown: breakdown, cache: c, ttl: ttl, log: log}
}

// Standings returns both rankings, served from cache when fresh.
func (s *Service) Standings(ctx context.Context) (*StandingsResponse, error) {
	if cached := s.cachedStandings(ctx); cached != nil {
		return cached, nil
	}

	debaters, err := s.DebaterStandings(ctx)
	if err != nil {
		return nil, err
	}
	judges, err := s.JudgeStandings(ctx)
	if err != nil {
		return nil, err
	}

	resp := &StandingsResponse{
		DebaterStandings: debaters,
		JudgeStandings:   judges,
		GeneratedAt:      time.Now().UTC(),
	}
	s.storeStandings(ctx, resp)
	return resp, nil
}

// DebaterStandings ranks active models with at least one finalized debate by
// current Elo, ties broken by fewer losses then by model ID so the order is
// fully deterministic.
func (s *Service) DebaterStandings(ctx context.Context) ([]DebaterRow, error) {
	active, err := s.modelsR.List(true)
	if err != nil {
		return nil, err
	}
	finalized, err := s.debates.ListFinalized()
	if err != nil {
		return nil, err
	}

	byModel := debatesByModel(finalized)

	rows := make([]DebaterRow, 0, len(active))
	for i := range active {
		m := &active[i]
		history := byModel[m.ID]
		if len(history) == 0 {
			continue
		}
		rows = append(rows, DebaterRow{
			ModelID:     m.ID,
			Name:        m.Name,
			Slug:        m.Slug(),
			Provider:    m.Provider,
			EloRating:   m.EloRating,
			Wins:        m.DebatesWon,
			Losses:      m.DebatesLost,
			WinRate:     m.WinRate(),
			RecentTrend: recentTrend(m.ID, history),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EloRating != rows[j].EloRating {
			return rows[i].EloRating > rows[j].EloRating
		}
		if rows[i].Losses != rows[j].Losses {
			return rows[i].Losses < rows[j].Losses
		}
		return rows[i].ModelID < rows[j].ModelID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// JudgeStandings ranks active models that have judged at least once by their
// exact average review score, same tie-break discipline as the debater board.
func (s *Service) JudgeStandings(ctx context.Context) ([]JudgeRow, error) {
	active, err := s.modelsR.List(true)
	if err != nil {
		return nil, err
	}

	rows := make([]JudgeRow, 0, len(active))
	for i := range active {
		m := &active[i]
		avg := m.AvgJudgeScore()
		if m.TimesJudged == 0 || avg == nil {
			continue
		}
		rows = append(rows, JudgeRow{
			ModelID:       m.ID,
			Name:          m.Name,
			Slug:          m.Slug(),
			Provider:      m.Provider,
			AvgJudgeScore: *avg,
			TimesJudged:   m.TimesJudged,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgJudgeScore != rows[j].AvgJudgeScore {
			return rows[i].AvgJudgeScore > rows[j].AvgJudgeScore
		}
		return rows[i].ModelID < rows[j].ModelID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// debatesByModel indexes finalized debates by participant, preserving the
// chronological order of the input.
func debatesByModel(finalized []models.Debate) map[uint][]models.Debate {
	byModel := make(map[uint][]models.Debate)
	for _, d := range finalized {
		byModel[d.ProModelID] = append(byModel[d.ProModelID], d)
		byModel[d.ConModelID] = append(byModel[d.ConModelID], d)
	}
	return byModel
}

// recentTrend is the Elo delta over the model's last trendWindow debates,
// computed from the immutable snapshots.
func recentTrend(modelID uint, history []models.Debate) *float64 {
	if len(history) == 0 {
		return nil
	}
	window := history
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}

	var delta float64
	for _, d := range window {
		before, after := sideSnapshots(modelID, &d)
		if before == nil || after == nil {
			continue
		}
		delta += *after - *before
	}
	return &delta
}

// sideSnapshots picks the model's own before/after pair out of a debate.
func sideSnapshots(modelID uint, d *models.Debate) (before, after *float64) {
	if d.ProModelID == modelID {
		return d.ProEloBefore, d.ProEloAfter
	}
	return d.ConEloBefore, d.ConEloAfter
}

func (s *Service) cachedStandings(ctx context.Context) *StandingsResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, StandingsCacheKey)
	if err != nil || raw == "" {
		return nil
	}
	var resp StandingsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *Service) storeStandings(ctx context.Context, resp *StandingsResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, StandingsCacheKey, string(raw), s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache standings")
	}
}
