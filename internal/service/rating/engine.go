package rating

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/cache"
	"github.com/debatearena/arena/internal/metrics"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/phase"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/pkg/logger"
)

// DebateRepository interface for debate finalization operations.
type DebateRepository interface {
	GetByID(id uint) (*models.Debate, error)
	ApplyFinalization(f repository.EloFinalization) error
}

// ModelRepository interface for participant lookups.
type ModelRepository interface {
	GetByID(id uint) (*models.Model, error)
}

// Result carries the post-update ratings of one finalization.
type Result struct {
	ProEloAfter float64 `json:"pro_elo_after"`
	ConEloAfter float64 `json:"con_elo_after"`
}

// Engine applies Elo rating updates to completed debates, exactly once each.
type Engine struct {
	debates DebateRepository
	modelsR ModelRepository
	cache   cache.Cache
	log     *logger.Logger
}

// NewEngine creates a rating engine with concrete repository types. cache may
// be nil; it is only used to drop stale standings after a finalization.
func NewEngine(debateRepo *repository.DebateRepository, modelRepo *repository.ModelRepository, c cache.Cache, log *logger.Logger) *Engine {
	return &Engine{debates: debateRepo, modelsR: modelRepo, cache: c, log: log}
}

// NewEngineWithInterfaces creates a rating engine with interface dependencies (useful for testing).
func NewEngineWithInterfaces(debates DebateRepository, modelsR ModelRepository, c cache.Cache, log *logger.Logger) *Engine {
	return &Engine{debates: debates, modelsR: modelsR, cache: c, log: log}
}

// maxApplyRetries bounds the optimistic-concurrency retry loop for the case
// where a shared participant's rating moves between our read and our write.
const maxApplyRetries = 5

// ApplyResult applies the Elo update for a completed debate. Callable exactly
// once per debate: a second call observes the non-null elo_after snapshots
// and reports a conflict instead of double-crediting.
func (e *Engine) ApplyResult(ctx context.Context, debateID uint) (*Result, error) {
	debate, err := e.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}

	if debate.Status != string(phase.StatusCompleted) {
		return nil, apperr.Invariant("debate %d is not finalizable (status=%s)", debateID, debate.Status)
	}
	if debate.Finalized() {
		metrics.RecordFinalizationConflict()
		return nil, apperr.Conflict("debate %d already finalized", debateID)
	}
	if debate.ProScore == nil || debate.ConScore == nil {
		return nil, apperr.Invariant("debate %d completed without both scores", debateID)
	}

	actualPro, resultKind := actualOutcome(debate)

	for attempt := 0; attempt < maxApplyRetries; attempt++ {
		pro, err := e.modelsR.GetByID(debate.ProModelID)
		if err != nil {
			return nil, participantErr(err, debate.ProModelID)
		}
		con, err := e.modelsR.GetByID(debate.ConModelID)
		if err != nil {
			return nil, participantErr(err, debate.ConModelID)
		}

		expectedPro := ExpectedScore(pro.EloRating, con.EloRating)
		expectedCon := 1.0 - expectedPro

		finalization := repository.EloFinalization{
			DebateID:      debate.ID,
			ProModelID:    pro.ID,
			ConModelID:    con.ID,
			WinnerModelID: debate.WinnerModelID,
			ProBefore:     pro.EloRating,
			ProAfter:      Updated(pro.EloRating, expectedPro, actualPro),
			ConBefore:     con.EloRating,
			ConAfter:      Updated(con.EloRating, expectedCon, 1.0-actualPro),
		}

		err = e.debates.ApplyFinalization(finalization)
		if errors.Is(err, repository.ErrRatingConflict) {
			e.log.Debug().
				Uint("debate_id", debate.ID).
				Int("attempt", attempt+1).
				Msg("Rating moved concurrently, retrying finalization")
			continue
		}
		if apperr.IsConflict(err) {
			metrics.RecordFinalizationConflict()
			return nil, err
		}
		if err != nil {
			return nil, err
		}

		metrics.RecordFinalization(resultKind)
		metrics.ObserveEloDelta(math.Abs(finalization.ProAfter - finalization.ProBefore))
		metrics.ObserveScoreMargin(math.Abs(*debate.ProScore - *debate.ConScore))
		e.invalidateStandings(ctx)

		e.log.Info().
			Uint("debate_id", debate.ID).
			Str("result", resultKind).
			Float64("pro_elo_before", finalization.ProBefore).
			Float64("pro_elo_after", finalization.ProAfter).
			Float64("con_elo_before", finalization.ConBefore).
			Float64("con_elo_after", finalization.ConAfter).
			Msg("Debate finalized")

		return &Result{
			ProEloAfter: finalization.ProAfter,
			ConEloAfter: finalization.ConAfter,
		}, nil
	}

	return nil, fmt.Errorf("finalization of debate %d kept conflicting after %d attempts", debateID, maxApplyRetries)
}

// actualOutcome maps the judged winner onto the pro side's actual score and a
// result label. A tie scores 0.5 for both sides and increments no counters.
func actualOutcome(debate *models.Debate) (actualPro float64, kind string) {
	switch {
	case debate.WinnerModelID == nil:
		return ScoreTie, "tie"
	case *debate.WinnerModelID == debate.ProModelID:
		return ScoreWin, "pro_win"
	default:
		return ScoreLoss, "con_win"
	}
}

func participantErr(err error, modelID uint) error {
	if apperr.IsNotFound(err) {
		return apperr.NotFound("unknown participant: model %d", modelID)
	}
	return err
}

// StandingsCacheKey is the cache key dropped after every finalization so
// standings reads pick up the new ratings without waiting for TTL expiry.
const StandingsCacheKey = "standings:v1"

func (e *Engine) invalidateStandings(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Del(ctx, StandingsCacheKey); err != nil {
		e.log.Warn().Err(err).Msg("Failed to invalidate standings cache")
	}
}
