// Package judging folds auditor reviews into judge quality scores.
package judging

import (
	"context"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/metrics"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/phase"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/pkg/logger"
)

// DebateRepository interface for debate lookups.
type DebateRepository interface {
	GetByID(id uint) (*models.Debate, error)
}

// ReviewRepository interface for the review fold.
type ReviewRepository interface {
	ApplyReview(review *models.JudgeReview) error
	ListStatsByJudge(judgeModelID uint) ([]models.JudgeAuditorStat, error)
}

// ModelRepository interface for auditor name lookups.
type ModelRepository interface {
	GetByID(id uint) (*models.Model, error)
}

// ReviewInput is the auditor's four-criteria assessment, each 1-10.
type ReviewInput struct {
	Accuracy         int `json:"accuracy"`
	Fairness         int `json:"fairness"`
	Thoroughness     int `json:"thoroughness"`
	ReasoningQuality int `json:"reasoning_quality"`
}

// Validate checks every criterion against the rubric bounds. Callers that
// trigger state changes must validate before mutating anything.
func (in ReviewInput) Validate() error {
	criteria := map[string]int{
		"accuracy":          in.Accuracy,
		"fairness":          in.Fairness,
		"thoroughness":      in.Thoroughness,
		"reasoning_quality": in.ReasoningQuality,
	}
	for name, v := range criteria {
		if v < models.ReviewScoreMin || v > models.ReviewScoreMax {
			return apperr.Validation("%s must be between %d and %d, got %d", name, models.ReviewScoreMin, models.ReviewScoreMax, v)
		}
	}
	return nil
}

// BreakdownRow is one auditor's aggregate toward a judge: how many reviews
// and the exact mean overall it assigned.
type BreakdownRow struct {
	AuditorModelID uint    `json:"auditor_model_id"`
	AuditorName    string  `json:"auditor_name"`
	ReviewCount    int     `json:"review_count"`
	AvgScore       float64 `json:"avg_score"`
}

// Service maintains judge quality scores from auditor reviews.
type Service struct {
	debates DebateRepository
	reviews ReviewRepository
	modelsR ModelRepository
	log     *logger.Logger
}

// NewService creates a judging service with concrete repository types.
func NewService(debateRepo *repository.DebateRepository, reviewRepo *repository.ReviewRepository, modelRepo *repository.ModelRepository, log *logger.Logger) *Service {
	return &Service{debates: debateRepo, reviews: reviewRepo, modelsR: modelRepo, log: log}
}

// NewServiceWithInterfaces creates a judging service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(debates DebateRepository, reviews ReviewRepository, modelsR ModelRepository, log *logger.Logger) *Service {
	return &Service{debates: debates, reviews: reviews, modelsR: modelsR, log: log}
}

// RecordReview validates and applies an auditor review for a completed,
// judged debate. The judge's running average stays exact because the fold
// keeps a sum and a count, never an incrementally updated mean.
func (s *Service) RecordReview(ctx context.Context, debateID uint, in ReviewInput) (*models.JudgeReview, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}
	if debate.Status != string(phase.StatusCompleted) {
		return nil, apperr.Invariant("debate %d is not completed (status=%s)", debateID, debate.Status)
	}
	if debate.WinnerModelID == nil && !debate.Tied() {
		return nil, apperr.Invariant("debate %d has no judgment to review", debateID)
	}

	review := &models.JudgeReview{
		DebateID:         debateID,
		JudgeModelID:     debate.JudgeModelID,
		AuditorModelID:   debate.AuditorModelID,
		Accuracy:         in.Accuracy,
		Fairness:         in.Fairness,
		Thoroughness:     in.Thoroughness,
		ReasoningQuality: in.ReasoningQuality,
	}
	review.Overall = review.ComputeOverall()

	if err := s.reviews.ApplyReview(review); err != nil {
		return nil, err
	}

	metrics.RecordJudgeReview()
	s.log.Info().
		Uint("debate_id", debateID).
		Uint("judge_model_id", review.JudgeModelID).
		Uint("auditor_model_id", review.AuditorModelID).
		Float64("overall", review.Overall).
		Msg("Judge review recorded")

	return review, nil
}

// AuditorBreakdown returns the per-auditor averages for a judge, so a high
// judge score can be separated from a lenient auditor.
func (s *Service) AuditorBreakdown(ctx context.Context, judgeModelID uint) ([]BreakdownRow, error) {
	stats, err := s.reviews.ListStatsByJudge(judgeModelID)
	if err != nil {
		return nil, err
	}

	rows := make([]BreakdownRow, 0, len(stats))
	for _, st := range stats {
		row := BreakdownRow{
			AuditorModelID: st.AuditorModelID,
			ReviewCount:    st.ReviewCount,
			AvgScore:       st.AvgScore(),
		}
		// Missing auditor records degrade to an empty name, not an error.
		if auditor, err := s.modelsR.GetByID(st.AuditorModelID); err == nil {
			row.AuditorName = auditor.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}
