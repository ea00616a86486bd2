package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
)

// ReviewRepository handles auditor reviews and the judge quality fold.
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ApplyReview records an auditor review and folds it into the judge's running
// quality score atomically: the review row, the judge's sum/count and the
// per-auditor breakdown all commit together or not at all. The unique index
// on debate_id makes the fold exactly-once per debate.
func (r *ReviewRepository) ApplyReview(review *models.JudgeReview) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("debate %d already has a judge review", review.DebateID)
			}
			return fmt.Errorf("failed to create judge review: %w", err)
		}

		res := tx.Model(&models.Model{}).
			Where("id = ?", review.JudgeModelID).
			Updates(map[string]interface{}{
				"judge_score_sum": gorm.Expr("judge_score_sum + ?", review.Overall),
				"times_judged":    gorm.Expr("times_judged + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to fold judge score for model %d: %w", review.JudgeModelID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("judge model %d not found", review.JudgeModelID)
		}

		stat := models.JudgeAuditorStat{
			JudgeModelID:   review.JudgeModelID,
			AuditorModelID: review.AuditorModelID,
			ReviewCount:    1,
			ScoreSum:       review.Overall,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "judge_model_id"}, {Name: "auditor_model_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"review_count": gorm.Expr("judge_auditor_stats.review_count + 1"),
				"score_sum":    gorm.Expr("judge_auditor_stats.score_sum + ?", review.Overall),
			}),
		}).Create(&stat).Error
		if err != nil {
			return fmt.Errorf("failed to upsert auditor stat: %w", err)
		}
		return nil
	})
}

// GetByDebate retrieves the review for a debate, if any.
func (r *ReviewRepository) GetByDebate(debateID uint) (*models.JudgeReview, error) {
	var review models.JudgeReview
	if err := r.db.Where("debate_id = ?", debateID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no judge review for debate %d", debateID)
		}
		return nil, fmt.Errorf("failed to get review for debate %d: %w", debateID, err)
	}
	return &review, nil
}

// ListStatsByJudge returns the per-auditor breakdown for a judge.
func (r *ReviewRepository) ListStatsByJudge(judgeModelID uint) ([]models.JudgeAuditorStat, error) {
	var stats []models.JudgeAuditorStat
	err := r.db.Where("judge_model_id = ?", judgeModelID).
		Order("auditor_model_id ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list auditor stats for judge %d: %w", judgeModelID, err)
	}
	return stats, nil
}
