package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
)

// TopicRepository handles topic database operations.
type TopicRepository struct {
	db *DB
}

// NewTopicRepository creates a new topic repository.
func NewTopicRepository(db *DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// Create stores a new topic proposal.
func (r *TopicRepository) Create(topic *models.Topic) error {
	if err := r.db.Create(topic).Error; err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

// GetByID retrieves a topic by ID.
func (r *TopicRepository) GetByID(id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.First(&topic, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("topic %d not found", id)
		}
		return nil, fmt.Errorf("failed to get topic %d: %w", id, err)
	}
	return &topic, nil
}

// ListByStatus retrieves topics in a status, most-voted first.
func (r *TopicRepository) ListByStatus(status string, limit int) ([]models.Topic, error) {
	query := r.db.Where("status = ?", status).
		Order("vote_count DESC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var topics []models.Topic
	if err := query.Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("failed to list topics by status %s: %w", status, err)
	}
	return topics, nil
}

// UpdateStatus moves a topic from one moderation status to another. The
// from-status guard makes concurrent moderation decisions race-safe: the
// loser sees a conflict instead of silently overwriting.
func (r *TopicRepository) UpdateStatus(id uint, from, to string) error {
	res := r.db.Model(&models.Topic{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update topic %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish missing from already-moderated for the caller.
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return apperr.Conflict("topic %d is not in status %s", id, from)
	}
	return nil
}

// LinkDebate records the debate a topic produced. A topic produces at most
// one debate; the null guard enforces it.
func (r *TopicRepository) LinkDebate(topicID, debateID uint) error {
	res := r.db.Model(&models.Topic{}).
		Where("id = ? AND debate_id IS NULL", topicID).
		Update("debate_id", debateID)
	if res.Error != nil {
		return fmt.Errorf("failed to link topic %d to debate %d: %w", topicID, debateID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(topicID); err != nil {
			return err
		}
		return apperr.Conflict("topic %d already produced a debate", topicID)
	}
	return nil
}
