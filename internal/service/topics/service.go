// Package topics handles topic intake and moderation.
package topics

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/pkg/logger"
)

const maxTitleLen = 500

// TopicRepository interface for topic persistence.
type TopicRepository interface {
	Create(topic *models.Topic) error
	GetByID(id uint) (*models.Topic, error)
	ListByStatus(status string, limit int) ([]models.Topic, error)
	UpdateStatus(id uint, from, to string) error
}

// SubmitInput is a topic proposal.
type SubmitInput struct {
	Title     string `json:"title"`
	Domain    string `json:"domain"`
	Subdomain string `json:"category"`
	Source    string `json:"source"`
	// Fingerprint of the submitter; empty for anonymous submissions.
	SubmittedBy string `json:"-"`
}

// Service manages the topic backlog.
type Service struct {
	topics TopicRepository
	log    *logger.Logger
}

// NewService creates a topics service with a concrete repository.
func NewService(topicRepo *repository.TopicRepository, log *logger.Logger) *Service {
	return &Service{topics: topicRepo, log: log}
}

// NewServiceWithInterfaces creates a topics service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(topics TopicRepository, log *logger.Logger) *Service {
	return &Service{topics: topics, log: log}
}

// Submit records a topic proposal in pending status.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Topic, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("topic title must not be empty")
	}
	if len(title) > maxTitleLen {
		return nil, apperr.Validation("topic title must not exceed %d characters", maxTitleLen)
	}

	topic := &models.Topic{
		PublicID:  uuid.NewString(),
		Title:     title,
		Domain:    strings.TrimSpace(in.Domain),
		Subdomain: strings.TrimSpace(in.Subdomain),
		Source:    strings.TrimSpace(in.Source),
		Status:    models.TopicStatusPending,
	}
	if in.SubmittedBy != "" {
		submitter := in.SubmittedBy
		topic.SubmittedBy = &submitter
	}

	if err := s.topics.Create(topic); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("topic_id", topic.ID).
		Str("public_id", topic.PublicID).
		Msg("Topic submitted")
	return topic, nil
}

// Moderate approves or rejects a pending topic. Only pending topics can be
// moderated; a repeat decision sees a conflict.
func (s *Service) Moderate(ctx context.Context, topicID uint, approve bool) (*models.Topic, error) {
	to := models.TopicStatusRejected
	if approve {
		to = models.TopicStatusApproved
	}

	if err := s.topics.UpdateStatus(topicID, models.TopicStatusPending, to); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("topic_id", topicID).
		Str("status", to).
		Msg("Topic moderated")
	return s.topics.GetByID(topicID)
}

// List returns topics in a status, most-voted first. limit <= 0 means all.
func (s *Service) List(ctx context.Context, status string, limit int) ([]models.Topic, error) {
	switch status {
	case models.TopicStatusPending, models.TopicStatusApproved, models.TopicStatusRejected:
	default:
		return nil, apperr.Validation("unknown topic status %q", status)
	}
	return s.topics.ListByStatus(status, limit)
}

// Get returns a topic by ID.
func (s *Service) Get(ctx context.Context, topicID uint) (*models.Topic, error) {
	return s.topics.GetByID(topicID)
}
