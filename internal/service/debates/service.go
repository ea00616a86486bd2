// Package debates drives a debate through its lifecycle, from scheduling an
// approved topic to the audited, rated terminal state.
package debates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/phase"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/internal/service/judging"
	"github.com/debatearena/arena/internal/service/rating"
	"github.com/debatearena/arena/pkg/logger"
)

// Judgment score bounds.
const (
	ScoreMin = 0.0
	ScoreMax = 10.0
)

// DebateRepository interface for debate lifecycle persistence.
type DebateRepository interface {
	Create(debate *models.Debate) error
	GetByID(id uint) (*models.Debate, error)
	Transition(id uint, from, to phase.Status, extra map[string]interface{}) error
	SetPhase(id uint, from, to phase.Phase) error
	AddTranscriptEntry(entry *models.TranscriptEntry) error
	ListTranscript(debateID uint) ([]models.TranscriptEntry, error)
	PhaseCoverage(debateID uint) (map[phase.Phase]phase.Coverage, error)
}

// TopicRepository interface for topic scheduling operations.
type TopicRepository interface {
	GetByID(id uint) (*models.Topic, error)
	LinkDebate(topicID, debateID uint) error
}

// ModelRepository interface for participant checks.
type ModelRepository interface {
	GetByID(id uint) (*models.Model, error)
}

// Finalizer applies the one-time rating update after a debate completes.
type Finalizer interface {
	ApplyResult(ctx context.Context, debateID uint) (*rating.Result, error)
}

// Reviewer records the auditor's review of the judge.
type Reviewer interface {
	RecordReview(ctx context.Context, debateID uint, in judging.ReviewInput) (*models.JudgeReview, error)
}

// ScheduleInput names the topic and the four participants of a new debate.
type ScheduleInput struct {
	TopicID        uint       `json:"topic_id"`
	ProModelID     uint       `json:"pro_model_id"`
	ConModelID     uint       `json:"con_model_id"`
	JudgeModelID   uint       `json:"judge_model_id"`
	AuditorModelID uint       `json:"auditor_model_id"`
	IsBlinded      bool       `json:"is_blinded"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
}

// TranscriptInput is one utterance to append.
type TranscriptInput struct {
	Phase          string  `json:"phase"`
	Position       *string `json:"position"`
	SpeakerModelID *uint   `json:"speaker_model_id"`
	Content        string  `json:"content"`
}

// JudgmentInput carries the judge's verdict.
type JudgmentInput struct {
	ProScore float64 `json:"pro_score"`
	ConScore float64 `json:"con_score"`
}

// AuditOutcome bundles the side effects of a finished audit.
type AuditOutcome struct {
	Debate *models.Debate      `json:"debate"`
	Rating *rating.Result      `json:"rating"`
	Review *models.JudgeReview `json:"review"`
}

// Service orchestrates the debate lifecycle.
type Service struct {
	debates   DebateRepository
	topics    TopicRepository
	modelsR   ModelRepository
	finalizer Finalizer
	reviewer  Reviewer
	log       *logger.Logger
}

// NewService creates a debates service with concrete dependencies.
func NewService(debateRepo *repository.DebateRepository, topicRepo *repository.TopicRepository, modelRepo *repository.ModelRepository, finalizer *rating.Engine, reviewer *judging.Service, log *logger.Logger) *Service {
	return &Service{debates: debateRepo, topics: topicRepo, modelsR: modelRepo, finalizer: finalizer, reviewer: reviewer, log: log}
}

// NewServiceWithInterfaces creates a debates service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(debates DebateRepository, topics TopicRepository, modelsR ModelRepository, finalizer Finalizer, reviewer Reviewer, log *logger.Logger) *Service {
	return &Service{debates: debates, topics: topics, modelsR: modelsR, finalizer: finalizer, reviewer: reviewer, log: log}
}

// Schedule creates a debate from an approved topic and four distinct, active
// participants.
func (s *Service) Schedule(ctx context.Context, in ScheduleInput) (*models.Debate, error) {
	topic, err := s.topics.GetByID(in.TopicID)
	if err != nil {
		return nil, err
	}
	if !topic.Debatable() {
		if topic.DebateID != nil {
			return nil, apperr.Conflict("topic %d already produced a debate", topic.ID)
		}
		return nil, apperr.Validation("topic %d is not approved (status=%s)", topic.ID, topic.Status)
	}

	if err := s.checkParticipants(in); err != nil {
		return nil, err
	}

	scheduledAt := time.Now().UTC()
	if in.ScheduledAt != nil {
		scheduledAt = in.ScheduledAt.UTC()
	}

	debate := &models.Debate{
		PublicID:       uuid.NewString(),
		TopicID:        topic.ID,
		ProModelID:     in.ProModelID,
		ConModelID:     in.ConModelID,
		JudgeModelID:   in.JudgeModelID,
		AuditorModelID: in.AuditorModelID,
		IsBlinded:      in.IsBlinded,
		Status:         string(phase.StatusScheduled),
		ScheduledAt:    scheduledAt,
	}
	if err := s.debates.Create(debate); err != nil {
		return nil, err
	}
	if err := s.topics.LinkDebate(topic.ID, debate.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("debate_id", debate.ID).
		Str("public_id", debate.PublicID).
		Uint("topic_id", topic.ID).
		Msg("Debate scheduled")
	return debate, nil
}

// Start moves a scheduled debate into the opening phase.
func (s *Service) Start(ctx context.Context, debateID uint) (*models.Debate, error) {
	err := s.debates.Transition(debateID, phase.StatusScheduled, phase.StatusInProgress, map[string]interface{}{
		"current_phase": string(phase.PhaseOpening),
		"started_at":    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("debate_id", debateID).Msg("Debate started")
	return s.debates.GetByID(debateID)
}

// RecordTranscript appends one utterance to an in-progress debate. Entries
// are only accepted for the debate's current phase.
func (s *Service) RecordTranscript(ctx context.Context, debateID uint, in TranscriptInput) (*models.TranscriptEntry, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("transcript content must not be empty")
	}
	if !phase.ValidPhase(phase.Phase(in.Phase)) {
		return nil, apperr.Validation("unknown phase %q", in.Phase)
	}
	if in.Position != nil && !validPosition(*in.Position) {
		return nil, apperr.Validation("unknown position %q", *in.Position)
	}

	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}
	if debate.Status != string(phase.StatusInProgress) {
		return nil, apperr.Invariant("debate %d is not in progress (status=%s)", debateID, debate.Status)
	}
	if debate.CurrentPhase == nil || *debate.CurrentPhase != in.Phase {
		return nil, apperr.Validation("debate %d is not in phase %s", debateID, in.Phase)
	}

	entry := &models.TranscriptEntry{
		DebateID:       debateID,
		Phase:          in.Phase,
		Position:       in.Position,
		SpeakerModelID: in.SpeakerModelID,
		Content:        in.Content,
		WordCount:      len(strings.Fields(in.Content)),
	}
	if err := s.debates.AddTranscriptEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AdvancePhase steps an in-progress debate to its next sub-phase. Advancing
// past closing enters judgment, but only if every main phase produced
// transcript entries for both sides.
func (s *Service) AdvancePhase(ctx context.Context, debateID uint) (*models.Debate, error) {
	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}
	if debate.Status != string(phase.StatusInProgress) || debate.CurrentPhase == nil {
		return nil, apperr.Invariant("debate %d is not in progress (status=%s)", debateID, debate.Status)
	}

	current := phase.Phase(*debate.CurrentPhase)
	if next, ok := phase.NextPhase(current); ok {
		if err := s.debates.SetPhase(debateID, current, next); err != nil {
			return nil, err
		}
		s.log.Info().
			Uint("debate_id", debateID).
			Str("phase", string(next)).
			Msg("Debate phase advanced")
		return s.debates.GetByID(debateID)
	}

	// Past closing: the judgment guard decides.
	coverage, err := s.debates.PhaseCoverage(debateID)
	if err != nil {
		return nil, err
	}
	if err := phase.CheckJudgmentEntry(coverage); err != nil {
		return nil, err
	}

	err = s.debates.Transition(debateID, phase.StatusInProgress, phase.StatusJudgment, map[string]interface{}{
		"current_phase": nil,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("debate_id", debateID).Msg("Debate entered judgment")
	return s.debates.GetByID(debateID)
}

// SubmitJudgment records the judge's scores and the derived winner, moving
// the debate from judgment to audit. Equal scores are a tie and leave the
// winner unset.
func (s *Service) SubmitJudgment(ctx context.Context, debateID uint, in JudgmentInput) (*models.Debate, error) {
	if in.ProScore < ScoreMin || in.ProScore > ScoreMax {
		return nil, apperr.Validation("pro_score must be between %.0f and %.0f, got %g", ScoreMin, ScoreMax, in.ProScore)
	}
	if in.ConScore < ScoreMin || in.ConScore > ScoreMax {
		return nil, apperr.Validation("con_score must be between %.0f and %.0f, got %g", ScoreMin, ScoreMax, in.ConScore)
	}

	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}

	var winnerID *uint
	switch {
	case in.ProScore > in.ConScore:
		winnerID = &debate.ProModelID
	case in.ConScore > in.ProScore:
		winnerID = &debate.ConModelID
	}

	winnerIsPro := winnerID != nil && *winnerID == debate.ProModelID
	winnerIsCon := winnerID != nil && *winnerID == debate.ConModelID
	if err := phase.CheckCompletedEntry(&in.ProScore, &in.ConScore, winnerIsPro, winnerIsCon); err != nil {
		return nil, err
	}

	err = s.debates.Transition(debateID, phase.StatusJudgment, phase.StatusAudit, map[string]interface{}{
		"pro_score":       in.ProScore,
		"con_score":       in.ConScore,
		"winner_model_id": winnerID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("debate_id", debateID).
		Float64("pro_score", in.ProScore).
		Float64("con_score", in.ConScore).
		Msg("Judgment submitted")
	return s.debates.GetByID(debateID)
}

// SubmitAudit finishes the audit stage: the debate completes, the rating
// engine applies its exactly-once Elo update, and the auditor's review of the
// judge is recorded. The review is validated before any state changes, and a
// completed debate whose side effects were not applied yet can be resumed.
func (s *Service) SubmitAudit(ctx context.Context, debateID uint, review judging.ReviewInput) (*AuditOutcome, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}

	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}
	switch phase.Status(debate.Status) {
	case phase.StatusAudit:
		err := s.debates.Transition(debateID, phase.StatusAudit, phase.StatusCompleted, map[string]interface{}{
			"completed_at": time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
	case phase.StatusCompleted:
		// A prior attempt consumed the transition but failed before the side
		// effects landed. Fall through and apply what is still missing.
	default:
		return nil, apperr.Conflict("debate %d is not in status audit (status=%s)", debateID, debate.Status)
	}

	result, err := s.finalizer.ApplyResult(ctx, debateID)
	if err != nil && !apperr.IsConflict(err) {
		return nil, err
	}
	rec, err := s.reviewer.RecordReview(ctx, debateID, review)
	if err != nil {
		return nil, err
	}

	debate, err = s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("debate_id", debateID).Msg("Audit submitted, debate completed")
	return &AuditOutcome{Debate: debate, Rating: result, Review: rec}, nil
}

// Cancel terminates a debate from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, debateID uint) error {
	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return err
	}
	from := phase.Status(debate.Status)
	if phase.Terminal(from) {
		return apperr.Conflict("debate %d is already %s", debateID, debate.Status)
	}

	err = s.debates.Transition(debateID, from, phase.StatusCancelled, map[string]interface{}{
		"current_phase": nil,
	})
	if err != nil {
		return err
	}

	s.log.Info().Uint("debate_id", debateID).Str("from", debate.Status).Msg("Debate cancelled")
	return nil
}

// Get returns a debate with its participants.
func (s *Service) Get(ctx context.Context, debateID uint) (*models.Debate, error) {
	return s.debates.GetByID(debateID)
}

// Transcript returns a debate's transcript in replay order.
func (s *Service) Transcript(ctx context.Context, debateID uint) ([]models.TranscriptEntry, error) {
	if _, err := s.debates.GetByID(debateID); err != nil {
		return nil, err
	}
	return s.debates.ListTranscript(debateID)
}

func (s *Service) checkParticipants(in ScheduleInput) error {
	ids := []uint{in.ProModelID, in.ConModelID, in.JudgeModelID, in.AuditorModelID}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 {
			return apperr.Validation("all four participant model IDs are required")
		}
		if seen[id] {
			return apperr.Validation("participant roles must be held by distinct models (model %d repeats)", id)
		}
		seen[id] = true

		m, err := s.modelsR.GetByID(id)
		if err != nil {
			return err
		}
		if !m.IsActive {
			return apperr.Validation("model %q is not active", m.Name)
		}
	}
	return nil
}

func validPosition(p string) bool {
	switch p {
	case models.PositionPro, models.PositionCon, models.PositionJudge, models.PositionAuditor:
		return true
	}
	return false
}
