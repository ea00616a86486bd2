package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/phase"
)

// ErrRatingConflict signals that a model's live rating changed between the
// caller's read and the conditional update. The caller re-reads and retries.
var ErrRatingConflict = errors.New("model rating changed concurrently")

// DebateRepository handles debate, transcript and finalization database
// operations.
type DebateRepository struct {
	db *DB
}

// NewDebateRepository creates a new debate repository.
func NewDebateRepository(db *DB) *DebateRepository {
	return &DebateRepository{db: db}
}

// Create stores a new debate.
func (r *DebateRepository) Create(debate *models.Debate) error {
	if err := r.db.Create(debate).Error; err != nil {
		return fmt.Errorf("failed to create debate: %w", err)
	}
	return nil
}

// GetByID retrieves a debate with its topic and participants.
func (r *DebateRepository) GetByID(id uint) (*models.Debate, error) {
	var debate models.Debate
	err := r.db.Preload("Topic").
		Preload("ProModel").
		Preload("ConModel").
		Preload("JudgeModel").
		Preload("AuditorModel").
		First(&debate, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("debate %d not found", id)
		}
		return nil, fmt.Errorf("failed to get debate %d: %w", id, err)
	}
	return &debate, nil
}

// Transition moves a debate from one lifecycle state to another, applying
// extra column updates in the same statement. The from-status guard
// serializes concurrent transition attempts: exactly one wins, the rest see
// a conflict.
func (r *DebateRepository) Transition(id uint, from, to phase.Status, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": string(to)}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.Model(&models.Debate{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to transition debate %d to %s: %w", id, to, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return apperr.Conflict("debate %d is not in status %s", id, from)
	}
	return nil
}

// SetPhase advances the in-progress sub-phase with the same guard discipline.
func (r *DebateRepository) SetPhase(id uint, from, to phase.Phase) error {
	res := r.db.Model(&models.Debate{}).
		Where("id = ? AND status = ? AND current_phase = ?", id, string(phase.StatusInProgress), string(from)).
		Update("current_phase", string(to))
	if res.Error != nil {
		return fmt.Errorf("failed to advance debate %d phase: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return apperr.Conflict("debate %d is not in phase %s", id, from)
	}
	return nil
}

// maxSequenceRetries bounds the retry loop when concurrent writers collide on
// the (debate_id, sequence_order) uniqueness constraint.
const maxSequenceRetries = 3

// AddTranscriptEntry appends an utterance, allocating the next sequence_order
// within the debate. The unique constraint decides races between concurrent
// appends; the loser retries with a fresh sequence number.
func (r *DebateRepository) AddTranscriptEntry(entry *models.TranscriptEntry) error {
	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			var maxOrder int
			row := tx.Model(&models.TranscriptEntry{}).
				Where("debate_id = ?", entry.DebateID).
				Select("COALESCE(MAX(sequence_order), 0)")
			if err := row.Scan(&maxOrder).Error; err != nil {
				return fmt.Errorf("failed to read sequence order: %w", err)
			}
			entry.SequenceOrder = maxOrder + 1
			return tx.Create(entry).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			entry.ID = 0
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to add transcript entry: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to allocate sequence order for debate %d after %d attempts", entry.DebateID, maxSequenceRetries)
}

// ListTranscript returns a debate's transcript in replay order.
func (r *DebateRepository) ListTranscript(debateID uint) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	err := r.db.Where("debate_id = ?", debateID).
		Order("sequence_order ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript for debate %d: %w", debateID, err)
	}
	return entries, nil
}

// PhaseCoverage reports, per main debate phase, whether pro and con each
// produced at least one transcript entry. Input to the judgment-entry guard.
func (r *DebateRepository) PhaseCoverage(debateID uint) (map[phase.Phase]phase.Coverage, error) {
	type row struct {
		Phase    string
		Position *string
	}
	var rows []row
	err := r.db.Model(&models.TranscriptEntry{}).
		Select("DISTINCT phase, position").
		Where("debate_id = ? AND position IN ?", debateID, []string{models.PositionPro, models.PositionCon}).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read phase coverage for debate %d: %w", debateID, err)
	}

	coverage := make(map[phase.Phase]phase.Coverage, len(phase.MainDebatePhases))
	for _, rw := range rows {
		if rw.Position == nil {
			continue
		}
		c := coverage[phase.Phase(rw.Phase)]
		switch *rw.Position {
		case models.PositionPro:
			c.Pro = true
		case models.PositionCon:
			c.Con = true
		}
		coverage[phase.Phase(rw.Phase)] = c
	}
	return coverage, nil
}

// EloFinalization carries the one-time rating side effects of a completed
// debate. The before values double as optimistic-concurrency guards on the
// two model rows.
type EloFinalization struct {
	DebateID      uint
	ProModelID    uint
	ConModelID    uint
	WinnerModelID *uint
	ProBefore     float64
	ProAfter      float64
	ConBefore     float64
	ConAfter      float64
}

// ApplyFinalization commits a finalization atomically: the debate's Elo
// snapshots, both model ratings and the win/loss counters all change in one
// transaction or not at all.
//
// Two independent compare-and-set guards serialize the concurrency cases:
// the null check on elo_after makes the terminal transition exactly-once
// (a second attempt sees a conflict), and the elo_rating equality checks
// detect a model whose rating moved under us because another debate's
// finalization raced this one - that case returns ErrRatingConflict and the
// caller recomputes from fresh reads.
func (r *DebateRepository) ApplyFinalization(f EloFinalization) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Debate{}).
			Where("id = ? AND pro_elo_after IS NULL AND con_elo_after IS NULL", f.DebateID).
			Updates(map[string]interface{}{
				"pro_elo_before": f.ProBefore,
				"pro_elo_after":  f.ProAfter,
				"con_elo_before": f.ConBefore,
				"con_elo_after":  f.ConAfter,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to snapshot debate %d: %w", f.DebateID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("debate %d already finalized", f.DebateID)
		}

		proWon := f.WinnerModelID != nil && *f.WinnerModelID == f.ProModelID
		conWon := f.WinnerModelID != nil && *f.WinnerModelID == f.ConModelID

		if err := applyRating(tx, f.ProModelID, f.ProBefore, f.ProAfter, proWon, conWon); err != nil {
			return err
		}
		if err := applyRating(tx, f.ConModelID, f.ConBefore, f.ConAfter, conWon, proWon); err != nil {
			return err
		}
		return nil
	})
}

// applyRating writes one model's new rating guarded on the rating the caller
// read. The exact float comparison is intentional: the guard value came from
// this same column unmodified, so inequality means a concurrent writer.
func applyRating(tx *gorm.DB, modelID uint, before, after float64, won, lost bool) error {
	updates := map[string]interface{}{"elo_rating": after}
	if won {
		updates["debates_won"] = gorm.Expr("debates_won + 1")
	}
	if lost {
		updates["debates_lost"] = gorm.Expr("debates_lost + 1")
	}

	res := tx.Model(&models.Model{}).
		Where("id = ? AND elo_rating = ?", modelID, before).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update rating for model %d: %w", modelID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRatingConflict
	}
	return nil
}

// ListFinalized returns finalized debates in completion order. Both snapshots
// are written in one transaction, so any debate visible here carries a
// consistent pair.
func (r *DebateRepository) ListFinalized() ([]models.Debate, error) {
	var debates []models.Debate
	err := r.db.Where("status = ? AND pro_elo_after IS NOT NULL AND con_elo_after IS NOT NULL", string(phase.StatusCompleted)).
		Order("completed_at ASC, id ASC").
		Find(&debates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized debates: %w", err)
	}
	return debates, nil
}

// ListFinalizedByModel returns a model's finalized debates in chronological
// order, for Elo history and head-to-head views.
func (r *DebateRepository) ListFinalizedByModel(modelID uint) ([]models.Debate, error) {
	var debates []models.Debate
	err := r.db.Where("(pro_model_id = ? OR con_model_id = ?)", modelID, modelID).
		Where("status = ? AND pro_elo_after IS NOT NULL AND con_elo_after IS NOT NULL", string(phase.StatusCompleted)).
		Order("completed_at ASC, id ASC").
		Find(&debates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized debates for model %d: %w", modelID, err)
	}
	return debates, nil
}

// CountJudgedByModel counts finalized debates where the model sat as judge.
func (r *DebateRepository) CountJudgedByModel(modelID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Debate{}).
		Where("judge_model_id = ? AND status = ?", modelID, string(phase.StatusCompleted)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count judged debates for model %d: %w", modelID, err)
	}
	return count, nil
}
