package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debatearena/arena/internal/models"
)

// VoteRepository handles the append-only vote ledger. Rows are inserted,
// counted and never mutated; the composite unique indexes are what make
// concurrent duplicate casts resolve to exactly one winner.
type VoteRepository struct {
	db *DB
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// CastTopicVote inserts a vote row for (topicID, voterHash) and increments
// the topic's vote counter in the same transaction. A duplicate pair is not
// an error: the cast reports applied=false and the counter is untouched.
func (r *VoteRepository) CastTopicVote(topicID uint, voterHash string) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		vote := models.TopicVote{TopicID: topicID, VoterHash: voterHash}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		return tx.Model(&models.Topic{}).
			Where("id = ?", topicID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cast topic vote: %w", err)
	}
	return true, nil
}

// CastDebateVote inserts a vote row for (debateID, voterHash). The uniqueness
// key deliberately omits the side: a voter who voted pro cannot also vote con,
// and a repeat on either side reports applied=false.
func (r *VoteRepository) CastDebateVote(debateID uint, side, voterHash string) (bool, error) {
	vote := models.DebateVote{DebateID: debateID, VoterHash: voterHash, Side: side}
	err := r.db.Create(&vote).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cast debate vote: %w", err)
	}
	return true, nil
}

// DebateVoteCounts counts ledger rows by side for one debate.
func (r *VoteRepository) DebateVoteCounts(debateID uint) (pro, con int64, err error) {
	type row struct {
		Side  string
		Count int64
	}
	var rows []row
	err = r.db.Model(&models.DebateVote{}).
		Select("side, COUNT(*) as count").
		Where("debate_id = ?", debateID).
		Group("side").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count votes for debate %d: %w", debateID, err)
	}

	for _, rw := range rows {
		switch rw.Side {
		case models.VoteSidePro:
			pro = rw.Count
		case models.VoteSideCon:
			con = rw.Count
		}
	}
	return pro, con, nil
}
