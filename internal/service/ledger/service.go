// Package ledger implements the community vote ledger for topics and debates.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/cache"
	"github.com/debatearena/arena/internal/metrics"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/repository"
	"github.com/debatearena/arena/pkg/logger"
)

// VoteRepository interface for ledger writes and counts.
type VoteRepository interface {
	CastTopicVote(topicID uint, voterHash string) (bool, error)
	CastDebateVote(debateID uint, side, voterHash string) (bool, error)
	DebateVoteCounts(debateID uint) (pro, con int64, err error)
}

// TopicRepository interface for topic existence checks.
type TopicRepository interface {
	GetByID(id uint) (*models.Topic, error)
}

// DebateRepository interface for debate lookups.
type DebateRepository interface {
	GetByID(id uint) (*models.Debate, error)
}

// VoteTally is the aggregated community vote view for one debate.
type VoteTally struct {
	DebateID      uint    `json:"debate_id"`
	TotalVotes    int64   `json:"total_votes"`
	ProVotes      int64   `json:"pro_votes"`
	ConVotes      int64   `json:"con_votes"`
	ProPercentage float64 `json:"pro_percentage"`
	ConPercentage float64 `json:"con_percentage"`
	JudgeWinnerID *uint   `json:"judge_winner_id"`
	// Fraction of voters who picked the judge's winner. Nil when the debate
	// has no winner yet (including ties) or when nobody has voted.
	AgreementWithJudge *float64 `json:"agreement_with_judge"`
}

// Service enforces the one-vote-per-(subject, voter) discipline and computes
// tallies.
type Service struct {
	votes    VoteRepository
	topics   TopicRepository
	debates  DebateRepository
	cache    cache.Cache
	tallyTTL time.Duration
	log      *logger.Logger
}

// NewService creates a ledger service with concrete repository types. cache
// may be nil to disable tally caching.
func NewService(voteRepo *repository.VoteRepository, topicRepo *repository.TopicRepository, debateRepo *repository.DebateRepository, c cache.Cache, tallyTTL time.Duration, log *logger.Logger) *Service {
	return &Service{votes: voteRepo, topics: topicRepo, debates: debateRepo, cache: c, tallyTTL: tallyTTL, log: log}
}

// NewServiceWithInterfaces creates a ledger service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(votes VoteRepository, topics TopicRepository, debates DebateRepository, c cache.Cache, tallyTTL time.Duration, log *logger.Logger) *Service {
	return &Service{votes: votes, topics: topics, debates: debates, cache: c, tallyTTL: tallyTTL, log: log}
}

// CastTopicVote records one vote for a topic. A repeat cast by the same
// voter is idempotent: applied=false, no error, counter unchanged.
func (s *Service) CastTopicVote(ctx context.Context, topicID uint, voterHash string) (bool, error) {
	if voterHash == "" {
		return false, apperr.Validation("voter fingerprint is required")
	}
	if _, err := s.topics.GetByID(topicID); err != nil {
		return false, err
	}

	applied, err := s.votes.CastTopicVote(topicID, voterHash)
	if err != nil {
		return false, err
	}

	metrics.RecordVoteCast("topic", applied)
	s.log.Debug().
		Uint("topic_id", topicID).
		Bool("applied", applied).
		Msg("Topic vote cast")
	return applied, nil
}

// CastDebateVote records one vote for a side of a debate. A voter gets one
// vote per debate total: a second cast on either side reports applied=false.
func (s *Service) CastDebateVote(ctx context.Context, debateID uint, side, voterHash string) (bool, error) {
	if voterHash == "" {
		return false, apperr.Validation("voter fingerprint is required")
	}
	if side != models.VoteSidePro && side != models.VoteSideCon {
		return false, apperr.Validation("side must be %q or %q, got %q", models.VoteSidePro, models.VoteSideCon, side)
	}
	if _, err := s.debates.GetByID(debateID); err != nil {
		return false, err
	}

	applied, err := s.votes.CastDebateVote(debateID, side, voterHash)
	if err != nil {
		return false, err
	}

	metrics.RecordVoteCast("debate", applied)
	if applied {
		s.invalidateTally(ctx, debateID)
	}
	s.log.Debug().
		Uint("debate_id", debateID).
		Str("side", side).
		Bool("applied", applied).
		Msg("Debate vote cast")
	return applied, nil
}

// Tally counts ledger rows by side and computes percentages and judge
// agreement. Pure read; zero votes degrade to 0% on both sides rather than
// erroring.
func (s *Service) Tally(ctx context.Context, debateID uint) (*VoteTally, error) {
	if cached := s.cachedTally(ctx, debateID); cached != nil {
		return cached, nil
	}

	debate, err := s.debates.GetByID(debateID)
	if err != nil {
		return nil, err
	}

	pro, con, err := s.votes.DebateVoteCounts(debateID)
	if err != nil {
		return nil, err
	}

	tally := &VoteTally{
		DebateID:      debateID,
		TotalVotes:    pro + con,
		ProVotes:      pro,
		ConVotes:      con,
		JudgeWinnerID: debate.WinnerModelID,
	}
	if tally.TotalVotes > 0 {
		tally.ProPercentage = float64(pro) / float64(tally.TotalVotes) * 100.0
		tally.ConPercentage = float64(con) / float64(tally.TotalVotes) * 100.0
	}

	if debate.WinnerModelID != nil && tally.TotalVotes > 0 {
		winnerVotes := pro
		if *debate.WinnerModelID == debate.ConModelID {
			winnerVotes = con
		}
		agreement := float64(winnerVotes) / float64(tally.TotalVotes)
		tally.AgreementWithJudge = &agreement
	}

	s.storeTally(ctx, tally)
	return tally, nil
}

func tallyKey(debateID uint) string {
	return fmt.Sprintf("tally:%d", debateID)
}

func (s *Service) cachedTally(ctx context.Context, debateID uint) *VoteTally {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, tallyKey(debateID))
	if err != nil || raw == "" {
		return nil
	}
	var tally VoteTally
	if err := json.Unmarshal([]byte(raw), &tally); err != nil {
		return nil
	}
	return &tally
}

func (s *Service) storeTally(ctx context.Context, tally *VoteTally) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(tally)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, tallyKey(tally.DebateID), string(raw), s.tallyTTL); err != nil {
		s.log.Warn().Err(err).Uint("debate_id", tally.DebateID).Msg("Failed to cache tally")
	}
}

func (s *Service) invalidateTally(ctx context.Context, debateID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, tallyKey(debateID)); err != nil {
		s.log.Warn().Err(err).Uint("debate_id", debateID).Msg("Failed to invalidate tally cache")
	}
}
