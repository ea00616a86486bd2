package models

import (
	"time"
)

// Debate vote sides.
const (
	VoteSidePro = "pro"
	VoteSideCon = "con"
)

// TopicVote is one ledger row binding a voter fingerprint to a topic. Rows
// are append-only; the composite unique index is what enforces one vote per
// (topic, voter) under concurrency.
type TopicVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TopicID   uint      `gorm:"not null;uniqueIndex:ux_topic_voter,priority:1" json:"topic_id"`
	VoterHash string    `gorm:"size:32;not null;uniqueIndex:ux_topic_voter,priority:2" json:"voter_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for TopicVote.
func (TopicVote) TableName() string {
	return "topic_votes"
}

// DebateVote is one ledger row binding a voter fingerprint to a side of a
// debate. A voter gets one row per debate regardless of side, so switching
// sides is rejected rather than overwritten.
type DebateVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DebateID  uint      `gorm:"not null;uniqueIndex:ux_debate_voter,priority:1" json:"debate_id"`
	VoterHash string    `gorm:"size:32;not null;uniqueIndex:ux_debate_voter,priority:2" json:"voter_hash"`
	Side      string    `gorm:"size:10;not null" json:"side"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for DebateVote.
func (DebateVote) TableName() string {
	return "debate_votes"
}
