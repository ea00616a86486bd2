package models

import (
	"time"
)

// Topic status constants.
const (
	TopicStatusPending  = "pending"
	TopicStatusApproved = "approved"
	TopicStatusRejected = "rejected"
)

// Topic is a debate proposal. Approved topics become schedulable.
type Topic struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PublicID string `gorm:"size:36;uniqueIndex;not null" json:"public_id"`
	Title    string `gorm:"type:text;not null" json:"title"`

	// Two-level taxonomy. Subdomain serializes as "category" because older
	// clients still read the flat field.
	Domain    string `gorm:"size:100" json:"domain"`
	Subdomain string `gorm:"size:100" json:"category"`

	Source string `gorm:"size:255" json:"source"`

	// Voter fingerprint of the submitter; nil for anonymous submissions.
	SubmittedBy *string `gorm:"size:32" json:"submitted_by,omitempty"`

	VoteCount int    `gorm:"not null;default:0" json:"vote_count"`
	Status    string `gorm:"size:20;not null;default:pending;index" json:"status"`

	// Set once the topic has produced a debate.
	DebateID *uint `json:"debate_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Topic.
func (Topic) TableName() string {
	return "topics"
}

// Debatable reports whether the topic can be scheduled into a debate.
func (t *Topic) Debatable() bool {
	return t.Status == TopicStatusApproved && t.DebateID == nil
}
