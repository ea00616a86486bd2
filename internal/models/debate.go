package models

import (
	"time"
)

// Transcript positions.
const (
	PositionPro     = "pro"
	PositionCon     = "con"
	PositionJudge   = "judge"
	PositionAuditor = "auditor"
)

// Debate is one scheduled or completed contest between two models.
type Debate struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PublicID string `gorm:"size:36;uniqueIndex;not null" json:"public_id"`

	TopicID uint  `gorm:"not null;index" json:"topic_id"`
	Topic   Topic `gorm:"foreignKey:TopicID" json:"topic,omitempty"`

	ProModelID     uint  `gorm:"not null;index" json:"pro_model_id"`
	ProModel       Model `gorm:"foreignKey:ProModelID" json:"pro_model,omitempty"`
	ConModelID     uint  `gorm:"not null;index" json:"con_model_id"`
	ConModel       Model `gorm:"foreignKey:ConModelID" json:"con_model,omitempty"`
	JudgeModelID   uint  `gorm:"not null;index" json:"judge_model_id"`
	JudgeModel     Model `gorm:"foreignKey:JudgeModelID" json:"judge_model,omitempty"`
	AuditorModelID uint  `gorm:"not null;index" json:"auditor_model_id"`
	AuditorModel   Model `gorm:"foreignKey:AuditorModelID" json:"auditor_model,omitempty"`

	// Nil until judged. Stays nil on a tie: a tie is a real outcome, not a
	// default to either side.
	WinnerModelID *uint `gorm:"index" json:"winner_model_id"`

	ProScore *float64 `json:"pro_score"`
	ConScore *float64 `json:"con_score"`

	Status       string  `gorm:"size:20;not null;index" json:"status"`
	CurrentPhase *string `gorm:"size:30" json:"current_phase,omitempty"`

	// The judge was not shown model identities.
	IsBlinded bool `gorm:"not null;default:false" json:"is_blinded"`

	ScheduledAt time.Time  `gorm:"not null" json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Elo snapshots captured at the instant the rating engine applies its
	// update. Immutable afterward; history is rebuilt from these, never by
	// re-running the formula.
	ProEloBefore *float64 `json:"pro_elo_before"`
	ProEloAfter  *float64 `json:"pro_elo_after"`
	ConEloBefore *float64 `json:"con_elo_before"`
	ConEloAfter  *float64 `json:"con_elo_after"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Debate.
func (Debate) TableName() string {
	return "debates"
}

// Finalized reports whether rating side effects have been applied. The
// non-null elo_after snapshots are the finalization flag.
func (d *Debate) Finalized() bool {
	return d.ProEloAfter != nil && d.ConEloAfter != nil
}

// Tied reports whether the debate was judged a tie.
func (d *Debate) Tied() bool {
	return d.ProScore != nil && d.ConScore != nil && *d.ProScore == *d.ConScore
}

// TranscriptEntry is one utterance in a debate. SequenceOrder is unique per
// debate and defines replay order.
type TranscriptEntry struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	DebateID uint `gorm:"not null;uniqueIndex:ux_transcript_order,priority:1" json:"debate_id"`

	Phase    string  `gorm:"size:30;not null" json:"phase"`
	Position *string `gorm:"size:10" json:"position"`

	SpeakerModelID *uint  `gorm:"index" json:"speaker_model_id"`
	Content        string `gorm:"type:text;not null" json:"content"`
	WordCount      int    `gorm:"not null;default:0" json:"word_count"`

	SequenceOrder int `gorm:"not null;uniqueIndex:ux_transcript_order,priority:2" json:"sequence_order"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for TranscriptEntry.
func (TranscriptEntry) TableName() string {
	return "transcript_entries"
}
