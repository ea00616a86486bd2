// Package models defines the persistence models for the debate arena core.
package models

import (
	"time"

	"github.com/debatearena/arena/pkg/slug"
)

// DefaultEloRating is the rating assigned to a model before its first debate.
const DefaultEloRating = 1500.0

// Model represents a participant. Whether it acts as debater, judge or
// auditor is contextual per debate, not a property of the record.
type Model struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"uniqueIndex;not null;size:255" json:"name"`
	Provider  string `gorm:"size:100" json:"provider"`
	EloRating float64 `gorm:"not null;default:1500" json:"elo_rating"`

	DebatesWon  int `gorm:"not null;default:0" json:"debates_won"`
	DebatesLost int `gorm:"not null;default:0" json:"debates_lost"`

	// Judge quality is kept as an exact running sum and count so the average
	// never accumulates incremental-averaging drift.
	JudgeScoreSum float64 `gorm:"not null;default:0" json:"-"`
	TimesJudged   int     `gorm:"not null;default:0" json:"times_judged"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Model.
func (Model) TableName() string {
	return "models"
}

// Slug returns the model's URL slug. Slugs are recomputed from the name on
// every use, never stored, so client and server cannot drift.
func (m *Model) Slug() string {
	return slug.Make(m.Name)
}

// AvgJudgeScore returns the exact mean of all review overalls received as a
// judge, or nil if the model has never been judged.
func (m *Model) AvgJudgeScore() *float64 {
	if m.TimesJudged == 0 {
		return nil
	}
	avg := m.JudgeScoreSum / float64(m.TimesJudged)
	return &avg
}

// WinRate returns wins/(wins+losses), or nil if the model has no decided
// debates. Ties count toward neither side.
func (m *Model) WinRate() *float64 {
	total := m.DebatesWon + m.DebatesLost
	if total == 0 {
		return nil
	}
	rate := float64(m.DebatesWon) / float64(total)
	return &rate
}
