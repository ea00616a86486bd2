package models

import (
	"time"
)

// Rubric bounds for judge review criteria.
const (
	ReviewScoreMin = 1
	ReviewScoreMax = 10
)

// JudgeReview is the auditor's assessment of the primary judge's ruling.
// Produced at most once per completed, judged debate.
type JudgeReview struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	DebateID uint `gorm:"not null;uniqueIndex" json:"debate_id"`

	JudgeModelID   uint `gorm:"not null;index" json:"judge_model_id"`
	AuditorModelID uint `gorm:"not null;index" json:"auditor_model_id"`

	Accuracy         int `gorm:"not null" json:"accuracy"`
	Fairness         int `gorm:"not null" json:"fairness"`
	Thoroughness     int `gorm:"not null" json:"thoroughness"`
	ReasoningQuality int `gorm:"not null" json:"reasoning_quality"`

	// Arithmetic mean of the four criteria.
	Overall float64 `gorm:"not null" json:"overall"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for JudgeReview.
func (JudgeReview) TableName() string {
	return "judge_reviews"
}

// ComputeOverall returns the arithmetic mean of the four criteria.
func (r *JudgeReview) ComputeOverall() float64 {
	return float64(r.Accuracy+r.Fairness+r.Thoroughness+r.ReasoningQuality) / 4.0
}

// JudgeAuditorStat keeps the exact per-auditor running sum of overall scores
// assigned to a judge, so "judge is good" can be separated from "this auditor
// is lenient".
type JudgeAuditorStat struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	JudgeModelID   uint `gorm:"not null;uniqueIndex:ux_judge_auditor,priority:1" json:"judge_model_id"`
	AuditorModelID uint `gorm:"not null;uniqueIndex:ux_judge_auditor,priority:2" json:"auditor_model_id"`

	ReviewCount int     `gorm:"not null;default:0" json:"review_count"`
	ScoreSum    float64 `gorm:"not null;default:0" json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for JudgeAuditorStat.
func (JudgeAuditorStat) TableName() string {
	return "judge_auditor_stats"
}

// AvgScore returns the exact mean score this auditor has assigned to the
// judge, or 0 when no reviews exist.
func (s *JudgeAuditorStat) AvgScore() float64 {
	if s.ReviewCount == 0 {
		return 0
	}
	return s.ScoreSum / float64(s.ReviewCount)
}
