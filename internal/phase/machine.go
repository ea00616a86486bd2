// Package phase implements the debate lifecycle state machine.
//
// A debate moves through a fixed chain with no skipping or reordering:
//
//	scheduled → in_progress{opening → rebuttal → cross_examination → closing}
//	          → judgment → audit → completed
//
// cancelled is terminal and reachable from any non-terminal state.
package phase

import (
	"github.com/debatearena/arena/internal/apperr"
)

// Status is a debate's lifecycle state.
type Status string

// Lifecycle states, in required order.
const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusJudgment   Status = "judgment"
	StatusAudit      Status = "audit"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Phase is a sub-phase of the in_progress state.
type Phase string

// Main debate phases, in speaking order.
const (
	PhaseOpening          Phase = "opening"
	PhaseRebuttal         Phase = "rebuttal"
	PhaseCrossExamination Phase = "cross_examination"
	PhaseClosing          Phase = "closing"
)

// MainDebatePhases lists the sub-phases every debate must pass through, in
// order. Each must produce at least one transcript entry for both sides
// before judgment may begin.
var MainDebatePhases = []Phase{
	PhaseOpening,
	PhaseRebuttal,
	PhaseCrossExamination,
	PhaseClosing,
}

var statusOrder = []Status{
	StatusScheduled,
	StatusInProgress,
	StatusJudgment,
	StatusAudit,
	StatusCompleted,
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	if s == StatusCancelled {
		return true
	}
	for _, o := range statusOrder {
		if o == s {
			return true
		}
	}
	return false
}

// ValidPhase reports whether p is a main debate phase.
func ValidPhase(p Phase) bool {
	for _, m := range MainDebatePhases {
		if m == p {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Next returns the state that follows s in the lifecycle chain. ok is false
// for terminal and unknown states.
func Next(s Status) (next Status, ok bool) {
	for i, o := range statusOrder {
		if o == s && i+1 < len(statusOrder) {
			return statusOrder[i+1], true
		}
	}
	return "", false
}

// NextPhase returns the sub-phase that follows p. ok is false after closing.
func NextPhase(p Phase) (next Phase, ok bool) {
	for i, m := range MainDebatePhases {
		if m == p && i+1 < len(MainDebatePhases) {
			return MainDebatePhases[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether from → to is a legal single step. Every
// non-terminal state may step to cancelled.
func CanTransition(from, to Status) bool {
	if Terminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := Next(from)
	return ok && next == to
}

// Coverage records which positions produced at least one transcript entry in
// a main phase.
type Coverage struct {
	Pro bool
	Con bool
}

// CheckJudgmentEntry enforces the judgment guard: every main phase must have
// produced at least one transcript entry for both pro and con.
func CheckJudgmentEntry(coverage map[Phase]Coverage) error {
	for _, p := range MainDebatePhases {
		c := coverage[p]
		if !c.Pro || !c.Con {
			return apperr.Invariant("phase %s missing transcript coverage (pro=%t con=%t)", p, c.Pro, c.Con)
		}
	}
	return nil
}

// CheckCompletedEntry enforces the completion guard: judgment must have
// produced both scores, and the winner must be the side with the strictly
// higher score (nil on a tie).
func CheckCompletedEntry(proScore, conScore *float64, winnerIsPro, winnerIsCon bool) error {
	if proScore == nil || conScore == nil {
		return apperr.Invariant("cannot complete debate without both scores")
	}
	switch {
	case *proScore > *conScore && !winnerIsPro:
		return apperr.Invariant("winner must be pro when pro_score is higher")
	case *conScore > *proScore && !winnerIsCon:
		return apperr.Invariant("winner must be con when con_score is higher")
	case *proScore == *conScore && (winnerIsPro || winnerIsCon):
		return apperr.Invariant("tie must leave winner unset")
	}
	return nil
}
