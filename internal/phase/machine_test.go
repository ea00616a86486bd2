package phase

import (
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"scheduled to in_progress", StatusScheduled, StatusInProgress, true},
		{"in_progress to judgment", StatusInProgress, StatusJudgment, true},
		{"judgment to audit", StatusJudgment, StatusAudit, true},
		{"audit to completed", StatusAudit, StatusCompleted, true},
		{"scheduled to judgment skips", StatusScheduled, StatusJudgment, false},
		{"in_progress to audit skips", StatusInProgress, StatusAudit, false},
		{"judgment back to in_progress", StatusJudgment, StatusInProgress, false},
		{"completed to anything", StatusCompleted, StatusJudgment, false},
		{"scheduled to cancelled", StatusScheduled, StatusCancelled, true},
		{"judgment to cancelled", StatusJudgment, StatusCancelled, true},
		{"audit to cancelled", StatusAudit, StatusCancelled, true},
		{"completed to cancelled", StatusCompleted, StatusCancelled, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
		{"cancelled to in_progress", StatusCancelled, StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNext(t *testing.T) {
	next, ok := Next(StatusScheduled)
	if !ok || next != StatusInProgress {
		t.Errorf("Next(scheduled) = %s, %v", next, ok)
	}

	if _, ok := Next(StatusCompleted); ok {
		t.Error("Next(completed) should not exist")
	}
	if _, ok := Next(StatusCancelled); ok {
		t.Error("Next(cancelled) should not exist")
	}
}

func TestNextPhase(t *testing.T) {
	order := []Phase{PhaseOpening, PhaseRebuttal, PhaseCrossExamination, PhaseClosing}
	for i := 0; i < len(order)-1; i++ {
		next, ok := NextPhase(order[i])
		if !ok || next != order[i+1] {
			t.Errorf("NextPhase(%s) = %s, %v; want %s", order[i], next, ok, order[i+1])
		}
	}

	if _, ok := NextPhase(PhaseClosing); ok {
		t.Error("NextPhase(closing) should not exist")
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StatusCompleted) || !Terminal(StatusCancelled) {
		t.Error("completed and cancelled must be terminal")
	}
	for _, s := range []Status{StatusScheduled, StatusInProgress, StatusJudgment, StatusAudit} {
		if Terminal(s) {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func fullCoverage() map[Phase]Coverage {
	coverage := make(map[Phase]Coverage)
	for _, p := range MainDebatePhases {
		coverage[p] = Coverage{Pro: true, Con: true}
	}
	return coverage
}

func TestCheckJudgmentEntry(t *testing.T) {
	if err := CheckJudgmentEntry(fullCoverage()); err != nil {
		t.Errorf("full coverage should pass, got %v", err)
	}

	missing := fullCoverage()
	missing[PhaseRebuttal] = Coverage{Pro: true, Con: false}
	if err := CheckJudgmentEntry(missing); err == nil {
		t.Error("missing con coverage in rebuttal should fail")
	}

	if err := CheckJudgmentEntry(map[Phase]Coverage{}); err == nil {
		t.Error("empty coverage should fail")
	}
}

func TestCheckCompletedEntry(t *testing.T) {
	pro := 8.0
	con := 6.0
	tie := 7.0

	if err := CheckCompletedEntry(&pro, &con, true, false); err != nil {
		t.Errorf("higher pro with pro winner should pass, got %v", err)
	}
	if err := CheckCompletedEntry(&pro, &con, false, true); err == nil {
		t.Error("higher pro with con winner should fail")
	}
	if err := CheckCompletedEntry(&con, &pro, false, true); err != nil {
		t.Errorf("higher con with con winner should pass, got %v", err)
	}
	if err := CheckCompletedEntry(&tie, &tie, false, false); err != nil {
		t.Errorf("tie with no winner should pass, got %v", err)
	}
	if err := CheckCompletedEntry(&tie, &tie, true, false); err == nil {
		t.Error("tie with a winner should fail")
	}
	if err := CheckCompletedEntry(nil, &con, false, false); err == nil {
		t.Error("missing pro score should fail")
	}
}
