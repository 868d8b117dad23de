package dwhetl

import (
	"time"

	"github.com/google/uuid"
)

// StatementResult records one statement sent to the warehouse.
type StatementResult struct {
	Name         string        `yaml:"name"`
	Category     string        `yaml:"category"`
	Index        int           `yaml:"index"`
	RowsAffected int64         `yaml:"rows_affected"`
	Duration     time.Duration `yaml:"duration"`
	Err          error         `yaml:"-"`
}

// RunReport is the user-visible outcome of a run.
type RunReport struct {
	RunID      uuid.UUID
	State      RunState
	Statements []StatementResult
	Failed     *StatementError
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRunReport starts a report in the NotStarted state.
func NewRunReport(id uuid.UUID, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     id,
		State:     StateNotStarted,
		StartedAt: startedAt,
	}
}

// Executed returns how many statements were sent to the warehouse, including a failing one.
func (r *RunReport) Executed() int {
	return len(r.Statements)
}

// Succeeded returns how many statements the warehouse acknowledged without error.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, s := range r.Statements {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// CountByCategory returns how many statements of the category were sent.
func (r *RunReport) CountByCategory(c Category) int {
	n := 0
	for _, s := range r.Statements {
		if s.Category == c.String() {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run, or zero while it is still running.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
