package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/dwhetl/internal/catalog"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// SQLSTATE codes a drop may hit on a fresh warehouse.
const (
	pgCodeUndefinedTable    = "42P01"
	pgCodeInvalidSchemaName = "3F000"
)

// Sequencer executes the catalog stages in the fixed drop, create, copy,
// insert order over a single session and reports the outcome.
//
// Thread-Safety: a Sequencer holds no per-run state and may be reused, but a
// single Run must not share its executor with another goroutine.
type Sequencer struct {
	logger           dwhetl.Logger
	statementTimeout time.Duration
	stages           []dwhetl.Category
	now              func() time.Time
	runID            uuid.UUID
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithStatementTimeout bounds each statement. Zero disables the bound.
func WithStatementTimeout(d time.Duration) SequencerOption {
	return func(s *Sequencer) { s.statementTimeout = d }
}

// WithStages restricts the run to the given categories.
// The fixed order is kept regardless of the order given.
func WithStages(categories ...dwhetl.Category) SequencerOption {
	return func(s *Sequencer) { s.stages = categories }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SequencerOption {
	return func(s *Sequencer) { s.now = now }
}

// WithRunID fixes the run ID instead of generating a new one per run.
func WithRunID(id uuid.UUID) SequencerOption {
	return func(s *Sequencer) { s.runID = id }
}

// NewSequencer creates a Sequencer that logs through logger.
// Panics if logger is nil.
func NewSequencer(logger dwhetl.Logger, opts ...SequencerOption) *Sequencer {
	if logger == nil {
		panic("logger cannot be nil")
	}
	s := &Sequencer{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// includes reports whether category is selected. No selection means all.
func (s *Sequencer) includes(category dwhetl.Category) bool {
	if len(s.stages) == 0 {
		return true
	}
	for _, c := range s.stages {
		if c == category {
			return true
		}
	}
	return false
}

// Plan renders the selected stages of cat without touching the warehouse.
func (s *Sequencer) Plan(cat *catalog.Catalog, cfg dwhetl.Configuration) ([]catalog.RenderedStage, error) {
	var selected []catalog.Stage
	for _, stage := range cat.Stages() {
		if s.includes(stage.Category) {
			selected = append(selected, stage)
		}
	}
	return catalog.RenderStages(selected, cfg)
}

// Run executes the selected stages of cat against exec.
//
// Every statement is rendered before the first one is sent, so a
// configuration problem fails the run with nothing executed. The returned
// report is never nil. On failure the error is a *dwhetl.StatementError,
// except for rendering failures, which carry dwhetl.ErrConfigMalformed.
func (s *Sequencer) Run(ctx context.Context, exec dwhetl.StatementExecutor, cat *catalog.Catalog, cfg dwhetl.Configuration) (*dwhetl.RunReport, error) {
	id := s.runID
	if id == uuid.Nil {
		id = uuid.New()
	}
	report := dwhetl.NewRunReport(id, s.now())

	if exec == nil || cat == nil {
		s.finish(report, dwhetl.StateFailed)
		return report, fmt.Errorf("sequencer requires an executor and a catalog: %w", dwhetl.ErrInvalidConfig)
	}

	stages, err := s.Plan(cat, cfg)
	if err != nil {
		s.finish(report, dwhetl.StateFailed)
		return report, fmt.Errorf("failed to render statements: %w", err)
	}

	s.logger.Verbose("Run %s: %d stage(s), catalog %s", id, len(stages), shortFingerprint(cat.Fingerprint()))

	for _, stage := range stages {
		s.transition(report, dwhetl.StateFor(stage.Category))

		for _, stmt := range stage.Statements {
			if err := s.execute(ctx, exec, stmt, report); err != nil {
				report.Failed = err
				s.finish(report, dwhetl.StateFailed)
				s.logger.Error("%v", err)
				return report, err
			}
		}

		s.logger.Info("✓ %s stage completed (%d statements)", stage.Category, len(stage.Statements))
	}

	s.finish(report, dwhetl.StateCompleted)
	s.logger.Info("✓ Run completed: %d statements in %s", report.Executed(), report.Duration().Round(time.Millisecond))
	return report, nil
}

// execute sends one statement and records it in the report.
// A returned error aborts the run.
func (s *Sequencer) execute(ctx context.Context, exec dwhetl.StatementExecutor, stmt dwhetl.RenderedStatement, report *dwhetl.RunReport) *dwhetl.StatementError {
	if err := ctx.Err(); err != nil {
		return newStatementError(stmt, classify(stmt.Category, err), err)
	}

	stmtCtx := ctx
	if s.statementTimeout > 0 {
		var cancel context.CancelFunc
		stmtCtx, cancel = context.WithTimeout(ctx, s.statementTimeout)
		defer cancel()
	}

	s.logger.Verbose("Executing %s %d (%s)", stmt.Category, stmt.OrderIndex, stmt.Name)

	start := s.now()
	tag, err := exec.Exec(stmtCtx, stmt.SQL, stmt.Args...)
	result := dwhetl.StatementResult{
		Name:         stmt.Name,
		Category:     stmt.Category.String(),
		Index:        stmt.OrderIndex,
		RowsAffected: tag.RowsAffected(),
		Duration:     s.now().Sub(start),
	}

	if err != nil && stmt.Category == dwhetl.CategoryDrop && isMissingObject(err) {
		s.logger.Verbose("Ignoring %s %d (%s): %v", stmt.Category, stmt.OrderIndex, stmt.Name, err)
		err = nil
	}

	result.Err = err
	report.Statements = append(report.Statements, result)

	if err != nil {
		return newStatementError(stmt, classify(stmt.Category, err), err)
	}
	return nil
}

func (s *Sequencer) transition(report *dwhetl.RunReport, next dwhetl.RunState) {
	if !report.State.CanTransition(next) {
		panic(fmt.Sprintf("invalid run state transition %s -> %s", report.State, next))
	}
	s.logger.Verbose("State %s -> %s", report.State, next)
	report.State = next
}

func (s *Sequencer) finish(report *dwhetl.RunReport, terminal dwhetl.RunState) {
	s.transition(report, terminal)
	report.FinishedAt = s.now()
}

func newStatementError(stmt dwhetl.RenderedStatement, kind, err error) *dwhetl.StatementError {
	return &dwhetl.StatementError{
		Name:     stmt.Name,
		Category: stmt.Category,
		Index:    stmt.OrderIndex,
		Kind:     kind,
		Err:      err,
	}
}

// classify maps a statement failure to its kind sentinel. Timeouts and
// failures that never reached the server take precedence over the stage kind.
func classify(category dwhetl.Category, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return dwhetl.ErrTimeout
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return dwhetl.ErrConnectionFailed
	}

	switch category {
	case dwhetl.CategoryCopy:
		return dwhetl.ErrLoad
	case dwhetl.CategoryInsert:
		return dwhetl.ErrTransform
	default:
		return dwhetl.ErrSchema
	}
}

func isMissingObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgCodeUndefinedTable || pgErr.Code == pgCodeInvalidSchemaName
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
