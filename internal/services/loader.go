package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vvka-141/dwhetl/internal/catalog"
	"github.com/vvka-141/dwhetl/internal/config"
	"github.com/vvka-141/dwhetl/internal/logging"
	"github.com/vvka-141/dwhetl/internal/retry"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// AcquireFunc opens the session a run executes on. When it succeeds the
// returned release function is called exactly once when the run ends.
type AcquireFunc func(ctx context.Context, connConfig *dwhetl.ConnectionConfig) (exec dwhetl.StatementExecutor, release func() error, err error)

// SessionAcquirer adapts a SessionManager to an AcquireFunc.
func SessionAcquirer(sm *SessionManager) AcquireFunc {
	return func(ctx context.Context, connConfig *dwhetl.ConnectionConfig) (dwhetl.StatementExecutor, func() error, error) {
		session, err := sm.Acquire(ctx, connConfig)
		if err != nil {
			return nil, nil, err
		}
		return session.Conn(), session.Close, nil
	}
}

// RetryingAcquirer retries acquire on transient failures using executor.
func RetryingAcquirer(acquire AcquireFunc, executor *retry.Executor) AcquireFunc {
	return func(ctx context.Context, connConfig *dwhetl.ConnectionConfig) (dwhetl.StatementExecutor, func() error, error) {
		var (
			exec    dwhetl.StatementExecutor
			release func() error
		)
		err := executor.Execute(ctx, func(ctx context.Context) error {
			var err error
			exec, release, err = acquire(ctx, connConfig)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		return exec, release, nil
	}
}

// LoadService runs the catalog against the warehouse: it resolves the
// configuration, asks for approval before tables are dropped, acquires the
// session and hands it to the Sequencer.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type LoadService struct {
	acquire  AcquireFunc
	approver dwhetl.Approver
	logger   dwhetl.Logger
	catalog  *catalog.Catalog
	planner  *Planner
}

// NewLoadService creates a new LoadService with all dependencies injected.
// resolverOpts are passed to the configuration resolver of every run.
//
// Panics on nil dependencies: they are programmer errors that should fail
// loudly at startup. Runtime conditions are returned as errors.
func NewLoadService(
	acquire AcquireFunc,
	approver dwhetl.Approver,
	logger dwhetl.Logger,
	cat *catalog.Catalog,
	resolverOpts ...config.ResolverOption,
) *LoadService {
	if acquire == nil {
		panic("acquire cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if cat == nil {
		panic("catalog cannot be nil")
	}
	return &LoadService{
		acquire:  acquire,
		approver: approver,
		logger:   logger,
		catalog:  cat,
		planner:  NewPlanner(logger, cat, resolverOpts...),
	}
}

// Run executes one load. The report is nil when the run fails before the
// first statement could be sent (configuration, approval, connection).
func (s *LoadService) Run(ctx context.Context, rc dwhetl.RunConfig) (*dwhetl.RunReport, error) {
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	runID := uuid.New()
	logger := s.runLogger(runID)

	cfg, err := s.planner.Resolve(rc)
	if err != nil {
		return nil, err
	}

	seq := NewSequencer(logger,
		WithRunID(runID),
		WithStages(rc.Stages...),
		WithStatementTimeout(rc.StatementTimeout),
	)

	stages, err := seq.Plan(s.catalog, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render statements: %w", err)
	}
	logger.Verbose("Rendered %d statement(s) in %d stage(s)", countStatements(stages), len(stages))

	if rc.IncludesStage(dwhetl.CategoryDrop) {
		if err := s.requestApproval(ctx, rc.Connection.Database); err != nil {
			return nil, err
		}
	}

	runCtx := ctx
	if rc.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, rc.Timeout)
		defer cancel()
	}

	logger.Info("Starting run %s on database '%s'", runID, rc.Connection.Database)

	exec, release, err := s.acquire(runCtx, rc.Connection)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: run timeout of %s expired while connecting: %w", dwhetl.ErrTimeout, rc.Timeout, err)
		}
		return nil, err
	}
	defer func() {
		if cerr := release(); cerr != nil {
			logger.Error("failed to release session: %v", cerr)
		}
	}()

	return seq.Run(runCtx, exec, s.catalog, cfg)
}

// Plan resolves the configuration and renders the selected stages without
// connecting to the warehouse.
func (s *LoadService) Plan(rc dwhetl.RunConfig) (dwhetl.Configuration, []catalog.RenderedStage, error) {
	return s.planner.Plan(rc)
}

func (s *LoadService) requestApproval(ctx context.Context, dbName string) error {
	tables := s.catalog.Tables()
	s.logger.Verbose("Requesting approval to drop %d table(s) in '%s'", len(tables), dbName)

	approved, err := s.approver.RequestApproval(ctx, dbName, tables)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return dwhetl.ErrApprovalDenied
	}
	return nil
}

// runLogger tags log lines with the run ID when the logger supports it.
func (s *LoadService) runLogger(runID uuid.UUID) dwhetl.Logger {
	if cl, ok := s.logger.(*logging.ConsoleLogger); ok {
		return cl.WithRunID(runID.String())
	}
	return s.logger
}

func countStatements(stages []catalog.RenderedStage) int {
	n := 0
	for _, st := range stages {
		n += len(st.Statements)
	}
	return n
}
