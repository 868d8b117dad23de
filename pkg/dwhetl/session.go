package dwhetl

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatementExecutor is the narrow view of a warehouse session the Sequencer needs.
// *pgxpool.Conn satisfies it; tests substitute an instrumented fake warehouse.
type StatementExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Session is the single live warehouse connection of one run.
//
// Session manages the lifecycle of the pool and the acquired connection
// and ensures proper cleanup through a single Close() method.
//
// Thread-Safety: NOT safe for concurrent use. A Session is owned by exactly
// one run and is never shared.
//
// Lifecycle:
//  1. Created by SessionManager.Acquire()
//  2. Handed to the Sequencer
//  3. Released via Close() (idempotent) on every exit path
//
// Example usage:
//
//	session, err := sessionManager.Acquire(ctx, connConfig)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
type Session struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn
}

// NewSession creates a new Session instance.
// This is intended to be called by SessionManager, not by external code.
//
// Panics if pool or conn is nil (programmer error).
func NewSession(pool *pgxpool.Pool, conn *pgxpool.Conn) *Session {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if conn == nil {
		panic("conn cannot be nil")
	}

	return &Session{
		pool: pool,
		conn: conn,
	}
}

// Conn returns the acquired connection. It is valid until Close() is called.
func (s *Session) Conn() *pgxpool.Conn {
	return s.conn
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.conn == nil && s.pool == nil
}

// Close releases the connection and closes the pool.
// This method is idempotent and safe to call multiple times.
//
// Resource cleanup order:
//  1. Release the acquired connection back to the pool
//  2. Close the connection pool
func (s *Session) Close() error {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}

	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}

	return nil
}
