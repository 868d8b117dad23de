package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// ConnectorFactory builds a Connector for a connection configuration.
// db.NewConnector is the production implementation.
type ConnectorFactory func(*dwhetl.ConnectionConfig, dwhetl.Logger) (dwhetl.Connector, error)

// SessionManager opens the single warehouse session of a run.
// It makes exactly one attempt; retrying is the caller's decision.
//
// SessionManager is safe for concurrent use as long as the injected
// connector factory and logger are.
type SessionManager struct {
	connectorFactory ConnectorFactory
	logger           dwhetl.Logger
}

// NewSessionManager creates a new SessionManager with all dependencies injected.
//
// Panics if any dependency is nil. Panics indicate programmer error
// (incorrect dependency injection setup).
func NewSessionManager(connectorFactory ConnectorFactory, logger dwhetl.Logger) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &SessionManager{
		connectorFactory: connectorFactory,
		logger:           logger,
	}
}

// Acquire connects, verifies the connection and acquires the one pooled
// connection the run will use.
//
// The caller is responsible for closing the session: defer session.Close().
// Configuration problems keep their own sentinel; everything else matches
// dwhetl.ErrConnectionFailed.
func (sm *SessionManager) Acquire(ctx context.Context, connConfig *dwhetl.ConnectionConfig) (*dwhetl.Session, error) {
	if connConfig == nil {
		return nil, fmt.Errorf("connection configuration is required: %w", dwhetl.ErrInvalidConfig)
	}

	sm.logger.Verbose("Connecting to %s:%d/%s as %s (%s)",
		connConfig.Host, connConfig.Port, connConfig.Database, connConfig.Username, connConfig.AuthMethod)

	connector, err := sm.connectorFactory(connConfig, sm.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, asConnectionFailure(fmt.Errorf("failed to connect to database %q: %w", connConfig.Database, err))
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, asConnectionFailure(fmt.Errorf("failed to acquire connection: %w", err))
	}

	sm.logger.Info("✓ Connected to %s/%s", connConfig.Host, connConfig.Database)
	return dwhetl.NewSession(pool, conn), nil
}

func asConnectionFailure(err error) error {
	if errors.Is(err, dwhetl.ErrConnectionFailed) ||
		errors.Is(err, dwhetl.ErrInvalidConfig) ||
		errors.Is(err, dwhetl.ErrUnsupportedAuthMethod) {
		return err
	}
	return fmt.Errorf("%w: %w", dwhetl.ErrConnectionFailed, err)
}
