package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns is one: a load run owns exactly one warehouse session.
	DefaultMaxConns = 1

	// DefaultMaxConnIdleTime outlives the longest COPY so the session is not
	// reaped between statements.
	DefaultMaxConnIdleTime = 2 * time.Hour
)

func configurePool(poolConfig *pgxpool.Config, logger dwhetl.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

// StandardConnector implements the Connector interface for username/password
// authentication. It makes a single attempt; callers decide about retries.
type StandardConnector struct {
	config *dwhetl.ConnectionConfig
	logger dwhetl.Logger
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Panics if config or logger is nil.
func NewStandardConnector(config *dwhetl.ConnectionConfig, logger dwhetl.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StandardConnector{config: config, logger: logger}
}

// Connect opens a pool and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return openPool(ctx, c.config, c.logger)
}

func openPool(ctx context.Context, config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w: %w", dwhetl.ErrInvalidConfig, err)
	}

	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Connector, error) {
	switch config.AuthMethod {
	case dwhetl.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case dwhetl.AuthMethodRedshiftIAM:
		return newRedshiftConnector(config, logger)
	case dwhetl.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, dwhetl.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always matches dwhetl.ErrConnectionFailed and keeps the original
// error reachable for errors.As.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var hint error
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Errorf(`connection refused to %s

Possible causes:
  - Cluster is paused, resizing or still being created
  - Wrong host or port (Redshift listens on 5439 by default)
  - Security group has no inbound rule for your address

Original error: %w`, addr, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Endpoint is misspelled (copy it from the cluster console, without the port)
  - Cluster was deleted or renamed
  - DNS is not configured or reachable

Original error: %w`, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong DB_PASSWORD in dwh.cfg or $PGPASSWORD
  - Wrong DB_USER
  - Temporary IAM credentials expired (rerun with --redshift-iam)

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Errorf(`database "%s" does not exist

Check DB_NAME in dwh.cfg or pass -d with the database created with the cluster.

Original error: %w`, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Errorf(`connection timed out to %s

Possible causes:
  - Cluster is not publicly accessible
  - Security group or network ACL silently drops packets
  - VPN or proxy required to reach the VPC

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Cluster parameter group sets require_ssl but --sslmode=disable was given
  - Certificate verification failed (try --sslmode=require)

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		hint = fmt.Errorf(`too many connections to database "%s"

Possible causes:
  - max_connections reached for the cluster or user
  - Sessions left open by an earlier interrupted run

Try: SELECT pg_terminate_backend(process) FROM stv_sessions WHERE db_name = '%s';

Original error: %w`, database, database, err)

	default:
		hint = fmt.Errorf("failed to connect to database: %w", err)
	}

	return fmt.Errorf("%w: %w", dwhetl.ErrConnectionFailed, hint)
}
