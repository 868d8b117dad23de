// Package testinfra starts disposable PostgreSQL containers that stand in for
// the warehouse in integration tests. PostgreSQL speaks the same wire
// protocol and SQLSTATE codes as Redshift.
package testinfra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17"
	PostgresUser     = "dwhuser"
	PostgresPassword = "Passw0rd"
	PostgresDB       = "dwh"

	// IntegrationEnv enables the container-backed tests.
	IntegrationEnv = "DWHETL_INTEGRATION"

	containerCertDir  = "/tmp/testcontainers-go/postgres"
	sslEntrypointPath = "/usr/local/bin/docker-entrypoint-ssl.bash"
)

// Warehouse is a running test database.
type Warehouse struct {
	*postgres.PostgresContainer
	ConnString string
}

// RequireIntegration skips t unless integration tests were requested and
// the run is not -short.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
	if os.Getenv(IntegrationEnv) != "1" {
		t.Skipf("set %s=1 to run integration tests (requires Docker)", IntegrationEnv)
	}
}

// StartWarehouse starts a plain PostgreSQL container. The connection string
// uses sslmode=disable.
func StartWarehouse(ctx context.Context) (*Warehouse, error) {
	return start(ctx, "sslmode=disable")
}

// StartTLSWarehouse starts a container that serves TLS with the given
// certificates, for the sslmode=require default.
func StartTLSWarehouse(ctx context.Context, certPaths *CertPaths) (*Warehouse, error) {
	confPath, err := writeSSLConfig(filepath.Dir(certPaths.CACert))
	if err != nil {
		return nil, err
	}
	return start(ctx, "sslmode=require",
		postgres.WithSSLCert(certPaths.CACert, certPaths.ServerCert, certPaths.ServerKey),
		postgres.WithConfigFile(confPath),
		// WithSSLCert sets entrypoint to "sh" which fails on Debian (dash doesn't support pipefail).
		testcontainers.WithEntrypoint("bash", sslEntrypointPath),
	)
}

func start(ctx context.Context, sslArg string, extra ...testcontainers.ContainerCustomizer) (*Warehouse, error) {
	opts := []testcontainers.ContainerCustomizer{
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		),
	}
	opts = append(opts, extra...)

	ctr, err := postgres.Run(ctx, PostgresImage, opts...)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, sslArg)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &Warehouse{PostgresContainer: ctr, ConnString: connStr}, nil
}

func writeSSLConfig(dir string) (string, error) {
	conf := fmt.Sprintf(`listen_addresses = '*'
ssl = on
ssl_cert_file = '%s/server.cert'
ssl_key_file = '%s/server.key'
ssl_ca_file = '%s/ca_cert.pem'
`, containerCertDir, containerCertDir, containerCertDir)

	path := filepath.Join(dir, "postgresql.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		return "", fmt.Errorf("write postgresql.conf: %w", err)
	}
	return path, nil
}
