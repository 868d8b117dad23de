package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/dwhetl/internal/config"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

var errConnClosed = errors.New("conn closed")

var stmtRe = regexp.MustCompile(`(?is)^\s*(DROP TABLE IF EXISTS|DROP TABLE|CREATE TABLE IF NOT EXISTS|CREATE TABLE|COPY|INSERT INTO)\s+([a-z_]+)`)

// fakeWarehouse is an instrumented StatementExecutor that keeps a set of
// tables and records every statement it receives, in order.
type fakeWarehouse struct {
	mu sync.Mutex

	tables map[string]bool
	calls  []string

	// strictDrops makes DROP TABLE IF EXISTS behave like a plain DROP TABLE.
	strictDrops bool
	// failOn injects an error for the n-th received statement (1-based).
	failOn map[int]error
	closed bool
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		tables: make(map[string]bool),
		failOn: make(map[int]error),
	}
}

func (w *fakeWarehouse) Exec(ctx context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls = append(w.calls, sql)
	n := len(w.calls)

	if w.closed {
		return pgconn.CommandTag{}, errConnClosed
	}
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}
	if err, ok := w.failOn[n]; ok {
		return pgconn.CommandTag{}, err
	}

	m := stmtRe.FindStringSubmatch(sql)
	if m == nil {
		return pgconn.CommandTag{}, pgError("42601", "syntax error")
	}
	verb, table := strings.ToUpper(m[1]), m[2]

	switch verb {
	case "DROP TABLE IF EXISTS", "DROP TABLE":
		if !w.tables[table] && (verb == "DROP TABLE" || w.strictDrops) {
			return pgconn.CommandTag{}, pgError("42P01", fmt.Sprintf("table %q does not exist", table))
		}
		delete(w.tables, table)
		return pgconn.NewCommandTag("DROP TABLE"), nil
	case "CREATE TABLE IF NOT EXISTS":
		w.tables[table] = true
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case "CREATE TABLE":
		if w.tables[table] {
			return pgconn.CommandTag{}, pgError("42P07", fmt.Sprintf("relation %q already exists", table))
		}
		w.tables[table] = true
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case "COPY":
		if !w.tables[table] {
			return pgconn.CommandTag{}, pgError("42P01", fmt.Sprintf("relation %q does not exist", table))
		}
		return pgconn.NewCommandTag("COPY 100"), nil
	default:
		if !w.tables[table] {
			return pgconn.CommandTag{}, pgError("42P01", fmt.Sprintf("relation %q does not exist", table))
		}
		return pgconn.NewCommandTag("INSERT 0 10"), nil
	}
}

// statements returns a copy of the recorded SQL.
func (w *fakeWarehouse) statements() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.calls))
	copy(out, w.calls)
	return out
}

func (w *fakeWarehouse) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.calls)
}

func (w *fakeWarehouse) has(table string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tables[table]
}

// verbs returns "<VERB> <table>" for every recorded statement.
func (w *fakeWarehouse) verbs() []string {
	var out []string
	for _, sql := range w.statements() {
		m := stmtRe.FindStringSubmatch(sql)
		if m == nil {
			out = append(out, "?")
			continue
		}
		out = append(out, strings.ToUpper(strings.Fields(m[1])[0])+" "+m[2])
	}
	return out
}

func pgError(code, msg string) *pgconn.PgError {
	return &pgconn.PgError{Severity: "ERROR", Code: code, Message: msg}
}

type mockApprover struct {
	approved bool
	err      error
	calls    int
	dbName   string
	tables   []string
}

func (m *mockApprover) RequestApproval(_ context.Context, dbName string, tables []string) (bool, error) {
	m.calls++
	m.dbName = dbName
	m.tables = tables
	return m.approved, m.err
}

type mockLogger struct {
	mu      sync.Mutex
	verbose []string
	info    []string
	errors  []string
}

func (m *mockLogger) Verbose(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verbose = append(m.verbose, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info = append(m.info, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

// mockConnector returns a fixed result from Connect.
type mockConnector struct {
	err error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return nil, m.err
}

// mockRow implements pgx.Row for a single int64 column.
type mockRow struct {
	value int64
	err   error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.value
	return nil
}

type mockQuerier struct {
	rows    map[string]mockRow
	queries []string
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	m.queries = append(m.queries, sql)
	for table, row := range m.rows {
		if strings.HasSuffix(sql, `"`+table+`"`) {
			return row
		}
	}
	return mockRow{err: pgError("42P01", "relation does not exist")}
}

// fakeAcquirer hands out a fakeWarehouse and records the release.
type fakeAcquirer struct {
	warehouse *fakeWarehouse
	err       error
	acquired  int
	released  int
}

func (f *fakeAcquirer) acquire(_ context.Context, _ *dwhetl.ConnectionConfig) (dwhetl.StatementExecutor, func() error, error) {
	f.acquired++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.warehouse, func() error {
		f.released++
		f.warehouse.mu.Lock()
		f.warehouse.closed = true
		f.warehouse.mu.Unlock()
		return nil
	}, nil
}

const exampleCfg = `[CLUSTER]
HOST=dwhcluster.abc123.us-west-2.redshift.amazonaws.com
DB_NAME=dwh
DB_USER=dwhuser
DB_PASSWORD=Passw0rd
DB_PORT=5439

[IAM_ROLE]
ARN='arn:aws:iam::123456789012:role/dwhRole'

[S3]
LOG_DATA='s3://udacity-dend/log_data'
LOG_JSONPATH='s3://udacity-dend/log_json_path.json'
SONG_DATA='s3://udacity-dend/song_data'

[GEO]
REGION=us-west-2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dwh.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// noEnv isolates the resolver from the process environment.
func noEnv() config.ResolverOption {
	return config.WithLookupEnv(func(string) (string, bool) { return "", false })
}

func exampleConfiguration() dwhetl.Configuration {
	return dwhetl.Configuration{
		LogDataURI:  "s3://udacity-dend/log_data",
		LogJSONPath: "s3://udacity-dend/log_json_path.json",
		SongDataURI: "s3://udacity-dend/song_data",
		IAMRoleARN:  "arn:aws:iam::123456789012:role/dwhRole",
		Region:      "us-west-2",
	}
}
