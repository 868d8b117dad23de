package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// RowQuerier is the read side of a session. *pgxpool.Conn satisfies it.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TableStatus is the row count of one managed table.
type TableStatus struct {
	Table  string `yaml:"table"`
	Exists bool   `yaml:"exists"`
	Rows   int64  `yaml:"rows"`
}

// TableStatuses counts the rows of every table. A table that does not exist
// is reported with Exists false rather than as an error.
func TableStatuses(ctx context.Context, q RowQuerier, tables []string) ([]TableStatus, error) {
	out := make([]TableStatus, 0, len(tables))
	for _, table := range tables {
		var rows int64
		err := q.QueryRow(ctx, queryRowCount(table)).Scan(&rows)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgCodeUndefinedTable {
				out = append(out, TableStatus{Table: table})
				continue
			}
			if !errors.As(err, &pgErr) {
				err = fmt.Errorf("%w: %w", dwhetl.ErrConnectionFailed, err)
			}
			return out, fmt.Errorf("failed to count rows of %s: %w", table, err)
		}
		out = append(out, TableStatus{Table: table, Exists: true, Rows: rows})
	}
	return out, nil
}
