package services

import "github.com/jackc/pgx/v5"

// SQL used by the status report. Table names come from the catalog and are
// quoted as identifiers.

// queryRowCount counts the rows of one managed table.
func queryRowCount(table string) string {
	return "SELECT COUNT(*) FROM " + pgx.Identifier{table}.Sanitize()
}
