package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// SQLSTATE classes treated as transient.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
var transientClasses = []string{
	"08", // connection exception
	"53", // insufficient resources (too many connections)
	"57", // operator intervention (shutdown, cannot connect now)
}

// Codes outside the transient classes that are still worth another attempt.
const (
	pgCodeSerializationFailure = "40001"
	pgCodeLockNotAvailable     = "55P03"
)

// messages that identify a temporarily unavailable endpoint when no SQLSTATE is present.
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
	"cluster is currently unavailable",
}

// WarehouseErrorClassifier decides which session-acquisition failures are
// retried. Authentication and configuration failures never are.
type WarehouseErrorClassifier struct{}

// NewWarehouseErrorClassifier creates a classifier for Redshift and PostgreSQL errors.
func NewWarehouseErrorClassifier() *WarehouseErrorClassifier {
	return &WarehouseErrorClassifier{}
}

// IsTransient reports whether err is temporary and the operation may be retried.
func (c *WarehouseErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// The caller's own deadline or cancellation ends the run.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, dwhetl.ErrInvalidConfig) || errors.Is(err, dwhetl.ErrUnsupportedAuthMethod) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "authentication failed") {
		return false
	}
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTransientCode(code string) bool {
	// Class 28 (invalid authorization) is never transient.
	if strings.HasPrefix(code, "28") {
		return false
	}
	for _, class := range transientClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	return code == pgCodeSerializationFailure || code == pgCodeLockNotAvailable
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH)
	}

	return false
}
