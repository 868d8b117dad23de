package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

func TestWarehouseErrorClassifier_IsTransient(t *testing.T) {
	classifier := NewWarehouseErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure 08006", &pgconn.PgError{Code: "08006"}, true},
		{"cannot connect now 57P03", &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"}, true},
		{"too many connections 53300", &pgconn.PgError{Code: "53300"}, true},
		{"serialization failure 40001", &pgconn.PgError{Code: "40001"}, true},
		{"lock not available 55P03", &pgconn.PgError{Code: "55P03"}, true},
		{"invalid password 28P01", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, false},
		{"invalid authorization 28000", &pgconn.PgError{Code: "28000"}, false},
		{"undefined table 42P01", &pgconn.PgError{Code: "42P01"}, false},
		{"syntax error 42601", &pgconn.PgError{Code: "42601"}, false},
		{"wrapped pg error", fmt.Errorf("acquire: %w", &pgconn.PgError{Code: "08001"}), true},
		{"connection refused op error", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"host unreachable op error", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, true},
		{"permanent dns error", &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}, true},
		{"temporary dns error", &net.DNSError{Err: "server misbehaving", Name: "x", IsTemporary: true}, true},
		{"refused message", errors.New("dial tcp 127.0.0.1:5439: connect: connection refused"), true},
		{"resuming cluster", errors.New("Cluster is currently unavailable"), true},
		{"auth failure message", fmt.Errorf("%w: password authentication failed for user", dwhetl.ErrConnectionFailed), false},
		{"invalid config", fmt.Errorf("bad: %w", dwhetl.ErrInvalidConfig), false},
		{"unsupported auth", dwhetl.ErrUnsupportedAuthMethod, false},
		{"caller deadline", context.DeadlineExceeded, false},
		{"caller cancel", fmt.Errorf("ping: %w", context.Canceled), false},
		{"unknown error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
