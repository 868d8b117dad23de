package db

import (
	"context"
	"time"
)

// Credentials are short-lived database credentials issued by a cloud provider.
// Username is empty when the provider does not rename the user.
type Credentials struct {
	Username  string
	Password  string
	ExpiresOn time.Time
}

// TokenProvider abstracts cloud credential acquisition for database authentication.
type TokenProvider interface {
	// GetCredentials acquires credentials for a single connection attempt.
	GetCredentials(ctx context.Context) (Credentials, error)

	// String returns a human-readable description for logging.
	// Should NOT include secrets.
	String() string
}
