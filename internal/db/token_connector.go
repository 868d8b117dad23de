package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// tokenExpiryWarning is how close to expiry a credential may be before a warning is logged.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for providers that
// issue short-lived credentials (Redshift GetClusterCredentials, RDS IAM).
type TokenBasedConnector struct {
	config        *dwhetl.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        dwhetl.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "Redshift IAM").
func NewTokenBasedConnector(config *dwhetl.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger dwhetl.Logger) *TokenBasedConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if tokenProvider == nil {
		panic("tokenProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
	}
}

// Connect acquires fresh credentials and opens a pool with them.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	creds, err := c.tokenProvider.GetCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s credentials: %w: %w", c.providerName, dwhetl.ErrConnectionFailed, err)
	}
	c.logger.Verbose("Acquired %s credentials from %s", c.providerName, c.tokenProvider)

	if left := time.Until(creds.ExpiresOn); left < tokenExpiryWarning {
		c.logger.Info("Warning: %s credentials expire in %v", c.providerName, left.Round(time.Second))
	}

	withToken := c.config.DeepCopy()
	withToken.Password = creds.Password
	if creds.Username != "" {
		withToken.Username = creds.Username
	}

	return openPool(ctx, &withToken, c.logger)
}

// newRedshiftConnector creates a token-based connector backed by GetClusterCredentials.
func newRedshiftConnector(config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Connector, error) {
	clusterID := config.ClusterIdentifier
	region := config.AWSRegion
	if id, r, ok := ParseRedshiftEndpoint(config.Host); ok {
		if clusterID == "" {
			clusterID = id
		}
		if region == "" {
			region = r
		}
	}

	provider, err := NewRedshiftIAMTokenProvider(clusterID, region, config.Username, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redshift IAM token provider: %w: %w", dwhetl.ErrInvalidConfig, err)
	}
	return NewTokenBasedConnector(config, provider, "Redshift IAM", logger), nil
}

// newAWSConnector creates a token-based connector with the RDS IAM token provider.
func newAWSConnector(config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w: %w", dwhetl.ErrInvalidConfig, err)
	}
	return NewTokenBasedConnector(config, provider, "AWS IAM", logger), nil
}
