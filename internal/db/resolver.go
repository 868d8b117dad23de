package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/dwhetl/internal/config"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use $PGPASSWORD, DB_PASSWORD in dwh.cfg, or IAM authentication instead.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Note: Database flag is excluded from this check because it can be used to override
// the database specified in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AWSFlags selects IAM-based authentication.
type AWSFlags struct {
	RedshiftIAM bool   // --redshift-iam
	AWSIAM      bool   // --aws-iam
	ClusterID   string // --cluster-id
	Region      string // --aws-region
}

// EnvVars represents PostgreSQL standard environment variables plus the AWS region.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST             string
	PGPORT             string
	PGUSER             string
	PGPASSWORD         string
	PGDATABASE         string
	PGSSLMODE          string
	DATABASE_URL       string
	AWS_REGION         string
	AWS_DEFAULT_REGION string
}

// LoadFromEnvironment loads PostgreSQL and AWS environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:             os.Getenv("PGHOST"),
		PGPORT:             os.Getenv("PGPORT"),
		PGUSER:             os.Getenv("PGUSER"),
		PGPASSWORD:         os.Getenv("PGPASSWORD"),
		PGDATABASE:         os.Getenv("PGDATABASE"),
		PGSSLMODE:          os.Getenv("PGSSLMODE"),
		DATABASE_URL:       os.Getenv("DATABASE_URL"),
		AWS_REGION:         os.Getenv("AWS_REGION"),
		AWS_DEFAULT_REGION: os.Getenv("AWS_DEFAULT_REGION"),
	}
}

// ResolveConnectionParams resolves connection parameters using this precedence:
//
// 1. Connection string flag (--connection)
// 2. Granular flags (-h, -p, -U, -d)
// 3. Environment variables (PGHOST, PGPORT, ...), then DATABASE_URL
// 4. [CLUSTER] section of dwh.cfg
// 5. Defaults (localhost:5439, sslmode=require)
//
// Returns an ErrInvalidConfig error if both --connection and granular flags are
// given, or if both IAM methods are requested.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	awsFlags *AWSFlags,
	envVars *EnvVars,
	cluster *config.ClusterConfig,
) (*dwhetl.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if awsFlags == nil {
		awsFlags = &AWSFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	if cluster == nil {
		cluster = &config.ClusterConfig{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@cluster:5439/dwh\"\n"+
				"  2. Granular flags: -h cluster -p 5439 -U user -d dwh\n"+
				"  3. dwh.cfg [CLUSTER] section: HOST, DB_PORT, DB_USER, DB_NAME: %w", dwhetl.ErrInvalidConfig)
	}
	if awsFlags.RedshiftIAM && awsFlags.AWSIAM {
		return nil, fmt.Errorf("--redshift-iam and --aws-iam are mutually exclusive: %w", dwhetl.ErrInvalidConfig)
	}

	var cfg *dwhetl.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.PGHOST == "" && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, cluster)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if cfg.AppName == "" {
		cfg.AppName = dwhetl.DefaultAppName
	}

	applyAWSAuth(cfg, awsFlags, envVars, cluster)

	return cfg, nil
}

func applyAWSAuth(cfg *dwhetl.ConnectionConfig, flags *AWSFlags, env *EnvVars, cluster *config.ClusterConfig) {
	switch {
	case flags.RedshiftIAM:
		cfg.AuthMethod = dwhetl.AuthMethodRedshiftIAM
	case flags.AWSIAM:
		cfg.AuthMethod = dwhetl.AuthMethodAWSIAM
	default:
		return
	}

	// Region: flag > AWS_REGION > AWS_DEFAULT_REGION
	cfg.AWSRegion = flags.Region
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = env.AWS_REGION
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = env.AWS_DEFAULT_REGION
	}

	// Cluster: flag > dwh.cfg (the endpoint is parsed later as a last resort)
	cfg.ClusterIdentifier = flags.ClusterID
	if cfg.ClusterIdentifier == "" {
		cfg.ClusterIdentifier = cluster.ClusterIdentifier
	}
}

// resolveFromConnectionString parses a connection string and applies
// PGSSLMODE as a fallback the way libpq does.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*dwhetl.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %v: %w", err, dwhetl.ErrInvalidConfig)
	}

	if cfg.SSLMode == "" && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = dwhetl.DefaultSSLMode
	}
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}

	return cfg, nil
}

// resolveFromGranularParams builds ConnectionConfig from flags, environment and dwh.cfg.
// Each parameter follows: CLI flag > environment variable > dwh.cfg > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	cluster *config.ClusterConfig,
) (*dwhetl.ConnectionConfig, error) {
	cfg := &dwhetl.ConnectionConfig{
		AuthMethod:       dwhetl.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, cluster.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, dwhetl.ErrInvalidConfig)
		}
		cfg.Port = port
	case cluster.Port != 0:
		cfg.Port = cluster.Port
	default:
		cfg.Port = dwhetl.DefaultPort
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, cluster.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = firstNonEmpty(envVars.PGPASSWORD, cluster.Password)
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, cluster.Database, DefaultDatabase)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, dwhetl.DefaultSSLMode)

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
