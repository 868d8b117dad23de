package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/dwhetl/internal/config"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		flags GranularConnFlags
		want  bool
	}{
		{"empty flags", GranularConnFlags{}, true},
		{"only host set", GranularConnFlags{Host: "localhost"}, false},
		{"only port set", GranularConnFlags{Port: 5439}, false},
		{"only username set", GranularConnFlags{Username: "dwhuser"}, false},
		{"only database set", GranularConnFlags{Database: "dwh"}, true},
		{"only sslmode set", GranularConnFlags{SSLMode: "require"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.IsEmpty())
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "envhost")
	t.Setenv("PGPORT", "5440")
	t.Setenv("PGPASSWORD", "envpass")
	t.Setenv("AWS_REGION", "eu-west-1")

	env := LoadFromEnvironment()
	assert.Equal(t, "envhost", env.PGHOST)
	assert.Equal(t, "5440", env.PGPORT)
	assert.Equal(t, "envpass", env.PGPASSWORD)
	assert.Equal(t, "eu-west-1", env.AWS_REGION)
}

func exampleCluster() *config.ClusterConfig {
	return &config.ClusterConfig{
		Host:     "dwhcluster.abc123.us-west-2.redshift.amazonaws.com",
		Port:     5439,
		Database: "dwh",
		Username: "dwhuser",
		Password: "cfgpass",
	}
}

func TestResolveConnectionParams_Conflicts(t *testing.T) {
	_, err := ResolveConnectionParams("postgresql://h/db", &GranularConnFlags{Host: "other"}, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, dwhetl.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "cannot specify both")

	_, err = ResolveConnectionParams("", nil, &AWSFlags{RedshiftIAM: true, AWSIAM: true}, nil, nil)
	assert.ErrorIs(t, err, dwhetl.ErrInvalidConfig)
}

func TestResolveConnectionParams_FromClusterSection(t *testing.T) {
	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, exampleCluster())
	require.NoError(t, err)

	assert.Equal(t, "dwhcluster.abc123.us-west-2.redshift.amazonaws.com", cfg.Host)
	assert.Equal(t, 5439, cfg.Port)
	assert.Equal(t, "dwh", cfg.Database)
	assert.Equal(t, "dwhuser", cfg.Username)
	assert.Equal(t, "cfgpass", cfg.Password)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, "dwhetl", cfg.AppName)
	assert.Equal(t, dwhetl.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnectionParams_Precedence(t *testing.T) {
	env := &EnvVars{PGHOST: "envhost", PGPORT: "5441", PGUSER: "envuser", PGPASSWORD: "envpass", PGDATABASE: "envdb", PGSSLMODE: "verify-ca"}
	flags := &GranularConnFlags{Host: "flaghost", Database: "flagdb"}

	cfg, err := ResolveConnectionParams("", flags, nil, env, exampleCluster())
	require.NoError(t, err)

	assert.Equal(t, "flaghost", cfg.Host, "flag beats env")
	assert.Equal(t, 5441, cfg.Port, "env beats dwh.cfg")
	assert.Equal(t, "envuser", cfg.Username)
	assert.Equal(t, "envpass", cfg.Password)
	assert.Equal(t, "flagdb", cfg.Database)
	assert.Equal(t, "verify-ca", cfg.SSLMode)
}

func TestResolveConnectionParams_Defaults(t *testing.T) {
	t.Setenv("USER", "osuser")
	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5439, cfg.Port)
	assert.Equal(t, "dev", cfg.Database)
	assert.Equal(t, "osuser", cfg.Username)
	assert.Equal(t, "require", cfg.SSLMode)
}

func TestResolveConnectionParams_InvalidPGPORT(t *testing.T) {
	_, err := ResolveConnectionParams("", nil, nil, &EnvVars{PGPORT: "abc"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, dwhetl.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "$PGPORT")
}

func TestResolveConnectionParams_ConnectionString(t *testing.T) {
	env := &EnvVars{PGSSLMODE: "verify-full", PGPASSWORD: "envpass"}

	cfg, err := ResolveConnectionParams("postgresql://u@h:5439/uridb", &GranularConnFlags{Database: "override"}, nil, env, exampleCluster())
	require.NoError(t, err)
	assert.Equal(t, "h", cfg.Host)
	assert.Equal(t, "override", cfg.Database, "-d overrides the URI database")
	assert.Equal(t, "verify-full", cfg.SSLMode, "PGSSLMODE fills the gap")
	assert.Equal(t, "envpass", cfg.Password)

	_, err = ResolveConnectionParams("mysql://h/db", nil, nil, env, nil)
	assert.ErrorIs(t, err, dwhetl.ErrInvalidConfig)
}

func TestResolveConnectionParams_DatabaseURL(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://urluser@urlhost:5440/urldb"}

	cfg, err := ResolveConnectionParams("", nil, nil, env, exampleCluster())
	require.NoError(t, err)
	assert.Equal(t, "urlhost", cfg.Host)
	assert.Equal(t, "urldb", cfg.Database)

	cfg, err = ResolveConnectionParams("", &GranularConnFlags{Host: "flaghost"}, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "flaghost", cfg.Host, "granular flags disable DATABASE_URL")
}

func TestResolveConnectionParams_AWSAuth(t *testing.T) {
	cluster := exampleCluster()
	cluster.ClusterIdentifier = "cfgcluster"

	cfg, err := ResolveConnectionParams("", nil, &AWSFlags{RedshiftIAM: true}, &EnvVars{AWS_DEFAULT_REGION: "us-west-2"}, cluster)
	require.NoError(t, err)
	assert.Equal(t, dwhetl.AuthMethodRedshiftIAM, cfg.AuthMethod)
	assert.Equal(t, "us-west-2", cfg.AWSRegion)
	assert.Equal(t, "cfgcluster", cfg.ClusterIdentifier)

	cfg, err = ResolveConnectionParams("", nil, &AWSFlags{RedshiftIAM: true, ClusterID: "flagcluster", Region: "eu-west-1"}, &EnvVars{AWS_REGION: "us-east-1"}, cluster)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, "flagcluster", cfg.ClusterIdentifier)

	cfg, err = ResolveConnectionParams("", nil, &AWSFlags{AWSIAM: true}, &EnvVars{AWS_REGION: "us-east-1"}, cluster)
	require.NoError(t, err)
	assert.Equal(t, dwhetl.AuthMethodAWSIAM, cfg.AuthMethod)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
}
