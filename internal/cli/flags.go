package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/dwhetl/internal/config"
	"github.com/vvka-141/dwhetl/internal/db"
	"github.com/vvka-141/dwhetl/internal/params"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// configFlags selects where the load parameters come from.
type configFlags struct {
	configPath string
	envFiles   []string
	set        []string
}

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection  string
	host        string
	port        int
	username    string
	database    string
	sslMode     string
	redshiftIAM bool
	awsIAM      bool
	clusterID   string
	awsRegion   string
}

func registerConfigFlags(cmd *cobra.Command, f *configFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", dwhetl.DefaultConfigFile,
		"INI file with the [S3], [IAM_ROLE], [GEO] and [CLUSTER] sections")
	cmd.Flags().StringSliceVar(&f.envFiles, "env-file", nil,
		"Load settings from .env files (can be specified multiple times)\n"+
			"Later files override earlier ones; the process environment and --set override all.\n"+
			"Keys use the environment spelling: S3_LOG_DATA, IAM_ROLE_ARN, GEO_REGION")
	cmd.Flags().StringArrayVar(&f.set, "set", nil,
		"Override a setting as SECTION.KEY=VALUE (can be specified multiple times)\n"+
			"Example: --set IAM_ROLE.ARN=arn:aws:iam::123456789012:role/dwhRole")
}

func registerConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	cmd.Flags().StringVar(&f.connection, "connection", "",
		"Warehouse connection string (URI or key=value format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username).\n"+
			"Alternative: DWHETL_CONNECTION_STRING or DATABASE_URL environment variable.\n"+
			"Example: postgresql://dwhuser@dwhcluster.abc123.us-west-2.redshift.amazonaws.com:5439/dwh")

	// Precedence: flag > environment variable > dwh.cfg [CLUSTER] > default
	cmd.Flags().StringVarP(&f.host, "host", "h", "",
		"Cluster endpoint\n"+
			"Precedence: --host > $PGHOST > [CLUSTER] HOST > localhost")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0,
		"Cluster port\n"+
			"Precedence: --port > $PGPORT > [CLUSTER] DB_PORT > 5439")
	cmd.Flags().StringVarP(&f.username, "username", "U", "",
		"Database user (default: $PGUSER, [CLUSTER] DB_USER or current OS user)")
	cmd.Flags().StringVarP(&f.database, "database", "d", "",
		"Database name (default: $PGDATABASE or [CLUSTER] DB_NAME)")
	cmd.Flags().StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: require, or $PGSSLMODE)")
	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)

	cmd.Flags().BoolVar(&f.redshiftIAM, "redshift-iam", false,
		"Authenticate with temporary credentials from redshift:GetClusterCredentials\n"+
			"Uses the default AWS credential chain")
	cmd.Flags().StringVar(&f.clusterID, "cluster-id", "",
		"Redshift cluster identifier for --redshift-iam\n"+
			"(default: [CLUSTER] CLUSTER_IDENTIFIER, or the first label of the endpoint)")
	cmd.Flags().BoolVar(&f.awsIAM, "aws-iam", false,
		"Authenticate with an RDS IAM token (Aurora or RDS PostgreSQL targets)")
	cmd.Flags().StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for IAM authentication (overrides $AWS_REGION)")
}

// settings are the configuration sources of one command invocation.
type settings struct {
	overrides map[string]string
	opts      []config.ResolverOption
}

func (s *settings) resolver(path string) *config.Resolver {
	return config.NewResolver(path, s.overrides, s.opts...)
}

// loadSettings loads .env into the environment, reads --env-file files and
// parses --set overrides.
func loadSettings(f configFlags, verbose bool) (*settings, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	overrides, err := params.ParseKeyValuePairs(f.set)
	if err != nil {
		return nil, err
	}
	if verbose && len(overrides) > 0 {
		fmt.Fprintf(os.Stderr, "[VERBOSE] --set overrides %d value(s)\n", len(overrides))
	}

	s := &settings{overrides: overrides}
	if len(f.envFiles) > 0 {
		values, err := config.ReadEnvFiles(f.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("%v\n\nTip: Verify the path and the KEY=VALUE format: %w", err, dwhetl.ErrInvalidConfig)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Loaded %d value(s) from %d env file(s)\n", len(values), len(f.envFiles))
		}
		s.opts = append(s.opts, config.WithEnvFileValues(values))
	}
	return s, nil
}

// connectionStringFromEnv returns the first non-empty connection string from
// DWHETL_CONNECTION_STRING. DATABASE_URL is handled by the db resolver.
func connectionStringFromEnv() string {
	return os.Getenv("DWHETL_CONNECTION_STRING")
}

// resolveConnection resolves the warehouse connection from flags, the
// environment and the [CLUSTER] section of the config file.
func resolveConnection(flags connectionFlags, resolver *config.Resolver, verbose bool) (*dwhetl.ConnectionConfig, error) {
	cluster, err := resolver.Cluster()
	if err != nil {
		return nil, fmt.Errorf("failed to read [CLUSTER]: %v: %w", err, dwhetl.ErrConfigMalformed)
	}

	connString := flags.connection
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	awsFlags := &db.AWSFlags{
		RedshiftIAM: flags.redshiftIAM,
		AWSIAM:      flags.awsIAM,
		ClusterID:   flags.clusterID,
		Region:      flags.awsRegion,
	}

	connConfig, err := db.ResolveConnectionParams(connString, granularFlags, awsFlags, db.LoadFromEnvironment(), &cluster)
	if err != nil {
		return nil, err
	}

	if verbose {
		logConnectionVerbose(connConfig)
	}
	return connConfig, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
// The password is never printed.
func logConnectionVerbose(connConfig *dwhetl.ConnectionConfig) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
	fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
	fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", connConfig.Database)
	fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
	if connConfig.ClusterIdentifier != "" {
		fmt.Fprintf(os.Stderr, "  Cluster: %s\n", connConfig.ClusterIdentifier)
	}
	if connConfig.AWSRegion != "" {
		fmt.Fprintf(os.Stderr, "  AWS Region: %s\n", connConfig.AWSRegion)
	}
}

// parseStages converts --stage values to categories in their fixed order.
func parseStages(names []string) ([]dwhetl.Category, error) {
	var stages []dwhetl.Category
	for _, name := range names {
		c, err := dwhetl.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("invalid --stage %q: %v: %w", name, err, dwhetl.ErrInvalidConfig)
		}
		stages = append(stages, c)
	}
	return stages, nil
}
