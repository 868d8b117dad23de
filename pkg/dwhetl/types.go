package dwhetl

import (
	"errors"
	"fmt"
	"time"
)

// Category groups statements into the four stages of a load.
type Category int

const (
	CategoryDrop Category = iota
	CategoryCreate
	CategoryCopy
	CategoryInsert
)

// Categories lists every category in execution order.
var Categories = []Category{CategoryDrop, CategoryCreate, CategoryCopy, CategoryInsert}

func (c Category) String() string {
	switch c {
	case CategoryDrop:
		return "drop"
	case CategoryCreate:
		return "create"
	case CategoryCopy:
		return "copy"
	case CategoryInsert:
		return "insert"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// IsValid returns true if the Category is a defined value.
func (c Category) IsValid() bool {
	return c >= CategoryDrop && c <= CategoryInsert
}

// ParseCategory converts a category name (as used for catalog directories) to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown statement category %q", s)
}

// Statement is one named SQL statement of the catalog.
// OrderIndex is 1-based and determines execution order within its Category.
type Statement struct {
	Name       string
	Category   Category
	Text       string
	OrderIndex int
}

// RenderedStatement is a Statement with every placeholder substituted.
// Args carries bind parameters for statements that support them.
type RenderedStatement struct {
	Statement
	SQL  string
	Args []any
}

// Configuration holds the external parameters substituted into COPY statements.
// It is passed by value and never mutated after resolution.
type Configuration struct {
	LogDataURI  string `yaml:"log_data_uri"`
	LogJSONPath string `yaml:"log_json_path"`
	SongDataURI string `yaml:"song_data_uri"`
	IAMRoleARN  string `yaml:"iam_role_arn"`
	Region      string `yaml:"region"`
}

// RunConfig contains all parameters needed for one load run.
type RunConfig struct {
	// ConfigPath is the INI file with the S3, IAM_ROLE, GEO and CLUSTER sections.
	ConfigPath string

	// Overrides are KEY=VALUE settings (e.g. "S3.LOG_DATA") with the highest precedence.
	Overrides map[string]string

	// Connection is the resolved warehouse connection.
	Connection *ConnectionConfig

	// Stages selects which categories run. Empty means all of them.
	Stages []Category

	// StatementTimeout bounds each statement. Zero means no limit.
	StatementTimeout time.Duration

	// Timeout bounds the whole run.
	Timeout time.Duration

	// Force skips the interactive confirmation before the drop stage.
	Force bool

	// ConnectRetries is how many times acquisition is retried on transient failures.
	ConnectRetries int

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.Connection == nil {
		errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
	} else if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.StatementTimeout < 0 {
		errs = append(errs, fmt.Errorf("statement timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.ConnectRetries < 0 {
		errs = append(errs, fmt.Errorf("connect retries cannot be negative: %w", ErrInvalidConfig))
	}

	for _, s := range c.Stages {
		if !s.IsValid() {
			errs = append(errs, fmt.Errorf("unknown stage %v: %w", s, ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// IncludesStage reports whether the run executes the given category.
func (c *RunConfig) IncludesStage(cat Category) bool {
	if len(c.Stages) == 0 {
		return true
	}
	for _, s := range c.Stages {
		if s == cat {
			return true
		}
	}
	return false
}

// ConnectionConfig represents parsed warehouse connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is used by the Redshift and RDS IAM token providers.
	AWSRegion string

	// ClusterIdentifier names the Redshift cluster for GetClusterCredentials.
	ClusterIdentifier string
}

// DeepCopy returns a copy whose AdditionalParams map is independent of the original.
func (c ConnectionConfig) DeepCopy() ConnectionConfig {
	cp := c
	if c.AdditionalParams != nil {
		cp.AdditionalParams = make(map[string]string, len(c.AdditionalParams))
		for k, v := range c.AdditionalParams {
			cp.AdditionalParams[k] = v
		}
	}
	return cp
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard    AuthMethod = iota // Username/Password
	AuthMethodRedshiftIAM                   // redshift:GetClusterCredentials
	AuthMethodAWSIAM                        // RDS/Aurora IAM token
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodRedshiftIAM:
		return "Redshift IAM"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAWSIAM
}
