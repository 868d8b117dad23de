package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
)

// DefaultRedshiftCredentialDuration is requested from GetClusterCredentials.
// It must lie between 900 and 3600 seconds.
const DefaultRedshiftCredentialDuration = 15 * time.Minute

// ClusterCredentialsAPI is the subset of the Redshift client used here.
type ClusterCredentialsAPI interface {
	GetClusterCredentials(ctx context.Context, params *redshift.GetClusterCredentialsInput, optFns ...func(*redshift.Options)) (*redshift.GetClusterCredentialsOutput, error)
}

// RedshiftIAMTokenProvider obtains temporary database credentials with
// redshift:GetClusterCredentials. The returned user name replaces the
// configured one (Redshift prefixes it with "IAM:").
type RedshiftIAMTokenProvider struct {
	clusterID string
	region    string
	dbUser    string
	dbName    string
	duration  time.Duration

	newClient func(ctx context.Context, region string) (ClusterCredentialsAPI, error)
}

// NewRedshiftIAMTokenProvider creates a provider for the given cluster.
func NewRedshiftIAMTokenProvider(clusterID, region, dbUser, dbName string) (*RedshiftIAMTokenProvider, error) {
	if clusterID == "" {
		return nil, fmt.Errorf("Redshift IAM auth requires a cluster identifier (use --cluster-id or CLUSTER_IDENTIFIER in dwh.cfg)")
	}
	if region == "" {
		return nil, fmt.Errorf("Redshift IAM auth requires region (use --aws-region or $AWS_REGION)")
	}
	if dbUser == "" {
		return nil, fmt.Errorf("Redshift IAM auth requires database username")
	}

	return &RedshiftIAMTokenProvider{
		clusterID: clusterID,
		region:    region,
		dbUser:    dbUser,
		dbName:    dbName,
		duration:  DefaultRedshiftCredentialDuration,
		newClient: defaultRedshiftClient,
	}, nil
}

func defaultRedshiftClient(ctx context.Context, region string) (ClusterCredentialsAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return redshift.NewFromConfig(cfg), nil
}

// GetCredentials calls GetClusterCredentials for the configured user.
func (p *RedshiftIAMTokenProvider) GetCredentials(ctx context.Context) (Credentials, error) {
	client, err := p.newClient(ctx, p.region)
	if err != nil {
		return Credentials{}, err
	}

	input := &redshift.GetClusterCredentialsInput{
		ClusterIdentifier: aws.String(p.clusterID),
		DbUser:            aws.String(p.dbUser),
		DurationSeconds:   aws.Int32(int32(p.duration / time.Second)),
		AutoCreate:        aws.Bool(false),
	}
	if p.dbName != "" {
		input.DbName = aws.String(p.dbName)
	}

	out, err := client.GetClusterCredentials(ctx, input)
	if err != nil {
		return Credentials{}, fmt.Errorf("GetClusterCredentials for cluster %s: %w", p.clusterID, err)
	}

	creds := Credentials{
		Username: aws.ToString(out.DbUser),
		Password: aws.ToString(out.DbPassword),
	}
	if creds.Password == "" {
		return Credentials{}, fmt.Errorf("GetClusterCredentials for cluster %s returned no password", p.clusterID)
	}
	if out.Expiration != nil {
		creds.ExpiresOn = *out.Expiration
	} else {
		creds.ExpiresOn = time.Now().Add(p.duration)
	}
	return creds, nil
}

// String returns a human-readable representation of the provider.
func (p *RedshiftIAMTokenProvider) String() string {
	return fmt.Sprintf("RedshiftIAMTokenProvider(cluster=%s, region=%s, user=%s)", p.clusterID, p.region, p.dbUser)
}

// ParseRedshiftEndpoint extracts the cluster identifier and region from a
// provisioned cluster endpoint such as
// dwhcluster.abc123xyz.us-west-2.redshift.amazonaws.com.
func ParseRedshiftEndpoint(host string) (clusterID, region string, ok bool) {
	labels := strings.Split(strings.ToLower(strings.TrimSuffix(host, ".")), ".")
	if len(labels) < 6 || labels[3] != "redshift" || labels[4] != "amazonaws" {
		return "", "", false
	}
	return labels[0], labels[2], true
}
