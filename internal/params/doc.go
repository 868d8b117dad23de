// Package params parses the KEY=VALUE settings given with --set.
//
// Keys name configuration values the same way dwh.cfg does, as
// SECTION.NAME (S3.LOG_DATA, IAM_ROLE.ARN) or in their environment spelling
// (S3_LOG_DATA). Settings given this way take precedence over the
// environment, --env-file and dwh.cfg.
//
//	overrides, err := params.ParseKeyValuePairs([]string{"GEO.REGION=eu-west-1"})
package params
