package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws/arn"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

var regionRe = regexp.MustCompile(`^[a-z]{2}(-gov|-iso[a-z]?)?-[a-z]+-\d{1,2}$`)

// hasUnsafeRune reports backslashes, whitespace and control characters, none
// of which belong in an S3 location or a role ARN inlined into COPY.
func hasUnsafeRune(value string) bool {
	return strings.IndexFunc(value, func(r rune) bool {
		return r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0
}

// validateS3URI requires s3://bucket[/key].
func validateS3URI(key, value string) error {
	if hasUnsafeRune(value) {
		return fmt.Errorf("%s: %q contains a backslash, whitespace or control character: %w", key, value, dwhetl.ErrConfigMalformed)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return fmt.Errorf("%s: %q is not an s3://bucket/prefix URI: %w", key, value, dwhetl.ErrConfigMalformed)
	}
	return nil
}

// validateJSONPath accepts an S3 JSONPaths file or the COPY keywords 'auto'
// and 'auto ignorecase'.
func validateJSONPath(key, value string) error {
	switch strings.ToLower(value) {
	case "auto", "auto ignorecase":
		return nil
	}
	return validateS3URI(key, value)
}

func validateRoleARN(key, value string) error {
	if hasUnsafeRune(value) {
		return fmt.Errorf("%s: %q contains a backslash, whitespace or control character: %w", key, value, dwhetl.ErrConfigMalformed)
	}
	a, err := arn.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %q: %v: %w", key, value, err, dwhetl.ErrConfigMalformed)
	}
	if a.Service != "iam" || !strings.HasPrefix(a.Resource, "role/") || len(a.Resource) == len("role/") {
		return fmt.Errorf("%s: %q is not an IAM role ARN (arn:aws:iam::<account>:role/<name>): %w", key, value, dwhetl.ErrConfigMalformed)
	}
	return nil
}

func validateRegion(key, value string) error {
	if !regionRe.MatchString(value) {
		return fmt.Errorf("%s: %q is not an AWS region (e.g. us-west-2): %w", key, value, dwhetl.ErrConfigMalformed)
	}
	return nil
}
