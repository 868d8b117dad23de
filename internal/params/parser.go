package params

import (
	"fmt"
	"strings"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// ParseKeyValuePairs converts a slice of "key=value" strings into a map.
// Keys are trimmed; values are kept verbatim. A later pair wins over an
// earlier one with the same key.
//
// Example:
//
//	overrides, err := ParseKeyValuePairs([]string{"S3.LOG_DATA=s3://bucket/log_data", "GEO.REGION=us-west-2"})
//	// Returns: map[string]string{"S3.LOG_DATA": "s3://bucket/log_data", "GEO.REGION": "us-west-2"}
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("setting %q is not in key=value format (example: --set GEO.REGION=us-west-2): %w", pair, dwhetl.ErrInvalidConfig)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("setting has empty key: %q: %w", pair, dwhetl.ErrInvalidConfig)
		}

		result[key] = value
	}

	return result, nil
}
