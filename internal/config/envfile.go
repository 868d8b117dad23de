package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env from the working directory into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ReadEnvFiles reads the given files in order. Later files override earlier ones.
func ReadEnvFiles(paths ...string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, p := range paths {
		values, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", p, err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}
