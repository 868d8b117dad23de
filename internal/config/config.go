// Package config resolves the load parameters from a dwh.cfg INI file, the
// environment and command-line overrides.
//
// Precedence, lowest to highest:
//
//  1. dwh.cfg sections [S3], [IAM_ROLE], [GEO]
//  2. --env-file files
//  3. process environment (S3_LOG_DATA, IAM_ROLE_ARN, ...), including .env
//  4. --set KEY=VALUE overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// Keys of the load configuration, as SECTION.NAME.
const (
	KeyLogData     = "S3.LOG_DATA"
	KeyLogJSONPath = "S3.LOG_JSON_PATH"
	KeySongData    = "S3.SONG_DATA"
	KeyIAMRoleARN  = "IAM_ROLE.ARN"
	KeyRegion      = "GEO.REGION"
)

// RequiredKeys lists the keys every load needs, in reporting order.
var RequiredKeys = []string{KeyLogData, KeyLogJSONPath, KeySongData, KeyIAMRoleARN, KeyRegion}

// legacyAliases maps spellings found in older dwh.cfg files to canonical keys.
var legacyAliases = map[string]string{
	"S3.LOG_JSONPATH": KeyLogJSONPath,
}

const clusterSection = "CLUSTER"

// ClusterConfig holds the optional [CLUSTER] connection defaults.
type ClusterConfig struct {
	Host              string
	Port              int
	Database          string
	Username          string
	Password          string
	ClusterIdentifier string
}

// File is a parsed dwh.cfg.
type File struct {
	Path    string
	Values  map[string]string
	Cluster ClusterConfig
}

// Load parses the INI file at path. Keys are returned as SECTION.NAME with
// surrounding quotes removed from values.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return Parse(path, data)
}

// Parse parses INI content. path is used for error messages only.
func Parse(path string, data []byte) (*File, error) {
	doc, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	f := &File{Path: path, Values: make(map[string]string)}
	for _, section := range doc.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		for _, key := range section.Keys() {
			name := CanonicalKey(section.Name() + "." + key.Name())
			f.Values[name] = Unquote(key.String())
		}
	}

	cluster, err := parseCluster(f.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Cluster = cluster

	return f, nil
}

func parseCluster(values map[string]string) (ClusterConfig, error) {
	get := func(name string) string { return values[clusterSection+"."+name] }

	c := ClusterConfig{
		Host:              get("HOST"),
		Database:          get("DB_NAME"),
		Username:          get("DB_USER"),
		Password:          get("DB_PASSWORD"),
		ClusterIdentifier: get("CLUSTER_IDENTIFIER"),
	}
	if p := get("DB_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return ClusterConfig{}, fmt.Errorf("invalid CLUSTER.DB_PORT %q: must be a port number", p)
		}
		c.Port = port
	}
	return c, nil
}

// CanonicalKey upper-cases a key and resolves legacy spellings.
func CanonicalKey(key string) string {
	k := strings.ToUpper(strings.TrimSpace(key))
	if alias, ok := legacyAliases[k]; ok {
		return alias
	}
	return k
}

// EnvName returns the environment variable consulted for a key,
// e.g. S3.LOG_DATA -> S3_LOG_DATA.
func EnvName(key string) string {
	return strings.ReplaceAll(CanonicalKey(key), ".", "_")
}

// Unquote trims whitespace and one pair of matching surrounding quotes.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '\'' || first == '"') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}
