package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// Resolver produces the load Configuration from its layered sources.
// It reads the config file at most once.
type Resolver struct {
	path      string
	envFiles  map[string]string
	overrides map[string]string
	lookupEnv LookupEnvFunc

	loaded bool
	file   *File
	err    error
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookupEnv replaces the process environment lookup. Used by tests.
func WithLookupEnv(fn LookupEnvFunc) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.lookupEnv = fn
		}
	}
}

// WithEnvFileValues layers values read from --env-file between the config
// file and the process environment.
func WithEnvFileValues(values map[string]string) ResolverOption {
	return func(r *Resolver) {
		r.envFiles = values
	}
}

// NewResolver creates a resolver for the config file at path.
// overrides are KEY=VALUE settings whose keys are SECTION.NAME or the
// environment spelling (S3_LOG_DATA).
func NewResolver(path string, overrides map[string]string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		path:      path,
		overrides: normalizeOverrides(overrides),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normalizeOverrides(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := CanonicalKey(k)
		for _, req := range RequiredKeys {
			if EnvName(req) == key {
				key = req
			}
		}
		out[key] = v
	}
	return out
}

func (r *Resolver) load() (*File, error) {
	if !r.loaded {
		r.loaded = true
		r.file, r.err = Load(r.path)
		if errors.Is(r.err, ErrConfigNotFound) {
			r.file, r.err = nil, nil
		}
	}
	return r.file, r.err
}

// Lookup returns the value of a key and whether any source defined it.
// An empty environment or env-file value counts as unset, so the lookup
// falls through to the next source.
func (r *Resolver) Lookup(key string) (string, bool, error) {
	key = CanonicalKey(key)

	if v, ok := r.overrides[key]; ok {
		return Unquote(v), true, nil
	}
	if v, ok := r.lookupEnv(EnvName(key)); ok && Unquote(v) != "" {
		return Unquote(v), true, nil
	}
	if v, ok := r.envFiles[EnvName(key)]; ok && Unquote(v) != "" {
		return Unquote(v), true, nil
	}

	f, err := r.load()
	if err != nil {
		return "", false, err
	}
	if f != nil {
		if v, ok := f.Values[key]; ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Resolve returns the validated load configuration. Every missing key is
// reported at once as ErrConfigMissing; shape failures are ErrConfigMalformed.
func (r *Resolver) Resolve() (dwhetl.Configuration, error) {
	values := make(map[string]string, len(RequiredKeys))
	var missing []error

	for _, key := range RequiredKeys {
		v, ok, err := r.Lookup(key)
		if err != nil {
			return dwhetl.Configuration{}, fmt.Errorf("failed to read %s: %v: %w", r.path, err, dwhetl.ErrConfigMalformed)
		}
		if !ok || v == "" {
			missing = append(missing, fmt.Errorf("%s (env %s): %w", key, EnvName(key), dwhetl.ErrConfigMissing))
			continue
		}
		values[key] = v
	}
	if len(missing) > 0 {
		return dwhetl.Configuration{}, errors.Join(missing...)
	}

	var malformed []error
	check := func(err error) {
		if err != nil {
			malformed = append(malformed, err)
		}
	}
	check(validateS3URI(KeyLogData, values[KeyLogData]))
	check(validateJSONPath(KeyLogJSONPath, values[KeyLogJSONPath]))
	check(validateS3URI(KeySongData, values[KeySongData]))
	check(validateRoleARN(KeyIAMRoleARN, values[KeyIAMRoleARN]))
	check(validateRegion(KeyRegion, values[KeyRegion]))
	if len(malformed) > 0 {
		return dwhetl.Configuration{}, errors.Join(malformed...)
	}

	return dwhetl.Configuration{
		LogDataURI:  values[KeyLogData],
		LogJSONPath: values[KeyLogJSONPath],
		SongDataURI: values[KeySongData],
		IAMRoleARN:  values[KeyIAMRoleARN],
		Region:      values[KeyRegion],
	}, nil
}

// Cluster returns the [CLUSTER] connection defaults, or a zero value when the
// config file is absent.
func (r *Resolver) Cluster() (ClusterConfig, error) {
	f, err := r.load()
	if err != nil {
		return ClusterConfig{}, err
	}
	if f == nil {
		return ClusterConfig{}, nil
	}
	return f.Cluster, nil
}
