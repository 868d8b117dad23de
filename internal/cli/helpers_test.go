package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

const exampleCfg = `[CLUSTER]
HOST=dwhcluster.abc123.us-west-2.redshift.amazonaws.com
DB_NAME=dwh
DB_USER=dwhuser
DB_PASSWORD=Passw0rd
DB_PORT=5439

[IAM_ROLE]
ARN='arn:aws:iam::123456789012:role/dwhRole'

[S3]
LOG_DATA='s3://udacity-dend/log_data'
LOG_JSONPATH='s3://udacity-dend/log_json_path.json'
SONG_DATA='s3://udacity-dend/song_data'

[GEO]
REGION=us-west-2
`

const configWithoutARN = `[S3]
LOG_DATA='s3://udacity-dend/log_data'
LOG_JSON_PATH='s3://udacity-dend/log_json_path.json'
SONG_DATA='s3://udacity-dend/song_data'

[GEO]
REGION=us-west-2
`

// isolateEnv unsets every variable the commands consult and restores them
// when the test ends.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"S3_LOG_DATA", "S3_LOG_JSON_PATH", "S3_SONG_DATA", "IAM_ROLE_ARN", "GEO_REGION",
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"DATABASE_URL", "DWHETL_CONNECTION_STRING", "AWS_REGION", "AWS_DEFAULT_REGION",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func resetLoadFlags() {
	loadFlags = loadFlagValues{
		configFlags:    configFlags{configPath: dwhetl.DefaultConfigFile},
		timeout:        dwhetl.DefaultRunTimeout,
		connectRetries: dwhetl.DefaultRetryMaxAttempts,
	}
}

func resetPlanFlags() {
	planFlags = planFlagValues{
		configFlags: configFlags{configPath: dwhetl.DefaultConfigFile},
		output:      "text",
	}
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(r)
		done <- data
	}()

	fn()
	require.NoError(t, w.Close())
	return string(<-done)
}
