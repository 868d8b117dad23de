package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/dwhetl/internal/logging"
	"github.com/vvka-141/dwhetl/internal/testinfra"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

func TestIntegration_ConnectTLS(t *testing.T) {
	testinfra.RequireIntegration(t)

	bundle, err := testinfra.GenerateCertBundle([]string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	certPaths, err := bundle.WriteToDir(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	wh, err := testinfra.StartTLSWarehouse(ctx, certPaths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wh.Terminate(context.Background()) })

	tests := []struct {
		name    string
		sslMode string
		params  map[string]string
		wantErr bool
	}{
		{name: "require", sslMode: "require"},
		{name: "verify-full with CA", sslMode: "verify-full", params: map[string]string{"sslrootcert": certPaths.CACert}},
		{name: "verify-full with unknown CA", sslMode: "verify-full", params: map[string]string{"sslrootcert": certPaths.ServerCert}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connConfig, err := ParseConnectionString(wh.ConnString)
			require.NoError(t, err)
			connConfig.SSLMode = tt.sslMode
			for k, v := range tt.params {
				connConfig.AdditionalParams[k] = v
			}

			connector, err := NewConnector(connConfig, logging.NewNullLogger())
			require.NoError(t, err)

			pool, err := connector.Connect(ctx)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, dwhetl.ErrConnectionFailed)
				return
			}
			require.NoError(t, err)
			defer pool.Close()

			var ssl bool
			require.NoError(t, pool.QueryRow(ctx, "SELECT ssl FROM pg_stat_ssl WHERE pid = pg_backend_pid()").Scan(&ssl))
			assert.True(t, ssl)
		})
	}
}
