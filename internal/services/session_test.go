package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

func testConnConfig() *dwhetl.ConnectionConfig {
	return &dwhetl.ConnectionConfig{
		Host:     "dwhcluster.abc123.us-west-2.redshift.amazonaws.com",
		Port:     5439,
		Database: "dwh",
		Username: "dwhuser",
		Password: "Passw0rd",
	}
}

func TestNewSessionManager_PanicsOnNil(t *testing.T) {
	factory := func(*dwhetl.ConnectionConfig, dwhetl.Logger) (dwhetl.Connector, error) {
		return &mockConnector{}, nil
	}
	assert.Panics(t, func() { NewSessionManager(nil, &mockLogger{}) })
	assert.Panics(t, func() { NewSessionManager(factory, nil) })
	assert.NotPanics(t, func() { NewSessionManager(factory, &mockLogger{}) })
}

func TestSessionManager_Acquire_Errors(t *testing.T) {
	tests := []struct {
		name       string
		factoryErr error
		connectErr error
		wantIs     []error
		wantNotIs  []error
	}{
		{
			name:       "unsupported auth method keeps its sentinel",
			factoryErr: fmt.Errorf("auth 9: %w", dwhetl.ErrUnsupportedAuthMethod),
			wantIs:     []error{dwhetl.ErrUnsupportedAuthMethod},
			wantNotIs:  []error{dwhetl.ErrConnectionFailed},
		},
		{
			name:       "raw connect error becomes connection failure",
			connectErr: errors.New("dial tcp: connection refused"),
			wantIs:     []error{dwhetl.ErrConnectionFailed},
		},
		{
			name:       "already classified connect error is not double wrapped",
			connectErr: fmt.Errorf("%w: password authentication failed", dwhetl.ErrConnectionFailed),
			wantIs:     []error{dwhetl.ErrConnectionFailed},
		},
		{
			name:       "invalid config from pool parsing",
			connectErr: fmt.Errorf("failed to parse connection config: %w", dwhetl.ErrInvalidConfig),
			wantIs:     []error{dwhetl.ErrInvalidConfig},
			wantNotIs:  []error{dwhetl.ErrConnectionFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := func(*dwhetl.ConnectionConfig, dwhetl.Logger) (dwhetl.Connector, error) {
				if tt.factoryErr != nil {
					return nil, tt.factoryErr
				}
				return &mockConnector{err: tt.connectErr}, nil
			}
			sm := NewSessionManager(factory, &mockLogger{})

			session, err := sm.Acquire(context.Background(), testConnConfig())
			require.Error(t, err)
			assert.Nil(t, session)
			for _, want := range tt.wantIs {
				assert.ErrorIs(t, err, want)
			}
			for _, notWant := range tt.wantNotIs {
				assert.NotErrorIs(t, err, notWant)
			}
		})
	}
}

func TestSessionManager_Acquire_NilConfig(t *testing.T) {
	called := false
	factory := func(*dwhetl.ConnectionConfig, dwhetl.Logger) (dwhetl.Connector, error) {
		called = true
		return &mockConnector{}, nil
	}
	sm := NewSessionManager(factory, &mockLogger{})

	_, err := sm.Acquire(context.Background(), nil)
	assert.ErrorIs(t, err, dwhetl.ErrInvalidConfig)
	assert.False(t, called)
}

func TestSessionManager_Acquire_PassesLoggerToFactory(t *testing.T) {
	logger := &mockLogger{}
	var got dwhetl.Logger
	factory := func(_ *dwhetl.ConnectionConfig, l dwhetl.Logger) (dwhetl.Connector, error) {
		got = l
		return &mockConnector{err: errors.New("no route to host")}, nil
	}

	_, _ = NewSessionManager(factory, logger).Acquire(context.Background(), testConnConfig())
	assert.Same(t, logger, got)
}
