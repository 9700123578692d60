package remarks

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected slog.Level
	}{
		{value: "debug", expected: slog.LevelDebug},
		{value: "info", expected: slog.LevelInfo},
		{value: "warn", expected: slog.LevelWarn},
		{value: "error", expected: slog.LevelError},
		{value: "loud", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)

			assert.Equal(t, tt.expected, GetLogLevelFromEnv())
		})
	}
}

func TestNewStorageUnknownDriver(t *testing.T) {
	_, err := newStorage(context.Background(), "oracle")

	var driverErr *UnknownDBDriverError
	require.ErrorAs(t, err, &driverErr)
	assert.Equal(t, "oracle", driverErr.Driver)
}

func TestNewAPIApp(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("DB_DSN", "file:"+filepath.Join(t.TempDir(), "remarks.db")+"?_pragma=foreign_keys(1)")
	t.Setenv("PORT", "9090")

	app, err := NewAPIApp(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, closeFn := range app.closers {
			_ = closeFn()
		}
	})

	assert.Equal(t, "9090", app.server.Port)
	assert.NotNil(t, app.handler)
}

func TestNewWebApp(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		app, err := NewWebApp(context.Background())
		require.NoError(t, err)

		assert.Equal(t, defaultWebPort, app.server.Port)
		assert.False(t, app.server.TLS.Enabled)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("API_TIMEOUT", "soon")

		_, err := NewWebApp(context.Background())
		require.Error(t, err)
	})

	t.Run("invalid cache size", func(t *testing.T) {
		t.Setenv("VIEW_CACHE_SIZE", "many")

		_, err := NewWebApp(context.Background())
		require.Error(t, err)
	})
}

func TestNewCookieStore(t *testing.T) {
	tests := []struct {
		name   string
		secure bool
	}{
		{name: "plain http", secure: false},
		{name: "tls", secure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cookieStore := newCookieStore("0123456789abcdef0123456789abcdef", tt.secure)

			assert.Equal(t, tt.secure, cookieStore.Options.Secure)
			assert.True(t, cookieStore.Options.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookieStore.Options.SameSite)
		})
	}
}
