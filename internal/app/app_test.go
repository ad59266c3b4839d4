package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/grouppay/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func TestNew_Local(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		a.HTTPHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	a.HTTPHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew_RedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestNew_Failures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DBDriver = "mysql"
		_, err := New(context.Background(), cfg, logger)
		assert.Error(t, err)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(t)
		cfg.RedisAddr = addr
		_, err := New(context.Background(), cfg, logger)
		assert.ErrorContains(t, err, "redis")
	})
}
