package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/config"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	names, err := MigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, names)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := MigrationFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop()))
}

func TestPostgresDisabledWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, pg.Enabled())
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrPostgresDisabled)
	pg.Close()
}

func TestRedisPing(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))

	var missing *Redis
	assert.Error(t, missing.Ping(context.Background()))
}
