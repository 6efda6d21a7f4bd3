package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptowidget/internal/domain"
	"cryptowidget/internal/infrastructure/config"
	"cryptowidget/internal/infrastructure/storage/composite"
	"cryptowidget/internal/infrastructure/storage/jsonfile"
	sqliterepo "cryptowidget/internal/infrastructure/storage/sqlite"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Settings.Backend = backend
	cfg.Settings.Path = filepath.Join(dir, "settings.json")
	cfg.Settings.SQLitePath = filepath.Join(dir, "settings.db")
	return cfg
}

func TestNewFileBackend(t *testing.T) {
	c, err := New(testConfig(t, config.BackendFile))
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &jsonfile.Repo{}, c.Settings())
	assert.Equal(t, 0, c.Publisher().(*composite.Publisher).Len())
	assert.Nil(t, c.RedisClient())
}

func TestNewSQLiteBackend(t *testing.T) {
	c, err := New(testConfig(t, config.BackendSQLite))
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &sqliterepo.Repo{}, c.Settings())
	assert.Equal(t, 1, c.Publisher().(*composite.Publisher).Len())
}

func TestNewFileSQLiteBackendSavesBoth(t *testing.T) {
	cfg := testConfig(t, config.BackendFileSQLite)
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Settings().Save(ctx, domain.NewSettings([]string{"ETH", "BTC"})))

	fromFile, err := jsonfile.New(cfg.Settings.Path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH", "BTC"}, fromFile.SelectedCurrencies)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(testConfig(t, "mongo"))
	assert.Error(t, err)
}

func TestCloseIdempotent(t *testing.T) {
	c, err := New(testConfig(t, config.BackendSQLite))
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
