package jsonfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptowidget/internal/domain"
)

func TestRepoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	repo := New(path)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.NewSettings([]string{"BTC", "ETH"})))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, got.SelectedCurrencies)
	assert.Equal(t, domain.SettingsVersion, got.Version)
}

func TestRepoFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	repo := New(path)
	require.NoError(t, repo.Save(context.Background(), domain.NewSettings([]string{"BTC"})))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "{\n  \"selected_currencies\": [\n    \"BTC\"\n  ],\n  \"version\": \"1.0.0\"\n}\n"
	assert.Equal(t, want, string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestRepoKeepsNonASCIIUnescaped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	repo := New(path)
	ctx := context.Background()
	in := domain.Settings{SelectedCurrencies: []string{"BTC"}, Version: "1.0.0-β<rc>"}

	require.NoError(t, repo.Save(ctx, in))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"version": "1.0.0-β<rc>"`)
	assert.NotContains(t, string(b), `\u`)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestRepoLoadMissing(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "absent.json"))

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	var perr *domain.PersistenceError
	assert.True(t, errors.As(err, &perr))
}

func TestRepoLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	_, err := New(path).Load(context.Background())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestRepoLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decode", perr.Op)
}

func TestRepoSaveOverwrites(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "settings.json"))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.NewSettings([]string{"BTC", "ETH", "SOL"})))
	require.NoError(t, repo.Save(ctx, domain.NewSettings([]string{"DOGE"})))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOGE"}, got.SelectedCurrencies)
}
