package sqlite

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptowidget/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepoLoadEmpty(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSQLiteRepoSaveLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.NewSettings([]string{"BTC", "SOL"})))
	require.NoError(t, repo.Save(ctx, domain.NewSettings([]string{"ETH"})))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH"}, got.SelectedCurrencies)
	assert.Equal(t, domain.SettingsVersion, got.Version)
}

func TestSQLiteRepoPublishTick(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.UnixMilli(1700000000123)

	first := domain.Tick{
		Symbol:        "BTC",
		LastPrice:     decimal.RequireFromString("67890.12"),
		PriceChange:   decimal.RequireFromString("1000.5"),
		ChangePercent: decimal.RequireFromString("1.50"),
		ReceivedAt:    at,
	}
	require.NoError(t, repo.PublishTick(ctx, first))

	second := first
	second.LastPrice = decimal.RequireFromString("67000.00000001")
	second.ReceivedAt = at.Add(time.Second)
	require.NoError(t, repo.PublishTick(ctx, second))

	got, err := repo.LatestTick(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, second.LastPrice.Equal(got.LastPrice), got.LastPrice.String())
	assert.True(t, first.ChangePercent.Equal(got.ChangePercent))
	assert.Equal(t, second.ReceivedAt.UnixMilli(), got.ReceivedAt.UnixMilli())
}
