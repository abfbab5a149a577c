package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/backend/src/config"
	"github.com/username/portfoliotracker/backend/src/database"
	"github.com/username/portfoliotracker/backend/src/logger"
	"github.com/username/portfoliotracker/backend/src/model"
	"github.com/username/portfoliotracker/backend/src/models"
	"github.com/username/portfoliotracker/backend/src/portfolio"
)

func setupTestService(t *testing.T) (PortfolioService, int64) {
	t.Helper()

	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		TransactionFetchLimit: 1000,
		SummaryCacheTTL:       time.Minute,
		StrictOversell:        false,
	}

	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { database.DB.Close() })

	asset := &model.Asset{Symbol: "AAPL", Name: "Apple Inc.", AssetType: model.AssetTypeStock}
	require.NoError(t, asset.CreateAsset(database.DB))

	svc := NewPortfolioService(database.DB, cache.New(time.Minute, time.Minute))
	return svc, asset.ID
}

func txInput(assetID int64, kind string, quantity, unitPrice float64, occurredAt time.Time) models.TransactionInput {
	return models.TransactionInput{
		AssetID:    assetID,
		Kind:       kind,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		OccurredAt: occurredAt,
	}
}

func TestRecordTransactionCreatesPosition(t *testing.T) {
	svc, assetID := setupTestService(t)

	tx, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 2, 100, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.NotZero(t, tx.ID)
	assert.InDelta(t, 200.0, tx.TotalAmount, 1e-9)

	positions, err := svc.ListPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 2.0, positions[0].Quantity, 1e-9)
	assert.InDelta(t, 100.0, positions[0].AverageCost, 1e-9)
}

func TestRecordTransactionUnknownAsset(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.RecordTransaction(1, txInput(9999, models.TransactionBuy, 1, 100, time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

func TestRecordTransactionInvalidInputRejected(t *testing.T) {
	svc, assetID := setupTestService(t)

	_, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, -1, 100, time.Now()))
	require.Error(t, err)

	transactions, err := svc.ListTransactions(1, 10)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestRecordTransactionStrictOversellRollsBack(t *testing.T) {
	svc, assetID := setupTestService(t)
	config.Cfg.StrictOversell = true

	_, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 2, 100, time.Now()))
	require.NoError(t, err)

	_, err = svc.RecordTransaction(1, txInput(assetID, models.TransactionSell, 5, 100, time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, portfolio.ErrOversell))

	// The rejected sell must not have been persisted.
	transactions, err := svc.ListTransactions(1, 10)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)

	positions, err := svc.ListPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 2.0, positions[0].Quantity, 1e-9)
}

func TestRemoveTransactionRecomputesPosition(t *testing.T) {
	svc, assetID := setupTestService(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 10, 100, base))
	require.NoError(t, err)
	expensive, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 10, 200, base.Add(time.Hour)))
	require.NoError(t, err)

	deleted, err := svc.RemoveTransaction(expensive.ID, 1)
	require.NoError(t, err)
	require.True(t, deleted)

	positions, err := svc.ListPositions(1)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 10.0, positions[0].Quantity, 1e-9)
	assert.InDelta(t, 100.0, positions[0].AverageCost, 1e-9)
	assert.InDelta(t, 1000.0, positions[0].TotalInvested, 1e-9)
}

func TestRemoveTransactionLastOneDeletesPosition(t *testing.T) {
	svc, assetID := setupTestService(t)

	tx, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 3, 100, time.Now()))
	require.NoError(t, err)

	deleted, err := svc.RemoveTransaction(tx.ID, 1)
	require.NoError(t, err)
	require.True(t, deleted)

	positions, err := svc.ListPositions(1)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestRemoveTransactionWrongUser(t *testing.T) {
	svc, assetID := setupTestService(t)

	tx, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 3, 100, time.Now()))
	require.NoError(t, err)

	deleted, err := svc.RemoveTransaction(tx.ID, 2)
	require.NoError(t, err)
	assert.False(t, deleted)

	transactions, err := svc.ListTransactions(1, 10)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestRefreshPriceUpdatesMarketValue(t *testing.T) {
	svc, assetID := setupTestService(t)

	_, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 10, 100, time.Now()))
	require.NoError(t, err)

	pos, err := svc.RefreshPrice(1, assetID, 120)
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 120.0, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 1200.0, pos.CurrentValue, 1e-9)
	assert.InDelta(t, 200.0, pos.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 20.0, pos.UnrealizedPnLPct, 1e-9)
}

func TestRefreshPriceMissingPosition(t *testing.T) {
	svc, assetID := setupTestService(t)

	_, err := svc.RefreshPrice(1, assetID, 120)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPositionNotFound))
}

func TestGetSummaryReflectsLedger(t *testing.T) {
	svc, assetID := setupTestService(t)

	base := time.Now().AddDate(0, 0, -1)
	_, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 10, 100, base))
	require.NoError(t, err)
	_, err = svc.RecordTransaction(1, txInput(assetID, models.TransactionSell, 4, 150, base.Add(time.Hour)))
	require.NoError(t, err)

	summary, err := svc.GetSummary(1)
	require.NoError(t, err)

	assert.InDelta(t, 600.0, summary.TotalInvested, 1e-9)
	assert.InDelta(t, 200.0, summary.PnLAll.RealizedPnL, 1e-9)
	assert.Equal(t, 1, summary.TotalPositions)
	assert.Equal(t, 2, summary.TotalTransactions)
}

func TestGetSummaryCacheInvalidatedOnWrite(t *testing.T) {
	svc, assetID := setupTestService(t)

	_, err := svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 10, 100, time.Now()))
	require.NoError(t, err)

	first, err := svc.GetSummary(1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalTransactions)

	_, err = svc.RecordTransaction(1, txInput(assetID, models.TransactionBuy, 5, 100, time.Now()))
	require.NoError(t, err)

	second, err := svc.GetSummary(1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalTransactions)
	assert.InDelta(t, 1500.0, second.TotalInvested, 1e-9)
}
