package portfolio

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/backend/src/models"
)

const testUserID = int64(1)
const testAssetID = int64(10)

func buyTx(quantity, unitPrice, fee float64, occurredAt time.Time) *models.Transaction {
	return &models.Transaction{
		UserID:      testUserID,
		AssetID:     testAssetID,
		Kind:        models.TransactionBuy,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Fee:         fee,
		TotalAmount: quantity*unitPrice + fee,
		OccurredAt:  occurredAt,
	}
}

func sellTx(quantity, unitPrice, fee float64, occurredAt time.Time) *models.Transaction {
	return &models.Transaction{
		UserID:      testUserID,
		AssetID:     testAssetID,
		Kind:        models.TransactionSell,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Fee:         fee,
		TotalAmount: quantity*unitPrice + fee,
		OccurredAt:  occurredAt,
	}
}

func TestApplyBuyCreatesPosition(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	pos, err := engine.Apply(buyTx(2, 100, 0, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 2.0, pos.Quantity, 1e-9)
	assert.InDelta(t, 200.0, pos.TotalInvested, 1e-9)
	assert.InDelta(t, 100.0, pos.AverageCost, 1e-9)
	assert.Zero(t, pos.CurrentPrice)
	assert.Zero(t, pos.UnrealizedPnL)
}

func TestApplyBuyBlendsAverageCost(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	_, err := engine.Apply(buyTx(2, 100, 0, time.Now()))
	require.NoError(t, err)
	pos, err := engine.Apply(buyTx(2, 200, 0, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 4.0, pos.Quantity, 1e-9)
	assert.InDelta(t, 600.0, pos.TotalInvested, 1e-9)
	assert.InDelta(t, 150.0, pos.AverageCost, 1e-9)
}

func TestApplyBuyFoldsFeeIntoInvested(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	pos, err := engine.Apply(buyTx(10, 50, 5, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 505.0, pos.TotalInvested, 1e-9)
	assert.InDelta(t, 50.5, pos.AverageCost, 1e-9)
}

func TestApplySellRealizesPnLAndKeepsAverage(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	_, err := engine.Apply(buyTx(10, 100, 0, time.Now()))
	require.NoError(t, err)

	tx := sellTx(4, 150, 0, time.Now())
	pos, err := engine.Apply(tx)
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 200.0, tx.RealizedPnL, 1e-9)
	assert.InDelta(t, 6.0, pos.Quantity, 1e-9)
	assert.InDelta(t, 600.0, pos.TotalInvested, 1e-9)
	assert.InDelta(t, 100.0, pos.AverageCost, 1e-9)
}

func TestApplySellAtLossRealizesNegativePnL(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	_, err := engine.Apply(buyTx(10, 100, 0, time.Now()))
	require.NoError(t, err)

	tx := sellTx(5, 80, 0, time.Now())
	_, err = engine.Apply(tx)
	require.NoError(t, err)

	assert.InDelta(t, -100.0, tx.RealizedPnL, 1e-9)
}

func TestApplyFullSellDeletesPosition(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	_, err := engine.Apply(buyTx(3, 100, 0, time.Now()))
	require.NoError(t, err)

	pos, err := engine.Apply(sellTx(3, 120, 0, time.Now()))
	require.NoError(t, err)
	assert.Nil(t, pos)

	stored, err := ledger.GetPosition(testUserID, testAssetID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestApplySellUntrackedAssetIsNoop(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	tx := sellTx(5, 100, 0, time.Now())
	pos, err := engine.Apply(tx)
	require.NoError(t, err)

	assert.Nil(t, pos)
	assert.Zero(t, tx.RealizedPnL)

	// The transaction itself is still ledgered.
	list, err := ledger.ListTransactions(testUserID, testAssetID, true, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestApplyOversellLegacyModeDeletesPosition(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	_, err := engine.Apply(buyTx(2, 100, 0, time.Now()))
	require.NoError(t, err)

	tx := sellTx(5, 100, 0, time.Now())
	pos, err := engine.Apply(tx)
	require.NoError(t, err)
	assert.Nil(t, pos)

	stored, err := ledger.GetPosition(testUserID, testAssetID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestApplyOversellStrictModeRejected(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, true)

	_, err := engine.Apply(buyTx(2, 100, 0, time.Now()))
	require.NoError(t, err)

	_, err = engine.Apply(sellTx(5, 100, 0, time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOversell))

	// The rejected sell must not reach the ledger.
	list, err := ledger.ListTransactions(testUserID, testAssetID, true, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	pos, err := ledger.GetPosition(testUserID, testAssetID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.InDelta(t, 2.0, pos.Quantity, 1e-9)
}

func TestApplyStrictModeAllowsExactClose(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, true)

	_, err := engine.Apply(buyTx(2, 100, 0, time.Now()))
	require.NoError(t, err)

	pos, err := engine.Apply(sellTx(2, 110, 0, time.Now()))
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestApplyUnknownKindRejected(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	tx := buyTx(1, 100, 0, time.Now())
	tx.Kind = "transfer"
	_, err := engine.Apply(tx)
	require.Error(t, err)
}

func TestApplyPreservesMarketValueFields(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	pos, err := engine.Apply(buyTx(4, 100, 0, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, pos)

	pos.SetCurrentPrice(120, time.Now())
	require.NoError(t, ledger.UpsertPosition(pos))

	pos, err = engine.Apply(buyTx(2, 100, 0, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 120.0, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 720.0, pos.CurrentValue, 1e-9)
	assert.InDelta(t, 120.0, pos.UnrealizedPnL, 1e-9)
}

func TestRecomputeMatchesIncrementalApply(t *testing.T) {
	incremental := NewMemoryLedger()
	replayed := NewMemoryLedger()

	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var quantityHeld float64
	var txs []*models.Transaction
	for i := 0; i < 50; i++ {
		occurredAt := base.Add(time.Duration(i) * time.Hour)
		price := 50 + rng.Float64()*100
		if quantityHeld > 1 && rng.Float64() < 0.4 {
			qty := quantityHeld * rng.Float64()
			txs = append(txs, sellTx(qty, price, 0, occurredAt))
			quantityHeld -= qty
		} else {
			qty := 1 + rng.Float64()*10
			txs = append(txs, buyTx(qty, price, rng.Float64()*2, occurredAt))
			quantityHeld += qty
		}
	}

	incEngine := NewEngine(incremental, false)
	var incPos *models.Position
	for _, tx := range txs {
		var err error
		incPos, err = incEngine.Apply(tx)
		require.NoError(t, err)
	}

	for _, tx := range txs {
		clone := *tx
		clone.ID = 0
		clone.RealizedPnL = 0
		require.NoError(t, replayed.InsertTransaction(&clone))
	}
	repPos, err := NewEngine(replayed, false).Recompute(testUserID, testAssetID)
	require.NoError(t, err)

	require.NotNil(t, incPos)
	require.NotNil(t, repPos)
	assert.InDelta(t, incPos.Quantity, repPos.Quantity, 1e-6)
	assert.InDelta(t, incPos.TotalInvested, repPos.TotalInvested, 1e-6)
	assert.InDelta(t, incPos.AverageCost, repPos.AverageCost, 1e-6)
}

func TestRecomputeRewritesRealizedPnL(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	buy1 := buyTx(10, 100, 0, base)
	buy2 := buyTx(10, 200, 0, base.Add(time.Hour))
	sell := sellTx(5, 250, 0, base.Add(2*time.Hour))

	for _, tx := range []*models.Transaction{buy1, buy2, sell} {
		_, err := engine.Apply(tx)
		require.NoError(t, err)
	}
	// Sold against a 150 blended average.
	assert.InDelta(t, 500.0, sell.RealizedPnL, 1e-9)

	// Remove the expensive buy; the sale's cost basis drops to 100.
	deleted, err := ledger.DeleteTransaction(buy2.ID, testUserID)
	require.NoError(t, err)
	require.True(t, deleted)

	pos, err := engine.Recompute(testUserID, testAssetID)
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 5.0, pos.Quantity, 1e-9)
	assert.InDelta(t, 500.0, pos.TotalInvested, 1e-9)
	assert.InDelta(t, 100.0, pos.AverageCost, 1e-9)

	stored, err := ledger.GetTransaction(sell.ID, testUserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.InDelta(t, 750.0, stored.RealizedPnL, 1e-9)
}

func TestRecomputeEmptyHistoryLeavesNoPosition(t *testing.T) {
	ledger := NewMemoryLedger()
	engine := NewEngine(ledger, false)

	_, err := engine.Apply(buyTx(1, 100, 0, time.Now()))
	require.NoError(t, err)

	list, err := ledger.ListTransactions(testUserID, testAssetID, true, 0)
	require.NoError(t, err)
	deleted, err := ledger.DeleteTransaction(list[0].ID, testUserID)
	require.NoError(t, err)
	require.True(t, deleted)

	pos, err := engine.Recompute(testUserID, testAssetID)
	require.NoError(t, err)
	assert.Nil(t, pos)

	stored, err := ledger.GetPosition(testUserID, testAssetID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRecomputeOrdersByOccurredAt(t *testing.T) {
	ledger := NewMemoryLedger()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Inserted out of order; replay must sort by occurred_at.
	sell := sellTx(5, 150, 0, base.Add(2*time.Hour))
	buy := buyTx(10, 100, 0, base)
	require.NoError(t, ledger.InsertTransaction(sell))
	require.NoError(t, ledger.InsertTransaction(buy))

	pos, err := NewEngine(ledger, false).Recompute(testUserID, testAssetID)
	require.NoError(t, err)
	require.NotNil(t, pos)

	assert.InDelta(t, 5.0, pos.Quantity, 1e-9)

	stored, err := ledger.GetTransaction(sell.ID, testUserID)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, stored.RealizedPnL, 1e-9)
}

func TestPositionInvariantHoldsUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for run := 0; run < 10; run++ {
		ledger := NewMemoryLedger()
		engine := NewEngine(ledger, false)

		var held float64
		for i := 0; i < 30; i++ {
			occurredAt := base.Add(time.Duration(i) * time.Minute)
			price := 10 + rng.Float64()*90
			var pos *models.Position
			var err error
			if held > 0.5 && rng.Float64() < 0.5 {
				qty := held * rng.Float64()
				pos, err = engine.Apply(sellTx(qty, price, 0, occurredAt))
				held -= qty
			} else {
				qty := rng.Float64() * 5
				if qty == 0 {
					qty = 1
				}
				pos, err = engine.Apply(buyTx(qty, price, 0, occurredAt))
				held += qty
			}
			require.NoError(t, err)
			if pos != nil {
				drift := math.Abs(pos.TotalInvested - pos.Quantity*pos.AverageCost)
				assert.LessOrEqual(t, drift, 1e-6*math.Max(1, math.Abs(pos.TotalInvested)))
			}
		}
	}
}
