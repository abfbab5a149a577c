package portfolio

import (
	"fmt"
	"math"
	"time"

	"github.com/username/portfoliotracker/backend/src/models"
)

const (
	// quantityEpsilon treats a residual quantity this small as zero when
	// deciding whether a position has been fully closed.
	quantityEpsilon = 1e-9

	// consistencyTolerance bounds the acceptable floating-point drift between
	// total_invested and quantity * average_cost.
	consistencyTolerance = 1e-6
)

// Engine maintains positions from the transaction ledger. A single instance
// is bound to one Ledger, typically a *sql.Tx-backed one so a transaction
// write and its position mutation commit atomically.
type Engine struct {
	ledger         Ledger
	strictOversell bool
}

func NewEngine(ledger Ledger, strictOversell bool) *Engine {
	return &Engine{
		ledger:         ledger,
		strictOversell: strictOversell,
	}
}

// Apply records the transaction and updates the (user, asset) position
// incrementally. For SELL transactions tx.RealizedPnL is populated before the
// transaction is inserted. The position is deleted when its quantity reaches
// zero (or goes negative on an oversell in legacy mode).
func (e *Engine) Apply(tx *models.Transaction) (*models.Position, error) {
	position, err := e.ledger.GetPosition(tx.UserID, tx.AssetID)
	if err != nil {
		return nil, err
	}

	updated, err := e.applyToPosition(position, tx)
	if err != nil {
		return nil, err
	}

	if err := e.ledger.InsertTransaction(tx); err != nil {
		return nil, err
	}

	switch {
	case updated == nil && position != nil:
		if err := e.ledger.DeletePosition(tx.UserID, tx.AssetID); err != nil {
			return nil, err
		}
	case updated != nil:
		if err := checkInvariant(updated); err != nil {
			return nil, err
		}
		if err := e.ledger.UpsertPosition(updated); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// Recompute rebuilds the (user, asset) position from scratch by replaying the
// pair's full transaction history in occurred_at order. Stored realized PnL
// values are rewritten along the way, since deleting a transaction from the
// middle of history can change the cost basis of every later sale.
func (e *Engine) Recompute(userID, assetID int64) (*models.Position, error) {
	if err := e.ledger.DeletePosition(userID, assetID); err != nil {
		return nil, err
	}

	transactions, err := e.ledger.ListTransactions(userID, assetID, true, 0)
	if err != nil {
		return nil, err
	}

	var position *models.Position
	for i := range transactions {
		tx := &transactions[i]
		position, err = e.applyToPosition(position, tx)
		if err != nil {
			return nil, err
		}
		if position != nil {
			if err := checkInvariant(position); err != nil {
				return nil, err
			}
		}
		if tx.Kind == models.TransactionSell {
			if err := e.ledger.UpdateTransactionRealizedPnL(tx.ID, tx.RealizedPnL); err != nil {
				return nil, err
			}
		}
	}

	if position == nil {
		return nil, nil
	}
	if err := e.ledger.UpsertPosition(position); err != nil {
		return nil, err
	}
	return position, nil
}

// applyToPosition folds one transaction into the position. It returns the
// updated position, or nil when no position remains afterwards. SELL
// transactions get their RealizedPnL set as a side effect.
func (e *Engine) applyToPosition(position *models.Position, tx *models.Transaction) (*models.Position, error) {
	now := time.Now()

	switch tx.Kind {
	case models.TransactionBuy:
		if position == nil {
			position = &models.Position{
				UserID:        tx.UserID,
				AssetID:       tx.AssetID,
				Quantity:      tx.Quantity,
				TotalInvested: tx.TotalAmount,
			}
			position.AverageCost = position.TotalInvested / position.Quantity
		} else {
			newQuantity := position.Quantity + tx.Quantity
			newInvested := position.TotalInvested + tx.TotalAmount
			position.Quantity = newQuantity
			position.TotalInvested = newInvested
			position.AverageCost = newInvested / newQuantity
		}

	case models.TransactionSell:
		if position == nil {
			// Selling an untracked asset: nothing to realize against.
			tx.RealizedPnL = 0
			return nil, nil
		}
		if e.strictOversell && tx.Quantity > position.Quantity+quantityEpsilon {
			return nil, fmt.Errorf("%w: selling %f of %f held", ErrOversell, tx.Quantity, position.Quantity)
		}

		tx.RealizedPnL = (tx.UnitPrice - position.AverageCost) * tx.Quantity
		position.Quantity -= tx.Quantity
		position.TotalInvested -= position.AverageCost * tx.Quantity
		// AverageCost is deliberately left unchanged: remaining shares still
		// carry the same average.

		if position.Quantity <= quantityEpsilon {
			return nil, nil
		}

	default:
		return nil, fmt.Errorf("unknown transaction kind %q", tx.Kind)
	}

	// Refresh market-value fields against the last known price so
	// current_value stays equal to quantity * current_price. Before the first
	// price refresh CurrentPrice is zero and the market-value fields stay at
	// their zero defaults.
	if position.CurrentPrice > 0 {
		position.SetCurrentPrice(position.CurrentPrice, now)
	} else {
		position.LastUpdated = now
	}
	return position, nil
}

// checkInvariant verifies total_invested == quantity * average_cost within
// floating-point tolerance.
func checkInvariant(p *models.Position) error {
	drift := math.Abs(p.TotalInvested - p.Quantity*p.AverageCost)
	limit := consistencyTolerance * math.Max(1, math.Abs(p.TotalInvested))
	if drift > limit {
		return fmt.Errorf("%w: invested %f, quantity %f, average cost %f (drift %g)",
			ErrConsistency, p.TotalInvested, p.Quantity, p.AverageCost, drift)
	}
	return nil
}
