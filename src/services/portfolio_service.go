// backend/src/services/portfolio_service.go
package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/portfoliotracker/backend/src/config"
	"github.com/username/portfoliotracker/backend/src/logger"
	"github.com/username/portfoliotracker/backend/src/model"
	"github.com/username/portfoliotracker/backend/src/models"
	"github.com/username/portfoliotracker/backend/src/portfolio"
	"github.com/username/portfoliotracker/backend/src/security/validation"
)

const ckPortfolioSummary = "summary_user_%d"

type portfolioServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
}

func NewPortfolioService(db *sql.DB, reportCache *cache.Cache) PortfolioService {
	return &portfolioServiceImpl{
		db:          db,
		reportCache: reportCache,
	}
}

// RecordTransaction validates the payload, verifies the referenced asset and
// applies the transaction through the position engine. The transaction insert
// and the position mutation commit as one database transaction: a recorded
// transaction with a stale position is never observable.
func (s *portfolioServiceImpl) RecordTransaction(userID int64, input models.TransactionInput) (*models.Transaction, error) {
	if err := validation.ValidateTransactionInput(&input); err != nil {
		return nil, err
	}

	asset, err := model.GetAssetByID(s.db, input.AssetID)
	if err != nil {
		return nil, fmt.Errorf("error looking up asset %d: %w", input.AssetID, err)
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: id %d", ErrAssetNotFound, input.AssetID)
	}

	tx := &models.Transaction{
		UserID:      userID,
		AssetID:     input.AssetID,
		Kind:        input.Kind,
		Quantity:    input.Quantity,
		UnitPrice:   input.UnitPrice,
		Fee:         input.Fee,
		TotalAmount: input.Quantity*input.UnitPrice + input.Fee,
		OccurredAt:  input.OccurredAt,
		RecordedAt:  time.Now(),
		Notes:       input.Notes,
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	engine := portfolio.NewEngine(portfolio.NewSQLLedger(dbTx), config.Cfg.StrictOversell)
	if _, err := engine.Apply(tx); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	s.invalidateUserCache(userID)
	logger.L.Info("Transaction recorded", "userID", userID, "assetID", tx.AssetID,
		"kind", tx.Kind, "txID", tx.ID, "realizedPnL", tx.RealizedPnL)
	return tx, nil
}

// RemoveTransaction deletes the transaction if it belongs to the user and
// rebuilds the affected position by replaying the remaining history. Returns
// whether a deletion occurred.
func (s *portfolioServiceImpl) RemoveTransaction(txID, userID int64) (bool, error) {
	dbTx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	ledger := portfolio.NewSQLLedger(dbTx)
	tx, err := ledger.GetTransaction(txID, userID)
	if err != nil {
		return false, err
	}
	if tx == nil {
		return false, nil
	}

	deleted, err := ledger.DeleteTransaction(txID, userID)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	engine := portfolio.NewEngine(ledger, config.Cfg.StrictOversell)
	if _, err := engine.Recompute(userID, tx.AssetID); err != nil {
		return false, err
	}

	if err := dbTx.Commit(); err != nil {
		return false, fmt.Errorf("error committing transaction deletion: %w", err)
	}

	s.invalidateUserCache(userID)
	logger.L.Info("Transaction removed, position recomputed", "userID", userID,
		"assetID", tx.AssetID, "txID", txID)
	return true, nil
}

// GetSummary returns the cached portfolio summary for the user, computing it
// from the ledger on a cache miss.
func (s *portfolioServiceImpl) GetSummary(userID int64) (*models.PortfolioSummary, error) {
	cacheKey := fmt.Sprintf(ckPortfolioSummary, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for portfolio summary", "userID", userID)
		return cached.(*models.PortfolioSummary), nil
	}

	ledger := portfolio.NewSQLLedger(s.db)
	positions, err := ledger.ListPositions(userID)
	if err != nil {
		return nil, err
	}
	transactions, err := ledger.ListTransactions(userID, 0, false, config.Cfg.TransactionFetchLimit)
	if err != nil {
		return nil, err
	}

	summary := portfolio.Summarize(positions, transactions, time.Now())
	s.reportCache.Set(cacheKey, summary, config.Cfg.SummaryCacheTTL)
	return summary, nil
}

func (s *portfolioServiceImpl) ListTransactions(userID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > config.Cfg.TransactionFetchLimit {
		limit = config.Cfg.TransactionFetchLimit
	}
	return portfolio.NewSQLLedger(s.db).ListTransactions(userID, 0, false, limit)
}

func (s *portfolioServiceImpl) ListPositions(userID int64) ([]models.Position, error) {
	return portfolio.NewSQLLedger(s.db).ListPositions(userID)
}

// RefreshPrice applies an externally supplied price to the position and
// recomputes its market-value fields. The engine itself never touches prices,
// so this is the only write path for current_price.
func (s *portfolioServiceImpl) RefreshPrice(userID, assetID int64, price float64) (*models.Position, error) {
	if err := validation.ValidatePrice(price); err != nil {
		return nil, err
	}

	ledger := portfolio.NewSQLLedger(s.db)
	position, err := ledger.GetPosition(userID, assetID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: userID %d assetID %d", ErrPositionNotFound, userID, assetID)
	}

	position.SetCurrentPrice(price, time.Now())
	if err := ledger.UpsertPosition(position); err != nil {
		return nil, err
	}

	s.invalidateUserCache(userID)
	return position, nil
}

func (s *portfolioServiceImpl) invalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckPortfolioSummary, userID))
}
