package services

import (
	"github.com/username/portfoliotracker/backend/src/models"
)

// PortfolioService is the core-facing contract exposed to the request layer:
// transaction mutations, position reads, the price input port and the PnL
// summary.
type PortfolioService interface {
	RecordTransaction(userID int64, input models.TransactionInput) (*models.Transaction, error)
	RemoveTransaction(txID, userID int64) (bool, error)
	GetSummary(userID int64) (*models.PortfolioSummary, error)
	ListTransactions(userID int64, limit int) ([]models.Transaction, error)
	ListPositions(userID int64) ([]models.Position, error)
	RefreshPrice(userID, assetID int64, price float64) (*models.Position, error)
}
