package portfolio

import (
	"time"

	"github.com/username/portfoliotracker/backend/src/models"
)

// Summarize derives the portfolio-wide PnL summary from the user's current
// positions and transaction history. now is the reference point for the
// period windows and is injected by the caller.
//
// Every period reuses the current unrealized PnL snapshot: unrealized gains
// have no historical "as of" value in this model, so a period's total is
// "PnL realized inside the window plus all paper gains right now". The period
// percentage is taken against the window-local BUY volume only.
func Summarize(positions []models.Position, transactions []models.Transaction, now time.Time) *models.PortfolioSummary {
	var totalInvested, currentValue, unrealizedPnL, realizedPnL float64

	for _, p := range positions {
		totalInvested += p.TotalInvested
		currentValue += p.CurrentValue
		unrealizedPnL += p.UnrealizedPnL
	}
	for _, tx := range transactions {
		if tx.Kind == models.TransactionSell {
			realizedPnL += tx.RealizedPnL
		}
	}

	totalPnL := realizedPnL + unrealizedPnL
	totalPnLPct := 0.0
	if totalInvested > 0 {
		totalPnLPct = totalPnL / totalInvested * 100
	}

	return &models.PortfolioSummary{
		TotalInvested:     totalInvested,
		CurrentValue:      currentValue,
		TotalPnL:          totalPnL,
		TotalPnLPct:       totalPnLPct,
		TotalPositions:    len(positions),
		TotalTransactions: len(transactions),
		PnL7d:             periodPnL("7d", 7, transactions, unrealizedPnL, now),
		PnL30d:            periodPnL("30d", 30, transactions, unrealizedPnL, now),
		PnL1y:             periodPnL("1y", 365, transactions, unrealizedPnL, now),
		PnLAll: models.PnLAnalytics{
			Period:        "all",
			TotalPnL:      totalPnL,
			TotalPnLPct:   totalPnLPct,
			RealizedPnL:   realizedPnL,
			UnrealizedPnL: unrealizedPnL,
		},
	}
}

// periodPnL computes the PnL summary for the trailing window of the given
// number of days. Transactions occurring exactly at the window start are
// included.
func periodPnL(period string, days int, transactions []models.Transaction, unrealizedPnL float64, now time.Time) models.PnLAnalytics {
	windowStart := now.AddDate(0, 0, -days)

	var periodRealized, periodInvested float64
	for _, tx := range transactions {
		if tx.OccurredAt.Before(windowStart) {
			continue
		}
		switch tx.Kind {
		case models.TransactionSell:
			periodRealized += tx.RealizedPnL
		case models.TransactionBuy:
			periodInvested += tx.TotalAmount
		}
	}

	periodTotal := periodRealized + unrealizedPnL
	periodPct := 0.0
	if periodInvested > 0 {
		periodPct = periodTotal / periodInvested * 100
	}

	return models.PnLAnalytics{
		Period:        period,
		TotalPnL:      periodTotal,
		TotalPnLPct:   periodPct,
		RealizedPnL:   periodRealized,
		UnrealizedPnL: unrealizedPnL,
	}
}
