package models

// PnLAnalytics is the profit/loss summary for one reporting period.
// UnrealizedPnL is the current snapshot value, reused identically across all
// periods: unrealized gains have no "as of" history in this model. Only
// RealizedPnL and the invested denominator are window-local.
type PnLAnalytics struct {
	Period        string  `json:"period"` // "7d", "30d", "1y", "all"
	TotalPnL      float64 `json:"total_pnl"`
	TotalPnLPct   float64 `json:"total_pnl_percentage"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// PortfolioSummary is the portfolio-wide analytics response.
type PortfolioSummary struct {
	TotalInvested     float64      `json:"total_invested"`
	CurrentValue      float64      `json:"current_value"`
	TotalPnL          float64      `json:"total_pnl"`
	TotalPnLPct       float64      `json:"total_pnl_percentage"`
	TotalPositions    int          `json:"total_positions"`
	TotalTransactions int          `json:"total_transactions"`
	PnL7d             PnLAnalytics `json:"pnl_7d"`
	PnL30d            PnLAnalytics `json:"pnl_30d"`
	PnL1y             PnLAnalytics `json:"pnl_1y"`
	PnLAll            PnLAnalytics `json:"pnl_all"`
}
