package models

import "time"

// Position is the derived per (user, asset) holdings aggregate. It is always
// reproducible by replaying the pair's transaction history from empty state.
// A position whose quantity reaches zero is deleted, never stored as zero.
//
// CurrentPrice is externally supplied (price refresh endpoint); CurrentValue,
// UnrealizedPnL and UnrealizedPnLPct are derived from it.
type Position struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	AssetID          int64     `json:"asset_id"`
	Quantity         float64   `json:"quantity"`
	AverageCost      float64   `json:"average_cost"`
	TotalInvested    float64   `json:"total_invested"`
	CurrentPrice     float64   `json:"current_price"`
	CurrentValue     float64   `json:"current_value"`
	UnrealizedPnL    float64   `json:"unrealized_pnl"`
	UnrealizedPnLPct float64   `json:"unrealized_pnl_pct"`
	LastUpdated      time.Time `json:"last_updated"`
}

// SetCurrentPrice applies an externally supplied price and refreshes the
// derived market-value fields.
func (p *Position) SetCurrentPrice(price float64, now time.Time) {
	p.CurrentPrice = price
	p.CurrentValue = p.Quantity * price
	p.UnrealizedPnL = p.CurrentValue - p.TotalInvested
	if p.TotalInvested > 0 {
		p.UnrealizedPnLPct = p.UnrealizedPnL / p.TotalInvested * 100
	} else {
		p.UnrealizedPnLPct = 0
	}
	p.LastUpdated = now
}
