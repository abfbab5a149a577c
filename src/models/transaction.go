package models

import "time"

// Transaction kinds. Stored lower-case, matching the API payloads.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
)

// Transaction is an immutable, timestamped ledger fact. TotalAmount is
// computed once at creation (quantity*unit_price + fee) and never recomputed.
// RealizedPnL is only populated for SELL transactions, as a side effect of
// applying the transaction to the position.
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	AssetID     int64     `json:"asset_id"`
	Kind        string    `json:"kind"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Fee         float64   `json:"fee"`
	TotalAmount float64   `json:"total_amount"`
	RealizedPnL float64   `json:"realized_pnl"`
	OccurredAt  time.Time `json:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at"`
	Notes       string    `json:"notes,omitempty"`
}

// TransactionInput is the client-supplied payload for recording a transaction.
type TransactionInput struct {
	AssetID    int64     `json:"asset_id"`
	Kind       string    `json:"kind"`
	Quantity   float64   `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	Fee        float64   `json:"fee"`
	OccurredAt time.Time `json:"occurred_at"`
	Notes      string    `json:"notes,omitempty"`
}
