// backend/src/security/validation/validators.go
package validation

import (
	"fmt"

	"github.com/username/portfoliotracker/backend/src/models"
)

// FieldError reports a single invalid field in a client payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateTransactionInput enforces the structural constraints on a
// transaction payload before it reaches the position engine: positive
// quantity and unit price, non-negative fee, a known kind and a timestamp.
func ValidateTransactionInput(input *models.TransactionInput) error {
	if input.AssetID <= 0 {
		return &FieldError{Field: "asset_id", Message: "asset_id is required"}
	}
	if input.Kind != models.TransactionBuy && input.Kind != models.TransactionSell {
		return &FieldError{Field: "kind", Message: "kind must be 'buy' or 'sell'"}
	}
	if input.Quantity <= 0 {
		return &FieldError{Field: "quantity", Message: "quantity must be positive"}
	}
	if input.UnitPrice <= 0 {
		return &FieldError{Field: "unit_price", Message: "unit_price must be positive"}
	}
	if input.Fee < 0 {
		return &FieldError{Field: "fee", Message: "fee must be non-negative"}
	}
	if input.OccurredAt.IsZero() {
		return &FieldError{Field: "occurred_at", Message: "occurred_at is required"}
	}
	return nil
}

// ValidateAssetInput enforces the structural constraints on a new catalog
// asset.
func ValidateAssetInput(symbol, name, assetType string) error {
	if symbol == "" {
		return &FieldError{Field: "symbol", Message: "symbol is required"}
	}
	if len(symbol) > 16 {
		return &FieldError{Field: "symbol", Message: "symbol must be at most 16 characters"}
	}
	if name == "" {
		return &FieldError{Field: "name", Message: "name is required"}
	}
	if assetType != "stock" && assetType != "crypto" {
		return &FieldError{Field: "asset_type", Message: "asset_type must be 'stock' or 'crypto'"}
	}
	return nil
}

// ValidatePrice enforces the structural constraint on a price refresh payload.
func ValidatePrice(price float64) error {
	if price <= 0 {
		return &FieldError{Field: "price", Message: "price must be positive"}
	}
	return nil
}
