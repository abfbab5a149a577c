package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/backend/src/models"
)

func validInput() *models.TransactionInput {
	return &models.TransactionInput{
		AssetID:    1,
		Kind:       models.TransactionBuy,
		Quantity:   2,
		UnitPrice:  100,
		Fee:        0.5,
		OccurredAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateTransactionInput(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.TransactionInput)
		wantField string
	}{
		{"valid buy", func(in *models.TransactionInput) {}, ""},
		{"valid sell", func(in *models.TransactionInput) { in.Kind = models.TransactionSell }, ""},
		{"zero fee allowed", func(in *models.TransactionInput) { in.Fee = 0 }, ""},
		{"missing asset", func(in *models.TransactionInput) { in.AssetID = 0 }, "asset_id"},
		{"unknown kind", func(in *models.TransactionInput) { in.Kind = "transfer" }, "kind"},
		{"zero quantity", func(in *models.TransactionInput) { in.Quantity = 0 }, "quantity"},
		{"negative quantity", func(in *models.TransactionInput) { in.Quantity = -1 }, "quantity"},
		{"zero unit price", func(in *models.TransactionInput) { in.UnitPrice = 0 }, "unit_price"},
		{"negative fee", func(in *models.TransactionInput) { in.Fee = -0.01 }, "fee"},
		{"missing timestamp", func(in *models.TransactionInput) { in.OccurredAt = time.Time{} }, "occurred_at"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(input)
			err := ValidateTransactionInput(input)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fieldErr, ok := err.(*FieldError)
			require.True(t, ok)
			assert.Equal(t, tc.wantField, fieldErr.Field)
		})
	}
}

func TestValidateAssetInput(t *testing.T) {
	tests := []struct {
		name      string
		symbol    string
		assetName string
		assetType string
		wantField string
	}{
		{"valid stock", "AAPL", "Apple Inc.", "stock", ""},
		{"valid crypto", "BTC", "Bitcoin", "crypto", ""},
		{"empty symbol", "", "Apple Inc.", "stock", "symbol"},
		{"symbol too long", "VERYLONGSYMBOLNAME", "X", "stock", "symbol"},
		{"empty name", "AAPL", "", "stock", "name"},
		{"unknown type", "AAPL", "Apple Inc.", "bond", "asset_type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAssetInput(tc.symbol, tc.assetName, tc.assetType)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fieldErr, ok := err.(*FieldError)
			require.True(t, ok)
			assert.Equal(t, tc.wantField, fieldErr.Field)
		})
	}
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(0.01))
	assert.Error(t, ValidatePrice(0))
	assert.Error(t, ValidatePrice(-10))
}

func TestFieldErrorMessage(t *testing.T) {
	err := &FieldError{Field: "quantity", Message: "quantity must be positive"}
	assert.Equal(t, "quantity: quantity must be positive", err.Error())
}
