package model

import (
	"database/sql"
	"strings"
	"time"
)

// Asset types accepted by the catalog.
const (
	AssetTypeStock  = "stock"
	AssetTypeCrypto = "crypto"
)

// Asset is a tradable instrument in the catalog. Symbols are stored upper-case.
type Asset struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	AssetType string    `json:"asset_type"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAsset inserts a new asset and sets a.ID. The symbol is upper-cased
// before insertion.
func (a *Asset) CreateAsset(db *sql.DB) error {
	a.Symbol = strings.ToUpper(a.Symbol)
	a.CreatedAt = time.Now()

	query := `
	INSERT INTO assets (symbol, name, asset_type, created_at)
	VALUES (?, ?, ?, ?)`

	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(a.Symbol, a.Name, a.AssetType, a.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// GetAssetByID retrieves an asset by id. Returns (nil, nil) when absent.
func GetAssetByID(db *sql.DB, id int64) (*Asset, error) {
	row := db.QueryRow(`SELECT id, symbol, name, asset_type, created_at FROM assets WHERE id = ?`, id)
	var asset Asset
	err := row.Scan(&asset.ID, &asset.Symbol, &asset.Name, &asset.AssetType, &asset.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

// GetAssetBySymbol retrieves an asset by its (case-insensitive) symbol.
// Returns (nil, nil) when absent.
func GetAssetBySymbol(db *sql.DB, symbol string) (*Asset, error) {
	row := db.QueryRow(`SELECT id, symbol, name, asset_type, created_at FROM assets WHERE symbol = ?`, strings.ToUpper(symbol))
	var asset Asset
	err := row.Scan(&asset.ID, &asset.Symbol, &asset.Name, &asset.AssetType, &asset.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

// ListAssets returns a page of the asset catalog ordered by symbol.
func ListAssets(db *sql.DB, skip, limit int) ([]Asset, error) {
	rows, err := db.Query(`SELECT id, symbol, name, asset_type, created_at FROM assets ORDER BY symbol LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var asset Asset
		if err := rows.Scan(&asset.ID, &asset.Symbol, &asset.Name, &asset.AssetType, &asset.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}
