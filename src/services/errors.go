package services

import "errors"

var (
	// ErrAssetNotFound is returned when a transaction references an asset
	// that does not exist in the catalog.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrPositionNotFound is returned when a price refresh targets a
	// (user, asset) pair with no open position.
	ErrPositionNotFound = errors.New("position not found")
)
