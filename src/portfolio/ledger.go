package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/username/portfoliotracker/backend/src/models"
)

// Ledger is the durable record store the engine and aggregator work against:
// an append/delete-only transaction history plus the derived positions.
type Ledger interface {
	InsertTransaction(tx *models.Transaction) error
	DeleteTransaction(id, userID int64) (bool, error)
	GetTransaction(id, userID int64) (*models.Transaction, error)
	UpdateTransactionRealizedPnL(id int64, realizedPnL float64) error
	// ListTransactions returns the user's transactions ordered by occurred_at
	// (id as tie-break). assetID 0 means all assets, limit <= 0 means no limit.
	ListTransactions(userID, assetID int64, ascending bool, limit int) ([]models.Transaction, error)

	GetPosition(userID, assetID int64) (*models.Position, error)
	UpsertPosition(p *models.Position) error
	DeletePosition(userID, assetID int64) error
	ListPositions(userID int64) ([]models.Position, error)
}

// Querier is satisfied by both *sql.DB and *sql.Tx. Mutating operations are
// expected to run against a *sql.Tx so a transaction insert and its position
// update commit as one unit.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type sqlLedger struct {
	q Querier
}

// NewSQLLedger returns a Ledger backed by the given database handle or
// transaction.
func NewSQLLedger(q Querier) Ledger {
	return &sqlLedger{q: q}
}

func (l *sqlLedger) InsertTransaction(tx *models.Transaction) error {
	res, err := l.q.Exec(`
		INSERT INTO transactions (user_id, asset_id, kind, quantity, unit_price, fee, total_amount, realized_pnl, occurred_at, recorded_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.AssetID, tx.Kind, tx.Quantity, tx.UnitPrice, tx.Fee,
		tx.TotalAmount, tx.RealizedPnL, tx.OccurredAt, tx.RecordedAt, tx.Notes)
	if err != nil {
		return fmt.Errorf("error inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

func (l *sqlLedger) DeleteTransaction(id, userID int64) (bool, error) {
	res, err := l.q.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("error deleting transaction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (l *sqlLedger) GetTransaction(id, userID int64) (*models.Transaction, error) {
	row := l.q.QueryRow(`
		SELECT id, user_id, asset_id, kind, quantity, unit_price, fee, total_amount, realized_pnl, occurred_at, recorded_at, COALESCE(notes, '')
		FROM transactions
		WHERE id = ? AND user_id = ?`, id, userID)

	var tx models.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.AssetID, &tx.Kind, &tx.Quantity, &tx.UnitPrice,
		&tx.Fee, &tx.TotalAmount, &tx.RealizedPnL, &tx.OccurredAt, &tx.RecordedAt, &tx.Notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning transaction %d: %w", id, err)
	}
	return &tx, nil
}

func (l *sqlLedger) UpdateTransactionRealizedPnL(id int64, realizedPnL float64) error {
	_, err := l.q.Exec(`UPDATE transactions SET realized_pnl = ? WHERE id = ?`, realizedPnL, id)
	if err != nil {
		return fmt.Errorf("error updating realized pnl for transaction %d: %w", id, err)
	}
	return nil
}

func (l *sqlLedger) ListTransactions(userID, assetID int64, ascending bool, limit int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, asset_id, kind, quantity, unit_price, fee, total_amount, realized_pnl, occurred_at, recorded_at, COALESCE(notes, '')
		FROM transactions
		WHERE user_id = ?`
	args := []any{userID}
	if assetID != 0 {
		query += ` AND asset_id = ?`
		args = append(args, assetID)
	}
	if ascending {
		query += ` ORDER BY occurred_at ASC, id ASC`
	} else {
		query += ` ORDER BY occurred_at DESC, id DESC`
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		scanErr := rows.Scan(&tx.ID, &tx.UserID, &tx.AssetID, &tx.Kind, &tx.Quantity, &tx.UnitPrice,
			&tx.Fee, &tx.TotalAmount, &tx.RealizedPnL, &tx.OccurredAt, &tx.RecordedAt, &tx.Notes)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning transaction row for userID %d: %w", userID, scanErr)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows for userID %d: %w", userID, err)
	}
	return transactions, nil
}

func (l *sqlLedger) GetPosition(userID, assetID int64) (*models.Position, error) {
	row := l.q.QueryRow(`
		SELECT id, user_id, asset_id, quantity, average_cost, total_invested, current_price, current_value, unrealized_pnl, unrealized_pnl_pct, last_updated
		FROM positions
		WHERE user_id = ? AND asset_id = ?`, userID, assetID)

	var p models.Position
	err := row.Scan(&p.ID, &p.UserID, &p.AssetID, &p.Quantity, &p.AverageCost, &p.TotalInvested,
		&p.CurrentPrice, &p.CurrentValue, &p.UnrealizedPnL, &p.UnrealizedPnLPct, &p.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error scanning position for userID %d assetID %d: %w", userID, assetID, err)
	}
	return &p, nil
}

func (l *sqlLedger) UpsertPosition(p *models.Position) error {
	res, err := l.q.Exec(`
		INSERT INTO positions (user_id, asset_id, quantity, average_cost, total_invested, current_price, current_value, unrealized_pnl, unrealized_pnl_pct, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, asset_id) DO UPDATE SET
			quantity = excluded.quantity,
			average_cost = excluded.average_cost,
			total_invested = excluded.total_invested,
			current_price = excluded.current_price,
			current_value = excluded.current_value,
			unrealized_pnl = excluded.unrealized_pnl,
			unrealized_pnl_pct = excluded.unrealized_pnl_pct,
			last_updated = excluded.last_updated`,
		p.UserID, p.AssetID, p.Quantity, p.AverageCost, p.TotalInvested,
		p.CurrentPrice, p.CurrentValue, p.UnrealizedPnL, p.UnrealizedPnLPct, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("error upserting position for userID %d assetID %d: %w", p.UserID, p.AssetID, err)
	}
	if p.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			p.ID = id
		}
	}
	return nil
}

func (l *sqlLedger) DeletePosition(userID, assetID int64) error {
	_, err := l.q.Exec(`DELETE FROM positions WHERE user_id = ? AND asset_id = ?`, userID, assetID)
	if err != nil {
		return fmt.Errorf("error deleting position for userID %d assetID %d: %w", userID, assetID, err)
	}
	return nil
}

func (l *sqlLedger) ListPositions(userID int64) ([]models.Position, error) {
	rows, err := l.q.Query(`
		SELECT id, user_id, asset_id, quantity, average_cost, total_invested, current_price, current_value, unrealized_pnl, unrealized_pnl_pct, last_updated
		FROM positions
		WHERE user_id = ?
		ORDER BY asset_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying positions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		scanErr := rows.Scan(&p.ID, &p.UserID, &p.AssetID, &p.Quantity, &p.AverageCost, &p.TotalInvested,
			&p.CurrentPrice, &p.CurrentValue, &p.UnrealizedPnL, &p.UnrealizedPnLPct, &p.LastUpdated)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning position row for userID %d: %w", userID, scanErr)
		}
		positions = append(positions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over position rows for userID %d: %w", userID, err)
	}
	return positions, nil
}
