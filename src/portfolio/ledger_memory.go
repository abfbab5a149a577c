package portfolio

import (
	"sort"
	"sync"

	"github.com/username/portfoliotracker/backend/src/models"
)

// MemoryLedger is an in-memory Ledger used by tests and local tooling. It
// mirrors the SQL ledger's ordering semantics (occurred_at, then id).
type MemoryLedger struct {
	mu           sync.Mutex
	nextTxID     int64
	nextPosID    int64
	transactions map[int64]models.Transaction
	positions    map[[2]int64]models.Position // key: {userID, assetID}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		nextTxID:     1,
		nextPosID:    1,
		transactions: make(map[int64]models.Transaction),
		positions:    make(map[[2]int64]models.Position),
	}
}

func (l *MemoryLedger) InsertTransaction(tx *models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx.ID = l.nextTxID
	l.nextTxID++
	l.transactions[tx.ID] = *tx
	return nil
}

func (l *MemoryLedger) DeleteTransaction(id, userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.transactions[id]
	if !ok || tx.UserID != userID {
		return false, nil
	}
	delete(l.transactions, id)
	return true, nil
}

func (l *MemoryLedger) GetTransaction(id, userID int64) (*models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, nil
	}
	out := tx
	return &out, nil
}

func (l *MemoryLedger) UpdateTransactionRealizedPnL(id int64, realizedPnL float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx, ok := l.transactions[id]; ok {
		tx.RealizedPnL = realizedPnL
		l.transactions[id] = tx
	}
	return nil
}

func (l *MemoryLedger) ListTransactions(userID, assetID int64, ascending bool, limit int) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.Transaction
	for _, tx := range l.transactions {
		if tx.UserID != userID {
			continue
		}
		if assetID != 0 && tx.AssetID != assetID {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			if ascending {
				return out[i].OccurredAt.Before(out[j].OccurredAt)
			}
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		if ascending {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *MemoryLedger) GetPosition(userID, assetID int64) (*models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[[2]int64{userID, assetID}]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (l *MemoryLedger) UpsertPosition(p *models.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := [2]int64{p.UserID, p.AssetID}
	if existing, ok := l.positions[key]; ok {
		p.ID = existing.ID
	} else if p.ID == 0 {
		p.ID = l.nextPosID
		l.nextPosID++
	}
	l.positions[key] = *p
	return nil
}

func (l *MemoryLedger) DeletePosition(userID, assetID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.positions, [2]int64{userID, assetID})
	return nil
}

func (l *MemoryLedger) ListPositions(userID int64) ([]models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.Position
	for _, p := range l.positions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}
