package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/pkg/quant"
)

// FillStore persists the fill journal and order records in SQLite.
//
// The journal is the ledger's source of truth across restarts: every fill is
// written here before it is applied in memory, keyed by the exchange fill ID
// so replays are no-ops.
type FillStore struct {
	db *sql.DB
}

// NewFillStore opens (or creates) the SQLite journal with WAL mode enabled.
func NewFillStore(dbPath string) (*FillStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Configure SQLite for journal-first durability
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	// Metadata table for KV storage (trade counters, schema version)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	// Fill journal. fill_id is the exchange identifier and the dedup key.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			fill_id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			market_id TEXT NOT NULL,
			side TEXT NOT NULL,
			price INTEGER NOT NULL,
			size INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			ts INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create fills table: %w", err)
	}

	// Order records, keyed by idempotency key so an UNKNOWN outcome survives
	// a restart and gets resolved instead of resubmitted.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			idempotency_key TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}

	return &FillStore{db: db}, nil
}

// SaveFill journals a fill. Returns false if the fill ID was already present,
// in which case nothing was written.
func (s *FillStore) SaveFill(ctx context.Context, fill domain.Fill) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO fills (fill_id, order_id, market_id, side, price, size, seq, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		fill.FillID, fill.ExchangeOrderID, fill.MarketID, string(fill.Side),
		int64(fill.PriceMicros), int64(fill.SizeMicros), fill.Seq, int64(fill.Ts),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert fill: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check fill insert: %w", err)
	}
	return affected > 0, nil
}

// LoadFills loads the full journal in exchange order for state reconstruction.
func (s *FillStore) LoadFills(ctx context.Context) ([]domain.Fill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT fill_id, order_id, market_id, side, price, size, seq, ts FROM fills ORDER BY seq ASC, ts ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fills: %w", err)
	}
	defer rows.Close()

	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		var side string
		var price, size, ts int64

		if err := rows.Scan(&f.FillID, &f.ExchangeOrderID, &f.MarketID, &side, &price, &size, &f.Seq, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan fill: %w", err)
		}
		f.Side = domain.Side(side)
		f.PriceMicros = quant.PriceMicros(price)
		f.SizeMicros = quant.SizeMicros(size)
		f.Ts = quant.TimeStamp(ts)
		fills = append(fills, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return fills, nil
}

// UpsertOrder saves an order record keyed by its idempotency key.
func (s *FillStore) UpsertOrder(ctx context.Context, rec domain.OrderRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal order record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO orders (idempotency_key, status, payload, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(idempotency_key) DO UPDATE SET status=excluded.status, payload=excluded.payload, updated_at=excluded.updated_at",
		rec.Intent.IdempotencyKey, string(rec.Status), payload, int64(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

// LoadOpenOrders returns every order record not in a terminal state. These are
// the orders the executor must reconcile with the exchange after a restart.
func (s *FillStore) LoadOpenOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM orders WHERE status NOT IN (?, ?, ?)",
		string(domain.OrderFilled), string(domain.OrderCancelled), string(domain.OrderRejected),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var records []domain.OrderRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		var rec domain.OrderRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *FillStore) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table.
func (s *FillStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the database connection.
func (s *FillStore) Close() error {
	return s.db.Close()
}
