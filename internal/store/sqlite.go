package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradebot/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ TradeLog = (*SQLiteStore)(nil)

// SQLiteStore implements BarStore and TradeLog backed by a SQLite database.
// It serves as the durable layer of the market data cascade and as the
// persistent trade history.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol    TEXT    NOT NULL,
	timestamp INTEGER NOT NULL, -- Unix ms
	open      REAL    NOT NULL,
	high      REAL    NOT NULL,
	low       REAL    NOT NULL,
	close     REAL    NOT NULL,
	volume    INTEGER NOT NULL,
	PRIMARY KEY (symbol, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_bars_symbol_ts ON bars(symbol, timestamp DESC);

CREATE TABLE IF NOT EXISTS trades (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol     TEXT    NOT NULL,
	order_type TEXT    NOT NULL,
	quantity   REAL    NOT NULL,
	price      REAL    NOT NULL,
	timestamp  INTEGER NOT NULL -- Unix ms
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars upserts a batch of bars keyed by (symbol, timestamp).
func (s *SQLiteStore) WriteBars(ctx context.Context, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.Timestamp.UnixMilli(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("inserting bar %s@%s: %w", b.Symbol, b.Timestamp, err)
		}
	}
	return tx.Commit()
}

// ReadBars returns bars for the symbol within [start, end], oldest first.
func (s *SQLiteStore) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC`,
		symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestBar returns the most recent bar for the symbol.
func (s *SQLiteStore) LatestBar(ctx context.Context, symbol string) (*domain.Bar, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = ?
		ORDER BY timestamp DESC
		LIMIT 1`, symbol)

	var (
		b  domain.Bar
		ts int64
	)
	err := row.Scan(&b.Symbol, &ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Timestamp = time.UnixMilli(ts).UTC()
	return &b, nil
}

// ListSymbols returns all distinct symbols with stored bars, sorted.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// ---------------------------------------------------------------------------
// TradeLog implementation
// ---------------------------------------------------------------------------

// AppendTrade records one executed trade.
func (s *SQLiteStore) AppendTrade(ctx context.Context, trade domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (symbol, order_type, quantity, price, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		trade.Symbol, string(trade.OrderType), trade.Quantity, trade.Price,
		trade.Timestamp.UnixMilli())
	return err
}

// ListTrades returns the most recent trades, newest first.
func (s *SQLiteStore) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	query := `
		SELECT symbol, order_type, quantity, price, timestamp
		FROM trades
		ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var (
			t         domain.Trade
			orderType string
			ts        int64
		)
		if err := rows.Scan(&t.Symbol, &orderType, &t.Quantity, &t.Price, &ts); err != nil {
			return nil, err
		}
		t.OrderType = domain.OrderType(orderType)
		t.Timestamp = time.UnixMilli(ts).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func scanBar(rows *sql.Rows) (domain.Bar, error) {
	var (
		b  domain.Bar
		ts int64
	)
	if err := rows.Scan(&b.Symbol, &ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
		return domain.Bar{}, err
	}
	b.Timestamp = time.UnixMilli(ts).UTC()
	return b, nil
}
