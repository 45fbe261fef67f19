package storage

// sqlite.go — persistencia de bots, trades y snapshots de balance.
//
// Estrategia:
//   - Tres tablas con FK ON DELETE CASCADE: borrar un bot arrastra sus
//     trades y snapshots. El borrado además se hace en una transacción
//     explícita para no depender del pragma en cada conexión del pool.
//   - `balance_snapshots` es append-only: solo INSERT, el balance "actual"
//     es el más reciente por observed_at.
//   - UpdateTradeResolution lleva el guard `WHERE status = 'PENDING'`:
//     un pase concurrente que pierde la carrera afecta 0 filas y el
//     caller no re-emite eventos.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/alejandrodnm/bottrack/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bots (
    id             TEXT PRIMARY KEY,
    name           TEXT     NOT NULL,
    wallet_address TEXT     NOT NULL UNIQUE,
    created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id              TEXT PRIMARY KEY,
    bot_id          TEXT     NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
    market_id       TEXT     NOT NULL,
    market_question TEXT     NOT NULL DEFAULT '',
    outcome         TEXT     NOT NULL,
    cost_usdc       REAL     NOT NULL DEFAULT 0,
    shares          REAL     NOT NULL DEFAULT 0,
    potential_win   REAL     NOT NULL DEFAULT 0,
    status          TEXT     NOT NULL DEFAULT 'PENDING'
                    CHECK (status IN ('PENDING', 'WON', 'LOST', 'CANCELLED')),
    tx_hash         TEXT     NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL,
    resolved_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_bot ON trades(bot_id);

CREATE TABLE IF NOT EXISTS balance_snapshots (
    id            TEXT PRIMARY KEY,
    bot_id        TEXT     NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
    balance_usdc  REAL     NOT NULL DEFAULT 0,
    balance_matic REAL     NOT NULL DEFAULT 0,
    observed_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_bot ON balance_snapshots(bot_id, observed_at);
`

// SQLiteStorage implementa ports.Storage sobre SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en el DSN dado.
// Usa ":memory:" para una base efímera en tests.
func NewSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", dsn, err)
	}

	// Una sola conexión: evita que el pool reparta pragmas y que una base
	// ":memory:" se multiplique por conexión.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- bots ---

// CreateBot inserta un bot nuevo. Devuelve ports.ErrDuplicateWallet si la
// wallet ya está registrada.
func (s *SQLiteStorage) CreateBot(ctx context.Context, bot domain.Bot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bots (id, name, wallet_address, created_at) VALUES (?, ?, ?, ?)`,
		bot.ID, bot.Name, bot.WalletAddress, bot.CreatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ports.ErrDuplicateWallet
		}
		return fmt.Errorf("storage.CreateBot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetBot(ctx context.Context, id string) (domain.Bot, error) {
	return s.getBot(ctx, `SELECT id, name, wallet_address, created_at FROM bots WHERE id = ?`, id)
}

func (s *SQLiteStorage) GetBotByWallet(ctx context.Context, walletAddress string) (domain.Bot, error) {
	return s.getBot(ctx, `SELECT id, name, wallet_address, created_at FROM bots WHERE wallet_address = ?`, walletAddress)
}

func (s *SQLiteStorage) getBot(ctx context.Context, query, arg string) (domain.Bot, error) {
	var bot domain.Bot
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&bot.ID, &bot.Name, &bot.WalletAddress, &bot.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Bot{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Bot{}, fmt.Errorf("storage.getBot: %w", err)
	}
	return bot, nil
}

func (s *SQLiteStorage) ListBots(ctx context.Context) ([]domain.Bot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, wallet_address, created_at FROM bots ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListBots: %w", err)
	}
	defer rows.Close()

	var bots []domain.Bot
	for rows.Next() {
		var bot domain.Bot
		if err := rows.Scan(&bot.ID, &bot.Name, &bot.WalletAddress, &bot.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage.ListBots: scan: %w", err)
		}
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}

// ListBotStats devuelve todos los bots con contadores de trades, profit
// total y el USDC del último snapshot (NULL si nunca se consultó).
func (s *SQLiteStorage) ListBotStats(ctx context.Context) ([]domain.BotStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.wallet_address, b.created_at,
		       COUNT(t.id),
		       COALESCE(SUM(t.status = 'PENDING'), 0),
		       COALESCE(SUM(t.status = 'WON'), 0),
		       COALESCE(SUM(t.status = 'LOST'), 0),
		       COALESCE(SUM(CASE
		           WHEN t.status = 'WON'  THEN t.potential_win - t.cost_usdc
		           WHEN t.status = 'LOST' THEN -t.cost_usdc
		           ELSE 0
		       END), 0),
		       (SELECT balance_usdc FROM balance_snapshots
		        WHERE bot_id = b.id ORDER BY observed_at DESC, id DESC LIMIT 1)
		FROM bots b
		LEFT JOIN trades t ON t.bot_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC, b.id`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListBotStats: %w", err)
	}
	defer rows.Close()

	var stats []domain.BotStats
	for rows.Next() {
		var st domain.BotStats
		var balance sql.NullFloat64
		if err := rows.Scan(
			&st.ID, &st.Name, &st.WalletAddress, &st.CreatedAt,
			&st.TotalTrades, &st.PendingTrades, &st.WonTrades, &st.LostTrades,
			&st.TotalProfit, &balance,
		); err != nil {
			return nil, fmt.Errorf("storage.ListBotStats: scan: %w", err)
		}
		if balance.Valid {
			st.CurrentBalance = &balance.Float64
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *SQLiteStorage) RenameBot(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE bots SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("storage.RenameBot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// DeleteBot borra el bot y en cascada sus trades y snapshots, todo en una
// transacción.
func (s *SQLiteStorage) DeleteBot(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.DeleteBot: begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM balance_snapshots WHERE bot_id = ?`,
		`DELETE FROM trades WHERE bot_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("storage.DeleteBot: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM bots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage.DeleteBot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}

	return tx.Commit()
}

// --- trades ---

const tradeColumns = `t.id, t.bot_id, t.market_id, t.market_question, t.outcome,
	t.cost_usdc, t.shares, t.potential_win, t.status, t.tx_hash,
	t.created_at, t.resolved_at,
	b.id, b.name, b.wallet_address, b.created_at`

func (s *SQLiteStorage) CreateTrade(ctx context.Context, trade domain.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, bot_id, market_id, market_question, outcome,
			cost_usdc, shares, potential_win, status, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.BotID, trade.MarketID, trade.MarketQuestion, trade.Outcome,
		trade.CostUSDC, trade.Shares, trade.PotentialWin, trade.Status, trade.TxHash,
		trade.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.CreateTrade: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetTrade(ctx context.Context, id string) (domain.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades t JOIN bots b ON b.id = t.bot_id
		WHERE t.id = ?`, id)

	trade, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return domain.Trade{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Trade{}, fmt.Errorf("storage.GetTrade: %w", err)
	}
	return trade, nil
}

// ListTrades devuelve los trades del filtro, más recientes primero, y el
// total sin paginar.
func (s *SQLiteStorage) ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, int, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.BotID != "" {
		where += " AND t.bot_id = ?"
		args = append(args, filter.BotID)
	}
	if filter.Status != "" {
		where += " AND t.status = ?"
		args = append(args, filter.Status)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades t`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("storage.ListTrades: count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + tradeColumns + `
		FROM trades t JOIN bots b ON b.id = t.bot_id` + where + `
		ORDER BY t.created_at DESC, t.id LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("storage.ListTrades: %w", err)
	}
	defer rows.Close()

	trades, err := collectTrades(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("storage.ListTrades: %w", err)
	}
	return trades, total, nil
}

// ListPendingTrades devuelve todos los trades PENDING con su bot.
func (s *SQLiteStorage) ListPendingTrades(ctx context.Context) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades t JOIN bots b ON b.id = t.bot_id
		WHERE t.status = 'PENDING'
		ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPendingTrades: %w", err)
	}
	defer rows.Close()

	trades, err := collectTrades(rows)
	if err != nil {
		return nil, fmt.Errorf("storage.ListPendingTrades: %w", err)
	}
	return trades, nil
}

// UpdateTradeResolution transiciona un trade PENDING al estado terminal
// dado. Devuelve false si el trade ya no estaba PENDING.
func (s *SQLiteStorage) UpdateTradeResolution(ctx context.Context, id string, status domain.TradeStatus, resolvedAt time.Time) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("storage.UpdateTradeResolution: %q is not a terminal status", status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE trades SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'PENDING'`,
		status, resolvedAt.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("storage.UpdateTradeResolution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage.UpdateTradeResolution: %w", err)
	}
	return n > 0, nil
}

// --- balance snapshots ---

func (s *SQLiteStorage) AddSnapshot(ctx context.Context, snap domain.BalanceSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balance_snapshots (id, bot_id, balance_usdc, balance_matic, observed_at)
		VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.BotID, snap.BalanceUSDC, snap.BalanceMatic, snap.ObservedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.AddSnapshot: %w", err)
	}
	return nil
}

// LatestSnapshot devuelve el snapshot más reciente del bot, o ok=false si
// no tiene ninguno.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context, botID string) (domain.BalanceSnapshot, bool, error) {
	var snap domain.BalanceSnapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bot_id, balance_usdc, balance_matic, observed_at
		FROM balance_snapshots
		WHERE bot_id = ?
		ORDER BY observed_at DESC, id DESC LIMIT 1`, botID).
		Scan(&snap.ID, &snap.BotID, &snap.BalanceUSDC, &snap.BalanceMatic, &snap.ObservedAt)
	if err == sql.ErrNoRows {
		return domain.BalanceSnapshot{}, false, nil
	}
	if err != nil {
		return domain.BalanceSnapshot{}, false, fmt.Errorf("storage.LatestSnapshot: %w", err)
	}
	return snap, true, nil
}

func (s *SQLiteStorage) ListSnapshots(ctx context.Context, botID string, limit int) ([]domain.BalanceSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bot_id, balance_usdc, balance_matic, observed_at
		FROM balance_snapshots
		WHERE bot_id = ?
		ORDER BY observed_at DESC, id DESC LIMIT ?`, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListSnapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.BalanceSnapshot
	for rows.Next() {
		var snap domain.BalanceSnapshot
		if err := rows.Scan(&snap.ID, &snap.BotID, &snap.BalanceUSDC, &snap.BalanceMatic, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("storage.ListSnapshots: scan: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanTrade(row scannable) (domain.Trade, error) {
	var trade domain.Trade
	var bot domain.Bot
	var resolvedAt sql.NullTime

	err := row.Scan(
		&trade.ID, &trade.BotID, &trade.MarketID, &trade.MarketQuestion, &trade.Outcome,
		&trade.CostUSDC, &trade.Shares, &trade.PotentialWin, &trade.Status, &trade.TxHash,
		&trade.CreatedAt, &resolvedAt,
		&bot.ID, &bot.Name, &bot.WalletAddress, &bot.CreatedAt,
	)
	if err != nil {
		return domain.Trade{}, err
	}

	if resolvedAt.Valid {
		t := resolvedAt.Time
		trade.ResolvedAt = &t
	}
	trade.Bot = &bot
	return trade, nil
}

func collectTrades(rows *sql.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}
