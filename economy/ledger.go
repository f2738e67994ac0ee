package economy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS balances (
	player_id TEXT NOT NULL,
	currency  TEXT NOT NULL,
	balance   TEXT NOT NULL,
	PRIMARY KEY (player_id, currency)
);
CREATE TABLE IF NOT EXISTS balance_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id   TEXT NOT NULL,
	currency    TEXT NOT NULL,
	old_balance TEXT NOT NULL,
	new_balance TEXT NOT NULL,
	cause       TEXT NOT NULL,
	changed_at  INTEGER NOT NULL
);
`

// Ledger is an economy persisted in SQLite. Balances are stored as
// decimal text so no precision is lost.
type Ledger struct {
	sqlDB    *sql.DB
	currency string
}

// Entry is one recorded balance change.
type Entry struct {
	Currency  string
	Old       decimal.Decimal
	New       decimal.Decimal
	Cause     string
	ChangedAt time.Time
}

// OpenLedger opens or creates a ledger at path. ":memory:" opens a
// throwaway database.
func OpenLedger(path, currency string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: the host is single threaded and an in-memory
	// database lives only as long as its connection.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &Ledger{sqlDB: sqlDB, currency: currency}, nil
}

// Close closes the SQLite handle.
func (l *Ledger) Close() error {
	if l == nil || l.sqlDB == nil {
		return nil
	}
	return l.sqlDB.Close()
}

// DefaultCurrency implements engine.Economy.
func (l *Ledger) DefaultCurrency() string {
	return l.currency
}

// GetOrCreateAccount implements engine.Economy.
func (l *Ledger) GetOrCreateAccount(ctx context.Context, player types.PlayerID) (engine.Account, error) {
	_, err := l.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO balances (player_id, currency, balance) VALUES (?, ?, '0')`,
		player.String(), l.currency)
	if err != nil {
		return nil, fmt.Errorf("create account %s: %w", player, err)
	}
	return &ledgerAccount{l: l, player: player}, nil
}

// History returns the balance changes recorded for player, oldest first.
func (l *Ledger) History(ctx context.Context, player types.PlayerID) ([]Entry, error) {
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT currency, old_balance, new_balance, cause, changed_at
		   FROM balance_history WHERE player_id = ? ORDER BY id`,
		player.String())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e              Entry
			oldBal, newBal string
			at             int64
		)
		if err := rows.Scan(&e.Currency, &oldBal, &newBal, &e.Cause, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if e.Old, err = decimal.NewFromString(oldBal); err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", oldBal, err)
		}
		if e.New, err = decimal.NewFromString(newBal); err != nil {
			return nil, fmt.Errorf("parse balance %q: %w", newBal, err)
		}
		e.ChangedAt = time.UnixMilli(at).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

type ledgerAccount struct {
	l      *Ledger
	player types.PlayerID
}

func (a *ledgerAccount) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	return balance(ctx, a.l.sqlDB, a.player, currency)
}

func (a *ledgerAccount) SetBalance(ctx context.Context, currency string, amount decimal.Decimal, cause types.Cause) error {
	tx, err := a.l.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err := balance(ctx, tx, a.player, currency)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO balances (player_id, currency, balance) VALUES (?, ?, ?)
		 ON CONFLICT (player_id, currency) DO UPDATE SET balance = excluded.balance`,
		a.player.String(), currency, amount.String()); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO balance_history (player_id, currency, old_balance, new_balance, cause, changed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.player.String(), currency, old.String(), amount.String(), describe(cause), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balance(ctx context.Context, q queryer, player types.PlayerID, currency string) (decimal.Decimal, error) {
	var s string
	err := q.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE player_id = ? AND currency = ?`,
		player.String(), currency).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query balance: %w", err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", s, err)
	}
	return d, nil
}

// describe renders a cause for the history table, e.g. "DeathPenalty/player:steve".
func describe(c types.Cause) string {
	root := string(c.Root.Kind)
	if c.Root.Name != "" {
		root += ":" + c.Root.Name
	}
	switch {
	case c.Plugin != "" && root != "":
		return c.Plugin + "/" + root
	case c.Plugin != "":
		return c.Plugin
	default:
		return root
	}
}
