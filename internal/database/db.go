// Package database owns the sqlite store, its schema, and the read-side
// query executor the analytics layer runs against.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/pitchside/analytics/internal/errors"
)

// DB wraps the sqlite handle
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// NewDB opens (creating if needed) the match store under dataDir
func NewDB(dataDir string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, apperrors.NewStoreUnavailable("failed to create data directory", err)
	}

	dbPath := filepath.Join(dataDir, "analytics.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL", dbPath)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("failed to open database", err)
	}

	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		apperrors.SafeClose(conn, "database connection")
		return nil, apperrors.NewStoreUnavailable("failed to ping database", err)
	}

	db := &DB{conn: conn, logger: logger}
	if err := db.migrate(ctx); err != nil {
		apperrors.SafeClose(conn, "database connection")
		return nil, err
	}

	logger.Info("database ready", "path", dbPath)
	return db, nil
}

// Conn exposes the underlying handle for the executor
func (d *DB) Conn() *sql.DB { return d.conn }

// Close releases the sqlite handle
func (d *DB) Close() error { return d.conn.Close() }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			match_id     INTEGER PRIMARY KEY,
			season       INTEGER NOT NULL,
			match_date   TEXT    NOT NULL,
			venue        TEXT,
			team1        TEXT    NOT NULL,
			team2        TEXT    NOT NULL,
			toss_winner  TEXT,
			toss_decision TEXT,
			winner       TEXT,
			margin_type  TEXT,
			margin_value INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			delivery_id  INTEGER PRIMARY KEY,
			match_id     INTEGER NOT NULL REFERENCES matches(match_id),
			inning       INTEGER NOT NULL,
			over         INTEGER NOT NULL,
			ball         INTEGER NOT NULL,
			batting_team TEXT    NOT NULL,
			bowling_team TEXT    NOT NULL,
			runs_off_bat INTEGER NOT NULL DEFAULT 0,
			extras       INTEGER NOT NULL DEFAULT 0,
			wides        INTEGER NOT NULL DEFAULT 0,
			noballs      INTEGER NOT NULL DEFAULT 0,
			wicket_type  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_season ON matches(season)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_date ON matches(match_date)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_teams ON matches(team1, team2)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_match ON deliveries(match_id, inning)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_batting ON deliveries(batting_team)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_over ON deliveries(match_id, inning, over)`,
	}

	for _, stmt := range stmts {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewStoreUnavailable("failed to run migration", err)
		}
	}
	return nil
}

// expectedSchema is the column set every query in this package assumes.
var expectedSchema = map[string][]string{
	"matches": {
		"match_id", "season", "match_date", "venue", "team1", "team2",
		"toss_winner", "toss_decision", "winner", "margin_type", "margin_value",
	},
	"deliveries": {
		"delivery_id", "match_id", "inning", "over", "ball",
		"batting_team", "bowling_team", "runs_off_bat", "extras",
		"wides", "noballs", "wicket_type",
	},
}

// VerifySchema checks that every table and column the executor depends on
// exists, so a drifted store fails loudly at startup instead of mid-query.
func (d *DB) VerifySchema(ctx context.Context) error {
	for table, columns := range expectedSchema {
		present, err := d.tableColumns(ctx, table)
		if err != nil {
			return err
		}
		if len(present) == 0 {
			return apperrors.NewSchemaMismatch(table, "", fmt.Errorf("table %q not found", table))
		}
		for _, col := range columns {
			if !present[col] {
				return apperrors.NewSchemaMismatch(table, col, nil)
			}
		}
	}
	return nil
}

func (d *DB) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := d.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("failed to inspect schema", err)
	}
	defer apperrors.SafeClose(rows, "schema rows")

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, apperrors.NewStoreUnavailable("failed to scan schema row", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
