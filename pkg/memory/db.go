package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createMemoriesTableSQL = `
CREATE TABLE IF NOT EXISTS memories (
    name       TEXT PRIMARY KEY,
    content    TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '',
    size_bytes INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_updated_at ON memories(updated_at);
`

// openIndex opens (creating if necessary) the sqlite metadata index at
// path. Sqlite only supports one writer at a time, so the pool is
// restricted to a single connection, serializing writes instead of racing
// them into "database is locked" errors.
func openIndex(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("open memory index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to memory index: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		slog.Warn("memory index: failed to enable WAL mode", "error", err)
	}

	if _, err := db.ExecContext(ctx, createMemoriesTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create memories table: %w", err)
	}

	return db, nil
}
