// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package journal records referee frames, snapshots and power readings to a
// SQLite database for offline analysis.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoJournal is returned by OpenExisting for a path with no database
var ErrNoJournal = errors.New("journal: no database at path")

// schemaVersion is stored in PRAGMA user_version
const schemaVersion = 1

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS frames (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		cmd_id INTEGER NOT NULL,
		payload BLOB NOT NULL,
		dispatch_error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_frames_cmd_id ON frames(cmd_id, received_at);
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at INTEGER NOT NULL,
		robot_id INTEGER NOT NULL,
		body BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS power_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		updated_at INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		p0 REAL NOT NULL,
		p1 REAL NOT NULL,
		p2 REAL NOT NULL,
		p3 REAL NOT NULL
	);`,
}

// Open opens (creating if needed) the journal database at path
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps the writer serialized
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

// OpenExisting opens a journal that must already exist, so a mistyped path
// is reported instead of creating an empty database
func OpenExisting(ctx context.Context, path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoJournal, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNoJournal, path)
	}
	return Open(ctx, path)
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("journal schema version %d is newer than supported %d", version, schemaVersion)
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("apply migration %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, v+1)); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("set schema version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", v+1, err)
		}
	}

	return nil
}
