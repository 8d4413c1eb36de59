package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bucketfs/bucketfs/pkg/storeerr"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS file_v0 (
	fullpath  TEXT PRIMARY KEY,
	path_seg  TEXT NOT NULL,
	entityid  TEXT NOT NULL,
	hash_md5  TEXT NOT NULL,
	mime_typ  TEXT NOT NULL,
	cont_len  INTEGER NOT NULL,
	last_mod  INTEGER NOT NULL,
	desc_raw  TEXT,
	desc_fts  TEXT,
	meta_js   TEXT
)`

const createEntityIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS file_v0_entityid_idx ON file_v0 (entityid)`

const createFTSTableSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS file_v0_fts USING fts5(
	fullpath UNINDEXED,
	desc_fts,
	tokenize = 'unicode61 remove_diacritics 0'
)`

// Connect opens the SQLite file at e.path (creating it if absent),
// enables WAL journaling, creates file_v0 and its indexes if they do
// not already exist, and checkpoints. It is idempotent.
func (e *Engine) Connect(ctx context.Context) error {
	if e.connected {
		return nil
	}

	db, err := sql.Open("sqlite", e.path)
	if err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: open: %v", err))
	}
	db.SetMaxOpenConns(1) // single-writer SQLite file; serialization happens above this layer

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return storeerr.NewOther(fmt.Sprintf("catalog: enable WAL: %v", err))
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return storeerr.NewOther(fmt.Sprintf("catalog: enable foreign keys: %v", err))
	}

	for _, stmt := range []string{createTableSQL, createEntityIndexSQL, createFTSTableSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return storeerr.NewOther(fmt.Sprintf("catalog: migrate schema: %v", err))
		}
	}

	if err := checkpoint(ctx, db); err != nil {
		db.Close()
		return err
	}

	e.db = db
	e.connected = true
	e.logger.Info("catalog connected", "path", e.path)
	return nil
}

// Disconnect checkpoints and closes the connection. It is idempotent.
func (e *Engine) Disconnect(ctx context.Context) error {
	if !e.connected {
		return nil
	}
	if err := checkpoint(ctx, e.db); err != nil {
		e.logger.Error("catalog checkpoint on disconnect failed", "error", err)
	}
	err := e.db.Close()
	e.db = nil
	e.connected = false
	if err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: close: %v", err))
	}
	e.logger.Info("catalog disconnected", "path", e.path)
	return nil
}

func checkpoint(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return storeerr.NewOther(fmt.Sprintf("catalog: checkpoint: %v", err))
	}
	return nil
}

func (e *Engine) requireConnected() error {
	if !e.connected {
		return storeerr.NewOther("catalog: not connected")
	}
	return nil
}
