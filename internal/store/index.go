/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "inkpad/internal/log"
	"inkpad/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-store ephemeral/index data under the root.
	IndexDirName  = ".inkpad"
	IndexFileName = "index.sqlite"

	// indexSchemaVersion tracks the local SQLite schema for the embedded
	// index. Bump on breaking schema changes and add a migration step.
	indexSchemaVersion = 3
)

// IndexPath returns the full path to the store's embedded index database.
func IndexPath(storeRoot string) string {
	return filepath.Join(storeRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures the per-store SQLite index exists, opens it with
// WAL mode and brings the schema up to date. The index carries recognized
// page text for search and autosave snapshots; losing it never loses ink.
func InitOrOpenIndex(storeRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("store"), "index_init").With(
		slog.String("root", storeRoot),
	)
	if strings.TrimSpace(storeRoot) == "" {
		return nil, errors.New("store root is required")
	}
	if err := os.MkdirAll(filepath.Join(storeRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	path := IndexPath(storeRoot)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureIndexMeta(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runIndexMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureIndexMeta(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, indexSchemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep existing schema for migrations; refresh app and timestamp.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Recognized text per (note, page), fed by the OCR collaborator.
		`CREATE TABLE IF NOT EXISTS page_text (
			rowid      INTEGER PRIMARY KEY,
			note_id    TEXT    NOT NULL,
			page_index INTEGER NOT NULL,
			text       TEXT    NOT NULL,
			updated_at TEXT    NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_page_text_note_page ON page_text(note_id, page_index);`,

		// External-content FTS5 index over page_text, fed via triggers.
		// snippet() reads the source text back through the content table.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_page_text USING fts5(
			text,
			content='page_text',
			content_rowid='rowid',
			tokenize = 'unicode61'
		);`,

		// Autosave snapshots: the crash-recovery side channel.
		`CREATE TABLE IF NOT EXISTS autosaves (
			id       INTEGER PRIMARY KEY,
			note_id  TEXT    NOT NULL,
			ts       TEXT    NOT NULL,
			doc_blob BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_autosaves_note_ts ON autosaves(note_id, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS page_text_ai AFTER INSERT ON page_text BEGIN
			INSERT INTO fts_page_text(rowid, text) VALUES (new.rowid, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS page_text_ad AFTER DELETE ON page_text BEGIN
			INSERT INTO fts_page_text(fts_page_text, rowid, text) VALUES ('delete', old.rowid, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS page_text_au AFTER UPDATE OF text ON page_text BEGIN
			INSERT INTO fts_page_text(fts_page_text, rowid, text) VALUES ('delete', old.rowid, old.text);
			INSERT INTO fts_page_text(rowid, text) VALUES (new.rowid, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runIndexMigrations applies incremental schema steps up to
// indexSchemaVersion.
func runIndexMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > indexSchemaVersion {
		// Never downgrade
		return nil
	}
	for cur < indexSchemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_page_text_note ON page_text(note_id);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_page_text(fts_page_text) VALUES('optimize')`); err != nil {
				// best-effort optimize
			}
		case 3:
			// Replace the contentless FTS table with an external-content one
			// so snippet() can resolve source text, then rebuild from
			// page_text. The page_text triggers survive the drop.
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`DROP TABLE IF EXISTS fts_page_text;`,
				`CREATE VIRTUAL TABLE fts_page_text USING fts5(
					text,
					content='page_text',
					content_rowid='rowid',
					tokenize = 'unicode61'
				);`,
				`INSERT INTO fts_page_text(fts_page_text) VALUES('rebuild');`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		}
		cur = next
	}
	return nil
}

// IndexPageText upserts the recognized text for one (note, page).
func IndexPageText(ctx context.Context, db *sql.DB, noteID string, pageIndex int, text string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.ExecContext(ctx, `INSERT INTO page_text(note_id, page_index, text, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(note_id, page_index) DO UPDATE SET text=excluded.text, updated_at=excluded.updated_at`,
		noteID, pageIndex, text, now)
	return err
}

// RemovePageText drops the index rows for a deleted page.
func RemovePageText(ctx context.Context, db *sql.DB, noteID string, pageIndex int) error {
	_, err := db.ExecContext(ctx, `DELETE FROM page_text WHERE note_id=? AND page_index=?`, noteID, pageIndex)
	return err
}

// SearchHit is one full-text match.
type SearchHit struct {
	NoteID    string
	PageIndex int
	Snippet   string
}

// SearchNotes runs a full-text query over indexed page text, best matches
// first.
func SearchNotes(ctx context.Context, db *sql.DB, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT p.note_id, p.page_index, snippet(fts_page_text, 0, '[', ']', '…', 8)
		FROM fts_page_text f
		JOIN page_text p ON p.rowid = f.rowid
		WHERE fts_page_text MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()
	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.NoteID, &h.PageIndex, &h.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// SaveAutosave persists a serialized document as the latest crash-recovery
// snapshot for a note.
func SaveAutosave(ctx context.Context, db *sql.DB, noteID string, blob []byte, ts time.Time) error {
	_, err := db.ExecContext(ctx, `INSERT INTO autosaves(note_id, ts, doc_blob) VALUES (?, ?, ?)`,
		noteID, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// LatestAutosave returns the newest snapshot blob for a note, or nil when
// none exists.
func LatestAutosave(ctx context.Context, db *sql.DB, noteID string) ([]byte, time.Time, error) {
	var tsStr string
	var blob []byte
	err := db.QueryRowContext(ctx,
		`SELECT ts, doc_blob FROM autosaves WHERE note_id = ? ORDER BY ts DESC LIMIT 1`,
		noteID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, perr := time.Parse(time.RFC3339Nano, tsStr)
	if perr != nil {
		return blob, time.Time{}, nil // blob still usable without its stamp
	}
	return blob, ts, nil
}

// PruneAutosaves keeps the newest keep snapshots for a note and drops the
// rest.
func PruneAutosaves(ctx context.Context, db *sql.DB, noteID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := db.ExecContext(ctx, `DELETE FROM autosaves WHERE note_id = ? AND id NOT IN (
		SELECT id FROM autosaves WHERE note_id = ? ORDER BY ts DESC LIMIT ?
	)`, noteID, noteID, keep)
	return err
}
