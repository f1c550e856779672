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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inkpad/internal/document"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore is the hosted-deployment counterpart of FileStore: one jsonb row
// per note. It satisfies the same Store surface so hosts can switch
// backends by configuration alone.
type PGStore struct {
	db *sql.DB
}

// NewPGStore connects to Postgres and ensures the notes table exists.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS notes (
		note_id    TEXT PRIMARY KEY,
		doc        JSONB NOT NULL,
		page_count INT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure notes table: %w", err)
	}
	return &PGStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error { return s.db.Close() }

// Load reads, validates and repairs the document stored for a note id.
func (s *PGStore) Load(ctx context.Context, noteID string) (*document.Document, error) {
	if err := validNoteID(noteID); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM notes WHERE note_id = $1`, noteID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select note: %w", err)
	}
	d, err := decodeNote(data)
	if err != nil {
		return nil, fmt.Errorf("parse note: %w", err)
	}
	if d.Repair() {
		if serr := s.Save(ctx, noteID, d); serr != nil {
			return d, nil // healed in memory; persisting the fix can wait
		}
	}
	return d, nil
}

// Save upserts the document as one jsonb row.
func (s *PGStore) Save(ctx context.Context, noteID string, d *document.Document) error {
	if err := validNoteID(noteID); err != nil {
		return err
	}
	if d == nil {
		return errors.New("nil document")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO notes (note_id, doc, page_count, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (note_id) DO UPDATE SET doc = excluded.doc, page_count = excluded.page_count, updated_at = now()`,
		noteID, data, d.PageCount())
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	return nil
}

// List enumerates stored notes, newest first.
func (s *PGStore) List(ctx context.Context) ([]NoteInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT note_id, page_count, updated_at FROM notes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	var out []NoteInfo
	for rows.Next() {
		var n NoteInfo
		if err := rows.Scan(&n.ID, &n.PageCount, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Delete removes a note row.
func (s *PGStore) Delete(ctx context.Context, noteID string) error {
	if err := validNoteID(noteID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE note_id = $1`, noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
