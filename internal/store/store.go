/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store persists note documents. The primary backend is a per-note
// directory of JSON files with timestamped backups, flanked by an embedded
// SQLite index for search and autosave snapshots. A Postgres backend with
// the same surface exists for hosted deployments.
package store

import (
	"context"
	"errors"
	"time"

	"inkpad/internal/document"
)

// ErrNotFound reports a note id with no persisted document.
var ErrNotFound = errors.New("note not found")

// NoteInfo is the listing projection of a stored note.
type NoteInfo struct {
	ID        string
	PageCount int
	UpdatedAt time.Time
}

// Store is the persistence surface the engine's host wires in. Failures are
// reported, never fatal: the document keeps living in memory regardless of
// whether a save landed.
type Store interface {
	Load(ctx context.Context, noteID string) (*document.Document, error)
	Save(ctx context.Context, noteID string, d *document.Document) error
	List(ctx context.Context) ([]NoteInfo, error)
	Delete(ctx context.Context, noteID string) error
}
