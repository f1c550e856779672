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
	"os"
	"strings"
	"testing"
	"time"
)

func TestInitOrOpenIndexCreatesSchema(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
	var schemaV int
	if err := db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schemaV); err != nil {
		t.Fatalf("read version row: %v", err)
	}
	if schemaV != indexSchemaVersion {
		t.Fatalf("schema = %d, want %d", schemaV, indexSchemaVersion)
	}
}

func TestReopenKeepsVersionRow(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db.Close()
	db, err = InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM version`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("version rows = %d (err %v), want 1", n, err)
	}
}

func TestPageTextSearch(t *testing.T) {
	ctx := context.Background()
	db, err := InitOrOpenIndex(t.TempDir())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer db.Close()

	if err := IndexPageText(ctx, db, "n1", 0, "meeting notes about the quarterly budget"); err != nil {
		t.Fatalf("index page 0: %v", err)
	}
	if err := IndexPageText(ctx, db, "n1", 1, "sketch of the garden layout"); err != nil {
		t.Fatalf("index page 1: %v", err)
	}
	hits, err := SearchNotes(ctx, db, "budget", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].NoteID != "n1" || hits[0].PageIndex != 0 {
		t.Fatalf("hits = %+v, want one hit on n1 page 0", hits)
	}
	if !strings.Contains(hits[0].Snippet, "[budget]") {
		t.Fatalf("snippet = %q, want the match highlighted from the source text", hits[0].Snippet)
	}

	// upsert replaces the indexed text
	if err := IndexPageText(ctx, db, "n1", 0, "now about gardening too"); err != nil {
		t.Fatalf("reindex: %v", err)
	}
	hits, err = SearchNotes(ctx, db, "budget", 10)
	if err != nil {
		t.Fatalf("search after reindex: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("stale text still indexed: %+v", hits)
	}

	if err := RemovePageText(ctx, db, "n1", 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	hits, _ = SearchNotes(ctx, db, "garden", 10)
	if len(hits) != 1 {
		t.Fatalf("hits after page removal = %+v, want only the reindexed page", hits)
	}
}

func TestAutosaveSnapshots(t *testing.T) {
	ctx := context.Background()
	db, err := InitOrOpenIndex(t.TempDir())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer db.Close()

	if blob, _, err := LatestAutosave(ctx, db, "n"); err != nil || blob != nil {
		t.Fatalf("empty table: blob=%v err=%v", blob, err)
	}
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		blob := []byte{byte(i)}
		if err := SaveAutosave(ctx, db, "n", blob, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	blob, ts, err := LatestAutosave(ctx, db, "n")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(blob) != 1 || blob[0] != 4 {
		t.Fatalf("latest blob = %v, want [4]", blob)
	}
	if !ts.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("latest ts = %v", ts)
	}

	if err := PruneAutosaves(ctx, db, "n", 2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM autosaves WHERE note_id='n'`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("rows after prune = %d (err %v), want 2", n, err)
	}
}
