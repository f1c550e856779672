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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"inkpad/internal/document"
	"inkpad/internal/geom"
)

func testDoc() *document.Document {
	d := document.New(document.DefaultLayout())
	d.AddElement(geom.Pt{X: 10, Y: 20}, geom.Size{W: 40, H: 30},
		&document.StrokePayload{Points: []geom.Pt{{X: 0, Y: 0}, {X: 40, Y: 30}}, Width: 2})
	return d
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	want := testDoc()
	if err := s.Save(ctx, "note-1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "note-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingNote(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if _, err := s.Load(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadFallsBackToBackup(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	want := testDoc()
	if err := s.Save(ctx, "n", want); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// second save banks the first file as a backup
	if err := s.Save(ctx, "n", want); err != nil {
		t.Fatalf("second save: %v", err)
	}
	// corrupt the live file
	if err := os.WriteFile(s.notePath("n"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "n")
	if err != nil {
		t.Fatalf("Load after corruption: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("backup restore mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	dir := s.noteDir("bad")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// valid JSON, invalid document: element with an unknown kind
	raw := []byte(`{"layout":{"pageWidth":800,"pageHeight":1132,"gap":24},
		"pages":[{"elements":[{"id":"a","kind":"hologram","x":0,"y":0,"width":1,"height":1,"z":0,"payload":{}}]}]}`)
	if err := os.WriteFile(filepath.Join(dir, NoteFileName), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "bad"); err == nil {
		t.Fatalf("schema-violating note loaded without error")
	}
}

func TestLoadHealsEmptyPageList(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	dir := s.noteDir("empty")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	raw := []byte(`{"layout":{"pageWidth":800,"pageHeight":1132,"gap":24},"pages":[]}`)
	if err := os.WriteFile(filepath.Join(dir, NoteFileName), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := s.Load(ctx, "empty")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.PageCount() != 1 {
		t.Fatalf("page count = %d, want repaired minimum 1", d.PageCount())
	}
	// the healed document was persisted back
	again, err := s.Load(ctx, "empty")
	if err != nil || again.PageCount() != 1 {
		t.Fatalf("healed document not persisted: %v", err)
	}
}

func TestInvalidNoteIDs(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	for _, id := range []string{"", "  ", "a/b", `a\b`, "..", "."} {
		if err := s.Save(context.Background(), id, testDoc()); err == nil {
			t.Fatalf("note id %q accepted", id)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	for _, id := range []string{"a", "b"} {
		if err := s.Save(ctx, id, testDoc()); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	infos, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d notes, want 2", len(infos))
	}
	for _, in := range infos {
		if in.PageCount != 1 {
			t.Fatalf("note %s page count = %d, want 1", in.ID, in.PageCount)
		}
	}
}

func TestDeleteRemovesNoteAndBackups(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	if err := s.Save(ctx, "gone", testDoc()); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(s.noteDir("gone")); !os.IsNotExist(err) {
		t.Fatalf("note dir survived delete")
	}
	if err := s.Delete(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}
