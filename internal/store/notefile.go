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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inkpad/internal/document"
	applog "inkpad/internal/log"
	"inkpad/internal/schema"
)

const (
	NoteFileName   = "note.json"
	BackupsDirName = "backups"
)

// FileStore keeps one directory per note under Root:
//
//	<root>/<note-id>/note.json
//	<root>/<note-id>/backups/note.json.<stamp>.bak
//
// Writes are transactional (temp file + rename) and every save banks the
// previous note.json as a timestamped backup. Load falls back to the latest
// parsable backup when the current file is missing or corrupt.
type FileStore struct {
	Root string
	log  *slog.Logger
}

// NewFileStore opens (creating if needed) a note store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store root is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FileStore{Root: dir, log: applog.WithComponent("store")}, nil
}

func (s *FileStore) noteDir(noteID string) string {
	return filepath.Join(s.Root, noteID)
}

func (s *FileStore) notePath(noteID string) string {
	return filepath.Join(s.noteDir(noteID), NoteFileName)
}

// Load reads, validates and repairs the document for a note id. A document
// healed by the repair pass is written back immediately so the fix sticks.
func (s *FileStore) Load(ctx context.Context, noteID string) (*document.Document, error) {
	if err := validNoteID(noteID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.notePath(noteID))
	if err != nil {
		if os.IsNotExist(err) {
			if d, berr := s.loadFromLatestBackup(noteID); berr == nil {
				return d, nil
			}
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read note: %w", err)
	}
	d, err := decodeNote(data)
	if err != nil {
		s.log.Warn("note file unreadable, trying backups",
			slog.String("note", noteID), slog.Any("err", err))
		bd, berr := s.loadFromLatestBackup(noteID)
		if berr != nil {
			return nil, fmt.Errorf("parse note: %w; backup attempt: %v", err, berr)
		}
		d = bd
	}
	if d.Repair() {
		if serr := s.Save(ctx, noteID, d); serr != nil {
			s.log.Warn("persist repaired note failed",
				slog.String("note", noteID), slog.Any("err", serr))
		}
	}
	return d, nil
}

// Save writes the document transactionally, banking the previous file as a
// timestamped backup first.
func (s *FileStore) Save(ctx context.Context, noteID string, d *document.Document) error {
	if err := validNoteID(noteID); err != nil {
		return err
	}
	if d == nil {
		return errors.New("nil document")
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	data = append(data, '\n')

	dir := s.noteDir(noteID)
	if err := os.MkdirAll(filepath.Join(dir, BackupsDirName), 0o755); err != nil {
		return fmt.Errorf("ensure note dir: %w", err)
	}

	target := s.notePath(noteID)
	if _, statErr := os.Stat(target); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", NoteFileName, stamp))
		if cerr := copyFile(target, bpath); cerr != nil {
			return fmt.Errorf("backup current note: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", NoteFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp note: %w", werr)
	}
	// On Windows, rename cannot replace an existing file
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace note: %w", rerr)
	}
	return nil
}

// List enumerates stored notes, newest first.
func (s *FileStore) List(ctx context.Context) ([]NoteInfo, error) {
	ents, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("read store root: %w", err)
	}
	var out []NoteInfo
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		fi, err := os.Stat(s.notePath(e.Name()))
		if err != nil {
			continue
		}
		info := NoteInfo{ID: e.Name(), UpdatedAt: fi.ModTime()}
		if d, lerr := s.Load(ctx, e.Name()); lerr == nil {
			info.PageCount = d.PageCount()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Delete removes a note directory including its backups.
func (s *FileStore) Delete(ctx context.Context, noteID string) error {
	if err := validNoteID(noteID); err != nil {
		return err
	}
	if _, err := os.Stat(s.notePath(noteID)); err != nil {
		return ErrNotFound
	}
	return os.RemoveAll(s.noteDir(noteID))
}

func (s *FileStore) loadFromLatestBackup(noteID string) (*document.Document, error) {
	bdir := filepath.Join(s.noteDir(noteID), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, NoteFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	// Walk newest to oldest so one bad backup doesn't sink the restore.
	for i := len(candidates) - 1; i >= 0; i-- {
		data, err := os.ReadFile(candidates[i])
		if err != nil {
			continue
		}
		if d, derr := decodeNote(data); derr == nil {
			s.log.Info("restored note from backup",
				slog.String("note", noteID), slog.String("file", filepath.Base(candidates[i])))
			return d, nil
		}
	}
	return nil, errors.New("no parsable backup")
}

// decodeNote runs schema validation before unmarshalling so corrupt files
// fail loudly instead of producing a half-formed document.
func decodeNote(data []byte) (*document.Document, error) {
	if err := schema.ValidateNote(data); err != nil {
		return nil, err
	}
	var d document.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func validNoteID(noteID string) error {
	if strings.TrimSpace(noteID) == "" {
		return errors.New("note id is required")
	}
	if strings.ContainsAny(noteID, `/\`) || noteID == "." || noteID == ".." {
		return fmt.Errorf("invalid note id %q", noteID)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst, overwriting dst if present.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
