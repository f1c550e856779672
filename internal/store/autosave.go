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
	"log/slog"
	"sync"
	"time"

	"inkpad/internal/document"
	applog "inkpad/internal/log"
)

// DefaultAutosaveDelay is the quiescence window before a changed note is
// written out. Per-frame drag updates coalesce into a single save.
const DefaultAutosaveDelay = time.Second

// Autosaver debounces persistence off the mutation path. NoteChanged only
// clones the document and arms a timer; the actual write happens on a
// background goroutine after the delay elapses without further changes.
// Save failures are logged and the note keeps living in memory.
type Autosaver struct {
	store  Store
	noteID string
	delay  time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *document.Document
	closed  bool
	saving  sync.WaitGroup
}

// NewAutosaver wraps a store with a debounced writer for one note.
func NewAutosaver(s Store, noteID string, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{
		store:  s,
		noteID: noteID,
		delay:  delay,
		log:    applog.WithComponent("autosave").With(slog.String("note", noteID)),
	}
}

// NoteChanged records the latest document state and (re)arms the save
// timer. Safe to call on every mutation; never blocks on I/O.
func (a *Autosaver) NoteChanged(d *document.Document) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = d.Clone()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	d := a.pending
	a.pending = nil
	if d == nil || a.closed {
		a.mu.Unlock()
		return
	}
	a.saving.Add(1)
	a.mu.Unlock()

	defer a.saving.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.store.Save(ctx, a.noteID, d); err != nil {
		a.log.Warn("autosave failed", slog.Any("err", err))
		return
	}
	a.log.Debug("autosaved")
}

// Flush writes any pending state immediately and waits for in-flight saves.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	d := a.pending
	a.pending = nil
	a.mu.Unlock()

	if d != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.store.Save(ctx, a.noteID, d); err != nil {
			a.log.Warn("flush failed", slog.Any("err", err))
		}
	}
	a.saving.Wait()
}

// Close flushes pending state and rejects further changes.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()
	a.Flush()
}
