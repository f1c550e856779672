/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps the bounded undo/redo stacks of full document
// snapshots. Snapshots are deep copies of the whole page sequence; the
// manager never inspects geometry. Full copies are the simplest correct
// choice at the document sizes this engine serves; a diff-based log is the
// known alternative for a larger-scale port.
package history

import (
	"sync"

	"inkpad/internal/document"
)

// DefaultDepth is how many undo steps are retained. The oldest entry is
// dropped first once the stack is full.
const DefaultDepth = 20

// Manager provides the undo/redo stacks for one open document. It is safe
// for concurrent use; the engine mutates on one goroutine but diagnostics
// and autosave may read stats from another.
type Manager struct {
	mu    sync.Mutex
	depth int
	undo  []*document.Document
	redo  []*document.Document
}

// NewManager returns a manager with the given depth cap; depth <= 0 uses
// DefaultDepth.
func NewManager(depth int) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{depth: depth}
}

// Push records a pre-mutation snapshot. Any new change invalidates the redo
// stack; exceeding the depth cap drops the oldest entry.
func (m *Manager) Push(snapshot *document.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, snapshot)
	if len(m.undo) > m.depth {
		m.undo = append([]*document.Document{}, m.undo[len(m.undo)-m.depth:]...)
	}
	m.redo = nil
}

// Undo exchanges the current document for the top undo snapshot, pushing
// current onto the redo stack. Returns nil when there is nothing to undo;
// running past the cap is a no-op, never a failure.
func (m *Manager) Undo(current *document.Document) *document.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return nil
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current)
	return top
}

// Redo exchanges the current document for the top redo snapshot.
func (m *Manager) Redo(current *document.Document) *document.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return nil
	}
	top := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, current)
	return top
}

// CanUndo reports whether an undo step is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Clear wipes both stacks. Structural page edits (add/delete page) fall
// outside the undo domain and call this; see the design notes.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
}

// Stats returns current stack depths for diagnostics.
func (m *Manager) Stats() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}
