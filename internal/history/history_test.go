/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"testing"

	"inkpad/internal/document"
	"inkpad/internal/geom"
)

func docWithN(n int) *document.Document {
	d := document.New(document.DefaultLayout())
	for i := 0; i < n; i++ {
		d.AddElement(geom.Pt{X: float64(i), Y: 0}, geom.Size{W: 1, H: 1},
			&document.TextPayload{Text: "x", FontSize: 10})
	}
	return d
}

func TestUndoRedoExchange(t *testing.T) {
	m := NewManager(0)
	before := docWithN(1)
	after := docWithN(2)
	m.Push(before)
	prev := m.Undo(after)
	if prev == nil || prev.ElementCount() != 1 {
		t.Fatalf("undo should return the pre-mutation snapshot")
	}
	next := m.Redo(prev)
	if next == nil || next.ElementCount() != 2 {
		t.Fatalf("redo should return the undone state")
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(0)
	m.Push(docWithN(1))
	_ = m.Undo(docWithN(2))
	if !m.CanRedo() {
		t.Fatalf("expected redo available after undo")
	}
	m.Push(docWithN(3))
	if m.CanRedo() {
		t.Fatalf("push must clear the redo stack")
	}
}

func TestDepthCapDropsOldest(t *testing.T) {
	m := NewManager(0)
	for i := 0; i <= DefaultDepth; i++ { // one more than the cap
		m.Push(docWithN(i))
	}
	u, _ := m.Stats()
	if u != DefaultDepth {
		t.Fatalf("expected %d entries, got %d", DefaultDepth, u)
	}
	// drain: the 21st undo is a no-op, not a crash
	cur := docWithN(99)
	for i := 0; i < DefaultDepth; i++ {
		if cur = m.Undo(cur); cur == nil {
			t.Fatalf("undo %d unexpectedly empty", i)
		}
	}
	if got := m.Undo(cur); got != nil {
		t.Fatalf("undo past the cap should return nil")
	}
	// the oldest snapshot (0 elements) was dropped; the deepest reachable one
	// holds 1 element
	if cur.ElementCount() != 1 {
		t.Fatalf("expected deepest snapshot to hold 1 element, got %d", cur.ElementCount())
	}
}

func TestClear(t *testing.T) {
	m := NewManager(0)
	m.Push(docWithN(1))
	_ = m.Undo(docWithN(2))
	m.Clear()
	if m.CanUndo() || m.CanRedo() {
		t.Fatalf("clear should wipe both stacks")
	}
}
