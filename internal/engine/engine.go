/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package engine is the mutation engine over the document model: stroke
// authoring, move/resize with page redistribution, the geometric eraser,
// element CRUD and undo/redo. All mutation is single threaded and
// cooperative; the host serializes gesture events onto one goroutine and
// persistence runs off this path through the change hook.
package engine

import (
	"log/slog"

	"inkpad/internal/document"
	"inkpad/internal/geom"
	"inkpad/internal/history"
	applog "inkpad/internal/log"
	"inkpad/internal/raster"
	"inkpad/internal/selection"
	"inkpad/internal/telemetry"
	"inkpad/internal/viewport"
)

// PageNotifier receives content-indexing notifications. The engine only
// notifies; it never queries the indexer.
type PageNotifier interface {
	PageLeft(noteID string, pageIndex int)
	PageDeleted(noteID string, pageIndex int)
}

// gesture is the engine's lifecycle state. At most one continuous gesture
// is active at a time; Begin* outside gestureIdle is ignored.
type gesture int

const (
	gestureIdle gesture = iota
	gestureStroke
	gestureMove
	gestureResize
	gestureErase
)

// Pen carries the current stroke authoring settings.
type Pen struct {
	Color document.Color
	Width float64
	Brush string
}

// Options configures a new engine.
type Options struct {
	NoteID       string
	ScreenW      float64
	ScreenH      float64
	EraserRadius float64
	UndoDepth    int
	Notifier     PageNotifier // optional
}

// Engine owns one open document plus its selection, viewport, history and
// raster cache.
type Engine struct {
	noteID string
	doc    *document.Document
	sel    *selection.Selection
	view   *viewport.Viewport
	hist   *history.Manager
	cache  *raster.Cache
	log    *slog.Logger

	eraserRadius float64
	pen          Pen
	notifier     PageNotifier
	onChange     func()

	gesture     gesture
	currentPage int

	// stroke authoring state
	strokePage  int
	draftPoints []geom.Pt

	// move/resize state
	grabbed      map[string]grab
	resizeBounds geom.Rect

	// erase state
	erasePath []geom.Pt
}

// grab is the captured initial state of one selected element at the start
// of a move or resize gesture.
type grab struct {
	page   int
	global geom.Pt
	size   geom.Size
	stroke *document.StrokePayload // deep copy, strokes only
}

// New creates an engine over an existing document.
func New(doc *document.Document, opts Options) *Engine {
	if opts.EraserRadius <= 0 {
		opts.EraserRadius = 12
	}
	e := &Engine{
		noteID:       opts.NoteID,
		doc:          doc,
		sel:          selection.New(),
		view:         viewport.New(opts.ScreenW, opts.ScreenH),
		hist:         history.NewManager(opts.UndoDepth),
		cache:        raster.NewCache(),
		log:          applog.WithComponent("engine"),
		eraserRadius: opts.EraserRadius,
		pen:          Pen{Color: document.Color{A: 255}, Width: 2, Brush: "pen"},
		notifier:     opts.Notifier,
	}
	e.syncContentSize()
	return e
}

// Document exposes the read model for rendering. Callers must not mutate.
func (e *Engine) Document() *document.Document { return e.doc }

// Selection exposes the selection read model for UI chrome.
func (e *Engine) Selection() *selection.Selection { return e.sel }

// Viewport exposes the pan/zoom state.
func (e *Engine) Viewport() *viewport.Viewport { return e.view }

// History exposes undo/redo availability for UI chrome.
func (e *Engine) History() *history.Manager { return e.hist }

// SetPen updates the stroke authoring settings.
func (e *Engine) SetPen(p Pen) {
	if p.Width <= 0 {
		p.Width = 2
	}
	e.pen = p
}

// SetOnChange installs the committed-mutation hook. The hook must not
// block; persistence debounces behind it.
func (e *Engine) SetOnChange(fn func()) { e.onChange = fn }

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

// snapshot pushes a pre-mutation deep copy onto the undo stack.
func (e *Engine) snapshot() { e.hist.Push(e.doc.Clone()) }

// Undo swaps in the previous snapshot. Running past the history cap is a
// no-op. The raster cache is reset because payload identity may change.
func (e *Engine) Undo() bool {
	if e.gesture != gestureIdle {
		return false
	}
	prev := e.hist.Undo(e.doc)
	if prev == nil {
		return false
	}
	e.doc = prev
	e.sel.Prune(e.doc)
	e.cache.Reset()
	e.syncContentSize()
	e.changed()
	undoLeft, _ := e.hist.Stats()
	telemetry.Event("undo", map[string]any{"depth": undoLeft})
	return true
}

// Redo swaps the last undone snapshot back in.
func (e *Engine) Redo() bool {
	if e.gesture != gestureIdle {
		return false
	}
	next := e.hist.Redo(e.doc)
	if next == nil {
		return false
	}
	e.doc = next
	e.sel.Prune(e.doc)
	e.cache.Reset()
	e.syncContentSize()
	e.changed()
	telemetry.Event("redo", nil)
	return true
}

// AddPage inserts a page after the given index. Structural page edits are
// outside the undo domain: both history stacks are cleared.
func (e *Engine) AddPage(after int) {
	e.doc.AddPage(after)
	e.hist.Clear()
	e.syncContentSize()
	e.changed()
}

// DeletePage removes a page; deleting the last one is a no-op. Clears
// history and notifies the content indexer.
func (e *Engine) DeletePage(index int) bool {
	if !e.doc.DeletePage(index) {
		return false
	}
	e.hist.Clear()
	e.sel.Prune(e.doc)
	e.syncContentSize()
	if e.notifier != nil {
		e.notifier.PageDeleted(e.noteID, index)
	}
	e.changed()
	return true
}

// InsertElement adds an externally produced element (paste, import, AI
// insertion) at a global position, with one history snapshot.
func (e *Engine) InsertElement(global geom.Pt, size geom.Size, payload document.Payload) string {
	e.snapshot()
	id := e.doc.AddElement(global, size, payload)
	e.changed()
	return id
}

// RemoveElement deletes one element by id; missing ids are a silent no-op
// and do not pollute history.
func (e *Engine) RemoveElement(id string) bool {
	if _, _, ok := e.doc.Find(id); !ok {
		return false
	}
	e.snapshot()
	e.doc.RemoveElement(id)
	e.sel.Remove(id)
	e.cache.Invalidate(id)
	e.changed()
	return true
}

// UpdateElement applies fn to one element, with a snapshot. The raster
// cache entry is invalidated since fn may replace the payload.
func (e *Engine) UpdateElement(id string, fn func(*document.Element)) bool {
	if _, _, ok := e.doc.Find(id); !ok {
		return false
	}
	e.snapshot()
	e.doc.UpdateElement(id, fn)
	e.cache.Invalidate(id)
	e.changed()
	return true
}

// DeleteSelection removes every selected element from whichever page holds
// it. No-op on an empty selection.
func (e *Engine) DeleteSelection() {
	if e.sel.Len() == 0 {
		return
	}
	e.snapshot()
	for _, id := range e.sel.IDs() {
		e.doc.RemoveElement(id)
		e.cache.Invalidate(id)
	}
	e.sel.Clear()
	e.changed()
}

// MergeSelection replaces the selected elements with one Image element
// covering bounds. The composite itself is rendered externally; this only
// performs the element-list replacement and id bookkeeping.
func (e *Engine) MergeSelection(encoded []byte, pxW, pxH int, bounds geom.Rect) string {
	if e.sel.Len() == 0 {
		return ""
	}
	e.snapshot()
	for _, id := range e.sel.IDs() {
		e.doc.RemoveElement(id)
		e.cache.Invalidate(id)
	}
	e.sel.Clear()
	id := e.doc.AddElement(bounds.Min(), geom.Size{W: bounds.W, H: bounds.H},
		&document.ImagePayload{Data: encoded, OriginalWidth: pxW, OriginalHeight: pxH})
	e.sel.Add(id)
	e.changed()
	return id
}

// Pan forwards a drag translation to the viewport and tracks the derived
// current page for indexing notifications.
func (e *Engine) Pan(delta geom.Pt) {
	e.view.Pan(delta)
	e.trackCurrentPage()
}

// Zoom forwards a pinch step to the viewport.
func (e *Engine) Zoom(factor float64, center geom.Pt) {
	e.view.Zoom(factor, center)
	e.trackCurrentPage()
}

// EndPan settles elastic overscroll on gesture end.
func (e *Engine) EndPan() {
	e.view.Snap()
	e.trackCurrentPage()
}

// CurrentPage is the page a freshly started gesture belongs to.
func (e *Engine) CurrentPage() int {
	return e.view.CurrentPage(e.doc.Layout.PageHeight, e.doc.Layout.Gap, e.doc.PageCount())
}

func (e *Engine) trackCurrentPage() {
	now := e.CurrentPage()
	if now != e.currentPage {
		if e.notifier != nil {
			e.notifier.PageLeft(e.noteID, e.currentPage)
		}
		e.currentPage = now
	}
}

func (e *Engine) syncContentSize() {
	e.view.SetContentSize(e.doc.Layout.PageWidth, e.doc.ContentHeight())
}
