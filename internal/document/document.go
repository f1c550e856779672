/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document holds the multi-page note model: pages stacked along one
// global vertical axis, each carrying z-ordered drawable elements. All
// mutation is single threaded and cooperative; callers serialize access.
package document

import (
	"math"

	"github.com/google/uuid"

	"inkpad/internal/geom"
)

// Layout describes the fixed page geometry of a document. Pages are stacked
// vertically with a constant gap:
//
//	globalY = pageIndex*(PageHeight+Gap) + localY
type Layout struct {
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	Gap        float64 `json:"gap"`
}

// DefaultLayout matches the stock note page proportions.
func DefaultLayout() Layout {
	return Layout{PageWidth: 800, PageHeight: 1132, Gap: 24}
}

// Span is the total vertical space one page occupies on the global axis.
func (l Layout) Span() float64 { return l.PageHeight + l.Gap }

// GlobalY maps a page-local Y onto the global axis.
func (l Layout) GlobalY(pageIndex int, localY float64) float64 {
	return float64(pageIndex)*l.Span() + localY
}

// LocalY maps a global Y into the local space of the given page.
func (l Layout) LocalY(pageIndex int, globalY float64) float64 {
	return globalY - float64(pageIndex)*l.Span()
}

// PageAt resolves the page owning a global Y, clamped to the valid range.
func (l Layout) PageAt(globalY float64, pageCount int) int {
	idx := int(math.Floor(globalY / l.Span()))
	if idx < 0 {
		idx = 0
	}
	if idx > pageCount-1 {
		idx = pageCount - 1
	}
	return idx
}

// Page is one fixed-size drawing surface. Element order is draw order.
type Page struct {
	Elements []Element `json:"elements"`
}

// Clone returns a deep copy of the page.
func (p *Page) Clone() Page {
	c := Page{Elements: make([]Element, len(p.Elements))}
	for i := range p.Elements {
		c.Elements[i] = p.Elements[i].Clone()
	}
	return c
}

// Document is the full multi-page note being edited. It always holds at
// least one page.
type Document struct {
	Layout Layout `json:"layout"`
	Pages  []Page `json:"pages"`
}

// New creates a document with a single empty page.
func New(l Layout) *Document {
	if l.PageWidth <= 0 || l.PageHeight <= 0 {
		l = DefaultLayout()
	}
	return &Document{Layout: l, Pages: []Page{{}}}
}

// PageCount returns the number of pages, always >= 1 for a valid document.
func (d *Document) PageCount() int { return len(d.Pages) }

// ElementCount returns the total number of elements across all pages.
func (d *Document) ElementCount() int {
	n := 0
	for i := range d.Pages {
		n += len(d.Pages[i].Elements)
	}
	return n
}

// Clone returns a deep copy of the whole page sequence. Used as one
// undo/redo unit.
func (d *Document) Clone() *Document {
	c := &Document{Layout: d.Layout, Pages: make([]Page, len(d.Pages))}
	for i := range d.Pages {
		c.Pages[i] = d.Pages[i].Clone()
	}
	return c
}

// NewID returns a fresh document-unique element id.
func NewID() string { return uuid.NewString() }

// AddPage inserts an empty page after the given index. An out-of-range
// index appends at the end.
func (d *Document) AddPage(after int) {
	if after < 0 || after >= len(d.Pages)-1 {
		d.Pages = append(d.Pages, Page{})
		return
	}
	d.Pages = append(d.Pages, Page{})
	copy(d.Pages[after+2:], d.Pages[after+1:])
	d.Pages[after+1] = Page{}
}

// DeletePage removes the page at index. Deleting the last remaining page is
// a no-op; a document never drops below one page.
func (d *Document) DeletePage(index int) bool {
	if len(d.Pages) <= 1 || index < 0 || index >= len(d.Pages) {
		return false
	}
	d.Pages = append(d.Pages[:index], d.Pages[index+1:]...)
	return true
}

// AddElement resolves the owning page from the global position, converts to
// that page's local space and appends a new element. Returns the new id.
func (d *Document) AddElement(global geom.Pt, size geom.Size, payload Payload) string {
	pi := d.Layout.PageAt(global.Y, len(d.Pages))
	pg := &d.Pages[pi]
	el := Element{
		ID: NewID(),
		X:  global.X,
		Y:  d.Layout.LocalY(pi, global.Y),
		W:  size.W, H: size.H,
		Z:       len(pg.Elements),
		Payload: payload,
	}
	pg.Elements = append(pg.Elements, el)
	return el.ID
}

// AppendElement appends a fully-formed element to a specific page. Used by
// the mutation engine when it has already resolved ownership; the element's
// recorded z is preserved (eraser fragments keep their original z).
func (d *Document) AppendElement(pageIndex int, el Element) {
	if pageIndex < 0 || pageIndex >= len(d.Pages) {
		return
	}
	pg := &d.Pages[pageIndex]
	pg.Elements = append(pg.Elements, el)
}

// Find locates an element by id. Callers must not assume which page holds
// an id; move redistribution can change ownership at any settle.
func (d *Document) Find(id string) (pageIndex, elemIndex int, ok bool) {
	for pi := range d.Pages {
		for ei := range d.Pages[pi].Elements {
			if d.Pages[pi].Elements[ei].ID == id {
				return pi, ei, true
			}
		}
	}
	return 0, 0, false
}

// RemoveElement deletes an element by id, scanning all pages. Missing ids
// are a silent no-op.
func (d *Document) RemoveElement(id string) bool {
	pi, ei, ok := d.Find(id)
	if !ok {
		return false
	}
	els := d.Pages[pi].Elements
	d.Pages[pi].Elements = append(els[:ei], els[ei+1:]...)
	return true
}

// UpdateElement applies fn to the element with the given id in place.
// Missing ids are a silent no-op.
func (d *Document) UpdateElement(id string, fn func(*Element)) bool {
	pi, ei, ok := d.Find(id)
	if !ok {
		return false
	}
	fn(&d.Pages[pi].Elements[ei])
	return true
}

// GlobalRect returns an element's bounding rectangle on the global axis.
func (d *Document) GlobalRect(pageIndex int, e *Element) geom.Rect {
	return geom.R(e.X, d.Layout.GlobalY(pageIndex, e.Y), e.W, e.H)
}

// ContentHeight is the full global extent of the document, gap included
// between pages but not after the last one.
func (d *Document) ContentHeight() float64 {
	n := float64(len(d.Pages))
	return n*d.Layout.PageHeight + (n-1)*d.Layout.Gap
}
