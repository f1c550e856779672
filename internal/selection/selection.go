/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection implements hit-testing and the marquee selection over
// the document read model. All coordinates here are global canvas space.
package selection

import (
	"inkpad/internal/document"
	"inkpad/internal/geom"
)

// Selection is the set of currently selected element ids plus the active
// marquee box, if any. Ids always reference elements present in the
// document; Prune drops stale entries after deletions.
type Selection struct {
	ids     map[string]struct{}
	marquee *geom.Rect
}

func New() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Add(id string)    { s.ids[id] = struct{}{} }
func (s *Selection) Remove(id string) { delete(s.ids, id) }
func (s *Selection) Len() int         { return len(s.ids) }

func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
	s.marquee = nil
}

// IDs returns the selected ids in unspecified order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

// Prune drops ids that no longer resolve to a document element.
func (s *Selection) Prune(d *document.Document) {
	for id := range s.ids {
		if _, _, ok := d.Find(id); !ok {
			delete(s.ids, id)
		}
	}
}

// FindTopmostAt returns the id of the topmost element whose global bounding
// rect contains the point, scanning all pages from the top of the z order
// down. ok is false when nothing is hit.
func FindTopmostAt(d *document.Document, p geom.Pt) (string, bool) {
	for pi := d.PageCount() - 1; pi >= 0; pi-- {
		els := d.Pages[pi].Elements
		for ei := len(els) - 1; ei >= 0; ei-- {
			if d.GlobalRect(pi, &els[ei]).Contains(p) {
				return els[ei].ID, true
			}
		}
	}
	return "", false
}

// UpdateMarquee replaces the selection with every element the box catches.
// Non-stroke elements select on bounding-rect overlap alone. Strokes need a
// precise test: a stroke counts as caught only if one of its points lies
// inside the box or one of its segments crosses a box edge, so a stroke
// whose bounding rect merely brushes the box is not selected.
func (s *Selection) UpdateMarquee(d *document.Document, box geom.Rect) {
	s.ids = make(map[string]struct{})
	b := box
	s.marquee = &b
	for pi := range d.Pages {
		for ei := range d.Pages[pi].Elements {
			e := &d.Pages[pi].Elements[ei]
			gr := d.GlobalRect(pi, e)
			if !gr.Intersects(box) {
				continue
			}
			if st, ok := e.Payload.(*document.StrokePayload); ok {
				if !strokeInBox(st, gr.Min(), box) {
					continue
				}
			}
			s.ids[e.ID] = struct{}{}
		}
	}
}

// EndMarquee deactivates the marquee box, keeping the selected set.
func (s *Selection) EndMarquee() { s.marquee = nil }

// Marquee returns the active marquee box, if any.
func (s *Selection) Marquee() (geom.Rect, bool) {
	if s.marquee == nil {
		return geom.Rect{}, false
	}
	return *s.marquee, true
}

// Bounds returns the active marquee box if one exists, otherwise the union
// of the global bounding rects of all selected elements. ok is false for an
// empty selection with no marquee.
func (s *Selection) Bounds(d *document.Document) (geom.Rect, bool) {
	if s.marquee != nil {
		return *s.marquee, true
	}
	var out geom.Rect
	first := true
	for pi := range d.Pages {
		for ei := range d.Pages[pi].Elements {
			e := &d.Pages[pi].Elements[ei]
			if !s.Has(e.ID) {
				continue
			}
			gr := d.GlobalRect(pi, e)
			if first {
				out, first = gr, false
			} else {
				out = out.Union(gr)
			}
		}
	}
	return out, !first
}

// strokeInBox is the precise marquee test for a stroke with the given
// global origin.
func strokeInBox(st *document.StrokePayload, origin geom.Pt, box geom.Rect) bool {
	for _, p := range st.Points {
		if box.Contains(geom.Pt{X: origin.X + p.X, Y: origin.Y + p.Y}) {
			return true
		}
	}
	for i := 0; i+1 < len(st.Points); i++ {
		a := geom.Pt{X: origin.X + st.Points[i].X, Y: origin.Y + st.Points[i].Y}
		b := geom.Pt{X: origin.X + st.Points[i+1].X, Y: origin.Y + st.Points[i+1].Y}
		if box.IntersectsSegment(a, b) {
			return true
		}
	}
	return false
}
