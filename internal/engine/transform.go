/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"inkpad/internal/document"
	"inkpad/internal/geom"
)

// minResize is the smallest selection extent a resize can reach, per axis.
const minResize = 20.0

// BeginMove starts a move gesture: one history snapshot, plus the global
// starting position of every selected element. No-op without a selection.
func (e *Engine) BeginMove() {
	if e.gesture != gestureIdle || e.sel.Len() == 0 {
		return
	}
	e.gesture = gestureMove
	e.snapshot()
	e.captureGrabs(false)
}

// MoveBy repositions every selected element from its recorded start by a
// screen-space delta. Elements are written back into the page they were
// read from; ownership is reassigned only on EndMove, so nothing visibly
// teleports mid-drag.
func (e *Engine) MoveBy(deltaScreen geom.Pt) {
	if e.gesture != gestureMove {
		return
	}
	d := geom.Pt{X: deltaScreen.X / e.view.Scale, Y: deltaScreen.Y / e.view.Scale}
	for id, g := range e.grabbed {
		ng := geom.Pt{X: g.global.X + d.X, Y: g.global.Y + d.Y}
		localY := e.doc.Layout.LocalY(g.page, ng.Y)
		e.doc.UpdateElement(id, func(el *document.Element) {
			el.X = ng.X
			el.Y = localY
		})
	}
}

// EndMove settles the gesture with page redistribution: each element moves
// to the page whose vertical span contains its final global Y midpoint.
func (e *Engine) EndMove() {
	if e.gesture != gestureMove {
		return
	}
	e.gesture = gestureIdle
	e.redistributeSelection()
	e.grabbed = nil
	e.changed()
}

// BeginResize starts a resize gesture, recording the selection's union
// bounds and every element's initial global position, size and (for
// strokes) point set. A degenerate zero-extent base never starts.
func (e *Engine) BeginResize() {
	if e.gesture != gestureIdle || e.sel.Len() == 0 {
		return
	}
	bounds, ok := e.selectionUnion()
	if !ok || bounds.W == 0 || bounds.H == 0 {
		return
	}
	e.gesture = gestureResize
	e.snapshot()
	e.resizeBounds = bounds
	e.captureGrabs(true)
}

// ResizeBy scales the selection so its bounds grow by delta (canvas units),
// floored at 20 units per axis. Axis scales are independent; stroke points
// scale per axis and the stroke width by the isotropic average.
func (e *Engine) ResizeBy(delta geom.Pt) {
	if e.gesture != gestureResize {
		return
	}
	ib := e.resizeBounds
	sx := max(ib.W+delta.X, minResize) / ib.W
	sy := max(ib.H+delta.Y, minResize) / ib.H
	for id, g := range e.grabbed {
		ng := geom.Pt{
			X: ib.X + (g.global.X-ib.X)*sx,
			Y: ib.Y + (g.global.Y-ib.Y)*sy,
		}
		nw, nh := g.size.W*sx, g.size.H*sy
		localY := e.doc.Layout.LocalY(g.page, ng.Y)
		grab := g
		e.doc.UpdateElement(id, func(el *document.Element) {
			el.X, el.Y = ng.X, localY
			el.W, el.H = nw, nh
			if st, ok := el.Payload.(*document.StrokePayload); ok && grab.stroke != nil {
				for i, p := range grab.stroke.Points {
					st.Points[i] = geom.Pt{X: p.X * sx, Y: p.Y * sy}
				}
				st.Width = grab.stroke.Width * (sx + sy) / 2
			}
		})
	}
}

// EndResize clears the captured initial state and settles page ownership.
func (e *Engine) EndResize() {
	if e.gesture != gestureResize {
		return
	}
	e.gesture = gestureIdle
	e.redistributeSelection()
	e.grabbed = nil
	e.resizeBounds = geom.Rect{}
	e.changed()
}

// captureGrabs records the initial state of every selected element.
func (e *Engine) captureGrabs(withPayload bool) {
	e.grabbed = make(map[string]grab, e.sel.Len())
	for pi := range e.doc.Pages {
		for ei := range e.doc.Pages[pi].Elements {
			el := &e.doc.Pages[pi].Elements[ei]
			if !e.sel.Has(el.ID) {
				continue
			}
			g := grab{
				page:   pi,
				global: geom.Pt{X: el.X, Y: e.doc.Layout.GlobalY(pi, el.Y)},
				size:   geom.Size{W: el.W, H: el.H},
			}
			if withPayload {
				if st, ok := el.Payload.(*document.StrokePayload); ok {
					g.stroke = &document.StrokePayload{
						Points: append([]geom.Pt(nil), st.Points...),
						Width:  st.Width,
					}
				}
			}
			e.grabbed[el.ID] = g
		}
	}
}

// selectionUnion is the union of the selected elements' global rects,
// ignoring any active marquee box.
func (e *Engine) selectionUnion() (geom.Rect, bool) {
	var out geom.Rect
	first := true
	for pi := range e.doc.Pages {
		for ei := range e.doc.Pages[pi].Elements {
			el := &e.doc.Pages[pi].Elements[ei]
			if !e.sel.Has(el.ID) {
				continue
			}
			r := e.doc.GlobalRect(pi, el)
			if first {
				out, first = r, false
			} else {
				out = out.Union(r)
			}
		}
	}
	return out, !first
}

// redistributeSelection reassigns each selected element to the page owning
// its global Y midpoint, converting the local Y accordingly. Local
// coordinates stay relative to whichever page currently owns the element.
func (e *Engine) redistributeSelection() {
	l := e.doc.Layout
	for _, id := range e.sel.IDs() {
		pi, ei, ok := e.doc.Find(id)
		if !ok {
			continue
		}
		el := e.doc.Pages[pi].Elements[ei].Clone()
		globalY := l.GlobalY(pi, el.Y)
		target := l.PageAt(globalY+el.H/2, e.doc.PageCount())
		if target == pi {
			continue
		}
		els := e.doc.Pages[pi].Elements
		e.doc.Pages[pi].Elements = append(els[:ei], els[ei+1:]...)
		el.Y = l.LocalY(target, globalY)
		el.Z = len(e.doc.Pages[target].Elements)
		e.doc.AppendElement(target, el)
	}
}
