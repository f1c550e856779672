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
	"inkpad/internal/telemetry"
)

// BeginStroke opens a freehand stroke at a global canvas point. The stroke
// is anchored to the page owning that point for its whole lifetime, and the
// single history snapshot of the gesture is taken here, before anything is
// appended.
func (e *Engine) BeginStroke(global geom.Pt) {
	if e.gesture != gestureIdle {
		return
	}
	e.gesture = gestureStroke
	e.snapshot()
	e.strokePage = e.doc.Layout.PageAt(global.Y, e.doc.PageCount())
	e.draftPoints = []geom.Pt{e.clampToPage(global, e.strokePage)}
}

// ExtendStroke appends the next sampled point. Points are always mapped
// into the starting page's local space, even when the live global point has
// drifted across a page boundary.
func (e *Engine) ExtendStroke(global geom.Pt) {
	if e.gesture != gestureStroke {
		return
	}
	e.draftPoints = append(e.draftPoints, e.clampToPage(global, e.strokePage))
}

// FinishStroke commits the draft as a new element on its anchor page and
// returns the new id. Empty drafts are discarded. The committed bounding
// box is floored at the stroke width on both axes so a perfectly straight
// line never collapses into an unhittable zero-thickness box.
func (e *Engine) FinishStroke() string {
	if e.gesture != gestureStroke {
		return ""
	}
	e.gesture = gestureIdle
	pts := e.draftPoints
	e.draftPoints = nil
	if len(pts) == 0 {
		return ""
	}

	b := geom.BoundsOf(pts)
	for i := range pts {
		pts[i].X -= b.X
		pts[i].Y -= b.Y
	}
	el := document.Element{
		ID: document.NewID(),
		X:  b.X, Y: b.Y,
		W: max(b.W, e.pen.Width),
		H: max(b.H, e.pen.Width),
		Z: len(e.doc.Pages[e.strokePage].Elements),
		Payload: &document.StrokePayload{
			Points: pts,
			Color:  e.pen.Color,
			Width:  e.pen.Width,
			Brush:  e.pen.Brush,
		},
	}
	e.doc.AppendElement(e.strokePage, el)
	e.changed()
	telemetry.Event("stroke_committed", map[string]any{"points": len(pts)})
	return el.ID
}

// DraftPoints exposes the in-progress stroke (page-local) for live
// rendering.
func (e *Engine) DraftPoints() []geom.Pt { return e.draftPoints }

// clampToPage maps a global point into the given page's local space,
// clamped to the page surface.
func (e *Engine) clampToPage(global geom.Pt, pageIndex int) geom.Pt {
	l := e.doc.Layout
	return geom.Pt{
		X: geom.Clamp(global.X, 0, l.PageWidth),
		Y: geom.Clamp(l.LocalY(pageIndex, global.Y), 0, l.PageHeight),
	}
}
