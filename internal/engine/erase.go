/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"log/slog"

	"inkpad/internal/document"
	"inkpad/internal/geom"
)

// BeginErase starts an eraser gesture at a global canvas point. The single
// history snapshot of the gesture is taken here; intermediate samples never
// snapshot again.
func (e *Engine) BeginErase(global geom.Pt) {
	if e.gesture != gestureIdle {
		return
	}
	e.gesture = gestureErase
	e.snapshot()
	e.erasePath = []geom.Pt{global}
	e.eraseAt(global)
}

// ContinueErase processes the next eraser sample.
func (e *Engine) ContinueErase(global geom.Pt) {
	if e.gesture != gestureErase {
		return
	}
	e.erasePath = append(e.erasePath, global)
	e.eraseAt(global)
}

// EndErase settles the gesture: every raster element the eraser punched is
// re-encoded from the cached bitmap back into its persisted payload.
func (e *Engine) EndErase() {
	if e.gesture != gestureErase {
		return
	}
	e.gesture = gestureIdle
	for _, id := range e.cache.DirtyIDs() {
		encoded, err := e.cache.Encode(id)
		if err != nil {
			e.log.Warn("re-encode after erase failed", slog.String("id", id), slog.Any("err", err))
			continue
		}
		e.doc.UpdateElement(id, func(el *document.Element) {
			switch p := el.Payload.(type) {
			case *document.ImagePayload:
				p.Data = encoded
			case *document.BitmapInkPayload:
				p.Data = encoded
			}
		})
	}
	e.erasePath = nil
	e.changed()
}

// eraseAt applies one eraser sample to every element whose global bounding
// rect, inflated by the eraser radius, contains the point. Strokes are
// split into surviving runs; raster payloads get a transparent circle
// punched into the cached bitmap.
func (e *Engine) eraseAt(p geom.Pt) {
	type split struct {
		el   document.Element
		runs [][]geom.Pt
	}
	touched := false
	for pi := range e.doc.Pages {
		var splits []split
		for ei := range e.doc.Pages[pi].Elements {
			el := &e.doc.Pages[pi].Elements[ei]
			if !e.doc.GlobalRect(pi, el).Inflate(e.eraserRadius).Contains(p) {
				continue
			}
			local := geom.Pt{X: p.X - el.X, Y: e.doc.Layout.LocalY(pi, p.Y) - el.Y}
			switch pay := el.Payload.(type) {
			case *document.StrokePayload:
				if runs, cut := splitRuns(pay.Points, local, e.eraserRadius); cut {
					splits = append(splits, split{el: el.Clone(), runs: runs})
				}
			case *document.ImagePayload:
				e.punch(el, pay.Data, pay.OriginalWidth, pay.OriginalHeight, local)
				touched = true
			case *document.BitmapInkPayload:
				e.punch(el, pay.Data, pay.OriginalWidth, pay.OriginalHeight, local)
				touched = true
			}
		}
		for _, s := range splits {
			touched = true
			e.doc.RemoveElement(s.el.ID)
			e.sel.Remove(s.el.ID)
			st := s.el.Payload.(*document.StrokePayload)
			for _, run := range s.runs {
				if len(run) < 2 {
					continue
				}
				b := geom.BoundsOf(run)
				pts := make([]geom.Pt, len(run))
				for i, q := range run {
					pts[i] = geom.Pt{X: q.X - b.X, Y: q.Y - b.Y}
				}
				e.doc.AppendElement(pi, document.Element{
					ID: document.NewID(),
					X:  s.el.X + b.X, Y: s.el.Y + b.Y,
					W: max(b.W, st.Width),
					H: max(b.H, st.Width),
					Z: s.el.Z,
					Payload: &document.StrokePayload{
						Points: pts,
						Color:  st.Color,
						Width:  st.Width,
						Brush:  st.Brush,
					},
				})
			}
		}
	}
	if touched {
		e.changed()
	}
}

// punch maps the element-local eraser center into the raster's native pixel
// space and clears a circle there. The decoded bitmap stays cached and
// dirty until EndErase re-encodes it.
func (e *Engine) punch(el *document.Element, data []byte, pxW, pxH int, local geom.Pt) {
	if el.W <= 0 || el.H <= 0 || pxW <= 0 || pxH <= 0 {
		return
	}
	sx := float64(pxW) / el.W
	sy := float64(pxH) / el.H
	e.cache.Get(el.ID, data, pxW, pxH)
	e.cache.PunchCircle(el.ID,
		geom.Pt{X: local.X * sx, Y: local.Y * sy},
		e.eraserRadius*(sx+sy)/2)
}

// splitRuns walks a stroke's segments and cuts every segment passing within
// radius of center, producing the contiguous surviving runs. The cut flag
// reports whether anything was erased at all; callers drop runs shorter
// than two points.
func splitRuns(pts []geom.Pt, center geom.Pt, radius float64) ([][]geom.Pt, bool) {
	if len(pts) == 0 {
		return nil, false
	}
	if len(pts) == 1 {
		if geom.Dist(center, pts[0]) <= radius {
			return nil, true
		}
		return nil, false
	}
	cut := false
	runs := [][]geom.Pt{{pts[0]}}
	for i := 0; i+1 < len(pts); i++ {
		if geom.DistToSegment(center, pts[i], pts[i+1]) <= radius {
			cut = true
			runs = append(runs, []geom.Pt{pts[i+1]})
		} else {
			last := len(runs) - 1
			runs[last] = append(runs[last], pts[i+1])
		}
	}
	return runs, cut
}
