/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"log/slog"

	applog "inkpad/internal/log"

	"inkpad/internal/geom"
)

// repairTolerance is how far stroke points may sit outside the declared
// [0,W]x[0,H] box before the element is treated as corrupt.
const repairTolerance = 0.5

// Repair runs the self-healing pass for documents written by an earlier,
// buggier version of the mutation logic. A stroke whose stored bounding box
// is inconsistent with the span of its own points (offset points with x=y=0,
// or a zero-size box over a real span) is a "zombie": its box is recomputed
// from the points and the points renormalized against it. Returns true when
// anything changed so callers can persist the healed document immediately.
//
// Repair also restores the one structural invariant a document must satisfy
// after load: at least one page.
func (d *Document) Repair() bool {
	changed := false
	if len(d.Pages) == 0 {
		d.Pages = []Page{{}}
		changed = true
	}
	if d.Layout.PageWidth <= 0 || d.Layout.PageHeight <= 0 {
		d.Layout = DefaultLayout()
		changed = true
	}
	l := applog.WithComponent("document")
	for pi := range d.Pages {
		for ei := range d.Pages[pi].Elements {
			e := &d.Pages[pi].Elements[ei]
			s, ok := e.Payload.(*StrokePayload)
			if !ok || len(s.Points) == 0 {
				continue
			}
			if !strokeBoxConsistent(e, s) {
				repairStroke(e, s)
				changed = true
				l.Warn("repaired zombie stroke bounds",
					slog.String("id", e.ID), slog.Int("page", pi))
			}
		}
	}
	return changed
}

func strokeBoxConsistent(e *Element, s *StrokePayload) bool {
	pb := geom.BoundsOf(s.Points)
	if pb.X < -repairTolerance || pb.Y < -repairTolerance {
		return false
	}
	if pb.X+pb.W > e.W+repairTolerance || pb.Y+pb.H > e.H+repairTolerance {
		return false
	}
	// zero-size box over a real span is the classic zombie shape
	if (e.W <= 0 || e.H <= 0) && (pb.W > 1 || pb.H > 1) {
		return false
	}
	return true
}

// repairStroke recomputes the element box from the points and renormalizes
// the points relative to the new origin. Width/height keep the stroke-width
// floor so hairline strokes stay hittable.
func repairStroke(e *Element, s *StrokePayload) {
	pb := geom.BoundsOf(s.Points)
	for i := range s.Points {
		s.Points[i].X -= pb.X
		s.Points[i].Y -= pb.Y
	}
	e.X += pb.X
	e.Y += pb.Y
	e.W = max(pb.W, s.Width)
	e.H = max(pb.H, s.Width)
}
