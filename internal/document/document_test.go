/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"inkpad/internal/geom"
)

func testStroke(pts []geom.Pt, w float64) *StrokePayload {
	return &StrokePayload{Points: pts, Width: w, Color: Color{A: 255}, Brush: "pen"}
}

func TestLayoutMappingRoundTrip(t *testing.T) {
	l := DefaultLayout()
	gy := l.GlobalY(2, 100)
	want := 2*(l.PageHeight+l.Gap) + 100
	if gy != want {
		t.Fatalf("global y: got %v want %v", gy, want)
	}
	if ly := l.LocalY(2, gy); ly != 100 {
		t.Fatalf("local y round trip: got %v want 100", ly)
	}
	if pi := l.PageAt(gy, 5); pi != 2 {
		t.Fatalf("page at: got %d want 2", pi)
	}
	// clamped on both ends
	if pi := l.PageAt(-50, 5); pi != 0 {
		t.Fatalf("negative global y should clamp to page 0, got %d", pi)
	}
	if pi := l.PageAt(100*l.Span(), 5); pi != 4 {
		t.Fatalf("large global y should clamp to last page, got %d", pi)
	}
}

func TestDeleteLastPageIsNoop(t *testing.T) {
	d := New(DefaultLayout())
	if d.DeletePage(0) {
		t.Fatalf("deleting the only page must be a no-op")
	}
	if d.PageCount() != 1 {
		t.Fatalf("page count changed: %d", d.PageCount())
	}
}

func TestAddAndDeletePage(t *testing.T) {
	d := New(DefaultLayout())
	d.Pages[0].Elements = append(d.Pages[0].Elements, Element{ID: "a", Payload: testStroke(nil, 1)})
	d.AddPage(0)
	if d.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", d.PageCount())
	}
	if len(d.Pages[1].Elements) != 0 {
		t.Fatalf("inserted page should be empty")
	}
	if !d.DeletePage(1) || d.PageCount() != 1 {
		t.Fatalf("delete of second page failed")
	}
	if len(d.Pages[0].Elements) != 1 {
		t.Fatalf("surviving page lost its elements")
	}
}

func TestAddElementResolvesOwningPage(t *testing.T) {
	d := New(DefaultLayout())
	d.AddPage(0)
	span := d.Layout.Span()
	id := d.AddElement(geom.Pt{X: 10, Y: span + 42}, geom.Size{W: 5, H: 5}, testStroke(nil, 1))
	pi, ei, ok := d.Find(id)
	if !ok || pi != 1 {
		t.Fatalf("element should land on page 1, got page %d ok=%v", pi, ok)
	}
	e := d.Pages[pi].Elements[ei]
	if e.Y != 42 || e.X != 10 {
		t.Fatalf("local coords wrong: %+v", e)
	}
}

func TestRemoveAndUpdateElement(t *testing.T) {
	d := New(DefaultLayout())
	id := d.AddElement(geom.Pt{X: 1, Y: 1}, geom.Size{W: 2, H: 2}, &TextPayload{Text: "hi", FontSize: 14})
	if !d.UpdateElement(id, func(e *Element) { e.X = 99 }) {
		t.Fatalf("update of existing id failed")
	}
	if d.Pages[0].Elements[0].X != 99 {
		t.Fatalf("update did not apply")
	}
	if d.UpdateElement("missing", func(e *Element) {}) {
		t.Fatalf("update of missing id should report false")
	}
	if !d.RemoveElement(id) || d.ElementCount() != 0 {
		t.Fatalf("remove failed")
	}
	if d.RemoveElement(id) {
		t.Fatalf("double remove should be a no-op")
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := New(DefaultLayout())
	d.AddElement(geom.Pt{X: 0, Y: 0}, geom.Size{W: 10, H: 10},
		testStroke([]geom.Pt{{X: 0, Y: 0}, {X: 10, Y: 10}}, 2))
	c := d.Clone()
	c.Pages[0].Elements[0].Payload.(*StrokePayload).Points[0].X = 123
	if d.Pages[0].Elements[0].Payload.(*StrokePayload).Points[0].X != 0 {
		t.Fatalf("clone shares stroke point storage with original")
	}
	c.Pages[0].Elements[0].X = 50
	if d.Pages[0].Elements[0].X != 0 {
		t.Fatalf("clone shares element storage with original")
	}
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	d := New(DefaultLayout())
	d.AddElement(geom.Pt{X: 5, Y: 7}, geom.Size{W: 10, H: 10},
		testStroke([]geom.Pt{{X: 0, Y: 0}, {X: 10, Y: 10}}, 2))
	d.AddElement(geom.Pt{X: 1, Y: 2}, geom.Size{W: 100, H: 40},
		&TextPayload{Text: "note", FontSize: 12, Color: Color{A: 255}})
	d.AddElement(geom.Pt{X: 0, Y: 0}, geom.Size{W: 50, H: 50},
		&ImagePayload{Data: []byte{1, 2, 3}, OriginalWidth: 4, OriginalHeight: 4})
	ymin := -2.0
	d.AddElement(geom.Pt{X: 0, Y: 300}, geom.Size{W: 200, H: 200},
		&GraphPayload{Expression: "sin(x)", XMin: -3, XMax: 3, YMin: &ymin})

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Document
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(d, &back); diff != "" {
		t.Fatalf("document changed over json round trip (-want +got):\n%s", diff)
	}
}

func TestUnknownKindRejected(t *testing.T) {
	var e Element
	err := json.Unmarshal([]byte(`{"id":"x","kind":"sticker","payload":{}}`), &e)
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRepairZombieStroke(t *testing.T) {
	d := New(DefaultLayout())
	// stored box is 0,0,0,0 while the points span a real area
	d.Pages[0].Elements = append(d.Pages[0].Elements, Element{
		ID:      "z",
		Payload: testStroke([]geom.Pt{{X: 40, Y: 60}, {X: 50, Y: 70}, {X: 60, Y: 80}}, 2),
	})
	if !d.Repair() {
		t.Fatalf("zombie stroke not detected")
	}
	e := d.Pages[0].Elements[0]
	if e.X != 40 || e.Y != 60 || e.W != 20 || e.H != 20 {
		t.Fatalf("unexpected repaired box: %+v", e)
	}
	s := e.Payload.(*StrokePayload)
	if s.Points[0] != (geom.Pt{X: 0, Y: 0}) || s.Points[2] != (geom.Pt{X: 20, Y: 20}) {
		t.Fatalf("points not renormalized: %+v", s.Points)
	}
	// a healthy document reports no changes
	if d.Repair() {
		t.Fatalf("repair must be idempotent")
	}
}

func TestRepairRestoresMinimumOnePage(t *testing.T) {
	d := &Document{Layout: DefaultLayout()}
	if !d.Repair() || d.PageCount() != 1 {
		t.Fatalf("repair should restore a single empty page")
	}
}

func TestRepairFloorsAtStrokeWidth(t *testing.T) {
	d := New(DefaultLayout())
	// perfectly horizontal stroke: point span has zero height
	d.Pages[0].Elements = append(d.Pages[0].Elements, Element{
		ID:      "h",
		Payload: testStroke([]geom.Pt{{X: 10, Y: 5}, {X: 30, Y: 5}}, 4),
	})
	d.Repair()
	e := d.Pages[0].Elements[0]
	if e.H != 4 {
		t.Fatalf("height should floor at stroke width, got %v", e.H)
	}
}
