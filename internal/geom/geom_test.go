/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"testing"
)

func TestRectContainsAndInflate(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	g := r.Inflate(5)
	if g.X != 5 || g.Y != 15 || g.W != 110 || g.H != 60 {
		t.Fatalf("unexpected inflate: %+v", g)
	}
}

func TestRectUnionAndIntersects(t *testing.T) {
	a := R(0, 0, 10, 10)
	b := R(5, 5, 20, 20)
	u := a.Union(b)
	if u.X != 0 || u.Y != 0 || u.W != 25 || u.H != 25 {
		t.Fatalf("unexpected union: %+v", u)
	}
	if !a.Intersects(b) {
		t.Fatalf("expected overlap")
	}
	if a.Intersects(R(100, 100, 1, 1)) {
		t.Fatalf("expected no overlap with distant rect")
	}
}

func TestDist(t *testing.T) {
	if d := Dist(Pt{0, 0}, Pt{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Fatalf("expected 5, got %v", d)
	}
}

func TestSegmentsIntersectGeneral(t *testing.T) {
	// plain crossing
	if !SegmentsIntersect(Pt{0, 0}, Pt{10, 10}, Pt{0, 10}, Pt{10, 0}) {
		t.Fatalf("crossing segments should intersect")
	}
	// parallel, disjoint
	if SegmentsIntersect(Pt{0, 0}, Pt{10, 0}, Pt{0, 5}, Pt{10, 5}) {
		t.Fatalf("parallel segments should not intersect")
	}
}

func TestSegmentsIntersectCollinear(t *testing.T) {
	// collinear with overlap
	if !SegmentsIntersect(Pt{0, 0}, Pt{10, 0}, Pt{5, 0}, Pt{15, 0}) {
		t.Fatalf("overlapping collinear segments should intersect")
	}
	// collinear, disjoint
	if SegmentsIntersect(Pt{0, 0}, Pt{4, 0}, Pt{5, 0}, Pt{10, 0}) {
		t.Fatalf("disjoint collinear segments should not intersect")
	}
	// touching at an endpoint
	if !SegmentsIntersect(Pt{0, 0}, Pt{5, 0}, Pt{5, 0}, Pt{5, 10}) {
		t.Fatalf("endpoint touch should intersect")
	}
}

func TestSegmentsIntersectSymmetric(t *testing.T) {
	cases := [][4]Pt{
		{{0, 0}, {10, 10}, {0, 10}, {10, 0}},
		{{0, 0}, {10, 0}, {0, 5}, {10, 5}},
		{{0, 0}, {10, 0}, {5, 0}, {15, 0}},
		{{1, 2}, {3, 4}, {5, 6}, {7, 8}},
	}
	for i, c := range cases {
		a := SegmentsIntersect(c[0], c[1], c[2], c[3])
		b := SegmentsIntersect(c[2], c[3], c[0], c[1])
		if a != b {
			t.Fatalf("case %d: not symmetric: %v vs %v", i, a, b)
		}
	}
}

func TestRectIntersectsSegment(t *testing.T) {
	r := R(0, 0, 10, 10)
	// segment passing straight through without a vertex inside
	if !r.IntersectsSegment(Pt{-5, 5}, Pt{15, 5}) {
		t.Fatalf("pass-through segment should intersect rect edges")
	}
	// segment fully inside never touches an edge
	if r.IntersectsSegment(Pt{2, 2}, Pt{8, 8}) {
		t.Fatalf("interior segment should not cross an edge")
	}
	if r.IntersectsSegment(Pt{20, 20}, Pt{30, 30}) {
		t.Fatalf("distant segment should not intersect")
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]Pt{{3, 7}, {1, 9}, {5, 2}})
	if b.X != 1 || b.Y != 2 || b.W != 4 || b.H != 7 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	if z := BoundsOf(nil); z != (Rect{}) {
		t.Fatalf("empty run should give zero rect, got %+v", z)
	}
}

func TestDistToSegment(t *testing.T) {
	a, b := Pt{0, 0}, Pt{10, 0}
	if d := DistToSegment(Pt{5, 3}, a, b); d != 3 {
		t.Fatalf("perpendicular distance = %v, want 3", d)
	}
	// beyond the endpoint the nearest feature is the endpoint itself
	if d := DistToSegment(Pt{14, 3}, a, b); d != 5 {
		t.Fatalf("endpoint distance = %v, want 5", d)
	}
	if d := DistToSegment(Pt{3, 4}, Pt{0, 0}, Pt{0, 0}); d != 5 {
		t.Fatalf("degenerate segment distance = %v, want 5", d)
	}
}
