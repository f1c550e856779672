/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"

	"inkpad/internal/geom"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScreenCanvasRoundTrip(t *testing.T) {
	v := New(400, 600)
	v.Scale = 2
	v.Offset = geom.Pt{X: 30, Y: -50}
	p := geom.Pt{X: 123, Y: 456}
	back := v.ToScreen(v.ToCanvas(p))
	if !almost(back.X, p.X) || !almost(back.Y, p.Y) {
		t.Fatalf("round trip drifted: %+v vs %+v", back, p)
	}
}

func TestPanWithinBoundsFollowsDelta(t *testing.T) {
	v := New(400, 600)
	v.SetContentSize(800, 2000) // larger than viewport
	v.Pan(geom.Pt{X: -100, Y: -100})
	if !almost(v.Offset.X, -100) || !almost(v.Offset.Y, -100) {
		t.Fatalf("in-bounds pan should track delta, got %+v", v.Offset)
	}
}

func TestPanOverscrollResistance(t *testing.T) {
	v := New(400, 600)
	v.SetContentSize(800, 2000)
	// offset 0 is the upper bound; panning further applies resistance
	v.Pan(geom.Pt{X: 0, Y: 100})
	if !almost(v.Offset.Y, 30) {
		t.Fatalf("overscroll should move at 0.3 rate, got %v", v.Offset.Y)
	}
}

func TestPanSmallContentFreePlay(t *testing.T) {
	v := New(400, 600)
	v.SetContentSize(200, 300) // smaller than viewport on both axes
	v.Snap()                   // centered: x=(400-200)/2=100, y=150
	v.Pan(geom.Pt{X: 20, Y: 0})
	if !almost(v.Offset.X, 120) {
		t.Fatalf("within free play movement should be free, got %v", v.Offset.X)
	}
	v.Pan(geom.Pt{X: 100, Y: 0}) // would leave the ±30 window
	if !almost(v.Offset.X, 150) {
		t.Fatalf("beyond free play should apply resistance, got %v", v.Offset.X)
	}
}

func TestSnapHardClampsAndRecenters(t *testing.T) {
	v := New(400, 600)
	v.SetContentSize(800, 2000)
	v.Offset = geom.Pt{X: 55, Y: -5000}
	v.Snap()
	if v.Offset.X != 0 {
		t.Fatalf("x should clamp to 0, got %v", v.Offset.X)
	}
	if v.Offset.Y != 600-2000 {
		t.Fatalf("y should clamp to viewport-content, got %v", v.Offset.Y)
	}
	v.SetContentSize(100, 100)
	v.Snap()
	if v.Offset.X != 150 || v.Offset.Y != 250 {
		t.Fatalf("small content should recenter, got %+v", v.Offset)
	}
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	v := New(400, 600)
	v.SetContentSize(10000, 10000) // large so no clamping interferes
	v.Offset = geom.Pt{X: -200, Y: -300}
	center := geom.Pt{X: 200, Y: 300}
	before := v.ToCanvas(center)
	v.Zoom(1.5, center)
	after := v.ToCanvas(center)
	if !almost(before.X, after.X) || !almost(before.Y, after.Y) {
		t.Fatalf("anchor drifted: %+v vs %+v", before, after)
	}
	if !almost(v.Scale, 1.5) {
		t.Fatalf("scale not applied: %v", v.Scale)
	}
}

func TestZoomScaleClamped(t *testing.T) {
	v := New(400, 600)
	v.Zoom(100, geom.Pt{X: 0, Y: 0})
	if v.Scale != MaxScale {
		t.Fatalf("scale should clamp at %v, got %v", MaxScale, v.Scale)
	}
	v.Zoom(0.0001, geom.Pt{X: 0, Y: 0})
	if v.Scale != MinScale {
		t.Fatalf("scale should clamp at %v, got %v", MinScale, v.Scale)
	}
}

func TestStepZoom(t *testing.T) {
	v := New(400, 600)
	v.SetContentSize(10000, 10000)
	v.StepZoom(1)
	if !almost(v.Scale, 1.1) {
		t.Fatalf("one step should give 1.1, got %v", v.Scale)
	}
	v.StepZoom(-1)
	if !almost(v.Scale, 1.0) {
		t.Fatalf("step back should give 1.0, got %v", v.Scale)
	}
	for i := 0; i < 100; i++ {
		v.StepZoom(-1)
	}
	if !almost(v.Scale, MinScale) {
		t.Fatalf("steps should clamp at %v, got %v", MinScale, v.Scale)
	}
}

func TestCurrentPageDerivation(t *testing.T) {
	v := New(400, 600)
	const pageH, gap = 1132.0, 24.0
	if pi := v.CurrentPage(pageH, gap, 3); pi != 0 {
		t.Fatalf("at origin expected page 0, got %d", pi)
	}
	v.Offset.Y = -(pageH + gap) // second page at top of the screen
	if pi := v.CurrentPage(pageH, gap, 3); pi != 1 {
		t.Fatalf("expected page 1, got %d", pi)
	}
	// bias: two thirds of the way down page 0 still derives page 0
	v.Offset.Y = -(pageH + gap) * 0.6
	if pi := v.CurrentPage(pageH, gap, 3); pi != 0 {
		t.Fatalf("expected page 0 with bias, got %d", pi)
	}
	// clamped to the last page
	v.Offset.Y = -(pageH + gap) * 50
	if pi := v.CurrentPage(pageH, gap, 3); pi != 2 {
		t.Fatalf("expected clamp to page 2, got %d", pi)
	}
}
