/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps between screen and canvas coordinates and owns the
// pan/zoom state, including the elastic overscroll policy. The transform is
// the plain similarity: canvas = (screen - offset) / scale.
package viewport

import (
	"math"

	"inkpad/internal/geom"
)

const (
	// MinScale and MaxScale bound pinch and button zoom.
	MinScale = 0.1
	MaxScale = 5.0
	// ZoomStep is the scale increment of the zoom buttons.
	ZoomStep = 0.1

	// overscroll resistance beyond the valid offset range
	resistance = 0.3
	// free play around the centered offset before resistance applies when the
	// content is smaller than the viewport
	freePlay = 30.0
)

// Viewport holds the current pan/zoom state against a fixed screen size.
type Viewport struct {
	Scale  float64
	Offset geom.Pt

	// screen extent in screen units
	Width, Height float64

	// content extent in canvas units, kept in sync by the host whenever the
	// document's page count or layout changes
	ContentW, ContentH float64
}

// New returns a viewport at identity over the given screen size.
func New(screenW, screenH float64) *Viewport {
	return &Viewport{Scale: 1, Width: screenW, Height: screenH}
}

// SetContentSize updates the scrollable content extent (canvas units).
func (v *Viewport) SetContentSize(w, h float64) {
	v.ContentW, v.ContentH = w, h
}

// ToCanvas converts a screen point into canvas space.
func (v *Viewport) ToCanvas(p geom.Pt) geom.Pt {
	return geom.Pt{X: (p.X - v.Offset.X) / v.Scale, Y: (p.Y - v.Offset.Y) / v.Scale}
}

// ToScreen converts a canvas point into screen space.
func (v *Viewport) ToScreen(p geom.Pt) geom.Pt {
	return geom.Pt{X: p.X*v.Scale + v.Offset.X, Y: p.Y*v.Scale + v.Offset.Y}
}

// Pan applies a drag translation (screen units) with per-axis elastic
// clamping: inside the valid range the offset follows the finger, past it
// the excursion proceeds at reduced rate for the rubber-band feel.
func (v *Viewport) Pan(delta geom.Pt) {
	v.Offset.X = v.elasticAxis(v.Offset.X, delta.X, v.ContentW*v.Scale, v.Width)
	v.Offset.Y = v.elasticAxis(v.Offset.Y, delta.Y, v.ContentH*v.Scale, v.Height)
}

// elasticAxis advances one offset axis by delta against the given content
// and viewport extents (both screen units). Inside the valid range the
// offset tracks the raw delta; past it only a 0.3 fraction of the delta is
// applied. Snap settles the excursion on gesture end.
func (v *Viewport) elasticAxis(offset, delta, content, viewport float64) float64 {
	candidate := offset + delta
	if content > viewport {
		lo, hi := viewport-content, 0.0
		if candidate >= lo && candidate <= hi {
			return candidate
		}
		return offset + delta*resistance
	}
	// content smaller than viewport: free play around the centered offset,
	// resistance beyond it
	center := (viewport - content) / 2
	if math.Abs(candidate-center) <= freePlay {
		return candidate
	}
	return offset + delta*resistance
}

// Zoom applies a multiplicative pinch factor about a fixed screen-space
// center: the canvas point under the center before the zoom stays under it
// afterwards. The resulting offset gets the same elastic treatment as Pan.
func (v *Viewport) Zoom(factor float64, center geom.Pt) {
	newScale := geom.Clamp(v.Scale*factor, MinScale, MaxScale)
	if newScale == v.Scale {
		return
	}
	// canvas point under the center with the pre-zoom transform
	anchor := v.ToCanvas(center)
	v.Scale = newScale
	raw := geom.Pt{
		X: center.X - anchor.X*newScale,
		Y: center.Y - anchor.Y*newScale,
	}
	v.Offset.X = resolveAxis(raw.X, v.ContentW*v.Scale, v.Width)
	v.Offset.Y = resolveAxis(raw.Y, v.ContentH*v.Scale, v.Height)
}

// resolveAxis applies the elastic policy to an absolute candidate offset:
// beyond a bound only a 0.3 fraction of the excess survives.
func resolveAxis(candidate, content, viewport float64) float64 {
	if content > viewport {
		lo, hi := viewport-content, 0.0
		if candidate < lo {
			return lo + (candidate-lo)*resistance
		}
		if candidate > hi {
			return hi + (candidate-hi)*resistance
		}
		return candidate
	}
	center := (viewport - content) / 2
	if math.Abs(candidate-center) <= freePlay {
		return candidate
	}
	if candidate > center {
		return center + freePlay + (candidate-center-freePlay)*resistance
	}
	return center - freePlay + (candidate-center+freePlay)*resistance
}

// StepZoom nudges the scale by n zoom-button steps about the screen center.
func (v *Viewport) StepZoom(n int) {
	target := geom.Clamp(v.Scale+float64(n)*ZoomStep, MinScale, MaxScale)
	if target == v.Scale {
		return
	}
	v.Zoom(target/v.Scale, geom.Pt{X: v.Width / 2, Y: v.Height / 2})
}

// Snap resolves any elastic excursion to a final, storable offset: hard
// clamp into the valid range, or recenter when the content is smaller than
// the viewport. Called on gesture end; this is the only place elasticity is
// settled.
func (v *Viewport) Snap() {
	v.Offset.X = snapAxis(v.Offset.X, v.ContentW*v.Scale, v.Width)
	v.Offset.Y = snapAxis(v.Offset.Y, v.ContentH*v.Scale, v.Height)
}

func snapAxis(offset, content, viewport float64) float64 {
	if content > viewport {
		return geom.Clamp(offset, viewport-content, 0)
	}
	return (viewport - content) / 2
}

// CurrentPage derives which page a freshly started stroke or erase gesture
// belongs to from the vertical offset. The page/3 bias keeps the derivation
// stable while a page edge sits near the top of the screen.
func (v *Viewport) CurrentPage(pageHeightPx, gapPx float64, pageCount int) int {
	ph := (pageHeightPx + gapPx) * v.Scale
	if ph <= 0 || pageCount <= 0 {
		return 0
	}
	idx := int(math.Floor((-v.Offset.Y + ph/3) / ph))
	if idx < 0 {
		idx = 0
	}
	if idx > pageCount-1 {
		idx = pageCount - 1
	}
	return idx
}
