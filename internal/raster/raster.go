/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster owns the decoded-image side cache for Image and BitmapInk
// elements. The cache is keyed by element id, is invalidated whenever the
// element's payload changes, and is never the source of truth for geometry:
// the declared original pixel size on the payload always wins.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"sync"

	xdraw "golang.org/x/image/draw"

	applog "inkpad/internal/log"
	"inkpad/internal/geom"
)

// Cache maps element ids to decoded RGBA bitmaps plus a dirty flag for
// bitmaps the eraser has punched since the last re-encode.
type Cache struct {
	mu     sync.Mutex
	images map[string]*image.RGBA
	dirty  map[string]bool
}

func NewCache() *Cache {
	return &Cache{images: make(map[string]*image.RGBA), dirty: make(map[string]bool)}
}

// Get returns the decoded bitmap for an element, decoding the encoded bytes
// on first access. A decode failure degrades to a visible placeholder of
// the declared size instead of failing the caller's mutation.
func (c *Cache) Get(id string, encoded []byte, w, h int) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.images[id]; ok {
		return img
	}
	img, err := decodeRGBA(encoded)
	if err != nil {
		applog.WithComponent("raster").Warn("decode failed, using placeholder",
			slog.String("id", id), slog.Any("err", err))
		img = Placeholder(w, h)
	}
	c.images[id] = img
	return img
}

// PunchCircle composites a transparent circle into the cached bitmap and
// marks the element dirty. Center and radius are in the element's pixel
// space; callers map from canvas space using the declared original size.
func (c *Cache) PunchCircle(id string, center geom.Pt, radius float64) {
	c.mu.Lock()
	img, ok := c.images[id]
	c.mu.Unlock()
	if !ok || radius <= 0 {
		return
	}
	r := image.Rect(
		int(center.X-radius)-1, int(center.Y-radius)-1,
		int(center.X+radius)+2, int(center.Y+radius)+2,
	).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	rr := radius * radius
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dx := float64(x) + 0.5 - center.X
			dy := float64(y) + 0.5 - center.Y
			if dx*dx+dy*dy <= rr {
				img.SetRGBA(x, y, color.RGBA{})
			}
		}
	}
	c.mu.Lock()
	c.dirty[id] = true
	c.mu.Unlock()
}

// DirtyIDs returns the ids whose bitmaps changed since the last Encode.
func (c *Cache) DirtyIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.dirty))
	for id := range c.dirty {
		out = append(out, id)
	}
	return out
}

// Encode re-encodes the cached bitmap for an element into its persisted
// form and clears the dirty flag.
func (c *Cache) Encode(id string) ([]byte, error) {
	c.mu.Lock()
	img, ok := c.images[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("raster: no cached image for %s", id)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s: %w", id, err)
	}
	c.mu.Lock()
	delete(c.dirty, id)
	c.mu.Unlock()
	return buf.Bytes(), nil
}

// Invalidate drops the cached bitmap for an element. Must be called when
// the element's payload is replaced from outside the cache.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.images, id)
	delete(c.dirty, id)
	c.mu.Unlock()
}

// Reset drops every cached bitmap. Undo/redo swaps the whole document, so
// any cached decode may be stale afterwards.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.images = make(map[string]*image.RGBA)
	c.dirty = make(map[string]bool)
	c.mu.Unlock()
}

// Decode returns a decoded copy without caching, for one-off consumers like
// export.
func Decode(encoded []byte) (*image.RGBA, error) { return decodeRGBA(encoded) }

func decodeRGBA(encoded []byte) (*image.RGBA, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("raster: empty image data")
	}
	src, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst, nil
}

// Scale resamples src into a new w x h bitmap. Used by export and by merge
// composites.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// Placeholder renders the gray crossed box shown when raster content cannot
// be decoded.
func Placeholder(w, h int) *image.RGBA {
	if w <= 0 {
		w = 64
	}
	if h <= 0 {
		h = 64
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	fg := color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	for x := 0; x < w; x++ {
		y := x * (h - 1) / max(w-1, 1)
		img.SetRGBA(x, y, fg)
		img.SetRGBA(x, h-1-y, fg)
	}
	for x := 0; x < w; x++ {
		img.SetRGBA(x, 0, fg)
		img.SetRGBA(x, h-1, fg)
	}
	for y := 0; y < h; y++ {
		img.SetRGBA(0, y, fg)
		img.SetRGBA(w-1, y, fg)
	}
	return img
}
