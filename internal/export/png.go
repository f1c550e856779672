/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"inkpad/internal/document"
	"inkpad/internal/geom"
	"inkpad/internal/raster"
)

// RenderPagePNG rasterizes one page at the given scale onto a white
// background. Text and graph payloads render as bounding-box outlines; the
// viewer owns proper text shaping.
func RenderPagePNG(d *document.Document, pageIndex int, scale float64) (*image.RGBA, error) {
	if d == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if pageIndex < 0 || pageIndex >= d.PageCount() {
		return nil, fmt.Errorf("page %d out of range", pageIndex)
	}
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Ceil(d.Layout.PageWidth * scale))
	h := int(math.Ceil(d.Layout.PageHeight * scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	els := make([]*document.Element, 0, len(d.Pages[pageIndex].Elements))
	for i := range d.Pages[pageIndex].Elements {
		els = append(els, &d.Pages[pageIndex].Elements[i])
	}
	sort.SliceStable(els, func(i, j int) bool { return els[i].Z < els[j].Z })

	for _, el := range els {
		switch p := el.Payload.(type) {
		case *document.StrokePayload:
			rasterizeStroke(img, el, p, scale)
		case *document.ImagePayload:
			blitRaster(img, el, p.Data, p.OriginalWidth, p.OriginalHeight, scale)
		case *document.BitmapInkPayload:
			blitRaster(img, el, p.Data, p.OriginalWidth, p.OriginalHeight, scale)
		case *document.TextPayload:
			outlineRect(img, el, color.RGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: 255}, scale)
		case *document.GraphPayload:
			outlineRect(img, el, color.RGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: 255}, scale)
		}
	}
	return img, nil
}

// ExportPagePNG renders a page and writes it as a PNG file.
func ExportPagePNG(d *document.Document, pageIndex int, scale float64, outPath string) error {
	img, err := RenderPagePNG(d, pageIndex, scale)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Sync()
}

// rasterizeStroke stamps a filled disc along each segment. Crude next to a
// GPU path renderer, plenty for previews and thumbnails.
func rasterizeStroke(img *image.RGBA, el *document.Element, p *document.StrokePayload, scale float64) {
	if len(p.Points) == 0 {
		return
	}
	c := color.RGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: 255}
	radius := p.Width * scale / 2
	if radius < 0.5 {
		radius = 0.5
	}
	stamp := func(q geom.Pt) {
		cx := (el.X + q.X) * scale
		cy := (el.Y + q.Y) * scale
		r := int(math.Ceil(radius))
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if float64(dx*dx+dy*dy) <= radius*radius {
					img.SetRGBA(int(cx)+dx, int(cy)+dy, c)
				}
			}
		}
	}
	stamp(p.Points[0])
	for i := 0; i+1 < len(p.Points); i++ {
		a, b := p.Points[i], p.Points[i+1]
		steps := int(math.Ceil(geom.Dist(a, b) * scale))
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps)
			stamp(geom.Pt{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
}

func blitRaster(img *image.RGBA, el *document.Element, data []byte, pxW, pxH int, scale float64) {
	src, err := raster.Decode(data)
	if err != nil {
		src = raster.Placeholder(pxW, pxH)
	}
	dw := int(math.Ceil(el.W * scale))
	dh := int(math.Ceil(el.H * scale))
	if dw <= 0 || dh <= 0 {
		return
	}
	scaled := raster.Scale(src, dw, dh)
	at := image.Pt(int(el.X*scale), int(el.Y*scale))
	draw.Draw(img, image.Rectangle{Min: at, Max: at.Add(image.Pt(dw, dh))},
		scaled, image.Point{}, draw.Over)
}

func outlineRect(img *image.RGBA, el *document.Element, c color.RGBA, scale float64) {
	x0, y0 := int(el.X*scale), int(el.Y*scale)
	x1, y1 := int((el.X+el.W)*scale), int((el.Y+el.H)*scale)
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, c)
		img.SetRGBA(x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, c)
		img.SetRGBA(x1, y, c)
	}
}
