/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders note documents into portable formats. The PDF
// exporter maps canvas units 1:1 onto points; the PNG exporter rasterizes
// single pages for previews and sharing.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"inkpad/internal/document"
	applog "inkpad/internal/log"
)

// PDFOptions controls PDF export behavior. Units are points.
type PDFOptions struct {
	Title string
	Pages []int // if empty, export all pages
}

// ExportNotePDF writes the document as one multi-page PDF at outPath.
// Strokes become vector polylines, text stays vector via built-in
// Helvetica, raster payloads are embedded at their declared bounds.
func ExportNotePDF(d *document.Document, outPath string, opt PDFOptions) error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	l := applog.WithComponent("export")

	w := d.Layout.PageWidth
	h := d.Layout.PageHeight
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
		OrientationStr: "",
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetFont("Helvetica", "", 12)

	for _, pidx := range pageIndexes(d.PageCount(), opt.Pages) {
		if pidx < 0 || pidx >= d.PageCount() {
			continue
		}
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})
		drawPage(pdf, d, pidx, l)
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPage(pdf *gofpdf.Fpdf, d *document.Document, pidx int, l *slog.Logger) {
	els := make([]*document.Element, 0, len(d.Pages[pidx].Elements))
	for i := range d.Pages[pidx].Elements {
		els = append(els, &d.Pages[pidx].Elements[i])
	}
	sort.SliceStable(els, func(i, j int) bool { return els[i].Z < els[j].Z })

	for _, el := range els {
		switch p := el.Payload.(type) {
		case *document.StrokePayload:
			drawStroke(pdf, el, p)
		case *document.TextPayload:
			drawText(pdf, el, p)
		case *document.ImagePayload:
			drawRaster(pdf, el, p.Data, l)
		case *document.BitmapInkPayload:
			drawRaster(pdf, el, p.Data, l)
		case *document.GraphPayload:
			// symbolic, no stored geometry; keep the expression legible
			pdf.SetTextColor(int(p.Color.R), int(p.Color.G), int(p.Color.B))
			pdf.SetFont("Helvetica", "I", 12)
			pdf.Text(el.X+4, el.Y+14, p.Expression)
		}
	}
}

func drawStroke(pdf *gofpdf.Fpdf, el *document.Element, p *document.StrokePayload) {
	if len(p.Points) == 0 {
		return
	}
	pdf.SetDrawColor(int(p.Color.R), int(p.Color.G), int(p.Color.B))
	width := p.Width
	if width <= 0 {
		width = 1
	}
	pdf.SetLineWidth(width)
	pdf.SetLineCapStyle("round")
	if len(p.Points) == 1 {
		q := p.Points[0]
		pdf.Circle(el.X+q.X, el.Y+q.Y, width/2, "D")
		return
	}
	for i := 0; i+1 < len(p.Points); i++ {
		a, b := p.Points[i], p.Points[i+1]
		pdf.Line(el.X+a.X, el.Y+a.Y, el.X+b.X, el.Y+b.Y)
	}
}

func drawText(pdf *gofpdf.Fpdf, el *document.Element, p *document.TextPayload) {
	size := p.FontSize
	if size <= 0 {
		size = 16
	}
	pdf.SetTextColor(int(p.Color.R), int(p.Color.G), int(p.Color.B))
	pdf.SetFont("Helvetica", "", size)
	// approximate baseline offset for the first line
	pdf.Text(el.X, el.Y+size, p.Text)
}

var rasterSeq int

func drawRaster(pdf *gofpdf.Fpdf, el *document.Element, data []byte, l *slog.Logger) {
	if len(data) == 0 {
		return
	}
	var imgType string
	switch http.DetectContentType(data) {
	case "image/png":
		imgType = "PNG"
	case "image/jpeg":
		imgType = "JPG"
	default:
		l.Warn("unsupported raster format in export", slog.String("id", el.ID))
		return
	}
	rasterSeq++
	name := fmt.Sprintf("el-%s-%d", el.ID, rasterSeq)
	opts := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, el.X, el.Y, el.W, el.H, false, opts, 0, "")
}

func pageIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return specific
}
