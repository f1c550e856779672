/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

// This file defines the element payload variants of the canvas document
// model. Payloads form a closed tagged union; code that needs
// payload-specific geometry (stroke scaling, raster punching) switches over
// the concrete types exhaustively.

import (
	"encoding/json"
	"fmt"

	"inkpad/internal/geom"
)

// Kind tags an element payload variant.
type Kind string

const (
	KindStroke    Kind = "stroke"
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindBitmapInk Kind = "bitmapInk"
	KindGraph     Kind = "graph"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Payload is the closed union of element content variants.
type Payload interface {
	Kind() Kind
	clone() Payload
}

// StrokePayload is a freehand path. Points are local to the element's own
// bounding box, i.e. in [0,W]x[0,H] of the owning element.
type StrokePayload struct {
	Points []geom.Pt `json:"points"`
	Color  Color     `json:"color"`
	Width  float64   `json:"width"`
	Brush  string    `json:"brush,omitempty"` // pen, marker, highlighter
}

func (p *StrokePayload) Kind() Kind { return KindStroke }
func (p *StrokePayload) clone() Payload {
	c := *p
	c.Points = append([]geom.Pt(nil), p.Points...)
	return &c
}

// TextPayload is a positioned text box.
type TextPayload struct {
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Color      Color   `json:"color"`
}

func (p *TextPayload) Kind() Kind { return KindText }
func (p *TextPayload) clone() Payload {
	c := *p
	return &c
}

// ImagePayload holds opaque encoded raster bytes plus the native pixel size.
// The pixel size is required to map canvas-space erase/crop operations back
// into pixel space; it is the single source of truth for that mapping.
type ImagePayload struct {
	Data           []byte `json:"data"`
	OriginalWidth  int    `json:"originalWidth"`
	OriginalHeight int    `json:"originalHeight"`
}

func (p *ImagePayload) Kind() Kind { return KindImage }
func (p *ImagePayload) clone() Payload {
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}

// BitmapInkPayload is raster content produced by the ink rasterization
// collaborator. Unlike Image it is routinely mutated: the eraser punches
// transparent holes into it.
type BitmapInkPayload struct {
	Data           []byte `json:"data"`
	OriginalWidth  int    `json:"originalWidth"`
	OriginalHeight int    `json:"originalHeight"`
}

func (p *BitmapInkPayload) Kind() Kind { return KindBitmapInk }
func (p *BitmapInkPayload) clone() Payload {
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}

// GraphPayload is a symbolic function plot. It has no erasable geometry.
type GraphPayload struct {
	Expression string   `json:"expression"`
	XMin       float64  `json:"xMin"`
	XMax       float64  `json:"xMax"`
	YMin       *float64 `json:"yMin,omitempty"`
	YMax       *float64 `json:"yMax,omitempty"`
	Color      Color    `json:"color"`
}

func (p *GraphPayload) Kind() Kind { return KindGraph }
func (p *GraphPayload) clone() Payload {
	c := *p
	if p.YMin != nil {
		v := *p.YMin
		c.YMin = &v
	}
	if p.YMax != nil {
		v := *p.YMax
		c.YMax = &v
	}
	return &c
}

// RasterSize returns the native pixel size for raster payloads and ok=false
// for everything else.
func RasterSize(p Payload) (w, h int, ok bool) {
	switch v := p.(type) {
	case *ImagePayload:
		return v.OriginalWidth, v.OriginalHeight, true
	case *BitmapInkPayload:
		return v.OriginalWidth, v.OriginalHeight, true
	}
	return 0, 0, false
}

// Element is one positioned, typed drawable unit. X/Y/W/H are local to the
// owning page; Z records the insertion order within the page (lowest drawn
// first). IDs are unique across the whole document, not just a page.
type Element struct {
	ID      string
	X, Y    float64
	W, H    float64
	Z       int
	Payload Payload
}

// Rect returns the element's page-local bounding rectangle.
func (e *Element) Rect() geom.Rect { return geom.R(e.X, e.Y, e.W, e.H) }

// Clone returns a deep copy of the element including its payload.
func (e *Element) Clone() Element {
	c := *e
	if e.Payload != nil {
		c.Payload = e.Payload.clone()
	}
	return c
}

// elementJSON is the wire envelope for Element; the payload is encoded next
// to its kind tag so the union round-trips.
type elementJSON struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	W       float64         `json:"width"`
	H       float64         `json:"height"`
	Z       int             `json:"z"`
	Payload json.RawMessage `json:"payload"`
}

func (e Element) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("element %s has no payload", e.ID)
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(elementJSON{
		ID: e.ID, Kind: e.Payload.Kind(),
		X: e.X, Y: e.Y, W: e.W, H: e.H, Z: e.Z,
		Payload: raw,
	})
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var env elementJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	var p Payload
	switch env.Kind {
	case KindStroke:
		p = &StrokePayload{}
	case KindText:
		p = &TextPayload{}
	case KindImage:
		p = &ImagePayload{}
	case KindBitmapInk:
		p = &BitmapInkPayload{}
	case KindGraph:
		p = &GraphPayload{}
	default:
		return fmt.Errorf("unknown element kind %q", env.Kind)
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, p); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Kind, err)
		}
	}
	e.ID = env.ID
	e.X, e.Y, e.W, e.H, e.Z = env.X, env.Y, env.W, env.H, env.Z
	e.Payload = p
	return nil
}
