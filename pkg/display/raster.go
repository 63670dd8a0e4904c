// Odyssey Tools
// Copyright (c) 2026 The Odyssey Tools Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Odyssey Tools.
//
// Odyssey Tools is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Odyssey Tools is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Odyssey Tools.  If not, see <http://www.gnu.org/licenses/>.

// Package display turns decoded frame buffer samples into greyscale images
// and presents them on a sink.
package display

import (
	"fmt"
	"image"
	"image/color"
)

// Raster is a persistent greyscale canvas. Pixels a frame does not cover
// keep their previous value.
type Raster struct {
	img    *image.RGBA
	width  int
	height int
	zoom   int
	depth  uint8
}

func NewRaster(width, height, zoom int, depth uint8) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if zoom <= 0 {
		return nil, fmt.Errorf("invalid zoom: %d", zoom)
	}
	if depth == 0 || depth > 16 {
		return nil, fmt.Errorf("invalid sample depth: %d", depth)
	}
	img := image.NewRGBA(image.Rect(0, 0, width*zoom, height*zoom))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return &Raster{
		img:    img,
		width:  width,
		height: height,
		zoom:   zoom,
		depth:  depth,
	}, nil
}

func (r *Raster) Image() *image.RGBA {
	return r.img
}

func (r *Raster) Width() int {
	return r.width
}

func (r *Raster) Height() int {
	return r.height
}

// Intensity maps a sample at the raster's depth to an 8 bit grey level.
func (r *Raster) Intensity(sample uint16) uint8 {
	if r.depth > 8 {
		return uint8(sample >> (r.depth - 8))
	}
	if sample > 0xFF {
		return 0xFF
	}
	return uint8(sample)
}

// Draw paints samples left to right, top to bottom. Sample i lands on
// logical pixel (i mod width, i div width), filled as a zoom by zoom block.
// Samples past the last row are dropped and counted.
func (r *Raster) Draw(samples []uint16) (dropped int) {
	for i, s := range samples {
		x := i % r.width
		y := i / r.width
		if y >= r.height {
			return len(samples) - i
		}
		r.fill(x, y, r.Intensity(s))
	}
	return 0
}

func (r *Raster) fill(x, y int, v uint8) {
	c := color.RGBA{R: v, G: v, B: v, A: 0xFF}
	x0, y0 := x*r.zoom, y*r.zoom
	for dy := range r.zoom {
		for dx := range r.zoom {
			r.img.SetRGBA(x0+dx, y0+dy, c)
		}
	}
}

// At returns the grey level of logical pixel (x, y).
func (r *Raster) At(x, y int) uint8 {
	return r.img.RGBAAt(x*r.zoom, y*r.zoom).R
}
