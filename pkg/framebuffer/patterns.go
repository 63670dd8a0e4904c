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

package framebuffer

import (
	"errors"
	"fmt"
	"slices"
)

// Pattern names a test image the display can be checked against.
type Pattern string

const (
	PatternWhite      Pattern = "white"
	PatternBlank      Pattern = "blank"
	PatternGrid       Pattern = "grid"
	PatternDimensions Pattern = "dimensions"
)

const gridSpacing = 10

var ErrUnknownPattern = errors.New("unknown test pattern")

func Patterns() []Pattern {
	return []Pattern{PatternWhite, PatternBlank, PatternGrid, PatternDimensions}
}

func ParsePattern(s string) (Pattern, error) {
	p := Pattern(s)
	if !slices.Contains(Patterns(), p) {
		return "", fmt.Errorf("%w: %s", ErrUnknownPattern, s)
	}
	return p, nil
}

// RenderPattern returns one sample per logical pixel, row major, at the
// format's target depth.
func RenderPattern(p Pattern, width, height int, f Format) ([]uint16, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid pattern size %dx%d", width, height)
	}

	on := f.MaxSample()
	samples := make([]uint16, width*height)

	var lit func(x, y int) bool
	switch p {
	case PatternWhite:
		lit = func(int, int) bool { return true }
	case PatternBlank:
		lit = func(int, int) bool { return false }
	case PatternGrid:
		lit = func(x, y int) bool {
			return x%gridSpacing == 0 || y%gridSpacing == 0
		}
	case PatternDimensions:
		// outline plus centre cross, so cropping and offsets are visible
		lit = func(x, y int) bool {
			return x == 0 || y == 0 || x == width-1 || y == height-1 ||
				x == width/2 || y == height/2
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPattern, p)
	}

	for y := range height {
		for x := range width {
			if lit(x, y) {
				samples[y*width+x] = on
			}
		}
	}
	return samples, nil
}

// EncodePattern renders p and packs it into a frame ready to be written to
// the frame buffer.
func EncodePattern(p Pattern, width, height int, f Format) ([]byte, error) {
	samples, err := RenderPattern(p, width, height, f)
	if err != nil {
		return nil, err
	}
	return f.Encode(f.Pad(samples))
}
