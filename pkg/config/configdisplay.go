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

package config

import "slices"

const (
	SinkTerminal = "terminal"
	SinkPDF      = "pdf"
)

type Display struct {
	FIFOGlob    string  `toml:"fifo_glob" validate:"required"`
	Sink        string  `toml:"sink" validate:"oneof=terminal pdf"`
	PDFPath     string  `toml:"pdf_path,omitempty"`
	BitDepth    []uint8 `toml:"bit_depth" validate:"min=1,dive,min=1,max=16"`
	Width       int     `toml:"width" validate:"min=1"`
	Height      int     `toml:"height" validate:"min=1"`
	Zoom        int     `toml:"zoom" validate:"min=1,max=64"`
	TargetDepth uint8   `toml:"target_depth" validate:"min=1,max=16"`
}

// Display returns a copy of the display settings.
func (c *Instance) Display() Display {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := c.vals.Display
	d.BitDepth = slices.Clone(d.BitDepth)
	return d
}

func (c *Instance) SetDisplaySink(sink, pdfPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.Sink = sink
	c.vals.Display.PDFPath = pdfPath
}
