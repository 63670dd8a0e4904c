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

package display

import (
	"image"

	"github.com/odysseyprint/odyssey-tools/pkg/helpers/syncutil"
)

// Sink presents finished frames. Present must not keep img after returning.
type Sink interface {
	Present(img *image.RGBA) error
	Close() error
}

// MemorySink keeps a copy of every presented frame.
type MemorySink struct {
	frames []*image.RGBA
	mu     syncutil.Mutex
	closed bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Present(img *image.RGBA) error {
	cp := image.NewRGBA(img.Rect)
	copy(cp.Pix, img.Pix)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, cp)
	return nil
}

func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemorySink) Frames() []*image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*image.RGBA, len(m.frames))
	copy(out, m.frames)
	return out
}

func (m *MemorySink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
