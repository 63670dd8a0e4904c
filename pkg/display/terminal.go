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
	"fmt"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers/syncutil"
)

const halfBlock = '▀'

// TerminalSink draws frames with upper half blocks, two image rows per
// terminal cell. Frames larger than the terminal are shrunk by an integer
// factor using nearest neighbour sampling.
type TerminalSink struct {
	screen tcell.Screen
	last   *image.RGBA
	once   sync.Once
	mu     syncutil.Mutex
}

// NewTerminalSink draws on screen, which the caller must already have
// initialised. A nil screen opens the real terminal.
func NewTerminalSink(screen tcell.Screen) (*TerminalSink, error) {
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("failed to create terminal screen: %w", err)
		}
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialise terminal screen: %w", err)
		}
		screen = s
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.HideCursor()
	screen.Clear()
	return &TerminalSink{screen: screen}, nil
}

func (t *TerminalSink) Present(img *image.RGBA) error {
	cp := image.NewRGBA(img.Rect)
	copy(cp.Pix, img.Pix)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = cp
	t.draw(cp)
	return nil
}

// Scale is the shrink factor used for an iw by ih image on a cols by rows
// terminal.
func Scale(iw, ih, cols, rows int) int {
	if cols <= 0 || rows <= 0 {
		return 1
	}
	s := max((iw+cols-1)/cols, (ih+2*rows-1)/(2*rows))
	return max(s, 1)
}

// draw must be called with mu held.
func (t *TerminalSink) draw(img *image.RGBA) {
	cols, rows := t.screen.Size()
	b := img.Bounds()
	iw, ih := b.Dx(), b.Dy()
	s := Scale(iw, ih, cols, rows)

	t.screen.Clear()
	for cy := range rows {
		top := 2 * cy * s
		if top >= ih {
			break
		}
		bottom := (2*cy + 1) * s
		for cx := range cols {
			x := cx * s
			if x >= iw {
				break
			}
			style := tcell.StyleDefault.
				Foreground(grey(img, b.Min.X+x, b.Min.Y+top)).
				Background(tcell.ColorBlack)
			if bottom < ih {
				style = style.Background(grey(img, b.Min.X+x, b.Min.Y+bottom))
			}
			t.screen.SetContent(cx, cy, halfBlock, nil, style)
		}
	}
	t.screen.Show()
}

func grey(img *image.RGBA, x, y int) tcell.Color {
	c := img.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// WaitForQuit blocks until the user presses q, Esc or Ctrl-C, or until the
// sink is closed. Resizes redraw the last frame.
func (t *TerminalSink) WaitForQuit() {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				return
			}
		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			if t.last != nil {
				t.draw(t.last)
			}
			t.mu.Unlock()
		}
	}
}

func (t *TerminalSink) Close() error {
	t.once.Do(t.screen.Fini)
	return nil
}
