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
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimSink(t *testing.T, cols, rows int) (*TerminalSink, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	sink, err := NewTerminalSink(sim)
	require.NoError(t, err)
	sim.SetSize(cols, rows)
	t.Cleanup(func() { _ = sink.Close() })
	return sink, sim
}

func cellAt(sim tcell.SimulationScreen, x, y int) tcell.SimCell {
	cells, width, _ := sim.GetContents()
	return cells[y*width+x]
}

func TestScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Scale(10, 10, 80, 24))
	assert.Equal(t, 3, Scale(192, 108, 80, 24))
	assert.Equal(t, 5, Scale(192, 108, 40, 40))
	assert.Equal(t, 1, Scale(10, 10, 0, 0))
}

func TestTerminalSinkHalfBlocks(t *testing.T) {
	t.Parallel()

	sink, sim := newSimSink(t, 4, 2)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetRGBA(0, 1, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	img.SetRGBA(1, 0, color.RGBA{A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	require.NoError(t, sink.Present(img))

	c := cellAt(sim, 0, 0)
	require.NotEmpty(t, c.Runes)
	assert.Equal(t, halfBlock, c.Runes[0])
	fg, bg, _ := c.Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 255, 255), fg)
	assert.Equal(t, tcell.NewRGBColor(10, 10, 10), bg)

	c = cellAt(sim, 1, 0)
	fg, bg, _ = c.Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(128, 128, 128), bg)

	// beyond the image nothing is drawn
	c = cellAt(sim, 2, 0)
	assert.NotEqual(t, []rune{halfBlock}, c.Runes)
}

func TestTerminalSinkShrinksLargeFrames(t *testing.T) {
	t.Parallel()

	sink, sim := newSimSink(t, 2, 1)

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.SetRGBA(4, 0, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	require.NoError(t, sink.Present(img))

	// scale 4: cell (1,0) samples pixel (4,0)
	fg, _, _ := cellAt(sim, 1, 0).Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(200, 200, 200), fg)
}

func TestTerminalSinkWaitForQuit(t *testing.T) {
	t.Parallel()

	sink, sim := newSimSink(t, 4, 2)

	done := make(chan struct{})
	go func() {
		sink.WaitForQuit()
		close(done)
	}()

	sim.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForQuit did not return on q")
	}
}

func TestTerminalSinkCloseReleasesWait(t *testing.T) {
	t.Parallel()

	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	sink, err := NewTerminalSink(sim)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		sink.WaitForQuit()
		close(done)
	}()

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForQuit did not return after Close")
	}
}

func solidFrame(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestTerminalSinkResizeDuringPresent(t *testing.T) {
	t.Parallel()

	sink, sim := newSimSink(t, 4, 2)

	done := make(chan struct{})
	go func() {
		sink.WaitForQuit()
		close(done)
	}()

	frames := []*image.RGBA{
		solidFrame(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		solidFrame(color.RGBA{R: 40, G: 40, B: 40, A: 255}),
	}

	resized := make(chan struct{})
	go func() {
		defer close(resized)
		for range 50 {
			for sim.PostEvent(tcell.NewEventResize(4, 2)) != nil {
				time.Sleep(time.Millisecond)
			}
		}
	}()

	for i := range 51 {
		require.NoError(t, sink.Present(frames[i%2]))
	}
	<-resized
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForQuit did not return on q")
	}

	// frame 50 is white; every cell shows it whichever pass drew last
	want := tcell.NewRGBColor(255, 255, 255)
	for x := range 2 {
		c := cellAt(sim, x, 0)
		require.NotEmpty(t, c.Runes)
		assert.Equal(t, halfBlock, c.Runes[0])
		fg, bg, _ := c.Style.Decompose()
		assert.Equal(t, want, fg)
		assert.Equal(t, want, bg)
	}
}
