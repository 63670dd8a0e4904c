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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// Source yields raw frame buffer contents one frame at a time. Next returns
// io.EOF once no further frames will arrive.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// StreamSource cuts a continuous byte stream into fixed size frames. The
// final frame may be short; the decoder decides whether it is well formed.
type StreamSource struct {
	r         *bufio.Reader
	frameSize int
}

func NewStreamSource(r io.Reader, frameSize int) *StreamSource {
	return &StreamSource{
		r:         bufio.NewReaderSize(r, max(frameSize, 16)),
		frameSize: frameSize,
	}
}

func (s *StreamSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // context errors pass through
	}
	if s.frameSize <= 0 {
		return nil, fmt.Errorf("invalid frame size: %d", s.frameSize)
	}

	buf := make([]byte, s.frameSize)
	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return buf[:n], nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
}

// SliceSource replays frames held in memory.
type SliceSource struct {
	frames [][]byte
	pos    int
}

func NewSliceSource(frames ...[]byte) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // context errors pass through
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}
