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

// Package framebuffer converts between the packed pixel groups the printer
// writes to its frame buffer and flat per-channel intensity samples.
//
// A pixel group is sum(BitDepths)/8 bytes read as a little-endian integer.
// The first channel occupies the most significant bits. Each channel is
// scaled to TargetDepth bits by shifting it left, so a 5 bit channel of all
// ones becomes 248 at a target depth of 8.
package framebuffer

import (
	"errors"
	"fmt"
	"slices"
)

const maxGroupBits = 64

var (
	ErrFraming       = errors.New("misaligned pixel stream")
	ErrInvalidFormat = errors.New("invalid pixel format")
	ErrSampleCount   = errors.New("sample count is not a multiple of the channel count")
)

// FramingError reports a byte stream that does not divide into whole pixel
// groups. Nothing is decoded from such a stream.
type FramingError struct {
	Length    int
	GroupSize int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf(
		"misaligned pixel stream: %d bytes is not a multiple of the %d byte pixel group (%d trailing)",
		e.Length, e.GroupSize, e.Length%e.GroupSize,
	)
}

func (*FramingError) Is(target error) bool {
	return target == ErrFraming
}

// Format describes how channels are packed into a pixel group.
type Format struct {
	BitDepths   []uint8
	TargetDepth uint8
}

// NewFormat returns a validated format. The bit depth slice is copied.
func NewFormat(bitDepths []uint8, targetDepth uint8) (Format, error) {
	f := Format{
		BitDepths:   slices.Clone(bitDepths),
		TargetDepth: targetDepth,
	}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

func (f Format) Validate() error {
	if len(f.BitDepths) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidFormat)
	}
	if f.TargetDepth == 0 || f.TargetDepth > 16 {
		return fmt.Errorf("%w: target depth %d not in 1..16", ErrInvalidFormat, f.TargetDepth)
	}
	total := 0
	for i, d := range f.BitDepths {
		if d == 0 || d > f.TargetDepth {
			return fmt.Errorf(
				"%w: channel %d depth %d not in 1..%d",
				ErrInvalidFormat, i, d, f.TargetDepth,
			)
		}
		total += int(d)
	}
	if total%8 != 0 || total > maxGroupBits {
		return fmt.Errorf(
			"%w: channel depths sum to %d bits, need a multiple of 8 up to %d",
			ErrInvalidFormat, total, maxGroupBits,
		)
	}
	return nil
}

func (f Format) totalBits() int {
	total := 0
	for _, d := range f.BitDepths {
		total += int(d)
	}
	return total
}

// GroupSize is the number of bytes in one pixel group.
func (f Format) GroupSize() int {
	return f.totalBits() / 8
}

// Channels is the number of samples in one pixel group.
func (f Format) Channels() int {
	return len(f.BitDepths)
}

// MaxSample is the largest value a decoded sample can take.
func (f Format) MaxSample() uint16 {
	return uint16(1<<f.TargetDepth - 1)
}

// FrameSize is the number of bytes that carry pixels logical pixels. A
// trailing group that is only partly used still counts in full.
func (f Format) FrameSize(pixels int) int {
	ch := f.Channels()
	groups := (pixels + ch - 1) / ch
	return groups * f.GroupSize()
}

// Decode unpacks data into channel-interleaved samples. A length that is not
// a multiple of GroupSize returns a *FramingError and no samples.
func (f Format) Decode(data []byte) ([]uint16, error) {
	gs := f.GroupSize()
	if gs == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFormat)
	}
	if len(data)%gs != 0 {
		return nil, &FramingError{Length: len(data), GroupSize: gs}
	}

	total := f.totalBits()
	out := make([]uint16, 0, len(data)/gs*len(f.BitDepths))

	for off := 0; off < len(data); off += gs {
		var combined uint64
		for i := gs - 1; i >= 0; i-- {
			combined = combined<<8 | uint64(data[off+i])
		}

		shift := total
		for _, d := range f.BitDepths {
			shift -= int(d)
			mask := uint64(1)<<d - 1
			v := (combined >> shift) & mask
			out = append(out, uint16(v<<(f.TargetDepth-d)))
		}
	}

	return out, nil
}

// Encode packs channel-interleaved samples at TargetDepth back into pixel
// groups. Bits below each channel's depth are dropped.
func (f Format) Encode(samples []uint16) ([]byte, error) {
	ch := f.Channels()
	if ch == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFormat)
	}
	if len(samples)%ch != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrSampleCount, len(samples), ch)
	}

	gs := f.GroupSize()
	total := f.totalBits()
	out := make([]byte, 0, len(samples)/ch*gs)

	for i := 0; i < len(samples); i += ch {
		var combined uint64
		shift := total
		for c, d := range f.BitDepths {
			shift -= int(d)
			mask := uint64(1)<<d - 1
			v := (uint64(samples[i+c]) >> (f.TargetDepth - d)) & mask
			combined |= v << shift
		}
		for b := range gs {
			out = append(out, byte(combined>>(8*b)))
		}
	}

	return out, nil
}

// Pad extends samples with zeros up to a whole number of pixel groups.
func (f Format) Pad(samples []uint16) []uint16 {
	ch := f.Channels()
	if ch == 0 || len(samples)%ch == 0 {
		return samples
	}
	return append(samples, make([]uint16, ch-len(samples)%ch)...)
}
