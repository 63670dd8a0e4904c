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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/odysseyprint/odyssey-tools/pkg/framebuffer"
	"github.com/rs/zerolog/log"
)

// Decoder unpacks one raw frame into samples.
type Decoder interface {
	Decode(data []byte) ([]uint16, error)
}

type Options struct {
	// SkipMisaligned logs and skips frames that fail with a framing error
	// instead of stopping.
	SkipMisaligned bool
}

type Stats struct {
	Frames  int
	Skipped int
	Dropped int
}

// Run reads frames from src until it is exhausted or ctx is done, drawing
// each onto raster and presenting the result on sink. The sink is not
// closed.
func Run(
	ctx context.Context,
	src framebuffer.Source,
	dec Decoder,
	raster *Raster,
	sink Sink,
	opts Options,
) (Stats, error) {
	var stats Stats
	for {
		data, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		} else if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return stats, nil
		} else if err != nil {
			return stats, fmt.Errorf("failed to read frame: %w", err)
		}

		samples, err := dec.Decode(data)
		if errors.Is(err, framebuffer.ErrFraming) && opts.SkipMisaligned {
			log.Error().Err(err).Msg("skipping frame")
			stats.Skipped++
			continue
		} else if err != nil {
			return stats, fmt.Errorf("failed to decode frame %d: %w", stats.Frames+1, err)
		}

		if dropped := raster.Draw(samples); dropped > 0 {
			log.Warn().Msgf("dropped %d samples past the last row", dropped)
			stats.Dropped += dropped
		}

		if err := sink.Present(raster.Image()); err != nil {
			return stats, fmt.Errorf("failed to present frame: %w", err)
		}
		stats.Frames++
		log.Debug().Msgf("presented frame %d (%d samples)", stats.Frames, len(samples))
	}
}
