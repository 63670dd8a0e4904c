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
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/go-pdf/fpdf"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const DefaultMaxPages = 500

var ErrNoFrames = errors.New("no frames to write")

// PDFSink records every presented frame as one page of a PDF document,
// written when the sink is closed. Pages are sized in points to the frame's
// pixel dimensions.
type PDFSink struct {
	path     string
	pages    [][]byte
	sizes    []image.Point
	maxPages int
	dropped  int
	mu       syncutil.Mutex
	closed   bool
}

func NewPDFSink(path string, maxPages int) *PDFSink {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &PDFSink{path: path, maxPages: maxPages}
}

func (p *PDFSink) Present(img *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pages) >= p.maxPages {
		if p.dropped == 0 {
			log.Warn().Msgf("pdf page limit of %d reached, dropping frames", p.maxPages)
		}
		p.dropped++
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame %d: %w", len(p.pages)+1, err)
	}
	p.pages = append(p.pages, buf.Bytes())
	p.sizes = append(p.sizes, img.Bounds().Size())
	return nil
}

// Pages is the number of frames recorded so far.
func (p *PDFSink) Pages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

func (p *PDFSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if len(p.pages) == 0 {
		log.Info().Msg("no frames captured, pdf not written")
		return nil
	}

	pdf, err := buildPDF(p.pages, p.sizes)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(p.path); err != nil {
		return fmt.Errorf("write pdf %s: %w", p.path, err)
	}
	log.Info().Msgf("wrote %d frames to %s (%d dropped)", len(p.pages), p.path, p.dropped)
	return nil
}

func buildPDF(pages [][]byte, sizes []image.Point) (*fpdf.Fpdf, error) {
	if len(pages) == 0 {
		return nil, ErrNoFrames
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, data := range pages {
		w, h := float64(sizes[i].X), float64(sizes[i].Y)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		name := fmt.Sprintf("frame%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, w, h, false, fpdf.ImageOptions{}, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return pdf, nil
}
