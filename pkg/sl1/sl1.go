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

// Package sl1 reads sliced print archives in the .sl1 format: a zip holding
// config.ini, one PNG per layer at the archive root and optional
// thumbnails.
package sl1

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"strings"

	"github.com/odysseyprint/odyssey-tools/pkg/framebuffer"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const (
	ConfigFile     = "config.ini"
	ThumbnailSmall = "thumbnail/thumbnail400x400.png"
	ThumbnailLarge = "thumbnail/thumbnail800x480.png"
)

var (
	ErrNoConfig      = errors.New("archive has no config.ini")
	ErrLayerRange    = errors.New("layer index out of range")
	ErrNoThumbnail   = errors.New("archive has no thumbnail")
	ErrUnknownFormat = errors.New("unknown thumbnail size")
)

type ThumbnailSize int

const (
	ThumbnailSizeSmall ThumbnailSize = iota
	ThumbnailSizeLarge
)

// PrintConfig holds the config.ini fields the tools use.
type PrintConfig struct {
	Action       string  `ini:"action"`
	JobDir       string  `ini:"jobDir"`
	MaterialName string  `ini:"materialName"`
	PrinterModel string  `ini:"printerModel"`
	ExpTime      float64 `ini:"expTime"`
	ExpTimeFirst float64 `ini:"expTimeFirst"`
	LayerHeight  float64 `ini:"layerHeight"`
	PrintTime    float64 `ini:"printTime"`
	UsedMaterial float64 `ini:"usedMaterial"`
	NumFade      int     `ini:"numFade"`
}

// ExposureTime is the exposure in seconds for layer index. The first
// NumFade layers fade linearly from ExpTimeFirst down towards ExpTime.
func (c PrintConfig) ExposureTime(index int) float64 {
	if index >= 0 && index < c.NumFade {
		fade := float64(c.NumFade-index) / float64(c.NumFade)
		return c.ExpTime + (c.ExpTimeFirst-c.ExpTime)*fade
	}
	return c.ExpTime
}

// LayerHeightMicrons truncates the layer height to whole microns.
func (c PrintConfig) LayerHeightMicrons() uint32 {
	return uint32(c.LayerHeight * 1000)
}

func ParseConfig(data []byte) (PrintConfig, error) {
	var pc PrintConfig
	f, err := ini.Load(data)
	if err != nil {
		return pc, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
	}
	if err := f.MapTo(&pc); err != nil {
		return pc, fmt.Errorf("failed to map %s: %w", ConfigFile, err)
	}
	return pc, nil
}

// Archive is an open .sl1 file.
type Archive struct {
	closer io.Closer
	files  map[string]*zip.File
	Config PrintConfig
	layers []string
}

func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	a, err := newArchive(&zr.Reader)
	if err != nil {
		_ = zr.Close()
		return nil, err
	}
	a.closer = zr
	log.Info().Msgf("loaded %s: %d layers", path, len(a.layers))
	return a, nil
}

// NewArchive reads an archive held in memory or another random access
// source.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return newArchive(zr)
}

func newArchive(zr *zip.Reader) (*Archive, error) {
	a := &Archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.files[f.Name] = f
		if strings.HasSuffix(f.Name, ".png") && !strings.Contains(f.Name, "/") {
			a.layers = append(a.layers, f.Name)
		}
	}
	sort.Strings(a.layers)

	data, err := a.read(ConfigFile)
	if err != nil {
		return nil, err
	}
	a.Config, err = ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) read(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		if name == ConfigFile {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("archive has no %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("failed to close %s", name)
		}
	}()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (a *Archive) LayerCount() int {
	return len(a.layers)
}

// LayerName is the archive entry holding layer index.
func (a *Archive) LayerName(index int) (string, error) {
	if index < 0 || index >= len(a.layers) {
		return "", fmt.Errorf("%w: %d of %d", ErrLayerRange, index, len(a.layers))
	}
	return a.layers[index], nil
}

// LayerPNG returns the raw PNG for layer index.
func (a *Archive) LayerPNG(index int) ([]byte, error) {
	name, err := a.LayerName(index)
	if err != nil {
		return nil, err
	}
	return a.read(name)
}

func (a *Archive) Layer(index int) (image.Image, error) {
	data, err := a.LayerPNG(index)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode layer %d: %w", index, err)
	}
	return img, nil
}

func (a *Archive) Thumbnail(size ThumbnailSize) ([]byte, error) {
	var name string
	switch size {
	case ThumbnailSizeSmall:
		name = ThumbnailSmall
	case ThumbnailSizeLarge:
		name = ThumbnailLarge
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, size)
	}
	if _, ok := a.files[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoThumbnail, name)
	}
	return a.read(name)
}

func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	if err := a.closer.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

// Samples converts img to one grey sample per pixel of a width by height
// raster at the format's target depth. The image is anchored top left,
// cropped or padded with black as needed.
func Samples(img image.Image, width, height int, f framebuffer.Format) []uint16 {
	b := img.Bounds()
	out := make([]uint16, width*height)
	for y := range min(height, b.Dy()) {
		for x := range min(width, b.Dx()) {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray) //nolint:forcetypeassert // GrayModel always returns Gray
			out[y*width+x] = scale(g.Y, f.TargetDepth)
		}
	}
	return out
}

func scale(v uint8, depth uint8) uint16 {
	if depth >= 8 {
		return uint16(v) << (depth - 8)
	}
	return uint16(v >> (8 - depth))
}
