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

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// PrinterSettings is the part of the printer's own YAML configuration that
// the tools need to agree with. Zero values mean "not set".
type PrinterSettings struct {
	Printer struct {
		Serial   string `yaml:"serial"`
		Baudrate int    `yaml:"baudrate"`
	} `yaml:"printer"`
	Gcode struct {
		StatusCheck   string `yaml:"status_check"`
		StatusDesired string `yaml:"status_desired"`
		MoveSync      string `yaml:"move_sync"`
		MoveTimeout   int    `yaml:"move_timeout"`
	} `yaml:"gcode"`
	Display struct {
		FrameBuffer  string  `yaml:"frame_buffer"`
		BitDepth     []uint8 `yaml:"bit_depth"`
		ScreenWidth  int     `yaml:"screen_width"`
		ScreenHeight int     `yaml:"screen_height"`
	} `yaml:"display"`
	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`
}

func LoadPrinterSettings(fs afero.Fs, path string) (*PrinterSettings, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read printer config: %w", err)
	}

	var ps PrinterSettings
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("failed to parse printer config %s: %w", path, err)
	}

	return &ps, nil
}

// Apply overrides the matching tool settings in v with every value the
// printer config sets.
func (ps *PrinterSettings) Apply(v *Values) {
	if len(ps.Display.BitDepth) > 0 {
		v.Display.BitDepth = slices.Clone(ps.Display.BitDepth)
	}
	if ps.Display.ScreenWidth > 0 {
		v.Display.Width = ps.Display.ScreenWidth
	}
	if ps.Display.ScreenHeight > 0 {
		v.Display.Height = ps.Display.ScreenHeight
	}
	if ps.API.Port > 0 {
		v.Controller.URL = "http://127.0.0.1:" + strconv.Itoa(ps.API.Port)
	}
	if ps.Printer.Serial != "" {
		v.Link.Port = ps.Printer.Serial
	}
	if ps.Printer.Baudrate > 0 {
		v.Link.BaudRate = ps.Printer.Baudrate
	}
	if ps.Gcode.StatusCheck != "" {
		v.Link.StatusCheck = ps.Gcode.StatusCheck
	}
	if ps.Gcode.StatusDesired != "" {
		v.Link.StatusDesired = ps.Gcode.StatusDesired
	}
	if ps.Gcode.MoveSync != "" {
		v.Link.MoveSync = ps.Gcode.MoveSync
	}
	if ps.Gcode.MoveTimeout > 0 {
		v.Link.MoveTimeout = ps.Gcode.MoveTimeout
	}
}
