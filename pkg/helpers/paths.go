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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/odysseyprint/odyssey-tools/pkg/config"
)

// Dirs are the directories the tools read and write outside the working
// directory.
type Dirs struct {
	ConfigDir string
	StateDir  string
	TempDir   string
}

func DefaultDirs() Dirs {
	return Dirs{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		StateDir:  filepath.Join(xdg.StateHome, config.AppName),
		TempDir:   filepath.Join(os.TempDir(), config.AppName),
	}
}

// LogPath is where the rotating log file is written.
func (d Dirs) LogPath() string {
	return filepath.Join(d.StateDir, config.LogFile)
}

// EnsureDirectories creates every directory in d that does not exist yet.
func EnsureDirectories(d Dirs) error {
	for _, dir := range []struct {
		name string
		path string
	}{
		{"config", d.ConfigDir},
		{"state", d.StateDir},
		{"temp", d.TempDir},
	} {
		if dir.path == "" {
			continue
		}
		if err := os.MkdirAll(dir.path, 0o750); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir.name, err)
		}
	}
	return nil
}
