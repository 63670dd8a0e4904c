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
	"runtime"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// USB serial adapters the printer boards enumerate as.
var linuxSerialPrefixes = []string{"ttyUSB", "ttyACM"}

func listDevDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", dir, err)
	}

	devices := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !slices.ContainsFunc(linuxSerialPrefixes, func(p string) bool {
			return strings.HasPrefix(name, p)
		}) {
			continue
		}
		devices = append(devices, filepath.Join(dir, name))
	}
	slices.Sort(devices)

	return devices, nil
}

func filterPorts(goos string, ports []string) []string {
	var prefix string
	switch goos {
	case "darwin":
		prefix = "/dev/tty.usb"
	case "windows":
		prefix = "COM"
	default:
		return ports
	}

	devices := make([]string, 0, len(ports))
	for _, p := range ports {
		if strings.HasPrefix(p, prefix) {
			devices = append(devices, p)
		}
	}
	return devices
}

// GetSerialDeviceList returns the serial ports a printer board could be
// attached to.
func GetSerialDeviceList() ([]string, error) {
	if runtime.GOOS == "linux" {
		return listDevDir("/dev")
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list on %s: %w", runtime.GOOS, err)
	}
	devices := filterPorts(runtime.GOOS, ports)
	log.Debug().Strs("ports", ports).Strs("devices", devices).Msg("serial ports")

	return devices, nil
}
