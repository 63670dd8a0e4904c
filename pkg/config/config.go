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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/odysseyprint/odyssey-tools/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "ODYSSEY_CFG"
)

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Controller    Controller `toml:"controller"`
	PrinterConfig string     `toml:"printer_config,omitempty"`
	Display       Display    `toml:"display"`
	Link          Link       `toml:"link"`
	Responder     Responder  `toml:"responder"`
	ConfigSchema  int        `toml:"config_schema"`
	DebugLogging  bool       `toml:"debug_logging"`
}

type Controller struct {
	URL string `toml:"url" validate:"required,url"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Controller: Controller{
		URL: "http://127.0.0.1:12357",
	},
	Display: Display{
		BitDepth:    []uint8{5, 6, 5},
		TargetDepth: 8,
		Width:       192,
		Height:      108,
		Zoom:        1,
		FIFOGlob:    "/tmp/odysseyTest*",
		Sink:        SinkTerminal,
	},
	Responder: Responder{
		Threshold:        10,
		ResetPolicy:      ResetPolicyLatch,
		PollInterval:     "1s",
		CompCommands:     []string{"g0", "g1", "move_plate", "home_axis", "dwell"},
		CompResponse:     "Z_move_comp",
		StatusCommand:    "status",
		StatusDisconnect: "Klipper state: Disconnect",
		StatusReady:      "Klipper state: Ready",
	},
	Link: Link{
		BaudRate:      115200,
		StatusCheck:   "status",
		StatusDesired: "Klipper state: Ready",
		MoveSync:      "Z_move_comp",
		MoveTimeout:   60,
		Attempts:      15,
		Interval:      "1s",
	},
}

type Instance struct {
	fs       afero.Fs
	cfgPath  string
	authPath string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads the config file from configDir, or from the path in
// ODYSSEY_CFG, writing the defaults to disk first if it does not exist.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, configDir string, defaults Values) (*Instance, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		authPath: filepath.Join(filepath.Dir(cfgPath), AuthFile),
		vals:     cloneValues(defaults),
		defaults: cloneValues(defaults),
	}

	if _, err := fs.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// cloneValues copies the slices in v so defaults are never aliased by a
// loaded config.
//
//nolint:gocritic // value copy is the point
func cloneValues(v Values) Values {
	v.Display.BitDepth = slices.Clone(v.Display.BitDepth)
	v.Responder.CompCommands = slices.Clone(v.Responder.CompCommands)
	return v
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := cloneValues(c.defaults)
	// arrays in the file replace the defaults rather than merging into them
	newVals.Display.BitDepth = nil
	newVals.Responder.CompCommands = nil
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if newVals.Display.BitDepth == nil {
		newVals.Display.BitDepth = slices.Clone(c.defaults.Display.BitDepth)
	}
	if newVals.Responder.CompCommands == nil {
		newVals.Responder.CompCommands = slices.Clone(c.defaults.Responder.CompCommands)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaMismatch
	}

	if newVals.PrinterConfig != "" {
		ps, err := LoadPrinterSettings(c.fs, newVals.PrinterConfig)
		if err != nil {
			return err
		}
		ps.Apply(&newVals)
		log.Info().Msgf("applied printer settings from: %s", newVals.PrinterConfig)
	}

	if err := Validate(&newVals); err != nil {
		return err
	}

	c.vals = newVals

	if _, err := c.fs.Stat(c.authPath); err == nil {
		log.Info().Msg("loading auth file")
		authData, err := afero.ReadFile(c.fs, c.authPath)
		if err != nil {
			return fmt.Errorf("failed to read auth file: %w", err)
		}

		creds, err := ParseCredentials(authData)
		if err != nil {
			return err
		}
		log.Info().Msgf("loaded %d auth entries", len(creds))
		loadedCreds.Store(&creds)
	}

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) ControllerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Controller.URL
}
