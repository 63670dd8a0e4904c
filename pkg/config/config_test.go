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
	"path/filepath"
	"testing"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDir = "/etc/odyssey"

func newTestInstance(t *testing.T, fs afero.Fs, contents string) *Instance {
	t.Helper()
	cfgPath := filepath.Join(testDir, CfgFile)
	require.NoError(t, fs.MkdirAll(testDir, 0o750))
	require.NoError(t, afero.WriteFile(fs, cfgPath, []byte(contents), 0o600))
	return &Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		authPath: filepath.Join(testDir, AuthFile),
		vals:     cloneValues(BaseDefaults),
		defaults: cloneValues(BaseDefaults),
	}
}

func TestNewConfig_WritesDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, filepath.Join(testDir, CfgFile))
	require.NoError(t, err)

	var onDisk Values
	require.NoError(t, toml.Unmarshal(data, &onDisk))
	assert.Equal(t, SchemaVersion, onDisk.ConfigSchema)
	assert.Equal(t, BaseDefaults.Controller.URL, onDisk.Controller.URL)
	assert.Equal(t, []uint8{5, 6, 5}, onDisk.Display.BitDepth)

	assert.Equal(t, filepath.Join(testDir, CfgFile), cfg.Path())
	assert.Equal(t, "http://127.0.0.1:12357", cfg.ControllerURL())
	assert.Equal(t, BaseDefaults.Display, cfg.Display())
	assert.Equal(t, BaseDefaults.Responder, cfg.Responder())
	assert.Equal(t, BaseDefaults.Link, cfg.Link())
}

func TestNewConfig_EnvOverridesPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	custom := "/opt/odyssey/custom.toml"
	t.Setenv(CfgEnv, custom)

	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, custom, cfg.Path())

	exists, err := afero.Exists(fs, custom)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(fs, filepath.Join(testDir, CfgFile))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoad_PreservesDefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), `
config_schema = 1

[controller]
url = "http://printer.local:12357"
`)
	require.NoError(t, cfg.Load())

	assert.Equal(t, "http://printer.local:12357", cfg.ControllerURL())
	assert.Equal(t, BaseDefaults.Display, cfg.Display())
	assert.Equal(t, 10, cfg.Responder().Threshold)
	assert.Equal(t, time.Second, cfg.LinkInterval())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), `
config_schema = 1
debug_logging = true

[display]
bit_depth = [8]
width = 64
height = 32
zoom = 4
sink = "pdf"
pdf_path = "/tmp/out.pdf"

[responder]
threshold = 3
reset_policy = "reset"
poll_interval = "250ms"

[link]
interval = "2s"
attempts = 4
`)
	require.NoError(t, cfg.Load())

	assert.True(t, cfg.DebugLogging())
	d := cfg.Display()
	assert.Equal(t, []uint8{8}, d.BitDepth)
	assert.Equal(t, 64, d.Width)
	assert.Equal(t, 32, d.Height)
	assert.Equal(t, 4, d.Zoom)
	assert.Equal(t, SinkPDF, d.Sink)
	assert.Equal(t, "/tmp/out.pdf", d.PDFPath)
	assert.Equal(t, uint8(8), d.TargetDepth)

	r := cfg.Responder()
	assert.Equal(t, 3, r.Threshold)
	assert.Equal(t, ResetPolicyReset, r.ResetPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.ResponderPollInterval())

	assert.Equal(t, 4, cfg.Link().Attempts)
	assert.Equal(t, 2*time.Second, cfg.LinkInterval())
}

func TestLoad_ArraysReplaceDefaults(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), `
config_schema = 1

[responder]
comp_commands = ["m400"]
`)
	require.NoError(t, cfg.Load())

	assert.Equal(t, []string{"m400"}, cfg.Responder().CompCommands)
	assert.Equal(t,
		[]string{"g0", "g1", "move_plate", "home_axis", "dwell"},
		BaseDefaults.Responder.CompCommands,
		"defaults must not be aliased by a loaded config",
	)
}

func TestLoad_ReturnsCopies(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), "config_schema = 1\n")
	require.NoError(t, cfg.Load())

	d := cfg.Display()
	d.BitDepth[0] = 1
	r := cfg.Responder()
	r.CompCommands[0] = "changed"

	assert.Equal(t, uint8(5), cfg.Display().BitDepth[0])
	assert.Equal(t, "g0", cfg.Responder().CompCommands[0])
}

func TestLoad_SchemaMismatch(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), "config_schema = 99\n")
	err := cfg.Load()
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Equal(t, BaseDefaults.Controller.URL, cfg.ControllerURL())
}

func TestLoad_InvalidTOML(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), "config_schema = [\n")
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	cfg := &Instance{
		fs:       afero.NewMemMapFs(),
		cfgPath:  "/nowhere/config.toml",
		defaults: BaseDefaults,
	}
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_ValidationFailureKeepsPreviousValues(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), `
config_schema = 1

[display]
sink = "hologram"
zoom = 0

[responder]
reset_policy = "sometimes"
`)
	err := cfg.Load()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)
	assert.Contains(t, err.Error(), "display.sink must be one of: terminal pdf")
	assert.Contains(t, err.Error(), "display.zoom must be at least 1")
	assert.Contains(t, err.Error(), "responder.reset_policy must be one of: latch reset")
	assert.Equal(t, SinkTerminal, cfg.Display().Sink)
}

func TestLoad_AppliesPrinterSettings(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/odyssey/printer.yaml", []byte(`
printer:
  serial: /dev/ttyACM0
  baudrate: 250000
gcode:
  status_check: M105
  move_timeout: 90
display:
  bit_depth: [4, 4]
  screen_width: 2560
  screen_height: 1440
api:
  port: 8080
`), 0o600))

	cfg := newTestInstance(t, fs, `
config_schema = 1
printer_config = "/etc/odyssey/printer.yaml"

[link]
status_desired = "ok"
`)
	require.NoError(t, cfg.Load())

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ControllerURL())
	d := cfg.Display()
	assert.Equal(t, []uint8{4, 4}, d.BitDepth)
	assert.Equal(t, 2560, d.Width)
	assert.Equal(t, 1440, d.Height)

	l := cfg.Link()
	assert.Equal(t, "/dev/ttyACM0", l.Port)
	assert.Equal(t, 250000, l.BaudRate)
	assert.Equal(t, "M105", l.StatusCheck)
	assert.Equal(t, "ok", l.StatusDesired, "printer config leaves unset fields alone")
	assert.Equal(t, "Z_move_comp", l.MoveSync)
	assert.Equal(t, 90, l.MoveTimeout)
}

func TestLoad_MissingPrinterConfig(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), `
config_schema = 1
printer_config = "/nope.yaml"
`)
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read printer config")
}

func TestLoad_ReadsAuthFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg := newTestInstance(t, fs, "config_schema = 1\n")
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, AuthFile), []byte(`
[controllers."http://127.0.0.1:12357"]
bearer = "local"
`), 0o600))

	require.NoError(t, cfg.Load())

	entry, ok := LoadedCredentials().Lookup("http://127.0.0.1:12357/status")
	require.True(t, ok)
	assert.Equal(t, "Bearer local", entry.Header())
}

func TestLoad_InvalidAuthFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg := newTestInstance(t, fs, "config_schema = 1\n")
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, AuthFile), []byte("bearer = ["), 0o600))

	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse auth file")
}

func TestSave_RoundTripsChanges(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg := newTestInstance(t, fs, "config_schema = 1\n")
	require.NoError(t, cfg.Load())

	cfg.SetDebugLogging(true)
	cfg.SetDisplaySink(SinkPDF, "/tmp/frames.pdf")
	require.NoError(t, cfg.Save())

	data, err := afero.ReadFile(fs, cfg.Path())
	require.NoError(t, err)
	require.Contains(t, string(data), "pdf")

	// a second instance on the same path must see the saved values
	reloaded := &Instance{
		fs:       fs,
		cfgPath:  cfg.cfgPath,
		authPath: cfg.authPath,
		vals:     cloneValues(BaseDefaults),
		defaults: cloneValues(BaseDefaults),
	}
	require.NoError(t, reloaded.Load())

	assert.True(t, reloaded.DebugLogging())
	assert.Equal(t, SinkPDF, reloaded.Display().Sink)
	assert.Equal(t, "/tmp/frames.pdf", reloaded.Display().PDFPath)
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		fallback time.Duration
		want     time.Duration
	}{
		{name: "empty uses fallback", in: "", fallback: time.Second, want: time.Second},
		{name: "valid", in: "150ms", fallback: time.Second, want: 150 * time.Millisecond},
		{name: "invalid uses fallback", in: "soon", fallback: 2 * time.Second, want: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseDuration(tt.in, tt.fallback))
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	cfg := newTestInstance(t, afero.NewMemMapFs(), "config_schema = 1\n")
	require.NoError(t, cfg.Load())

	done := make(chan struct{})
	for range 4 {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range 100 {
				cfg.SetDebugLogging(i%2 == 0)
				_ = cfg.DebugLogging()
				_ = cfg.Display()
				_ = cfg.Responder()
			}
		}()
	}
	for range 4 {
		<-done
	}
}
