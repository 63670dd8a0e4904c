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

// Package cli holds the flag handling and wiring behind the odysseyctl,
// fbemu and serialemu commands. Each Run function takes its arguments and
// output streams explicitly and returns the process exit code.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/odysseyprint/odyssey-tools/pkg/config"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

var errUsage = errors.New("usage")

// Setup creates the tool directories, starts logging and loads the user
// config. Extra writers receive a copy of every log line.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	dirs helpers.Dirs,
	fs afero.Fs,
	defaults config.Values,
	writers []io.Writer,
) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(dirs, false, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(fs, dirs.ConfigDir, defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	helpers.SetDebugLogging(cfg.DebugLogging())
	log.Info().Msgf("%s v%s config: %s", config.AppName, config.AppVersion, cfg.Path())

	return cfg, nil
}

func newFlagSet(name string, stderr io.Writer, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags returns errUsage for bad flags and flag.ErrHelp for -h.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return flag.ErrHelp
	} else if err != nil {
		return errUsage
	}
	return nil
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func printVersion(w io.Writer, tool string) {
	_, _ = fmt.Fprintf(w, "%s v%s\n", tool, config.AppVersion)
}

// exitCode reports err on stderr and maps it to an exit code.
func exitCode(stderr io.Writer, err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.Is(err, errUsage):
		if err != errUsage { //nolint:errorlint // bare errUsage was already reported by flag
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitUsage
	default:
		log.Error().Err(err).Msg("command failed")
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}
