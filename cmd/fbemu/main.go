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


// Command fbemu shows what the printer writes to its frame buffer, and
// writes test frames into one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/odysseyprint/odyssey-tools/pkg/cli"
	"github.com/odysseyprint/odyssey-tools/pkg/config"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the terminal sink owns the screen, so logs only go to the file
	cfg, err := cli.Setup(helpers.DefaultDirs(), afero.NewOsFs(), config.BaseDefaults, nil)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return cli.ExitError
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	return cli.RunFBEmu(ctx, os.Args[1:], cli.FBEmuOptions{
		Display: cfg.Display(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
}
