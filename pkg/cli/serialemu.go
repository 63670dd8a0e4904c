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

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/odysseyprint/odyssey-tools/pkg/config"
	"github.com/odysseyprint/odyssey-tools/pkg/gcode"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers"
	"github.com/odysseyprint/odyssey-tools/pkg/serialemu"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const serialemuUsage = "serialemu [-threshold N] [-reset] [-interval D] | serialemu probe [flags] [port]"

// EmulatedPort is the device side the responder serves.
type EmulatedPort interface {
	io.ReadWriteCloser
	Name() string
}

type SerialEmuOptions struct {
	// OpenPort replaces the pseudo terminal, mostly for tests.
	OpenPort func() (EmulatedPort, error)
	// PortFactory opens the port probed by the probe subcommand.
	PortFactory  gcode.SerialPortFactory
	Clock        clockwork.Clock
	Stdout       io.Writer
	Stderr       io.Writer
	Link         config.Link
	Responder    config.Responder
	PollInterval time.Duration
	LinkInterval time.Duration
}

func openPTY() (EmulatedPort, error) {
	p, err := serialemu.OpenPTY()
	if err != nil {
		return nil, err //nolint:wrapcheck // already describes the failure
	}
	return p, nil
}

func responderOptions(c config.Responder) serialemu.Options {
	return serialemu.Options{
		Policy:           serialemu.Policy(c.ResetPolicy),
		CompCommands:     c.CompCommands,
		CompResponse:     c.CompResponse,
		StatusCommand:    c.StatusCommand,
		StatusDisconnect: c.StatusDisconnect,
		StatusReady:      c.StatusReady,
		Threshold:        c.Threshold,
	}
}

// RunSerialEmu serves a mock motion board on a pseudo terminal until ctx is
// done, or with the probe subcommand, checks a board for readiness.
func RunSerialEmu(ctx context.Context, args []string, opts SerialEmuOptions) int {
	if opts.OpenPort == nil {
		opts.OpenPort = openPTY
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	fs := newFlagSet("serialemu", opts.Stderr, serialemuUsage)
	threshold := fs.Int("threshold", opts.Responder.Threshold, "status polls answered with disconnect before ready")
	reset := fs.Bool("reset", opts.Responder.ResetPolicy == config.ResetPolicyReset,
		"start a new disconnect cycle after each ready reply")
	interval := fs.Duration("interval", opts.PollInterval, "wait between port reads")
	version := fs.Bool("version", false, "print version and exit")

	if err := parseFlags(fs, args); err != nil {
		return exitCode(opts.Stderr, err)
	}
	if *version {
		printVersion(opts.Stdout, "serialemu")
		return ExitOK
	}

	var err error
	switch sub := fs.Arg(0); sub {
	case "":
		if *threshold < 0 {
			return exitCode(opts.Stderr, usageErrorf("threshold must not be negative"))
		}
		ro := responderOptions(opts.Responder)
		ro.Threshold = *threshold
		ro.Policy = serialemu.PolicyLatch
		if *reset {
			ro.Policy = serialemu.PolicyReset
		}
		err = serveEmulator(ctx, opts, ro, *interval)
	case "probe":
		err = runProbe(ctx, opts, fs.Args()[1:])
	default:
		msg := "unknown command: " + sub
		if s := helpers.Suggest(sub, []string{"probe"}, helpers.DefaultSuggestSimilarity); len(s) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		err = usageErrorf("%s", msg)
	}
	return exitCode(opts.Stderr, err)
}

func serveEmulator(
	ctx context.Context,
	opts SerialEmuOptions,
	ro serialemu.Options,
	interval time.Duration,
) error {
	port, err := opts.OpenPort()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(opts.Stdout, "Virtual Serial Port: %s\n", port.Name())
	log.Info().Msgf("serving mock board on %s (threshold %d, %s policy)",
		port.Name(), ro.Threshold, ro.Policy)

	srv := serialemu.NewServer(serialemu.NewResponder(ro), interval, opts.Clock)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	var g errgroup.Group
	g.Go(func() error {
		defer stop()
		return srv.Serve(serveCtx, port) //nolint:wrapcheck // already describes the failure
	})
	g.Go(func() error {
		<-serveCtx.Done()
		// unblocks a pending read
		if err := port.Close(); err != nil {
			return fmt.Errorf("failed to close port: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("mock board stopped: %w", err)
	}
	return nil
}

func runProbe(ctx context.Context, opts SerialEmuOptions, args []string) error {
	l := opts.Link
	fs := newFlagSet("probe", opts.Stderr, "serialemu probe [flags] [port]")
	baud := fs.Int("baud", l.BaudRate, "serial baud rate")
	attempts := fs.Int("attempts", l.Attempts, "status polls before giving up")
	interval := fs.Duration("interval", opts.LinkInterval, "wait between status polls")
	timeout := fs.Duration("timeout", gcode.DefaultReplyTimeout, "wait for each reply")
	move := fs.String("move", "", "motion command to send once the board is ready")

	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return usageErrorf("probe takes at most one port")
	}
	if *attempts < 1 {
		return usageErrorf("attempts must be at least 1")
	}

	path := fs.Arg(0)
	if path == "" {
		path = l.Port
	}
	if path == "" {
		ports, err := helpers.GetSerialDeviceList()
		if err != nil {
			return fmt.Errorf("failed to list serial ports: %w", err)
		}
		if len(ports) == 0 {
			return usageErrorf("no serial port found, pass one to probe")
		}
		path = ports[0]
	}

	lo := gcode.DefaultOptions()
	lo.Clock = opts.Clock
	lo.StatusCheck = l.StatusCheck
	lo.StatusDesired = l.StatusDesired
	if l.MoveSync != "" {
		lo.MoveSync = l.MoveSync
	}
	lo.ReplyTimeout = *timeout

	link, err := gcode.Open(path, *baud, lo, opts.PortFactory)
	if err != nil {
		return err //nolint:wrapcheck // already names the port
	}
	defer func() {
		if err := link.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close serial link")
		}
	}()

	_, _ = fmt.Fprintf(opts.Stdout, "Probing %s (%d polls, %s apart)\n", path, *attempts, *interval)
	if err := link.AwaitReady(ctx, *attempts, *interval); err != nil {
		return fmt.Errorf("probe %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Board on %s is ready\n", path)

	if *move != "" {
		moveTimeout := time.Duration(l.MoveTimeout) * time.Second
		if moveTimeout <= 0 {
			moveTimeout = *timeout
		}
		if err := link.Move(ctx, *move, moveTimeout); err != nil {
			return fmt.Errorf("move %q: %w", *move, err)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "Move %q completed\n", *move)
	}

	return nil
}
