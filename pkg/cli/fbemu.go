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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/odysseyprint/odyssey-tools/pkg/config"
	"github.com/odysseyprint/odyssey-tools/pkg/display"
	"github.com/odysseyprint/odyssey-tools/pkg/framebuffer"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers"
	"github.com/odysseyprint/odyssey-tools/pkg/sl1"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const fbemuUsage = "fbemu [flags] | fbemu pattern <name> | fbemu replay [-delay D] <file.sl1>"

type FBEmuOptions struct {
	// Screen replaces the real terminal, mostly for tests. It must
	// already be initialised.
	Screen tcell.Screen
	Clock  clockwork.Clock
	Stdout io.Writer
	Stderr io.Writer
	// Display supplies the defaults for every flag.
	Display config.Display
}

type fbFlags struct {
	fifo    string
	file    string
	sink    string
	pdf     string
	zoom    int
	create  bool
	skipBad bool
}

// RunFBEmu shows frames written to the printer's frame buffer pipe, or with
// a subcommand, writes frames into it.
func RunFBEmu(ctx context.Context, args []string, opts FBEmuOptions) int {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	d := opts.Display

	fs := newFlagSet("fbemu", opts.Stderr, fbemuUsage)
	var f fbFlags
	fs.StringVar(&f.fifo, "fifo", "", "frame buffer pipe path (default: first match of "+d.FIFOGlob+")")
	fs.BoolVar(&f.create, "create", false, "create the -fifo pipe if it does not exist")
	fs.StringVar(&f.file, "file", "", "read frames from a recorded file instead of the pipe")
	fs.StringVar(&f.sink, "sink", d.Sink, "where frames are shown: terminal or pdf")
	fs.StringVar(&f.pdf, "pdf", d.PDFPath, "output file for the pdf sink")
	fs.IntVar(&f.zoom, "zoom", d.Zoom, "pixel zoom factor")
	fs.BoolVar(&f.skipBad, "skip-bad-frames", false, "skip misaligned frames instead of stopping")
	version := fs.Bool("version", false, "print version and exit")

	if err := parseFlags(fs, args); err != nil {
		return exitCode(opts.Stderr, err)
	}
	if *version {
		printVersion(opts.Stdout, "fbemu")
		return ExitOK
	}

	var err error
	switch sub := fs.Arg(0); sub {
	case "":
		err = runDisplay(ctx, opts, f)
	case "pattern":
		err = runPattern(opts, f, fs.Args()[1:])
	case "replay":
		err = runReplay(ctx, opts, f, fs.Args()[1:])
	default:
		msg := "unknown command: " + sub
		if s := helpers.Suggest(sub, []string{"pattern", "replay"}, helpers.DefaultSuggestSimilarity); len(s) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		err = usageErrorf("%s", msg)
	}
	return exitCode(opts.Stderr, err)
}

func displayFormat(d config.Display) (framebuffer.Format, error) {
	format, err := framebuffer.NewFormat(d.BitDepth, d.TargetDepth)
	if err != nil {
		return framebuffer.Format{}, fmt.Errorf("display format: %w", err)
	}
	return format, nil
}

// framePath finds the pipe frames are written to or read from.
func framePath(d config.Display, f fbFlags) (string, error) {
	if f.fifo != "" {
		return f.fifo, nil
	}
	path, err := framebuffer.FindFIFO(d.FIFOGlob)
	if err != nil {
		return "", fmt.Errorf("%w (use -fifo to name one)", err)
	}
	return path, nil
}

func openSource(
	ctx context.Context,
	opts FBEmuOptions,
	f fbFlags,
	format framebuffer.Format,
) (framebuffer.Source, func(), error) {
	d := opts.Display

	if f.file != "" {
		file, err := os.Open(f.file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open frame file: %w", err)
		}
		src := framebuffer.NewStreamSource(file, format.FrameSize(d.Width*d.Height))
		return src, func() { _ = file.Close() }, nil
	}

	if f.create {
		if f.fifo == "" {
			return nil, nil, usageErrorf("-create needs -fifo")
		}
		if err := framebuffer.CreateFIFO(f.fifo); err != nil {
			return nil, nil, fmt.Errorf("failed to create fifo: %w", err)
		}
	}

	path, err := framePath(d, f)
	if errors.Is(err, framebuffer.ErrNoFIFO) {
		_, _ = fmt.Fprintf(opts.Stdout, "Waiting for a frame buffer matching %s\n", d.FIFOGlob)
		path, err = framebuffer.WaitForFIFO(ctx, d.FIFOGlob)
	}
	if err != nil {
		return nil, nil, err
	}

	_, _ = fmt.Fprintf(opts.Stdout, "Reading frames from %s\n", path)
	return framebuffer.NewFIFOSource(path), func() {}, nil
}

func newSink(opts FBEmuOptions, f fbFlags) (display.Sink, error) {
	switch f.sink {
	case config.SinkTerminal:
		sink, err := display.NewTerminalSink(opts.Screen)
		if err != nil {
			return nil, fmt.Errorf("failed to start terminal: %w", err)
		}
		return sink, nil
	case config.SinkPDF:
		if f.pdf == "" {
			return nil, usageErrorf("the pdf sink needs -pdf FILE")
		}
		return display.NewPDFSink(f.pdf, display.DefaultMaxPages), nil
	default:
		return nil, usageErrorf("unknown sink %q, expected %s or %s", f.sink, config.SinkTerminal, config.SinkPDF)
	}
}

func runDisplay(ctx context.Context, opts FBEmuOptions, f fbFlags) error {
	d := opts.Display

	format, err := displayFormat(d)
	if err != nil {
		return err
	}
	raster, err := display.NewRaster(d.Width, d.Height, f.zoom, d.TargetDepth)
	if err != nil {
		return fmt.Errorf("display raster: %w", err)
	}

	_, _ = fmt.Fprintf(opts.Stdout,
		"Rendering %dx%d at %dx zoom, bit depths %v shown as %d bit monochrome\n",
		d.Width, d.Height, f.zoom, d.BitDepth, d.TargetDepth)

	src, closeSrc, err := openSource(ctx, opts, f, format)
	if err != nil {
		return err
	}
	defer closeSrc()

	sink, err := newSink(opts, f)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	quitCtx, quit := context.WithCancel(gctx)
	defer quit()

	var stats display.Stats
	g.Go(func() error {
		var runErr error
		stats, runErr = display.Run(quitCtx, src, format, raster, sink, display.Options{
			SkipMisaligned: f.skipBad,
		})
		if _, ok := sink.(*display.TerminalSink); !ok {
			quit()
		}
		return runErr
	})

	if ts, ok := sink.(*display.TerminalSink); ok {
		// the last frame stays up until the user quits
		g.Go(func() error {
			ts.WaitForQuit()
			quit()
			return nil
		})
		g.Go(func() error {
			<-quitCtx.Done()
			return ts.Close()
		})
	}

	err = g.Wait()
	if closeErr := sink.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close sink: %w", closeErr)
	}

	log.Info().Msgf("display stopped: %+v", stats)
	_, _ = fmt.Fprintf(opts.Stdout, "Frames: %d, skipped: %d, dropped samples: %d\n",
		stats.Frames, stats.Skipped, stats.Dropped)

	if err != nil {
		return fmt.Errorf("display failed: %w", err)
	}
	return nil
}

func runPattern(opts FBEmuOptions, f fbFlags, args []string) error {
	if len(args) != 1 {
		return usageErrorf("pattern needs one of: %s", patternNames())
	}
	p, err := framebuffer.ParsePattern(args[0])
	if err != nil {
		if s := helpers.Suggest(args[0], patternList(), helpers.DefaultSuggestSimilarity); len(s) > 0 {
			return usageErrorf("%v (did you mean %q?)", err, s[0])
		}
		return usageErrorf("%v, expected one of: %s", err, patternNames())
	}

	d := opts.Display
	format, err := displayFormat(d)
	if err != nil {
		return err
	}
	frame, err := framebuffer.EncodePattern(p, d.Width, d.Height, format)
	if err != nil {
		return fmt.Errorf("failed to render pattern: %w", err)
	}

	path, err := framePath(d, f)
	if err != nil {
		return err
	}
	if err := framebuffer.NewWriter(path).WriteFrame(frame); err != nil {
		return err //nolint:wrapcheck // already names the path
	}

	_, _ = fmt.Fprintf(opts.Stdout, "Wrote %s pattern (%d bytes) to %s\n", p, len(frame), path)
	return nil
}

func patternList() []string {
	names := make([]string, 0, len(framebuffer.Patterns()))
	for _, p := range framebuffer.Patterns() {
		names = append(names, string(p))
	}
	return names
}

func patternNames() string {
	return strings.Join(patternList(), ", ")
}

func runReplay(ctx context.Context, opts FBEmuOptions, f fbFlags, args []string) error {
	fs := newFlagSet("replay", opts.Stderr, "fbemu replay [-delay D] [-first N] [-count N] <file.sl1>")
	delay := fs.Duration("delay", 0, "time between layers (default: each layer's exposure time)")
	first := fs.Int("first", 0, "first layer to replay")
	count := fs.Int("count", 0, "number of layers to replay (default: all)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageErrorf("replay needs one .sl1 file")
	}

	d := opts.Display
	format, err := displayFormat(d)
	if err != nil {
		return err
	}

	archive, err := sl1.Open(fs.Arg(0))
	if err != nil {
		return err //nolint:wrapcheck // already names the archive
	}
	defer func() {
		if err := archive.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close archive")
		}
	}()

	pc := archive.Config
	total := archive.LayerCount()
	_, _ = fmt.Fprintf(opts.Stdout,
		"Replaying %s: %d layers, %dum, exposure %.1fs (first %.1fs, %d fade)\n",
		fs.Arg(0), total, pc.LayerHeightMicrons(), pc.ExpTime, pc.ExpTimeFirst, pc.NumFade)

	if *first < 0 || *first >= total {
		return usageErrorf("first layer %d out of range 0..%d", *first, total-1)
	}
	last := total
	if *count > 0 {
		last = min(total, *first+*count)
	}

	path, err := framePath(d, f)
	if err != nil {
		return err
	}
	w := framebuffer.NewWriter(path)

	for i := *first; i < last; i++ {
		img, err := archive.Layer(i)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		frame, err := format.Encode(format.Pad(sl1.Samples(img, d.Width, d.Height, format)))
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if err := w.WriteFrame(frame); err != nil {
			return err //nolint:wrapcheck // already names the path
		}

		exposure := pc.ExposureTime(i)
		_, _ = fmt.Fprintf(opts.Stdout, "Layer %d/%d exposure %.2fs\n", i+1, total, exposure)

		wait := *delay
		if wait == 0 {
			wait = time.Duration(exposure * float64(time.Second))
		}
		if i == last-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-opts.Clock.After(wait):
		}
	}

	return nil
}
