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
	"strconv"
	"strings"

	"github.com/odysseyprint/odyssey-tools/pkg/api/client"
	"github.com/odysseyprint/odyssey-tools/pkg/api/commands"
	"github.com/odysseyprint/odyssey-tools/pkg/api/models"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers"
)

const ctlUsage = "odysseyctl [-u URL] <command> [args]"

type ctlCommand struct {
	name  string
	usage string
	help  string
}

var ctlCommands = []ctlCommand{
	{"start", "start <location> <filename>", "start printing the specified file"},
	{"cancel", "cancel", "stop the current print at the end of the layer"},
	{"stop", "stop", "alias of cancel"},
	{"pause", "pause", "pause the current print at the end of the layer"},
	{"resume", "resume", "resume a paused print"},
	{"status", "status", "print the controller status"},
	{"manual_control", "manual_control [-z Z] [-c true|false]", "move the plate or toggle curing"},
	{"files", "files [-l LOCATION] [-p INDEX] [-s SIZE]", "list stored print files"},
	{"file", "file <location> <filename>", "show one file's metadata"},
	{"delete", "delete <location> <filename>", "delete a stored file"},
}

func ctlCommandNames() []string {
	names := make([]string, 0, len(ctlCommands))
	for _, c := range ctlCommands {
		names = append(names, c.name)
	}
	return names
}

type CtlOptions struct {
	// Doer overrides the HTTP transport, mostly for tests.
	Doer       client.Doer
	Stdout     io.Writer
	Stderr     io.Writer
	DefaultURL string
}

// RunCtl runs one odysseyctl invocation. The façade's response is printed
// to stdout as is.
func RunCtl(ctx context.Context, args []string, opts CtlOptions) int {
	if opts.DefaultURL == "" {
		opts.DefaultURL = models.DefaultAPIURL
	}

	fs := newFlagSet("odysseyctl", opts.Stderr, ctlUsage)
	baseFn := fs.Usage
	fs.Usage = func() {
		baseFn()
		_, _ = fmt.Fprintln(opts.Stderr, "\nCommands:")
		for _, c := range ctlCommands {
			_, _ = fmt.Fprintf(opts.Stderr, "  %-42s %s\n", c.usage, c.help)
		}
	}

	url := fs.String("url", opts.DefaultURL, "print controller base URL")
	fs.StringVar(url, "u", opts.DefaultURL, "shorthand for -url")
	version := fs.Bool("version", false, "print version and exit")

	if err := parseFlags(fs, args); err != nil {
		return exitCode(opts.Stderr, err)
	}
	if *version {
		printVersion(opts.Stdout, "odysseyctl")
		return ExitOK
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return ExitUsage
	}

	cmds := commands.New(strings.TrimRight(*url, "/"), opts.Doer)
	resp, err := dispatchCtl(ctx, cmds, fs.Arg(0), fs.Args()[1:], opts.Stderr)
	if err != nil {
		return exitCode(opts.Stderr, err)
	}

	_, _ = fmt.Fprintln(opts.Stdout, resp.String())
	return ExitOK
}

func dispatchCtl(
	ctx context.Context,
	cmds *commands.Commands,
	name string,
	args []string,
	stderr io.Writer,
) (client.Response, error) {
	switch name {
	case "start":
		loc, file, err := fileArgs(name, args)
		if err != nil {
			return nil, err
		}
		return cmds.Start(ctx, loc, file)
	case "cancel", "stop":
		if err := noArgs(name, args); err != nil {
			return nil, err
		}
		return cmds.Cancel(ctx)
	case "pause":
		if err := noArgs(name, args); err != nil {
			return nil, err
		}
		return cmds.Pause(ctx)
	case "resume":
		if err := noArgs(name, args); err != nil {
			return nil, err
		}
		return cmds.Resume(ctx)
	case "status":
		if err := noArgs(name, args); err != nil {
			return nil, err
		}
		return cmds.Status(ctx)
	case "manual_control":
		p, err := parseManualControl(args, stderr)
		if err != nil {
			return nil, err
		}
		return cmds.ManualControl(ctx, p)
	case "files":
		p, err := parseListFiles(args, stderr)
		if err != nil {
			return nil, err
		}
		return cmds.ListFiles(ctx, p)
	case "file":
		loc, file, err := fileArgs(name, args)
		if err != nil {
			return nil, err
		}
		return cmds.GetFile(ctx, loc, file)
	case "delete":
		loc, file, err := fileArgs(name, args)
		if err != nil {
			return nil, err
		}
		return cmds.DeleteFile(ctx, loc, file)
	default:
		msg := "unknown command: " + name
		if s := helpers.Suggest(name, ctlCommandNames(), helpers.DefaultSuggestSimilarity); len(s) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		return nil, usageErrorf("%s", msg)
	}
}

func noArgs(name string, args []string) error {
	if len(args) > 0 {
		return usageErrorf("%s takes no arguments", name)
	}
	return nil
}

func fileArgs(name string, args []string) (location, filename string, err error) {
	if len(args) != 2 {
		return "", "", usageErrorf("%s needs <location> <filename>", name)
	}
	return args[0], args[1], nil
}

func parseManualControl(args []string, stderr io.Writer) (models.ManualControlParams, error) {
	var p models.ManualControlParams
	fs := newFlagSet("manual_control", stderr, "odysseyctl manual_control [-z Z] [-c true|false]")

	setZ := func(s string) error {
		z, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid z %q", s)
		}
		p.Z = &z
		return nil
	}
	setCure := func(s string) error {
		c, err := models.ParseCure(s)
		if err != nil {
			return err //nolint:wrapcheck // flag package prefixes the flag name
		}
		p.Cure = &c
		return nil
	}
	fs.Func("z", "plate height to move to", setZ)
	fs.Func("c", `cure: "true" or "false"`, setCure)
	fs.Func("cure", "long form of -c", setCure)

	if err := parseFlags(fs, args); err != nil {
		return p, err
	}
	if fs.NArg() > 0 {
		return p, usageErrorf("manual_control takes no positional arguments")
	}
	return p, nil
}

func parseListFiles(args []string, stderr io.Writer) (models.ListFilesParams, error) {
	fs := newFlagSet("files", stderr, "odysseyctl files [-l LOCATION] [-p INDEX] [-s SIZE]")

	var p models.ListFilesParams
	fs.StringVar(&p.Location, "l", "", "location to list (Local or Usb), all when empty")
	fs.IntVar(&p.PageIndex, "p", 0, "page index")
	fs.IntVar(&p.PageSize, "s", models.DefaultPageSize, "page size")

	if err := parseFlags(fs, args); err != nil {
		return p, err
	}
	if fs.NArg() > 0 {
		return p, usageErrorf("files takes no positional arguments")
	}
	if p.PageIndex < 0 || p.PageSize <= 0 {
		return p, usageErrorf("page index must be >= 0 and page size > 0")
	}
	return p, nil
}
