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

//go:build unix

package serialemu

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// PTY is a pseudo terminal pair. The server talks on the primary side and
// clients open the secondary device by name, like a real serial port.
type PTY struct {
	primary   *os.File
	secondary *os.File
}

// OpenPTY allocates a pseudo terminal with the secondary side in raw mode so
// line endings pass through untouched.
func OpenPTY() (*PTY, error) {
	primary, secondary, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open pty: %w", err)
	}

	if _, err := term.MakeRaw(int(secondary.Fd())); err != nil {
		_ = primary.Close()
		_ = secondary.Close()
		return nil, fmt.Errorf("failed to set pty raw mode: %w", err)
	}

	log.Debug().Msgf("opened pty: %s", secondary.Name())
	return &PTY{primary: primary, secondary: secondary}, nil
}

// Name is the device path clients should open.
func (p *PTY) Name() string {
	return p.secondary.Name()
}

func (p *PTY) Read(b []byte) (int, error) {
	n, err := p.primary.Read(b)
	if err != nil {
		return n, fmt.Errorf("pty read: %w", err)
	}
	return n, nil
}

func (p *PTY) Write(b []byte) (int, error) {
	n, err := p.primary.Write(b)
	if err != nil {
		return n, fmt.Errorf("pty write: %w", err)
	}
	return n, nil
}

func (p *PTY) Close() error {
	perr := p.primary.Close()
	serr := p.secondary.Close()
	if perr != nil {
		return fmt.Errorf("failed to close pty: %w", perr)
	}
	if serr != nil {
		return fmt.Errorf("failed to close pty: %w", serr)
	}
	return nil
}
