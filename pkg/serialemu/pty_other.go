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

//go:build !unix

package serialemu

import "errors"

var errPTYUnsupported = errors.New("pseudo terminals are not supported on this platform")

type PTY struct{}

func OpenPTY() (*PTY, error) {
	return nil, errPTYUnsupported
}

func (*PTY) Name() string {
	return ""
}

func (*PTY) Read([]byte) (int, error) {
	return 0, errPTYUnsupported
}

func (*PTY) Write([]byte) (int, error) {
	return 0, errPTYUnsupported
}

func (*PTY) Close() error {
	return nil
}
