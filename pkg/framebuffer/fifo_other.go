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

package framebuffer

import (
	"context"
	"errors"
)

var errFIFOUnsupported = errors.New("named pipes are not supported on this platform")

func CreateFIFO(string) error {
	return errFIFOUnsupported
}

type FIFOSource struct {
	path string
}

func NewFIFOSource(path string) *FIFOSource {
	return &FIFOSource{path: path}
}

func (s *FIFOSource) Path() string {
	return s.path
}

func (*FIFOSource) Next(context.Context) ([]byte, error) {
	return nil, errFIFOUnsupported
}
