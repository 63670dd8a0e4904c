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

package models

import (
	"errors"
	"strconv"
)

var ErrInvalidCure = errors.New(`cure must be "true" or "false"`)

// Cure is the literal value sent for the manual control cure parameter. It
// goes to the controller verbatim and is never converted to or from a bool.
type Cure string

const (
	CureTrue  Cure = "true"
	CureFalse Cure = "false"
)

// ParseCure accepts only the exact strings "true" and "false".
func ParseCure(s string) (Cure, error) {
	switch Cure(s) {
	case CureTrue, CureFalse:
		return Cure(s), nil
	default:
		return "", ErrInvalidCure
	}
}

// ManualControlParams holds the optional query values of a manual control
// request. A nil field is left out of the query.
type ManualControlParams struct {
	Z    *float64
	Cure *Cure
}

// Query returns the params as query values, skipping unset fields.
func (p ManualControlParams) Query() map[string]string {
	q := make(map[string]string, 2)
	if p.Z != nil {
		q[ParamZ] = strconv.FormatFloat(*p.Z, 'f', -1, 64)
	}
	if p.Cure != nil {
		q[ParamCure] = string(*p.Cure)
	}
	return q
}

type ListFilesParams struct {
	Location  string
	PageIndex int
	PageSize  int
}

func (p ListFilesParams) Query() map[string]string {
	return map[string]string{
		ParamLocation:  p.Location,
		ParamPageIndex: strconv.Itoa(p.PageIndex),
		ParamPageSize:  strconv.Itoa(p.PageSize),
	}
}

// FileRef names a file stored on the controller.
type FileRef struct {
	Location string
	Filename string
}

func (f FileRef) PathParams() map[string]string {
	return map[string]string{
		ParamLocation: f.Location,
		ParamFilename: f.Filename,
	}
}
