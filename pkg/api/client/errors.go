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

package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRequestFailed   = errors.New("request failed")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// RequestFailedError is returned when the controller replies with a 4xx or
// 5xx status. It matches ErrRequestFailed with errors.Is.
type RequestFailedError struct {
	Method     string
	URL        string
	Status     string
	StatusCode int
}

func (e *RequestFailedError) Error() string {
	kind := "Client"
	if e.StatusCode >= http.StatusInternalServerError {
		kind = "Server"
	}
	reason := http.StatusText(e.StatusCode)
	if reason == "" {
		reason = e.Status
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", e.StatusCode, kind, reason, e.URL)
}

func (*RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}
