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
	"bytes"
	"encoding/json"
	"strconv"
)

// JSONIndent is the indent used when pretty-printing decoded bodies.
const JSONIndent = "    "

// Response is the result of a successful controller call. It is always
// exactly one of Decoded or RawStatus; callers switch on the concrete type.
type Response interface {
	String() string
	response()
}

// Decoded holds a JSON body, re-indented for display.
type Decoded struct {
	Body string
}

func (Decoded) response() {}

func (d Decoded) String() string {
	return d.Body
}

// Unmarshal decodes the body into v.
func (d Decoded) Unmarshal(v any) error {
	//nolint:wrapcheck // body is already known to be valid JSON
	return json.Unmarshal([]byte(d.Body), v)
}

// RawStatus is returned when a successful response has no JSON body.
type RawStatus struct {
	Code int
}

func (RawStatus) response() {}

func (r RawStatus) String() string {
	return strconv.Itoa(r.Code)
}

// decodeBody picks the response variant for a non-error reply. Empty,
// whitespace-only and malformed bodies all fall back to the status code.
func decodeBody(statusCode int, body []byte) Response {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return RawStatus{Code: statusCode}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", JSONIndent); err != nil {
		return RawStatus{Code: statusCode}
	}

	return Decoded{Body: buf.String()}
}
