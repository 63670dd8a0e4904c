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
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Endpoint describes a single controller call. It is built fresh for every
// request and not modified afterwards.
type Endpoint struct {
	PathParams map[string]string
	Query      map[string]string
	BaseURL    string
	Path       string
	Method     string
}

// URL resolves the path template against the base URL. Path parameters are
// escaped as single path segments. Query values are encoded in key order and
// blank ones are left out.
func (e Endpoint) URL() (string, error) {
	base, err := url.Parse(e.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: base url %q: %w", ErrInvalidEndpoint, e.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: base url %q has no scheme or host", ErrInvalidEndpoint, e.BaseURL)
	}

	var missing []string
	path := placeholderRe.ReplaceAllStringFunc(e.Path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := e.PathParams[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf(
			"%w: missing path params for %s: %s",
			ErrInvalidEndpoint, e.Path, strings.Join(missing, ", "),
		)
	}

	u := strings.TrimRight(e.BaseURL, "/") + path

	q := url.Values{}
	for k, v := range e.Query {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	return u, nil
}
