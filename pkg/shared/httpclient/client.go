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


// Package httpclient holds the HTTP plumbing shared by controller clients.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/odysseyprint/odyssey-tools/pkg/config"
	"github.com/rs/zerolog/log"
)

// AuthTransport signs requests to controllers listed in auth.toml.
type AuthTransport struct {
	Base http.RoundTripper
	// Credentials overrides the credential source. Nil uses the ones loaded
	// with the config.
	Credentials func() config.Credentials
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	source := t.Credentials
	if source == nil {
		source = config.LoadedCredentials
	}

	if entry, ok := source().Lookup(req.URL.String()); ok {
		log.Debug().Msgf("signing request to %s", req.URL.Host)
		// RoundTrippers must not modify the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", entry.Header())
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP round trip: %w", err)
	}
	return resp, nil
}

// DefaultTransport bounds connection setup only. A controller on the local
// network either answers quickly or not at all, so requests themselves have
// no deadline unless the caller's context sets one.
var DefaultTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:        4,
	MaxIdleConnsPerHost: 2,
	IdleConnTimeout:     30 * time.Second,
}

// New returns an HTTP client that signs controller requests.
func New() *http.Client {
	return &http.Client{
		Transport: &AuthTransport{Base: DefaultTransport},
	}
}

// Default is shared by every controller client that is not given its own.
var Default = New()
