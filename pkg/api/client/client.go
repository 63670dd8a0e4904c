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
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/odysseyprint/odyssey-tools/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// Client performs single-attempt HTTP calls against the print controller.
type Client struct {
	http *http.Client
}

// NewClient returns a client using the shared authenticated transport.
func NewClient() *Client {
	return &Client{http: httpclient.Default}
}

// NewClientWithHTTP returns a client that sends requests through hc.
func NewClientWithHTTP(hc *http.Client) *Client {
	if hc == nil {
		hc = httpclient.Default
	}
	return &Client{http: hc}
}

// Do sends the request described by ep. A 4xx or 5xx reply becomes a
// *RequestFailedError. Any other reply is returned as Decoded when the body
// is JSON, or RawStatus otherwise. Nothing is retried.
func (c *Client) Do(ctx context.Context, ep Endpoint) (Response, error) {
	u, err := ep.URL()
	if err != nil {
		return nil, err
	}

	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing %s request: %w", method, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	log.Debug().
		Str("id", reqID).
		Str("method", method).
		Str("url", u).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("controller request")

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RequestFailedError{
			Method:     method,
			URL:        u,
			Status:     resp.Status,
			StatusCode: resp.StatusCode,
		}
	}

	return decodeBody(resp.StatusCode, body), nil
}
