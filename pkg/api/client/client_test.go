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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDoDecodedJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusOK, `{"status":"Idle","physical_state":{"z":0}}`)
	c := NewClientWithHTTP(srv.Client())

	resp, err := c.Do(context.Background(), Endpoint{BaseURL: srv.URL, Path: "/status"})
	require.NoError(t, err)

	decoded, ok := resp.(Decoded)
	require.True(t, ok, "expected Decoded, got %T", resp)
	assert.Equal(t, "{\n    \"status\": \"Idle\",\n    \"physical_state\": {\n        \"z\": 0\n    }\n}", decoded.Body)
}

func TestDoEmptyBodyReturnsStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusOK, "")
	c := NewClientWithHTTP(srv.Client())

	resp, err := c.Do(context.Background(), Endpoint{BaseURL: srv.URL, Path: "/print/pause", Method: http.MethodPost})
	require.NoError(t, err)
	assert.Equal(t, RawStatus{Code: 200}, resp)
	assert.Equal(t, "200", resp.String())
}

func TestDoNonJSONBodyReturnsStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusAccepted, "queued")
	c := NewClientWithHTTP(srv.Client())

	resp, err := c.Do(context.Background(), Endpoint{BaseURL: srv.URL, Path: "/print/resume", Method: http.MethodPost})
	require.NoError(t, err)
	assert.Equal(t, RawStatus{Code: http.StatusAccepted}, resp)
}

func TestDoErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		code int
	}{
		{name: "not found", code: http.StatusNotFound, want: "404 Client Error: Not Found for url: "},
		{name: "conflict", code: http.StatusConflict, want: "409 Client Error: Conflict for url: "},
		{name: "server error", code: http.StatusInternalServerError, want: "500 Server Error: Internal Server Error for url: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, tt.code, `{"error":"nope"}`)
			c := NewClientWithHTTP(srv.Client())

			resp, err := c.Do(context.Background(), Endpoint{BaseURL: srv.URL, Path: "/status"})
			require.ErrorIs(t, err, ErrRequestFailed)
			assert.Nil(t, resp)

			var rfe *RequestFailedError
			require.ErrorAs(t, err, &rfe)
			assert.Equal(t, tt.code, rfe.StatusCode)
			assert.Equal(t, http.MethodGet, rfe.Method)
			assert.Equal(t, tt.want+srv.URL+"/status", err.Error())
		})
	}
}

func TestDoSendsHeadersAndNoBody(t *testing.T) {
	t.Parallel()

	type seen struct {
		method string
		path   string
		query  string
		accept string
		reqID  string
		body   []byte
	}
	ch := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- seen{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			query:  r.URL.RawQuery,
			accept: r.Header.Get("Accept"),
			reqID:  r.Header.Get(RequestIDHeader),
			body:   body,
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithHTTP(srv.Client())
	_, err := c.Do(context.Background(), Endpoint{
		BaseURL: srv.URL,
		Path:    "/manual",
		Method:  http.MethodPost,
		Query:   map[string]string{"z": "1.5", "cure": "false"},
	})
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/manual", got.path)
	assert.Equal(t, "cure=false&z=1.5", got.query)
	assert.Equal(t, "application/json", got.accept)
	assert.Empty(t, got.body)
	_, err = uuid.Parse(got.reqID)
	assert.NoError(t, err)
}

func TestDoDefaultsToGet(t *testing.T) {
	t.Parallel()

	ch := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ch <- r.Method
	}))
	t.Cleanup(srv.Close)

	_, err := NewClientWithHTTP(srv.Client()).Do(context.Background(), Endpoint{BaseURL: srv.URL, Path: "/status"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, <-ch)
}

func TestDoInvalidEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewClient().Do(context.Background(), Endpoint{BaseURL: "not a url", Path: "/status"})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestDoConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClientWithHTTP(&http.Client{}).Do(context.Background(), Endpoint{BaseURL: url, Path: "/status"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRequestFailed))
}

func TestDoCancelledContext(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusOK, "{}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClientWithHTTP(srv.Client()).Do(ctx, Endpoint{BaseURL: srv.URL, Path: "/status"})
	assert.ErrorIs(t, err, context.Canceled)
}
