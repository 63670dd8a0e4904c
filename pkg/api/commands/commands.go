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

// Package commands maps each print controller operation onto its HTTP
// route and method. Every call is a single attempt; errors from the
// transport are returned unchanged.
package commands

import (
	"context"
	"net/http"

	"github.com/odysseyprint/odyssey-tools/pkg/api/client"
	"github.com/odysseyprint/odyssey-tools/pkg/api/models"
)

type Commands struct {
	doer    client.Doer
	baseURL string
}

// New binds the commands to a controller base URL. A nil doer uses the
// default client.
func New(baseURL string, doer client.Doer) *Commands {
	if doer == nil {
		doer = client.NewClient()
	}
	return &Commands{doer: doer, baseURL: baseURL}
}

func (c *Commands) BaseURL() string {
	return c.baseURL
}

func (c *Commands) do(
	ctx context.Context,
	method, path string,
	pathParams, query map[string]string,
) (client.Response, error) {
	//nolint:wrapcheck // transport errors are reported as-is
	return c.doer.Do(ctx, client.Endpoint{
		BaseURL:    c.baseURL,
		Path:       path,
		Method:     method,
		PathParams: pathParams,
		Query:      query,
	})
}

// Start begins printing filename from location.
func (c *Commands) Start(ctx context.Context, location, filename string) (client.Response, error) {
	ref := models.FileRef{Location: location, Filename: filename}
	return c.do(ctx, http.MethodPost, models.RouteStart, ref.PathParams(), nil)
}

func (c *Commands) Cancel(ctx context.Context) (client.Response, error) {
	return c.do(ctx, http.MethodPost, models.RouteCancel, nil, nil)
}

func (c *Commands) Pause(ctx context.Context) (client.Response, error) {
	return c.do(ctx, http.MethodPost, models.RoutePause, nil, nil)
}

func (c *Commands) Resume(ctx context.Context) (client.Response, error) {
	return c.do(ctx, http.MethodPost, models.RouteResume, nil, nil)
}

func (c *Commands) Status(ctx context.Context) (client.Response, error) {
	return c.do(ctx, http.MethodGet, models.RouteStatus, nil, nil)
}

// ManualControl moves the plate to Z and switches curing. Unset params are
// left out of the query.
func (c *Commands) ManualControl(ctx context.Context, p models.ManualControlParams) (client.Response, error) {
	return c.do(ctx, http.MethodPost, models.RouteManual, nil, p.Query())
}

// ListFiles returns one page of files at a location.
func (c *Commands) ListFiles(ctx context.Context, p models.ListFilesParams) (client.Response, error) {
	return c.do(ctx, http.MethodGet, models.RouteFiles, nil, p.Query())
}

func (c *Commands) GetFile(ctx context.Context, location, filename string) (client.Response, error) {
	ref := models.FileRef{Location: location, Filename: filename}
	return c.do(ctx, http.MethodGet, models.RouteFile, ref.PathParams(), nil)
}

func (c *Commands) DeleteFile(ctx context.Context, location, filename string) (client.Response, error) {
	ref := models.FileRef{Location: location, Filename: filename}
	return c.do(ctx, http.MethodDelete, models.RouteFile, ref.PathParams(), nil)
}
