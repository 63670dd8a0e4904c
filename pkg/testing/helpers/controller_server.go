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

package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/odysseyprint/odyssey-tools/pkg/api/models"
	"github.com/odysseyprint/odyssey-tools/pkg/helpers/syncutil"
)

// RecordedRequest is one call seen by MockControllerServer.
type RecordedRequest struct {
	Header   http.Header
	Method   string
	Path     string
	RawQuery string
	BodySize int64
}

// MockControllerServer is an in-process print controller for tests. It
// keeps a small file store and printer state and records every request.
type MockControllerServer struct {
	*httptest.Server
	files    []models.FileMetadata
	requests []RecordedRequest
	state    models.PrinterState
	failWith int
	mu       syncutil.Mutex
}

// NewMockControllerServer starts a controller serving the given files.
func NewMockControllerServer(t *testing.T, files ...models.FileMetadata) *MockControllerServer {
	t.Helper()

	m := &MockControllerServer{
		files: slices.Clone(files),
		state: models.PrinterState{Status: models.StatusIdle},
	}

	r := chi.NewRouter()
	r.Use(m.record)
	r.Post(models.RouteStart, m.handleStart)
	r.Post(models.RouteCancel, m.handleCancel)
	r.Post(models.RoutePause, m.handlePause(true))
	r.Post(models.RouteResume, m.handlePause(false))
	r.Get(models.RouteStatus, m.handleStatus)
	r.Post(models.RouteManual, m.handleManual)
	r.Get(models.RouteFiles, m.handleListFiles)
	r.Get(models.RouteFile, m.handleGetFile)
	r.Delete(models.RouteFile, m.handleDeleteFile)

	m.Server = httptest.NewServer(r)
	t.Cleanup(m.Close)
	return m
}

// URL returns the server's base URL.
func (m *MockControllerServer) URL() string {
	return m.Server.URL
}

// FailWith makes every route answer with status. Zero restores normal
// handling.
func (m *MockControllerServer) FailWith(status int) *MockControllerServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = status
	return m
}

func (m *MockControllerServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

func (m *MockControllerServer) LastRequest() (RecordedRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

func (m *MockControllerServer) State() models.PrinterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockControllerServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method:   r.Method,
			Path:     r.URL.EscapedPath(),
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			BodySize: r.ContentLength,
		})
		failWith := m.failWith
		m.mu.Unlock()

		if failWith != 0 {
			http.Error(w, http.StatusText(failWith), failWith)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockControllerServer) findFile(location, name string) int {
	return slices.IndexFunc(m.files, func(f models.FileMetadata) bool {
		return f.LocationCategory == location && f.Path == name
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (m *MockControllerServer) handleStart(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.findFile(chi.URLParam(r, models.ParamLocation), chi.URLParam(r, models.ParamFilename))
	if i < 0 {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	if m.state.Status == models.StatusPrinting {
		http.Error(w, "already printing", http.StatusConflict)
		return
	}

	layer := 0
	paused := false
	m.state.Status = models.StatusPrinting
	m.state.Layer = &layer
	m.state.Paused = &paused
	m.state.PrintData = &models.PrintMetadata{FileData: m.files[i]}
	w.WriteHeader(http.StatusOK)
}

func (m *MockControllerServer) handleCancel(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = models.PrinterState{Status: models.StatusIdle, PhysicalState: m.state.PhysicalState}
	w.WriteHeader(http.StatusOK)
}

func (m *MockControllerServer) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.state.Status != models.StatusPrinting {
			http.Error(w, "not printing", http.StatusConflict)
			return
		}
		m.state.Paused = &paused
		w.WriteHeader(http.StatusOK)
	}
}

func (m *MockControllerServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.State())
}

func (m *MockControllerServer) handleManual(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var z *float64
	if s := q.Get(models.ParamZ); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			http.Error(w, "invalid z", http.StatusBadRequest)
			return
		}
		z = &v
	}

	var cure *bool
	if q.Has(models.ParamCure) {
		c, err := models.ParseCure(q.Get(models.ParamCure))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v := c == models.CureTrue
		cure = &v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if z != nil {
		m.state.PhysicalState.Z = *z
		m.state.PhysicalState.ZMicrons = uint32(*z * 1000)
	}
	if cure != nil {
		m.state.PhysicalState.Curing = *cure
	}
	w.WriteHeader(http.StatusOK)
}

func (m *MockControllerServer) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := q.Get(models.ParamLocation)
	pageIndex, err := strconv.Atoi(q.Get(models.ParamPageIndex))
	if err != nil || pageIndex < 0 {
		http.Error(w, "invalid page_index", http.StatusBadRequest)
		return
	}
	pageSize, err := strconv.Atoi(q.Get(models.ParamPageSize))
	if err != nil || pageSize <= 0 {
		http.Error(w, "invalid page_size", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	var matching []models.FileMetadata
	for _, f := range m.files {
		if location == "" || f.LocationCategory == location {
			matching = append(matching, f)
		}
	}
	m.mu.Unlock()

	page := models.FilesPage{Files: []models.FileMetadata{}}
	start := pageIndex * pageSize
	if start < len(matching) {
		end := min(start+pageSize, len(matching))
		page.Files = matching[start:end]
		if end < len(matching) {
			next := pageIndex + 1
			page.NextIndex = &next
		}
	}
	writeJSON(w, page)
}

func (m *MockControllerServer) handleGetFile(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	i := m.findFile(chi.URLParam(r, models.ParamLocation), chi.URLParam(r, models.ParamFilename))
	var f models.FileMetadata
	if i >= 0 {
		f = m.files[i]
	}
	m.mu.Unlock()

	if i < 0 {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	writeJSON(w, models.PrintMetadata{FileData: f, LayerCount: 100, LayerHeight: 0.05, LayerHeightMicrons: 50})
}

func (m *MockControllerServer) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.findFile(chi.URLParam(r, models.ParamLocation), chi.URLParam(r, models.ParamFilename))
	if i < 0 {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	m.files = slices.Delete(m.files, i, i+1)
	w.WriteHeader(http.StatusOK)
}

// TestFiles is a small file store used across controller tests.
func TestFiles() []models.FileMetadata {
	size := uint64(2048)
	return []models.FileMetadata{
		{Path: "cube.sl1", Name: "cube.sl1", LocationCategory: models.LocationLocal, ParentPath: "/srv/odyssey", FileSize: &size},
		{Path: "boat.sl1", Name: "boat.sl1", LocationCategory: models.LocationLocal, ParentPath: "/srv/odyssey"},
		{Path: "a.gcode", Name: "a.gcode", LocationCategory: models.LocationUsb, ParentPath: "/media/usb"},
	}
}
