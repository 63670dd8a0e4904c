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

// Controller routes. Placeholders in braces are substituted from the path
// parameters of an endpoint.
const (
	RouteStart  = "/print/start/{location}/{filename}"
	RouteCancel = "/print/cancel"
	RoutePause  = "/print/pause"
	RouteResume = "/print/resume"
	RouteStatus = "/status"
	RouteManual = "/manual"
	RouteFiles  = "/files"
	RouteFile   = "/files/{location}/{filename}"
)

const (
	ParamLocation  = "location"
	ParamFilename  = "filename"
	ParamZ         = "z"
	ParamCure      = "cure"
	ParamPageIndex = "page_index"
	ParamPageSize  = "page_size"
)

const (
	DefaultAPIPort  = 12357
	DefaultAPIURL   = "http://127.0.0.1:12357"
	DefaultPageSize = 100
)

// Location categories understood by the controller's file store.
const (
	LocationLocal = "Local"
	LocationUsb   = "Usb"
)

type PrinterStatus string

const (
	StatusPrinting PrinterStatus = "Printing"
	StatusIdle     PrinterStatus = "Idle"
	StatusShutdown PrinterStatus = "Shutdown"
)

type FileMetadata struct {
	LastModified     *uint64 `json:"last_modified,omitempty"`
	FileSize         *uint64 `json:"file_size,omitempty"`
	Path             string  `json:"path"`
	Name             string  `json:"name"`
	LocationCategory string  `json:"location_category"`
	ParentPath       string  `json:"parent_path"`
}

type PrintMetadata struct {
	FileData           FileMetadata `json:"file_data"`
	UsedMaterial       float64      `json:"used_material"`
	PrintTime          float64      `json:"print_time"`
	LayerHeight        float64      `json:"layer_height"`
	LayerCount         int          `json:"layer_count"`
	LayerHeightMicrons uint32       `json:"layer_height_microns"`
}

type PhysicalState struct {
	Z        float64 `json:"z"`
	ZMicrons uint32  `json:"z_microns"`
	Curing   bool    `json:"curing"`
}

// PrinterState is the document returned by the controller's status route.
type PrinterState struct {
	PrintData     *PrintMetadata `json:"print_data,omitempty"`
	Paused        *bool          `json:"paused,omitempty"`
	Layer         *int           `json:"layer,omitempty"`
	Status        PrinterStatus  `json:"status"`
	PhysicalState PhysicalState  `json:"physical_state"`
}

// FilesPage is one page of the controller's file listing.
type FilesPage struct {
	Files     []FileMetadata `json:"files"`
	NextIndex *int           `json:"next_index,omitempty"`
}
