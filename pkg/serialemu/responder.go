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

// Package serialemu stands in for the printer's motion control board. It
// answers G-code lines the way the board firmware does, including reporting
// itself as disconnected for the first few status polls.
package serialemu

import (
	"strings"
)

const lineEnding = "\r\n"

// Policy decides what happens once the status poll counter reaches the
// threshold.
type Policy string

const (
	// PolicyLatch reports ready for every later status poll.
	PolicyLatch Policy = "latch"
	// PolicyReset reports ready once, then starts counting again.
	PolicyReset Policy = "reset"
)

type Options struct {
	Policy           Policy
	CompResponse     string
	StatusCommand    string
	StatusDisconnect string
	StatusReady      string
	CompCommands     []string
	Threshold        int
}

func DefaultOptions() Options {
	return Options{
		Policy:           PolicyLatch,
		CompCommands:     []string{"g0", "g1", "move_plate", "home_axis", "dwell"},
		CompResponse:     "Z_move_comp",
		StatusCommand:    "status",
		StatusDisconnect: "Klipper state: Disconnect",
		StatusReady:      "Klipper state: Ready",
		Threshold:        10,
	}
}

// Responder maps received lines to replies. It is not safe for concurrent
// use; a single serve loop owns it.
type Responder struct {
	opts    Options
	comp    []string
	status  string
	counter int
}

func NewResponder(opts Options) *Responder {
	comp := make([]string, 0, len(opts.CompCommands))
	for _, c := range opts.CompCommands {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			comp = append(comp, c)
		}
	}
	if opts.Policy == "" {
		opts.Policy = PolicyLatch
	}
	return &Responder{
		opts:   opts,
		comp:   comp,
		status: strings.ToLower(strings.TrimSpace(opts.StatusCommand)),
	}
}

// Respond returns the reply for one received line, or nil when the line
// gets no reply. Matching is a case-insensitive substring test and motion
// commands win over status polls.
func (r *Responder) Respond(line string) []byte {
	lower := strings.ToLower(line)

	for _, kw := range r.comp {
		if strings.Contains(lower, kw) {
			return []byte(r.opts.CompResponse + lineEnding)
		}
	}

	if r.status != "" && strings.Contains(lower, r.status) {
		return []byte(r.statusReply() + lineEnding)
	}

	return nil
}

func (r *Responder) statusReply() string {
	if r.counter < r.opts.Threshold {
		r.counter++
		return r.opts.StatusDisconnect
	}
	if r.opts.Policy == PolicyReset {
		r.counter = 0
	}
	return r.opts.StatusReady
}

// Counter is the number of disconnected replies given since the last reset.
func (r *Responder) Counter() int {
	return r.counter
}
