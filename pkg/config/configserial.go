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

package config

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	ResetPolicyLatch = "latch"
	ResetPolicyReset = "reset"
)

// Responder holds the mock serial board settings.
type Responder struct {
	ResetPolicy      string   `toml:"reset_policy" validate:"oneof=latch reset"`
	PollInterval     string   `toml:"poll_interval" validate:"duration"`
	CompResponse     string   `toml:"comp_response" validate:"required"`
	StatusCommand    string   `toml:"status_command" validate:"required"`
	StatusDisconnect string   `toml:"status_disconnect" validate:"required"`
	StatusReady      string   `toml:"status_ready" validate:"required"`
	CompCommands     []string `toml:"comp_commands" validate:"dive,required"`
	Threshold        int      `toml:"threshold" validate:"min=0"`
}

// Link holds the settings for talking G-code to a board over serial.
type Link struct {
	Port          string `toml:"port,omitempty"`
	StatusCheck   string `toml:"status_check" validate:"required"`
	StatusDesired string `toml:"status_desired" validate:"required"`
	MoveSync      string `toml:"move_sync"`
	Interval      string `toml:"interval" validate:"duration"`
	BaudRate      int    `toml:"baud_rate" validate:"min=1"`
	MoveTimeout   int    `toml:"move_timeout" validate:"min=0"`
	Attempts      int    `toml:"attempts" validate:"min=1"`
}

// parseDuration is only used on values that already passed validation.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn().Err(err).Msgf("invalid duration: %s", s)
		return fallback
	}
	return d
}

func (c *Instance) Responder() Responder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r := c.vals.Responder
	r.CompCommands = slices.Clone(r.CompCommands)
	return r
}

func (c *Instance) ResponderPollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Responder.PollInterval, time.Second)
}

func (c *Instance) Link() Link {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Link
}

func (c *Instance) LinkInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(c.vals.Link.Interval, time.Second)
}
