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

package mocks

import (
	"errors"
	"strings"
	"time"

	"github.com/odysseyprint/odyssey-tools/pkg/helpers/syncutil"
	"github.com/odysseyprint/odyssey-tools/pkg/serialemu"
)

var ErrPortClosed = errors.New("port closed")

// MockSerialPort is an in-memory serial port. Lines written to it are
// answered by a serialemu.Responder, so it behaves like a board running the
// emulator firmware.
type MockSerialPort struct {
	WriteError error
	CloseError error
	TimeoutErr error
	responder  *serialemu.Responder
	pending    []byte
	out        []byte
	written    []string
	mu         syncutil.RWMutex
	closed     bool
	silent     bool
}

// NewMockSerialPort creates a port answering with the given responder
// options.
func NewMockSerialPort(opts serialemu.Options) *MockSerialPort {
	return &MockSerialPort{responder: serialemu.NewResponder(opts)}
}

// NewSilentSerialPort creates a port that never replies.
func NewSilentSerialPort() *MockSerialPort {
	return &MockSerialPort{silent: true}
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	if len(m.out) > 0 {
		n := copy(p, m.out)
		m.out = m.out[n:]
		m.mu.Unlock()
		return n, nil
	}
	m.mu.Unlock()

	// Simulate blocking read with small delay
	time.Sleep(5 * time.Millisecond)
	return 0, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrPortClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}

	m.pending = append(m.pending, p...)
	for {
		i := strings.IndexByte(string(m.pending), '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(m.pending[:i]))
		m.pending = m.pending[i+1:]
		if line == "" {
			continue
		}
		m.written = append(m.written, line)
		if !m.silent {
			m.out = append(m.out, m.responder.Respond(line)...)
		}
	}
	return len(p), nil
}

// Inject queues unsolicited bytes for the next reads.
func (m *MockSerialPort) Inject(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = append(m.out, data...)
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(time.Duration) error {
	return m.TimeoutErr
}

// Written returns every complete line written so far.
func (m *MockSerialPort) Written() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
