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

package serialemu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	readSize = 1000
	// maxPending bounds an unterminated line so a peer that never sends a
	// newline cannot grow the buffer forever.
	maxPending = 64 * 1024
)

// Server reads lines from a port and writes the responder's replies back.
type Server struct {
	responder *Responder
	clock     clockwork.Clock
	interval  time.Duration
}

// NewServer returns a server that sleeps interval before each read. A nil
// clock uses the real clock.
func NewServer(r *Responder, interval time.Duration, clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Server{
		responder: r,
		clock:     clock,
		interval:  interval,
	}
}

// Serve runs until ctx is done or port reaches EOF. A read that is blocked
// when ctx ends only returns once the caller closes the port.
func (s *Server) Serve(ctx context.Context, port io.ReadWriter) error {
	buf := make([]byte, readSize)
	var pending []byte

	for {
		if s.interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-s.clock.After(s.interval):
			}
		} else if ctx.Err() != nil {
			return nil
		}

		n, err := port.Read(buf)
		if n > 0 {
			log.Debug().Msgf("received: %q", buf[:n])
			pending = append(pending, buf[:n]...)
			pending, err = s.handle(port, pending, err)
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("serial read failed: %w", err)
		}
	}
}

// handle answers every complete line in pending and returns what is left.
// readErr is passed through unless a write fails.
func (s *Server) handle(w io.Writer, pending []byte, readErr error) ([]byte, error) {
	for {
		i := bytes.IndexAny(pending, "\r\n")
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(pending[:i]))
		pending = pending[i+1:]
		if line == "" {
			continue
		}

		reply := s.responder.Respond(line)
		if reply == nil {
			log.Debug().Msgf("no reply for: %s", line)
			continue
		}
		if _, err := w.Write(reply); err != nil {
			return nil, fmt.Errorf("serial write failed: %w", err)
		}
		log.Debug().Msgf("sent: %q", reply)
	}

	if len(pending) > maxPending {
		log.Warn().Msgf("discarding %d bytes without a line ending", len(pending))
		pending = pending[:0]
	}
	// compact so the backing array does not grow without bound
	return append([]byte(nil), pending...), readErr
}
