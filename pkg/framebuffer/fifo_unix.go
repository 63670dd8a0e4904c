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

//go:build unix

package framebuffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const kickInterval = 10 * time.Millisecond

// CreateFIFO makes a named pipe at path. An existing FIFO is left alone.
func CreateFIFO(path string) error {
	if fi, err := os.Stat(path); err == nil {
		if fi.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("%s exists and is not a fifo", path)
		}
		return nil
	}
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return fmt.Errorf("failed to create fifo %s: %w", path, err)
	}
	return nil
}

// FIFOSource reads one frame per writer session on a named pipe: the frame
// is everything written between a writer opening the pipe and closing it.
type FIFOSource struct {
	path string
}

func NewFIFOSource(path string) *FIFOSource {
	return &FIFOSource{path: path}
}

func (s *FIFOSource) Path() string {
	return s.path
}

func (s *FIFOSource) Next(ctx context.Context) ([]byte, error) {
	for {
		f, err := s.open(ctx)
		if err != nil {
			return nil, err
		}

		stop := context.AfterFunc(ctx, func() {
			_ = f.Close()
		})
		data, readErr := io.ReadAll(f)
		if !stop() {
			return nil, ctx.Err() //nolint:wrapcheck // context errors pass through
		}
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close fifo")
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read fifo %s: %w", s.path, readErr)
		}

		log.Debug().Msgf("read %d bytes from %s", len(data), s.path)
		if len(data) > 0 {
			return data, nil
		}
	}
}

// open waits for a writer. Opening a FIFO for reading blocks in the kernel,
// so a cancelled wait is released by briefly opening the write end.
func (s *FIFOSource) open(ctx context.Context) (*os.File, error) {
	type result struct {
		f   *os.File
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := os.Open(s.path)
		ch <- result{f: f, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("failed to open fifo %s: %w", s.path, r.err)
		}
		return r.f, nil
	case <-ctx.Done():
	}

	ticker := time.NewTicker(kickInterval)
	defer ticker.Stop()
	for {
		kickFIFO(s.path)
		select {
		case r := <-ch:
			if r.f != nil {
				_ = r.f.Close()
			}
			return nil, ctx.Err() //nolint:wrapcheck // context errors pass through
		case <-ticker.C:
		}
	}
}

func kickFIFO(path string) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if !errors.Is(err, unix.ENXIO) {
			log.Debug().Err(err).Msg("failed to release fifo reader")
		}
		return
	}
	_ = unix.Close(fd)
}
