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

package framebuffer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

var ErrNoFIFO = errors.New("no frame buffer fifo found")

// FindFIFO returns the first path matching pattern, in lexical order.
func FindFIFO(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid fifo pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoFIFO, pattern)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// WaitForFIFO blocks until a path matching pattern exists, watching the
// pattern's directory for new entries.
func WaitForFIFO(ctx context.Context, pattern string) (string, error) {
	if path, err := FindFIFO(pattern); err == nil {
		return path, nil
	} else if !errors.Is(err, ErrNoFIFO) {
		return "", err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("failed to create fifo watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close fifo watcher")
		}
	}()

	dir := filepath.Dir(pattern)
	if err := watcher.Add(dir); err != nil {
		return "", fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info().Msgf("waiting for a fifo matching: %s", pattern)

	// the fifo may have appeared before the watch was in place
	if path, err := FindFIFO(pattern); err == nil {
		return path, nil
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err() //nolint:wrapcheck // context errors pass through
		case err, ok := <-watcher.Errors:
			if !ok {
				return "", ErrNoFIFO
			}
			log.Warn().Err(err).Msg("fifo watcher error")
		case ev, ok := <-watcher.Events:
			if !ok {
				return "", ErrNoFIFO
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if matched, _ := filepath.Match(pattern, ev.Name); matched {
				return ev.Name, nil
			}
		}
	}
}

// Writer plays the printer's side of the frame buffer: each frame is written
// through a fresh open so a FIFO reader sees one writer session per frame.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) WriteFrame(frame []byte) error {
	//nolint:gosec // path comes from the user's own configuration
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open frame buffer %s: %w", w.path, err)
	}
	if _, err := f.Write(frame); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close frame buffer: %w", err)
	}
	return nil
}
