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

// Package gcode talks to the printer's motion control board over a serial
// line: one command per line, replies read back line by line.
package gcode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"golang.org/x/time/rate"
)

const (
	DefaultCommandSpacing = 100 * time.Millisecond
	DefaultReplyTimeout   = 3 * time.Second
	readTimeout           = 100 * time.Millisecond
	lineBacklog           = 64
)

var (
	ErrTimeout  = errors.New("timed out waiting for reply")
	ErrNotReady = errors.New("board did not report ready")
	ErrClosed   = errors.New("serial link closed")
)

// SerialPort defines the interface for serial port operations (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory is the default factory that opens real serial ports.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

type Options struct {
	Clock          clockwork.Clock
	StatusCheck    string
	StatusDesired  string
	MoveSync       string
	CommandSpacing time.Duration
	ReplyTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		StatusCheck:    "status",
		StatusDesired:  "Klipper state: Ready",
		MoveSync:       "Z_move_comp",
		CommandSpacing: DefaultCommandSpacing,
		ReplyTimeout:   DefaultReplyTimeout,
	}
}

// Link is an open connection to a board. Replies are collected by a
// background listener; Send and the await methods may be called from one
// goroutine at a time.
type Link struct {
	port      SerialPort
	limiter   *rate.Limiter
	lines     chan string
	done      chan struct{}
	opts      Options
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open connects to the board at path.
func Open(path string, baudRate int, opts Options, factory SerialPortFactory) (*Link, error) {
	if factory == nil {
		factory = DefaultSerialPortFactory
	}
	port, err := factory(path, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	l, err := NewLink(port, opts)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	log.Info().Msgf("opened serial link: %s (%d baud)", path, baudRate)
	return l, nil
}

// NewLink starts listening on an already open port. The link owns the port
// from here on.
func NewLink(port SerialPort, opts Options) (*Link, error) {
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = DefaultReplyTimeout
	}

	limit := rate.Inf
	if opts.CommandSpacing > 0 {
		limit = rate.Every(opts.CommandSpacing)
	}

	l := &Link{
		port:    port,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		lines:   make(chan string, lineBacklog),
		done:    make(chan struct{}),
	}
	l.wg.Add(1)
	go l.listen()
	return l, nil
}

func (l *Link) listen() {
	defer l.wg.Done()
	defer close(l.lines)

	buf := make([]byte, 256)
	var lineBuf []byte

	for {
		select {
		case <-l.done:
			return
		default:
		}

		n, err := l.port.Read(buf)
		if err != nil {
			select {
			case <-l.done:
			default:
				log.Error().Err(err).Msg("failed to read from serial port")
			}
			return
		}

		for _, b := range buf[:n] {
			if b != '\n' && b != '\r' {
				lineBuf = append(lineBuf, b)
				continue
			}
			line := strings.TrimSpace(string(lineBuf))
			lineBuf = lineBuf[:0]
			if line == "" {
				continue
			}
			log.Debug().Msgf("serial received: %s", line)
			select {
			case l.lines <- line:
			case <-l.done:
				return
			}
		}
	}
}

// Send writes one command followed by CRLF. Consecutive commands are spaced
// by at least CommandSpacing.
func (l *Link) Send(ctx context.Context, code string) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting to send %q: %w", code, err)
	}
	if _, err := l.port.Write([]byte(code + "\r\n")); err != nil {
		return fmt.Errorf("failed to write %q: %w", code, err)
	}
	log.Debug().Msgf("serial sent: %s", code)
	return nil
}

// Flush discards every reply received so far and returns how many there
// were.
func (l *Link) Flush() int {
	n := 0
	for {
		select {
		case _, ok := <-l.lines:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// AwaitResponse waits for a line containing expect. Other lines are
// skipped.
func (l *Link) AwaitResponse(ctx context.Context, expect string, timeout time.Duration) (string, error) {
	deadline := l.opts.Clock.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err() //nolint:wrapcheck // context errors pass through
		case <-deadline:
			return "", fmt.Errorf("%w: %q after %s", ErrTimeout, expect, timeout)
		case line, ok := <-l.lines:
			if !ok {
				return "", ErrClosed
			}
			if strings.Contains(line, expect) {
				return line, nil
			}
			log.Debug().Msgf("skipping reply while waiting for %q: %s", expect, line)
		}
	}
}

// SendAndAwait clears stale replies, sends code and waits for expect.
func (l *Link) SendAndAwait(ctx context.Context, code, expect string, timeout time.Duration) (string, error) {
	l.Flush()
	if err := l.Send(ctx, code); err != nil {
		return "", err
	}
	return l.AwaitResponse(ctx, expect, timeout)
}

// Move sends a motion command and waits for the board's move sync reply.
func (l *Link) Move(ctx context.Context, code string, timeout time.Duration) error {
	_, err := l.SendAndAwait(ctx, code, l.opts.MoveSync, timeout)
	return err
}

// IsReady polls the board once. The first reply decides the answer; no
// reply within ReplyTimeout counts as not ready.
func (l *Link) IsReady(ctx context.Context) (bool, error) {
	l.Flush()
	if err := l.Send(ctx, l.opts.StatusCheck); err != nil {
		return false, err
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err() //nolint:wrapcheck // context errors pass through
	case <-l.opts.Clock.After(l.opts.ReplyTimeout):
		return false, nil
	case line, ok := <-l.lines:
		if !ok {
			return false, ErrClosed
		}
		return strings.Contains(line, l.opts.StatusDesired), nil
	}
}

// AwaitReady polls up to attempts times, interval apart, until the board
// reports ready.
func (l *Link) AwaitReady(ctx context.Context, attempts int, interval time.Duration) error {
	for i := range attempts {
		ready, err := l.IsReady(ctx)
		if err != nil {
			return err
		}
		if ready {
			log.Info().Msgf("board ready after %d polls", i+1)
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err() //nolint:wrapcheck // context errors pass through
		case <-l.opts.Clock.After(interval):
		}
	}
	return fmt.Errorf("%w after %d polls", ErrNotReady, attempts)
}

func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		if closeErr := l.port.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close serial port: %w", closeErr)
		}
		l.wg.Wait()
	})
	return err
}
