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
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// pipePort joins two pipes into the server's side of a serial link.
type pipePort struct {
	io.Reader
	io.Writer
}

type harness struct {
	toServer   *os.File
	fromServer *bufio.Reader
	done       chan error
	cancel     context.CancelFunc
}

func startServer(t *testing.T, srv *Server) *harness {
	t.Helper()

	// os pipes buffer in the kernel so replies never block the next send
	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	h := &harness{
		toServer:   inW,
		fromServer: bufio.NewReader(outR),
		done:       make(chan error, 1),
		cancel:     cancel,
	}
	go func() {
		h.done <- srv.Serve(ctx, pipePort{Reader: inR, Writer: outW})
	}()

	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
		_ = inR.Close()
		_ = outW.Close()
		_ = outR.Close()
	})
	return h
}

func (h *harness) send(t *testing.T, s string) {
	t.Helper()
	_, err := h.toServer.Write([]byte(s))
	require.NoError(t, err)
}

func (h *harness) readLine(t *testing.T) string {
	t.Helper()
	line, err := h.fromServer.ReadString('\n')
	require.NoError(t, err)
	return line
}

func TestServeRepliesPerLine(t *testing.T) {
	t.Parallel()

	h := startServer(t, NewServer(NewResponder(DefaultOptions()), 0, nil))

	h.send(t, "g1 z10\r\n")
	assert.Equal(t, "Z_move_comp\r\n", h.readLine(t))

	h.send(t, "status\r\n")
	assert.Equal(t, "Klipper state: Disconnect\r\n", h.readLine(t))
}

func TestServeJoinsPartialLines(t *testing.T) {
	t.Parallel()

	h := startServer(t, NewServer(NewResponder(DefaultOptions()), 0, nil))

	h.send(t, "G1 Z")
	h.send(t, "10\r\nM105\r\nstat")
	h.send(t, "us\n")

	assert.Equal(t, "Z_move_comp\r\n", h.readLine(t))
	assert.Equal(t, "Klipper state: Disconnect\r\n", h.readLine(t))
}

func TestServeStatusSequence(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Threshold = 3
	h := startServer(t, NewServer(NewResponder(opts), 0, nil))

	for range 3 {
		h.send(t, "status\r\n")
		assert.Equal(t, "Klipper state: Disconnect\r\n", h.readLine(t))
	}
	h.send(t, "status\r\n")
	assert.Equal(t, "Klipper state: Ready\r\n", h.readLine(t))
}

func TestServeWaitsForPollInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	h := startServer(t, NewServer(NewResponder(DefaultOptions()), time.Second, clock))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	h.send(t, "dwell\r\n")
	assert.Equal(t, "Z_move_comp\r\n", h.readLine(t))
}

func TestServeEOF(t *testing.T) {
	t.Parallel()

	inR, inW := io.Pipe()
	require.NoError(t, inW.Close())

	srv := NewServer(NewResponder(DefaultOptions()), 0, nil)
	err := srv.Serve(context.Background(), pipePort{Reader: inR, Writer: io.Discard})
	assert.NoError(t, err)
}

type failingPort struct{}

func (failingPort) Read([]byte) (int, error)  { return 0, errors.New("device gone") }
func (failingPort) Write([]byte) (int, error) { return 0, nil }

func TestServeReadError(t *testing.T) {
	t.Parallel()

	srv := NewServer(NewResponder(DefaultOptions()), 0, nil)
	err := srv.Serve(context.Background(), failingPort{})
	assert.ErrorContains(t, err, "device gone")
}

type stubPort struct {
	data []byte
	err  error
}

func (s *stubPort) Read(b []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := copy(b, s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *stubPort) Write([]byte) (int, error) {
	return 0, s.err
}

func TestServeWriteError(t *testing.T) {
	t.Parallel()

	port := &stubPort{data: []byte("g1\r\n"), err: errors.New("write refused")}
	srv := NewServer(NewResponder(DefaultOptions()), 0, nil)
	err := srv.Serve(context.Background(), port)
	assert.ErrorContains(t, err, "write refused")
}

func TestHandleHoldsUnterminatedCommand(t *testing.T) {
	t.Parallel()

	srv := NewServer(NewResponder(DefaultOptions()), 0, nil)
	var out bytes.Buffer

	pending, err := srv.handle(&out, []byte("status"), nil)
	require.NoError(t, err)
	assert.Equal(t, "status", string(pending))
	assert.Empty(t, out.String())

	pending, err = srv.handle(&out, append(pending, '\n'), nil)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, "Klipper state: Disconnect\r\n", out.String())
}

func TestHandleDiscardsOverlongLine(t *testing.T) {
	t.Parallel()

	srv := NewServer(NewResponder(DefaultOptions()), 0, nil)
	var out bytes.Buffer

	pending, err := srv.handle(&out, bytes.Repeat([]byte("x"), maxPending+1), nil)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, out.String())

	// the next terminated command is answered normally
	pending, err = srv.handle(&out, append(pending, "status\r"...), nil)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, "Klipper state: Disconnect\r\n", out.String())
}
