// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"sync"
	"testing"
	"time"

	"github.com/shamexln/capno/pkg/mga"
)

// scriptConn is an in-memory transport. Reads drain injected bytes and
// otherwise behave like a timed-out serial read returning nothing;
// writes are recorded and announced on a channel.
type scriptConn struct {
	mu      sync.Mutex
	rx      []byte
	writes  [][]byte
	writeCh chan []byte
}

func newScriptConn() *scriptConn {
	return &scriptConn{writeCh: make(chan []byte, 64)}
}

func (c *scriptConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	n := copy(p, c.rx)
	c.rx = c.rx[n:]
	c.mu.Unlock()
	if n == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	return n, nil
}

func (c *scriptConn) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	c.mu.Lock()
	c.writes = append(c.writes, buf)
	c.mu.Unlock()
	select {
	case c.writeCh <- buf:
	default:
	}
	return len(p), nil
}

func (c *scriptConn) inject(b []byte) {
	c.mu.Lock()
	c.rx = append(c.rx, b...)
	c.mu.Unlock()
}

func (c *scriptConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *scriptConn) waitWrite(t *testing.T, timeout time.Duration) []byte {
	t.Helper()
	select {
	case w := <-c.writeCh:
		return w
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a transmission")
		return nil
	}
}

// contFrame builds a continuous 0x12 frame with a 24-byte payload, the
// selector in place, and the given raw byte positions set.
func contFrame(t *testing.T, selector byte, raw map[int]byte) *mga.Frame {
	t.Helper()
	payload := make([]byte, 24)
	payload[10] = selector
	buf := append([]byte{mga.StatusACK, mga.OpContinuous, byte(len(payload))}, payload...)
	for pos, v := range raw {
		if pos < 3 || pos >= len(buf) {
			t.Fatalf("raw position %d outside frame", pos)
		}
		buf[pos] = v
	}
	buf = append(buf, mga.Checksum(buf))
	f, err := mga.FrameFromBytes(buf)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// ackFrame builds a success response for opcode with the given payload.
func ackFrame(t *testing.T, opcode byte, payload ...byte) *mga.Frame {
	t.Helper()
	buf := append([]byte{mga.StatusACK, opcode, byte(len(payload))}, payload...)
	buf = append(buf, mga.Checksum(buf))
	f, err := mga.FrameFromBytes(buf)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// nakFrame builds a failure response for opcode with one error code.
func nakFrame(t *testing.T, opcode byte, code byte) *mga.Frame {
	t.Helper()
	buf := []byte{mga.StatusNAK, opcode, 0x01, code}
	buf = append(buf, mga.Checksum(buf))
	f, err := mga.FrameFromBytes(buf)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// newTestContext builds a context over a fresh scriptConn without a
// running reader.
func newTestContext() (*Context, *scriptConn) {
	conn := newScriptConn()
	return New(conn, Options{}), conn
}

// install makes s the active state and returns the instance that is
// actually current (a registry hit returns the prior one).
func install(c *Context, s State) State {
	c.TransitionTo(s)
	return c.Current()
}
