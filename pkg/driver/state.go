// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"sync"

	"github.com/shamexln/capno/pkg/mga"
)

// Kind classifies a command state.
type Kind int

const (
	// SingleShot states transmit one request and expect one reply.
	SingleShot Kind = iota
	// Continuous states transmit nothing; they subscribe to the
	// continuous status stream and pattern-match frames by selector.
	Continuous
)

// State encapsulates one command of the protocol sequence: the request
// bytes, how to interpret an incoming frame, and which state follows.
type State interface {
	// ID is the registry key. It is not an on-wire value; it combines
	// the opcode with selector bytes so that logically distinct states
	// never share a key.
	ID() uint32
	// Name identifies the state in the session log.
	Name() string
	Kind() Kind
	// Command returns the exact request bytes, empty for continuous
	// states.
	Command() []byte
	// ReplySize is a diagnostic hint: the documented size of the reply.
	ReplySize() int
	// Handle advances the state when Tick runs: send the request if not
	// yet sent and timing allows, or attach to the status stream.
	Handle(c *Context)
	// OnFrame is invoked by the dispatcher with a reassembled frame.
	OnFrame(c *Context, f *mga.Frame)

	AlreadySent() bool
	SetAlreadySent(bool)
	DataReceived() bool
	SetDataReceived(bool)
}

// baseState carries the send/receive flags shared by every state.
type baseState struct {
	mu       sync.Mutex
	sent     bool
	received bool
}

func (b *baseState) AlreadySent() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

func (b *baseState) SetAlreadySent(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = v
}

func (b *baseState) DataReceived() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received
}

func (b *baseState) SetDataReceived(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.received = v
}
