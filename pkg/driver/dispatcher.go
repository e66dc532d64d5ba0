// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"sync"

	"github.com/shamexln/capno/pkg/mga"
)

// Dispatcher routes each reassembled frame to the state awaiting a
// one-shot reply and to every continuous-stream subscriber. The two
// delivery paths are independent; a state may appear in both roles.
type Dispatcher struct {
	mu       sync.Mutex
	awaiting State
	subs     []State
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AttachStream inserts a state into the stream-subscriber set. The
// insertion is idempotent and order-preserving.
func (d *Dispatcher) AttachStream(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sub := range d.subs {
		if sub == s {
			return
		}
	}
	d.subs = append(d.subs, s)
}

// DetachStream removes a state from the subscriber set if present.
func (d *Dispatcher) DetachStream(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, sub := range d.subs {
		if sub == s {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// ArmReply installs a state as the single awaiting-reply holder,
// replacing any previous occupant.
func (d *Dispatcher) ArmReply(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.awaiting = s
}

// DisarmReply empties the awaiting-reply slot.
func (d *Dispatcher) DisarmReply() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.awaiting = nil
}

// Awaiting returns the current awaiting-reply holder, or nil.
func (d *Dispatcher) Awaiting() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.awaiting
}

// Subscribers returns a snapshot of the subscriber set in insertion
// order.
func (d *Dispatcher) Subscribers() []State {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]State, len(d.subs))
	copy(out, d.subs)
	return out
}

// Deliver hands the frame first to the awaiting-reply holder, then to
// every subscriber in insertion order. Handlers run outside the
// dispatcher lock so they may transition and re-arm freely.
func (d *Dispatcher) Deliver(c *Context, f *mga.Frame) {
	d.mu.Lock()
	awaiting := d.awaiting
	subs := make([]State, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	if awaiting != nil {
		awaiting.OnFrame(c, f)
	}
	for _, s := range subs {
		s.OnFrame(c, f)
	}
}
