// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shamexln/capno/pkg/mga"
)

// stubState records the frames it receives.
type stubState struct {
	baseState
	id     uint32
	kind   Kind
	frames []*mga.Frame
}

func (s *stubState) ID() uint32                       { return s.id }
func (s *stubState) Name() string                     { return "stub" }
func (s *stubState) Kind() Kind                       { return s.kind }
func (s *stubState) Command() []byte                  { return nil }
func (s *stubState) ReplySize() int                   { return 0 }
func (s *stubState) Handle(c *Context)                {}
func (s *stubState) OnFrame(c *Context, f *mga.Frame) { s.frames = append(s.frames, f) }

func TestDispatcher_ArmReplyLastInWins(t *testing.T) {
	d := NewDispatcher()
	a := &stubState{id: 1}
	b := &stubState{id: 2}

	d.ArmReply(a)
	d.ArmReply(b)
	require.Equal(t, State(b), d.Awaiting(), "installing a new reply holder replaces the previous one")

	d.DisarmReply()
	require.Nil(t, d.Awaiting())
	// Disarming an empty slot is not an error.
	d.DisarmReply()
	require.Nil(t, d.Awaiting())
}

func TestDispatcher_AttachStreamIdempotent(t *testing.T) {
	d := NewDispatcher()
	a := &stubState{id: 1, kind: Continuous}
	b := &stubState{id: 2, kind: Continuous}

	d.AttachStream(a)
	d.AttachStream(b)
	d.AttachStream(a)
	require.Len(t, d.Subscribers(), 2)

	d.DetachStream(a)
	require.Len(t, d.Subscribers(), 1)
	require.Equal(t, State(b), d.Subscribers()[0])
	d.DetachStream(a)
	require.Len(t, d.Subscribers(), 1)
}

func TestDispatcher_DeliverBothPaths(t *testing.T) {
	d := NewDispatcher()
	reply := &stubState{id: 1}
	subA := &stubState{id: 2, kind: Continuous}
	subB := &stubState{id: 3, kind: Continuous}

	d.ArmReply(reply)
	d.AttachStream(subA)
	d.AttachStream(subB)

	var f mga.Frame
	d.Deliver(nil, &f)

	require.Len(t, reply.frames, 1, "awaiting-reply holder sees the frame")
	require.Len(t, subA.frames, 1, "every subscriber sees the frame")
	require.Len(t, subB.frames, 1)
}

func TestDispatcher_DeliverBothRoles(t *testing.T) {
	// A state may be armed for a reply and subscribed at once; it then
	// receives the frame on both paths.
	d := NewDispatcher()
	s := &stubState{id: 1, kind: Continuous}
	d.ArmReply(s)
	d.AttachStream(s)

	var f mga.Frame
	d.Deliver(nil, &f)
	require.Len(t, s.frames, 2)
}

// Frames must reach every subscriber in delivery order.
func TestDispatcher_FrameOrdering(t *testing.T) {
	d := NewDispatcher()
	subA := &stubState{id: 1, kind: Continuous}
	subB := &stubState{id: 2, kind: Continuous}
	d.AttachStream(subA)
	d.AttachStream(subB)

	f1 := &mga.Frame{Command: 0x01}
	f2 := &mga.Frame{Command: 0x02}
	d.Deliver(nil, f1)
	d.Deliver(nil, f2)

	for _, sub := range []*stubState{subA, subB} {
		require.Len(t, sub.frames, 2)
		require.Same(t, f1, sub.frames[0])
		require.Same(t, f2, sub.frames[1])
	}
}
