// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package driver sequences a gas-analysis sensor module through its
// initialization and operating protocol. A Context owns the transport,
// the frame dispatcher, and a registry of command states; the
// application calls Tick in a loop while a dedicated reader goroutine
// reassembles frames from the transport and feeds the dispatcher.
package driver

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// Connection is the byte-oriented duplex stream the driver talks over.
// Read blocks up to the transport's read timeout and returns whatever
// bytes are currently buffered; a zero-byte read is a normal outcome.
type Connection interface {
	io.Reader
	io.Writer
}

// Timing constants from the module handbook.
const (
	// stopRetryInterval is the minimum spacing between retransmissions
	// of the stop-continuous-data request.
	stopRetryInterval = 150 * time.Millisecond
	// modePollInterval is the minimum spacing between measurement-mode
	// polls; the module needs time to change mode between them.
	modePollInterval = 1000 * time.Millisecond
	// idleSleep bounds reader CPU when the line is idle. It matches the
	// transport's read timeout.
	idleSleep = 100 * time.Millisecond
)

// Options configures a driver Context.
type Options struct {
	// Confirm blocks until the operator has prepared a mainstream
	// sensor for zeroing. Nil means no confirmation is required.
	Confirm func()
	// TickInterval is the cadence of the Run loop. Zero selects 50 ms.
	TickInterval time.Duration
}

// Context owns the transport, the dispatcher, the state registry, the
// current active state, and the session flags.
type Context struct {
	conn Connection
	disp *Dispatcher
	opts Options

	// tickMu serialises Tick; it is never taken by the reader
	// goroutine, so a synchronous send may hold it across a reader
	// rendezvous without deadlock.
	tickMu sync.Mutex

	// stateMu guards the registry and the current state binding.
	stateMu  sync.Mutex
	registry map[uint32]State
	current  State

	flagMu        sync.Mutex
	pneumaticsOn  bool
	autoZero      bool
	paiAvailable  bool
	needsExternal bool
	hsp           byte

	// readSignal is the bounded single-slot rendezvous between the
	// reader goroutine and synchronous sends. The reader posts the
	// outcome of every read, data or not, so a synchronous send never
	// waits past one timeout period.
	readSignal chan bool

	asm     *mga.Reassembler
	dropped uint64

	done chan struct{}
	errc chan error
	wg   sync.WaitGroup
}

// New creates a Context over conn. The session begins with the
// stop-continuous-data state so a module left streaming from a prior
// session is silenced before identification queries go out.
func New(conn Connection, opts Options) *Context {
	c := &Context{
		conn:       conn,
		disp:       NewDispatcher(),
		opts:       opts,
		registry:   make(map[uint32]State),
		readSignal: make(chan bool, 1),
		asm:        mga.NewReassembler(),
		done:       make(chan struct{}),
		errc:       make(chan error, 1),
	}
	c.TransitionTo(newStopContinuousData())
	return c
}

// Dispatcher exposes the frame dispatcher.
func (c *Context) Dispatcher() *Dispatcher {
	return c.disp
}

// Current returns the active state.
func (c *Context) Current() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.current
}

// IsCurrent reports whether s is the active state. Continuous
// subscribers stay attached for the session's lifetime; only the active
// one acts on a frame, and the rest ignore their matches.
func (c *Context) IsCurrent(s State) bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.current == s
}

// registrySize reports the number of distinct state instances created
// this session.
func (c *Context) registrySize() int {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return len(c.registry)
}

// TransitionTo installs s as the active state. When a state with the
// same identifier already ran this session, the prior instance is
// reused so its alreadySent gate prevents retransmission in steady
// state. The dispatcher slots are rebound to match the new state's
// classification.
func (c *Context) TransitionTo(s State) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.current != nil && c.current.Kind() == SingleShot {
		c.disp.DisarmReply()
	}

	if existing, ok := c.registry[s.ID()]; ok {
		c.current = existing
		if existing.Kind() == SingleShot && !existing.AlreadySent() {
			c.disp.ArmReply(existing)
		}
	} else {
		c.registry[s.ID()] = s
		c.current = s
		switch s.Kind() {
		case SingleShot:
			c.disp.ArmReply(s)
		case Continuous:
			c.disp.AttachStream(s)
		}
	}
	glog.V(1).Infof("transition to %s", c.current.Name())
}

// Tick advances the state machine one step. The application calls it in
// a loop; the active state's own alreadySent gate prevents resending.
func (c *Context) Tick() {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	if s := c.Current(); s != nil {
		s.Handle(c)
	}
}

// send transmits a single-shot request, marking it sent first.
func (c *Context) send(s State) {
	s.SetAlreadySent(true)
	glog.V(2).Infof("%s: tx %s (expect %d reply bytes)", s.Name(), mga.HexDump(s.Command()), s.ReplySize())
	if _, err := c.conn.Write(s.Command()); err != nil {
		c.fail(fmt.Errorf("transport write: %w", err))
	}
}

// sendSync transmits a request and waits for the reader's next read
// outcome. The request counts as sent only if the module answered with
// any data, so a silent module is retried on a later tick.
func (c *Context) sendSync(s State) {
	// Drain a stale outcome so the wait below observes a read that
	// happened after the write.
	select {
	case <-c.readSignal:
	default:
	}
	glog.V(2).Infof("%s: tx %s (expect %d reply bytes)", s.Name(), mga.HexDump(s.Command()), s.ReplySize())
	if _, err := c.conn.Write(s.Command()); err != nil {
		c.fail(fmt.Errorf("transport write: %w", err))
		return
	}
	select {
	case got := <-c.readSignal:
		s.SetAlreadySent(got)
	case <-c.done:
	}
}

// handleSingleShot is the default Handle for one-shot commands.
func (c *Context) handleSingleShot(s State) {
	if s.AlreadySent() {
		return
	}
	glog.V(1).Infof("handling %s", s.Name())
	c.send(s)
}

// handleSyncSingleShot sends a one-shot command and rendezvouses with
// the reader before returning, so a silent module re-arms the send.
func (c *Context) handleSyncSingleShot(s State) {
	if s.AlreadySent() {
		return
	}
	glog.V(1).Infof("handling %s", s.Name())
	c.sendSync(s)
}

// handleContinuous is the default Handle for stream subscribers: no
// request goes out, the state joins the subscriber set once.
func (c *Context) handleContinuous(s State) {
	if s.AlreadySent() {
		return
	}
	s.SetAlreadySent(true)
	glog.V(1).Infof("handling %s", s.Name())
	c.disp.AttachStream(s)
}

// Start launches the reader goroutine.
func (c *Context) Start() {
	c.wg.Add(1)
	go c.readLoop()
}

// Stop terminates the reader goroutine and waits for it. The transport
// itself is closed by the caller that opened it.
func (c *Context) Stop() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.wg.Wait()
}

// Err returns a channel that yields the fatal transport error, if any.
func (c *Context) Err() <-chan error {
	return c.errc
}

// Run starts the reader and ticks the state machine until ctx is
// cancelled or the transport fails.
func (c *Context) Run(ctx context.Context) error {
	interval := c.opts.TickInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	c.Start()
	defer c.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-c.errc:
			return err
		case <-ticker.C:
			c.Tick()
		}
	}
}

func (c *Context) fail(err error) {
	glog.Errorf("session terminated: %v", err)
	select {
	case c.errc <- err:
	default:
	}
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// readLoop owns the transport read side: it reassembles frames, posts
// the rendezvous outcome of every read, maintains dataReceived on the
// active state, and feeds frames to the dispatcher in arrival order.
func (c *Context) readLoop() {
	defer c.wg.Done()
	buf := make([]byte, 128)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			c.fail(fmt.Errorf("transport read: %w", err))
			return
		}

		got := n > 0
		// Post the outcome before delivering: a synchronous sender may
		// be waiting while holding the tick mutex.
		select {
		case c.readSignal <- got:
		default:
		}
		if s := c.Current(); s != nil {
			s.SetDataReceived(got)
		}

		if !got {
			select {
			case <-c.done:
				return
			case <-time.After(idleSleep):
			}
			continue
		}

		for _, f := range c.asm.Push(buf[:n]) {
			glog.V(2).Infof("rx frame: %s", mga.HexDump(f.Raw()))
			c.disp.Deliver(c, f)
		}
		if d := c.asm.Dropped(); d > c.dropped {
			glog.V(1).Infof("stream desync: dropped %d bytes", d-c.dropped)
			c.dropped = d
		}
	}
}

// logNAK renders a failure response for the session log.
func logNAK(s State, f *mga.Frame) {
	glog.Warningf("%s: request failed: %s", s.Name(), mga.ErrorMessage(f.ErrCode()))
}

// confirmZero blocks on the configured operator confirmation hook.
func (c *Context) confirmZero() {
	if c.opts.Confirm != nil {
		c.opts.Confirm()
	}
}

// Session flags, set by specific states from decoded payload bits and
// consumed by later states to branch.

func (c *Context) SetPneumaticsEnabled(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.pneumaticsOn = v
}

func (c *Context) PneumaticsEnabled() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.pneumaticsOn
}

func (c *Context) SetAutoZeroCondition(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.autoZero = v
}

func (c *Context) AutoZeroCondition() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.autoZero
}

func (c *Context) SetPAIAvailable(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.paiAvailable = v
}

func (c *Context) PAIAvailable() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.paiAvailable
}

func (c *Context) SetNeedsExternalData(v bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.needsExternal = v
}

func (c *Context) NeedsExternalData() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.needsExternal
}

func (c *Context) SetHSPByte(v byte) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.hsp = v
}

func (c *Context) HSPByte() byte {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	return c.hsp
}
