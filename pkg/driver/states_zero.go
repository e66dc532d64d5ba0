// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// superviseZeroRequest watches the OMS field of the detailed status
// frame. In measurement mode the per-parameter zero-in-progress bits
// are checked in turn; any other operating mode hands control to the
// zero-request handler.
type superviseZeroRequest struct {
	baseState
}

func newSuperviseZeroRequest() *superviseZeroRequest { return &superviseZeroRequest{} }

func (s *superviseZeroRequest) ID() uint32      { return idSuperviseZeroRequest }
func (s *superviseZeroRequest) Name() string    { return "SuperviseZeroRequest" }
func (s *superviseZeroRequest) Kind() Kind      { return Continuous }
func (s *superviseZeroRequest) Command() []byte { return nil }
func (s *superviseZeroRequest) ReplySize() int  { return 0 }

func (s *superviseZeroRequest) Handle(c *Context) { c.handleContinuous(s) }

func (s *superviseZeroRequest) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(12) == 0x00 {
		c.TransitionTo(newZeroInProgress(zeroCheckCO2))
		return
	}
	c.TransitionTo(newHandleZeroRequest())
}

// zeroCheck describes one per-parameter zero-in-progress probe: the
// continuous frame that carries the parameter status and the raw byte
// positions whose bit 5 reports a running zero.
type zeroCheck int

const (
	zeroCheckCO2 zeroCheck = iota
	zeroCheckO2
	zeroCheckA1
	zeroCheckA2
)

var zeroChecks = [...]struct {
	id       uint32
	label    string
	selector byte
	bytes    []int
}{
	zeroCheckCO2: {idZeroInProgressCO2, "CO2/N2O", mga.SelCO2, []int{11, 12}},
	zeroCheckO2:  {idZeroInProgressO2, "O2", mga.SelO2, []int{11}},
	zeroCheckA1:  {idZeroInProgressA1, "Agent1", mga.SelAgent1, []int{11}},
	zeroCheckA2:  {idZeroInProgressA2, "Agent2", mga.SelAgent2, []int{12}},
}

// zeroInProgress checks bit 5 of one parameter's status byte. A running
// zero routes straight to the zero-request handler; otherwise the next
// parameter is probed, ending at the zero-request confirmation.
type zeroInProgress struct {
	baseState
	check zeroCheck
}

func newZeroInProgress(check zeroCheck) *zeroInProgress { return &zeroInProgress{check: check} }

func (s *zeroInProgress) ID() uint32      { return zeroChecks[s.check].id }
func (s *zeroInProgress) Name() string    { return "ZeroInProgress(" + zeroChecks[s.check].label + ")" }
func (s *zeroInProgress) Kind() Kind      { return Continuous }
func (s *zeroInProgress) Command() []byte { return nil }
func (s *zeroInProgress) ReplySize() int  { return 0 }

func (s *zeroInProgress) Handle(c *Context) { c.handleContinuous(s) }

func (s *zeroInProgress) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	spec := zeroChecks[s.check]
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != spec.selector {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	for _, i := range spec.bytes {
		if f.Byte(i)&0x20 != 0 {
			glog.Infof("zero in progress for %s", spec.label)
			c.TransitionTo(newHandleZeroRequest())
			return
		}
	}
	if s.check+1 < zeroCheck(len(zeroChecks)) {
		c.TransitionTo(newZeroInProgress(s.check + 1))
		return
	}
	c.TransitionTo(newZeroRequest())
}

// zeroRequest confirms the zero request on the agent 2 status frame
// before the zero is handled.
type zeroRequest struct {
	baseState
}

func newZeroRequest() *zeroRequest { return &zeroRequest{} }

func (s *zeroRequest) ID() uint32      { return idZeroRequest }
func (s *zeroRequest) Name() string    { return "ZeroRequest" }
func (s *zeroRequest) Kind() Kind      { return Continuous }
func (s *zeroRequest) Command() []byte { return nil }
func (s *zeroRequest) ReplySize() int  { return 0 }

func (s *zeroRequest) Handle(c *Context) { c.handleContinuous(s) }

func (s *zeroRequest) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelAgent2 {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(12)&0x20 != 0 {
		glog.Info("module requests a zero cycle")
	}
	c.TransitionTo(newHandleZeroRequest())
}

// handleZeroRequest re-reads the module features to learn the zero
// control mode. Manual zero control means a mainstream sensor: the
// operator must prepare it and confirm before the zero is initiated.
type handleZeroRequest struct {
	baseState
}

func newHandleZeroRequest() *handleZeroRequest { return &handleZeroRequest{} }

func (s *handleZeroRequest) ID() uint32      { return idHandleZeroRequest }
func (s *handleZeroRequest) Name() string    { return "HandleZeroRequest" }
func (s *handleZeroRequest) Kind() Kind      { return SingleShot }
func (s *handleZeroRequest) Command() []byte { return mga.Request(mga.CmdModuleFeatures) }
func (s *handleZeroRequest) ReplySize() int  { return 8 }

func (s *handleZeroRequest) Handle(c *Context) { c.handleSyncSingleShot(s) }

func (s *handleZeroRequest) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdModuleFeatures && f.Length() == 4:
		if f.Byte(6)&0x01 != 0 {
			glog.Warning("prepare the mainstream sensor for zeroing; waiting for operator confirmation")
			c.confirmZero()
		}
		c.TransitionTo(newInitiateZero())
	case f.IsNAK() && f.Command == mga.CmdModuleFeatures:
		logNAK(s, f)
	}
}

// initiateZero starts the module's zero calibration cycle.
type initiateZero struct {
	baseState
}

func newInitiateZero() *initiateZero { return &initiateZero{} }

func (s *initiateZero) ID() uint32   { return idInitiateZero }
func (s *initiateZero) Name() string { return "InitiateZero" }
func (s *initiateZero) Kind() Kind   { return SingleShot }

func (s *initiateZero) Command() []byte {
	return mga.Request(mga.CmdInitiateZero,
		0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00)
}

func (s *initiateZero) ReplySize() int    { return 4 }
func (s *initiateZero) Handle(c *Context) { c.handleSingleShot(s) }

func (s *initiateZero) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdInitiateZero && f.Length() == 0:
		glog.Info("zero cycle initiated")
		c.TransitionTo(newGetUnits())
	case f.IsNAK() && f.Command == mga.CmdInitiateZero:
		logNAK(s, f)
		c.TransitionTo(newGetUnits())
	}
}
