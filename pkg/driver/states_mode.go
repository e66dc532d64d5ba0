// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"time"

	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// measurementMode polls the mode-check command until the module reports
// measurement mode. The module needs time to change mode, so polls are
// spaced at least one second apart; each poll re-arms the reply slot.
type measurementMode struct {
	baseState
	last time.Time
}

func newMeasurementMode() *measurementMode { return &measurementMode{} }

func (s *measurementMode) ID() uint32      { return idMeasurementMode }
func (s *measurementMode) Name() string    { return "MeasurementMode" }
func (s *measurementMode) Kind() Kind      { return SingleShot }
func (s *measurementMode) Command() []byte { return mga.Request(mga.CmdModeCheck, 0x00) }
func (s *measurementMode) ReplySize() int  { return 5 }

func (s *measurementMode) Handle(c *Context) {
	if !c.IsCurrent(s) {
		return
	}
	if !s.last.IsZero() && time.Since(s.last) < modePollInterval {
		return
	}
	s.last = time.Now()
	glog.V(1).Infof("handling %s", s.Name())
	c.Dispatcher().ArmReply(s)
	c.send(s)
}

func (s *measurementMode) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdModeCheck && f.Length() == 1:
		if f.Byte(3) == 0x00 {
			c.TransitionTo(newOperatingMode())
			return
		}
		glog.V(1).Infof("still not measurement mode: %s", mga.ErrorMessage(f.Byte(3)))
	case f.IsNAK() && f.Command == mga.CmdModeCheck:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}

// operatingMode confirms the module's operating mode. It must return
// success before pneumatics are switched; a non-zero status keeps
// polling, and a NAK falls back to the recovery state.
type operatingMode struct {
	baseState
	last time.Time
}

func newOperatingMode() *operatingMode { return &operatingMode{} }

func (s *operatingMode) ID() uint32      { return idOperatingMode }
func (s *operatingMode) Name() string    { return "OperatingMode" }
func (s *operatingMode) Kind() Kind      { return SingleShot }
func (s *operatingMode) Command() []byte { return mga.Request(mga.CmdModeCheck, 0x00) }
func (s *operatingMode) ReplySize() int  { return 5 }

func (s *operatingMode) Handle(c *Context) {
	if !c.IsCurrent(s) {
		return
	}
	if !s.last.IsZero() && time.Since(s.last) < modePollInterval {
		return
	}
	s.last = time.Now()
	glog.V(1).Infof("handling %s", s.Name())
	c.Dispatcher().ArmReply(s)
	c.send(s)
}

func (s *operatingMode) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdModeCheck && f.Length() == 1:
		if f.Byte(3) == 0x00 {
			c.TransitionTo(newSwitchValves())
			return
		}
		glog.V(1).Infof("operating mode not confirmed: %s", mga.ErrorMessage(f.Byte(3)))
	case f.IsNAK() && f.Command == mga.CmdModeCheck:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}

// switchValves routes the sample path to sample gas 1.
type switchValves struct {
	baseState
}

func newSwitchValves() *switchValves { return &switchValves{} }

func (s *switchValves) ID() uint32      { return idSwitchValves }
func (s *switchValves) Name() string    { return "SwitchValves" }
func (s *switchValves) Kind() Kind      { return SingleShot }
func (s *switchValves) Command() []byte { return mga.Request(mga.CmdSwitchValves, 0x00) }
func (s *switchValves) ReplySize() int  { return 4 }

func (s *switchValves) Handle(c *Context) { c.handleSingleShot(s) }

func (s *switchValves) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdSwitchValves && f.Length() == 0:
		glog.V(1).Info("valves switched to sample gas 1")
		c.TransitionTo(newSwitchPump())
	case f.IsNAK() && f.Command == mga.CmdSwitchValves:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}

// switchPump sets the sample pump to high flow.
type switchPump struct {
	baseState
}

func newSwitchPump() *switchPump { return &switchPump{} }

func (s *switchPump) ID() uint32      { return idSwitchPump }
func (s *switchPump) Name() string    { return "SwitchPump" }
func (s *switchPump) Kind() Kind      { return SingleShot }
func (s *switchPump) Command() []byte { return mga.Request(mga.CmdSwitchPump, 0x02) }
func (s *switchPump) ReplySize() int  { return 4 }

func (s *switchPump) Handle(c *Context) { c.handleSingleShot(s) }

func (s *switchPump) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdSwitchPump && f.Length() == 0:
		glog.V(1).Info("pump switched to high flow")
		c.TransitionTo(newSelectAnestheticAgent())
	case f.IsNAK() && f.Command == mga.CmdSwitchPump:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}
