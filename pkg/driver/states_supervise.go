// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// The supervision chain cycles through the documented module-status
// checks: watertrap (check, disconnected, full, warning), any-component
// failure, breath-phase availability, apnea, then the zero-request
// supervision and back around through occlusion monitoring. Each branch
// logs a human-readable condition and continues; decoded anomalies are
// never fatal and never alter displayed values.

// watertrapCheck reads MS bit 2 of the detailed status frame to decide
// whether the watertrap warning bits need inspection.
type watertrapCheck struct {
	baseState
}

func newWatertrapCheck() *watertrapCheck { return &watertrapCheck{} }

func (s *watertrapCheck) ID() uint32      { return idWatertrapCheck }
func (s *watertrapCheck) Name() string    { return "SuperviseModuleStatus(check watertrap)" }
func (s *watertrapCheck) Kind() Kind      { return Continuous }
func (s *watertrapCheck) Command() []byte { return nil }
func (s *watertrapCheck) ReplySize() int  { return 0 }

func (s *watertrapCheck) Handle(c *Context) { c.handleContinuous(s) }

func (s *watertrapCheck) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(14)&0x04 != 0 {
		c.TransitionTo(newWatertrapDisconnected())
		return
	}
	c.TransitionTo(newComponentFail())
}

// watertrapDisconnected checks MSW bit 5 of the module status warning
// frame.
type watertrapDisconnected struct {
	baseState
}

func newWatertrapDisconnected() *watertrapDisconnected { return &watertrapDisconnected{} }

func (s *watertrapDisconnected) ID() uint32      { return idWatertrapDisconnected }
func (s *watertrapDisconnected) Name() string    { return "SuperviseModuleStatus(watertrap disconnected)" }
func (s *watertrapDisconnected) Kind() Kind      { return Continuous }
func (s *watertrapDisconnected) Command() []byte { return nil }
func (s *watertrapDisconnected) ReplySize() int  { return 0 }

func (s *watertrapDisconnected) Handle(c *Context) { c.handleContinuous(s) }

func (s *watertrapDisconnected) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelModuleStatusWarn {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(3)&0x20 != 0 {
		glog.Warning("check watertrap: watertrap is disconnected; gas labels and values stay unchanged")
		c.TransitionTo(newComponentFail())
		return
	}
	c.TransitionTo(newWatertrapFull())
}

// watertrapFull checks MSW bit 6 of the module status warning frame.
type watertrapFull struct {
	baseState
}

func newWatertrapFull() *watertrapFull { return &watertrapFull{} }

func (s *watertrapFull) ID() uint32      { return idWatertrapFull }
func (s *watertrapFull) Name() string    { return "SuperviseModuleStatus(watertrap full)" }
func (s *watertrapFull) Kind() Kind      { return Continuous }
func (s *watertrapFull) Command() []byte { return nil }
func (s *watertrapFull) ReplySize() int  { return 0 }

func (s *watertrapFull) Handle(c *Context) { c.handleContinuous(s) }

func (s *watertrapFull) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelModuleStatusWarn {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(3)&0x40 != 0 {
		glog.Warning("watertrap is full; gas labels and values stay unchanged")
		c.TransitionTo(newComponentFail())
		return
	}
	c.TransitionTo(newWatertrapWarning())
}

// watertrapWarning checks MSW bit 7 of the module status warning frame.
type watertrapWarning struct {
	baseState
}

func newWatertrapWarning() *watertrapWarning { return &watertrapWarning{} }

func (s *watertrapWarning) ID() uint32      { return idWatertrapWarning }
func (s *watertrapWarning) Name() string    { return "SuperviseModuleStatus(watertrap warning)" }
func (s *watertrapWarning) Kind() Kind      { return Continuous }
func (s *watertrapWarning) Command() []byte { return nil }
func (s *watertrapWarning) ReplySize() int  { return 0 }

func (s *watertrapWarning) Handle(c *Context) { c.handleContinuous(s) }

func (s *watertrapWarning) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelModuleStatusWarn {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(3)&0x80 != 0 {
		glog.Warning("check watertrap level; gas labels and values stay unchanged")
	}
	c.TransitionTo(newComponentFail())
}

// componentFail checks MS bit 6: any component of the module reports a
// hardware failure.
type componentFail struct {
	baseState
}

func newComponentFail() *componentFail { return &componentFail{} }

func (s *componentFail) ID() uint32      { return idComponentFail }
func (s *componentFail) Name() string    { return "SuperviseModuleStatus(any component fail)" }
func (s *componentFail) Kind() Kind      { return Continuous }
func (s *componentFail) Command() []byte { return nil }
func (s *componentFail) ReplySize() int  { return 0 }

func (s *componentFail) Handle(c *Context) { c.handleContinuous(s) }

func (s *componentFail) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(14)&0x40 != 0 {
		glog.Warning("a hardware failure is present; gas labels and values stay unchanged")
	}
	c.TransitionTo(newBreathPhase())
}

// breathPhase checks MS bit 5: whether the stream carries breath-phase
// related data or plain realtime values.
type breathPhase struct {
	baseState
}

func newBreathPhase() *breathPhase { return &breathPhase{} }

func (s *breathPhase) ID() uint32      { return idBreathPhase }
func (s *breathPhase) Name() string    { return "SuperviseModuleStatus(breath phase available)" }
func (s *breathPhase) Kind() Kind      { return Continuous }
func (s *breathPhase) Command() []byte { return nil }
func (s *breathPhase) ReplySize() int  { return 0 }

func (s *breathPhase) Handle(c *Context) { c.handleContinuous(s) }

func (s *breathPhase) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(14)&0x20 != 0 {
		glog.V(1).Info("frame data contain breath phase related data")
	} else {
		glog.V(1).Info("frame data contain realtime values")
	}
	c.TransitionTo(newApnea())
}

// apnea checks MS bit 4: no breathing cycles detectable, or a
// previously detected breathing activity has timed out.
type apnea struct {
	baseState
}

func newApnea() *apnea { return &apnea{} }

func (s *apnea) ID() uint32      { return idApnea }
func (s *apnea) Name() string    { return "SuperviseModuleStatus(apnea)" }
func (s *apnea) Kind() Kind      { return Continuous }
func (s *apnea) Command() []byte { return nil }
func (s *apnea) ReplySize() int  { return 0 }

func (s *apnea) Handle(c *Context) { c.handleContinuous(s) }

func (s *apnea) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(14)&0x10 != 0 {
		glog.Warning("no respiration: no breathing cycles detectable, or breathing activity timed out")
	} else {
		glog.V(1).Info("breathing activity on the sample line")
	}
	c.TransitionTo(newSuperviseZeroRequest())
}

// occlusion checks MS bit 1: the sample line is blocked.
type occlusion struct {
	baseState
}

func newOcclusion() *occlusion { return &occlusion{} }

func (s *occlusion) ID() uint32      { return idOcclusion }
func (s *occlusion) Name() string    { return "MonitorOcclusion" }
func (s *occlusion) Kind() Kind      { return Continuous }
func (s *occlusion) Command() []byte { return nil }
func (s *occlusion) ReplySize() int  { return 0 }

func (s *occlusion) Handle(c *Context) { c.handleContinuous(s) }

func (s *occlusion) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(14)&0x02 != 0 {
		glog.Warning("occlusion on the sample line; gas labels and values stay unchanged")
		c.TransitionTo(newWatertrapDisconnected())
		return
	}
	c.TransitionTo(newComponentFail())
}
