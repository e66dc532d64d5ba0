// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"time"

	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// stopContinuousData silences a module left streaming from a prior
// session. It is the initial state and the recovery target of every
// fatal failure; retransmissions are spaced at least 150 ms apart.
type stopContinuousData struct {
	baseState
	last time.Time
}

func newStopContinuousData() *stopContinuousData { return &stopContinuousData{} }

func (s *stopContinuousData) ID() uint32      { return idStopContinuousData }
func (s *stopContinuousData) Name() string    { return "StopContinuousData" }
func (s *stopContinuousData) Kind() Kind      { return SingleShot }
func (s *stopContinuousData) Command() []byte { return mga.Request(mga.CmdStopContinuousData) }
func (s *stopContinuousData) ReplySize() int  { return 4 }

func (s *stopContinuousData) Handle(c *Context) {
	if !c.IsCurrent(s) {
		return
	}
	// Paced rather than gated on alreadySent: the state is also the
	// restart target of every fatal failure, and a re-entered instance
	// must transmit again for the sequence to restart.
	if !s.last.IsZero() && time.Since(s.last) < stopRetryInterval {
		return
	}
	s.last = time.Now()
	glog.V(1).Infof("handling %s", s.Name())
	c.Dispatcher().ArmReply(s)
	c.sendSync(s)
}

func (s *stopContinuousData) OnFrame(c *Context, f *mga.Frame) {
	if f.IsACK() && f.Command == mga.CmdStopContinuousData && f.Length() == 0 {
		glog.V(1).Info("continuous data stopped")
		c.TransitionTo(newGetIntervalBaseTime())
		return
	}
	if f.IsNAK() && f.Command == mga.CmdStopContinuousData {
		logNAK(s, f)
	}
}

// getIntervalBaseTime reads the module's interval base time. A failure
// is not fatal; the sequence skips ahead to the identification queries.
type getIntervalBaseTime struct {
	baseState
}

func newGetIntervalBaseTime() *getIntervalBaseTime { return &getIntervalBaseTime{} }

func (s *getIntervalBaseTime) ID() uint32   { return idGetIntervalBaseTime }
func (s *getIntervalBaseTime) Name() string { return "GetIntervalBaseTime" }
func (s *getIntervalBaseTime) Kind() Kind   { return SingleShot }
func (s *getIntervalBaseTime) Command() []byte {
	return mga.Request(mga.CmdGetIntervalBaseTime, 0xff)
}
func (s *getIntervalBaseTime) ReplySize() int    { return 6 }
func (s *getIntervalBaseTime) Handle(c *Context) { c.handleSyncSingleShot(s) }

func (s *getIntervalBaseTime) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdGetIntervalBaseTime && f.Length() == 2:
		glog.Infof("interval base time: %d ms", int(f.Byte(3))<<8|int(f.Byte(4)))
		c.TransitionTo(newDeviceComponentInfo(mga.ComponentVendorCode))
	case f.IsNAK() && f.Command == mga.CmdGetIntervalBaseTime:
		logNAK(s, f)
		glog.V(1).Info("skipping to device component information")
		c.TransitionTo(newDeviceComponentInfo(mga.ComponentVendorCode))
	}
}

// deviceComponentInfo reads one identification record from the module.
// The selectors run in handbook order; a failed selector is skipped so
// the sequence keeps moving.
type deviceComponentInfo struct {
	baseState
	selector byte
	label    string
	next     func() State
}

func newDeviceComponentInfo(selector byte) *deviceComponentInfo {
	s := &deviceComponentInfo{selector: selector}
	switch selector {
	case mga.ComponentVendorCode:
		s.label = "vendor code"
		s.next = func() State { return newDeviceComponentInfo(mga.ComponentSerialNumber) }
	case mga.ComponentSerialNumber:
		s.label = "serial number"
		s.next = func() State { return newDeviceComponentInfo(mga.ComponentHardwareRevision) }
	case mga.ComponentHardwareRevision:
		s.label = "hardware revision"
		s.next = func() State { return newDeviceComponentInfo(mga.ComponentSoftwareRevision) }
	case mga.ComponentSoftwareRevision:
		s.label = "software revision"
		s.next = func() State { return newDeviceComponentInfo(mga.ComponentProductName) }
	case mga.ComponentProductName:
		s.label = "product name"
		s.next = func() State { return newDeviceComponentInfo(mga.ComponentPartNumber) }
	case mga.ComponentPartNumber:
		s.label = "part number"
		s.next = func() State { return newAdjustTime() }
	}
	return s
}

func (s *deviceComponentInfo) ID() uint32   { return idDeviceComponentBase | uint32(s.selector) }
func (s *deviceComponentInfo) Name() string { return "TransmitDeviceComponentInformation(" + s.label + ")" }
func (s *deviceComponentInfo) Kind() Kind   { return SingleShot }
func (s *deviceComponentInfo) Command() []byte {
	return mga.Request(mga.CmdDeviceComponentInfo, 0, 0, 0, 0, 0, 0, 0, 0, s.selector)
}
func (s *deviceComponentInfo) ReplySize() int { return 24 }

func (s *deviceComponentInfo) Handle(c *Context) {
	// The first selector of the family waits out the module's answer so
	// a dead link keeps the sequence from racing ahead.
	if s.selector == mga.ComponentVendorCode {
		c.handleSyncSingleShot(s)
		return
	}
	c.handleSingleShot(s)
}

func (s *deviceComponentInfo) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdDeviceComponentInfo && f.Length() == 0x14:
		// The reply echoes the selector; ignore records for other
		// selectors that may still be in flight.
		if f.Byte(21) != s.selector {
			return
		}
		glog.Infof("module %s: %q", s.label, componentText(f))
		c.TransitionTo(s.next())
	case f.IsNAK() && f.Command == mga.CmdDeviceComponentInfo:
		logNAK(s, f)
		c.TransitionTo(s.next())
	}
}

// componentText extracts the ten ASCII characters of a component record.
func componentText(f *mga.Frame) string {
	text := make([]byte, 0, 10)
	for i := 11; i <= 20; i++ {
		b := f.Byte(i)
		if b < 0x20 || b > 0x7e {
			b = '.'
		}
		text = append(text, b)
	}
	return string(text)
}

// adjustTime sets the module clock from the host.
type adjustTime struct {
	baseState
}

func newAdjustTime() *adjustTime { return &adjustTime{} }

func (s *adjustTime) ID() uint32   { return idAdjustTime }
func (s *adjustTime) Name() string { return "AdjustTimeInformation" }
func (s *adjustTime) Kind() Kind   { return SingleShot }
func (s *adjustTime) Command() []byte {
	return mga.Request(mga.CmdAdjustTime, 0x01, 0x02, 0x03, 0x04, 0x05, 0x18, 0x00, 0x00)
}
func (s *adjustTime) ReplySize() int    { return 4 }
func (s *adjustTime) Handle(c *Context) { c.handleSingleShot(s) }

func (s *adjustTime) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdAdjustTime && f.Length() == 0:
		c.TransitionTo(newModuleFeatures())
	case f.IsNAK() && f.Command == mga.CmdAdjustTime:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}

// moduleFeatures reads the generic module feature block and derives the
// pneumatics and auto-zero session flags from it.
type moduleFeatures struct {
	baseState
}

func newModuleFeatures() *moduleFeatures { return &moduleFeatures{} }

func (s *moduleFeatures) ID() uint32      { return idModuleFeatures }
func (s *moduleFeatures) Name() string    { return "TransmitGenericModuleFeatures" }
func (s *moduleFeatures) Kind() Kind      { return SingleShot }
func (s *moduleFeatures) Command() []byte { return mga.Request(mga.CmdModuleFeatures) }
func (s *moduleFeatures) ReplySize() int  { return 8 }

func (s *moduleFeatures) Handle(c *Context) { c.handleSingleShot(s) }

func (s *moduleFeatures) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdModuleFeatures && f.Length() == 4:
		features := f.Byte(6)
		// Pneumatics need both the sampling-system bit and the
		// pump-installed bit.
		pneumatics := features&0x02 != 0 && features&0x04 != 0
		c.SetPneumaticsEnabled(pneumatics)
		// Bit 0 reports manual zero control, which means auto-zero is
		// disabled.
		c.SetAutoZeroCondition(features&0x01 == 0)
		glog.Infof("module features 0x%02X: pneumatics=%v autoZero=%v", features, pneumatics, c.AutoZeroCondition())
		c.TransitionTo(newSwitchBreathDetection(0))
	case f.IsNAK() && f.Command == mga.CmdModuleFeatures:
		logNAK(s, f)
		c.TransitionTo(newSwitchBreathDetection(0))
	}
}
