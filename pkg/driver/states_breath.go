// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// breathDetectionModes lists the detection modes switched on during
// initialization, in handbook order.
var breathDetectionModes = []struct {
	mode  byte
	label string
}{
	{0x01, "program breath detection"},
	{0x02, "program breath detection auto wakeup"},
	{0x05, "auto wakeup after breathphase 1"},
	{0x06, "auto wakeup after breathphase 2"},
	{0x07, "auto wakeup after breathphase 3"},
	{0x08, "auto wakeup after breathphase 4"},
	{0x09, "auto wakeup after breathphase 5"},
}

// switchBreathDetection enables one breath-detection mode. The modes
// run in sequence; a NAK on any of them falls back to the recovery
// state, since half-configured breath detection is worse than none.
type switchBreathDetection struct {
	baseState
	index int
}

func newSwitchBreathDetection(index int) *switchBreathDetection {
	return &switchBreathDetection{index: index}
}

func (s *switchBreathDetection) ID() uint32 {
	return idBreathDetectBase | uint32(breathDetectionModes[s.index].mode)
}

func (s *switchBreathDetection) Name() string {
	return "SwitchBreathDetectionMode(" + breathDetectionModes[s.index].label + ")"
}

func (s *switchBreathDetection) Kind() Kind { return SingleShot }

func (s *switchBreathDetection) Command() []byte {
	return mga.Request(mga.CmdSwitchBreathDetect, breathDetectionModes[s.index].mode)
}

func (s *switchBreathDetection) ReplySize() int    { return 4 }
func (s *switchBreathDetection) Handle(c *Context) { c.handleSingleShot(s) }

func (s *switchBreathDetection) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdSwitchBreathDetect && f.Length() == 0:
		if s.index+1 < len(breathDetectionModes) {
			c.TransitionTo(newSwitchBreathDetection(s.index + 1))
			return
		}
		c.TransitionTo(newTransmitPatientData())
	case f.IsNAK() && f.Command == mga.CmdSwitchBreathDetect:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}

// transmitPatientData subscribes the host to the continuous parameter
// detailed status stream and decodes the HSP byte from the first 0x0E
// frame: when any host-selectable parameter bit is set, the module
// expects the host to supply that data externally.
type transmitPatientData struct {
	baseState
}

func newTransmitPatientData() *transmitPatientData { return &transmitPatientData{} }

func (s *transmitPatientData) ID() uint32   { return idTransmitPatientData }
func (s *transmitPatientData) Name() string { return "TransmitPatientData" }
func (s *transmitPatientData) Kind() Kind   { return SingleShot }

func (s *transmitPatientData) Command() []byte {
	return mga.Request(mga.CmdTransmitPatientData,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x0f, 0x68, 0x18, 0x40, 0x1f, 0x00, 0x3c)
}

func (s *transmitPatientData) ReplySize() int    { return 28 }
func (s *transmitPatientData) Handle(c *Context) { c.handleSingleShot(s) }

// hspMask covers the host-selectable parameter bits {1,2,3,4,6,7}.
const hspMask = 0xde

func (s *transmitPatientData) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.OpContinuous:
		if f.Selector() != mga.SelParamDetailed {
			return
		}
		hsp := f.Byte(7)
		c.SetHSPByte(hsp)
		c.SetNeedsExternalData(hsp&hspMask != 0)
		glog.Infof("HSP byte 0x%02X: needsExternalData=%v", hsp, c.NeedsExternalData())

		if f.Byte(12) != 0x00 {
			// Not in measurement mode yet; poll until it is.
			c.TransitionTo(newMeasurementMode())
			return
		}
		c.TransitionTo(newOperatingMode())
	case f.IsNAK() && f.Command == mga.OpContinuous:
		logNAK(s, f)
		glog.V(1).Info("skipping to operating mode check")
		c.TransitionTo(newOperatingMode())
	}
}
