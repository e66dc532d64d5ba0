// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// getUnits reads the parameter unit information frame and logs the unit
// of every parameter the module reports.
type getUnits struct {
	baseState
}

func newGetUnits() *getUnits { return &getUnits{} }

func (s *getUnits) ID() uint32      { return idGetUnits }
func (s *getUnits) Name() string    { return "GetParameterUnits" }
func (s *getUnits) Kind() Kind      { return Continuous }
func (s *getUnits) Command() []byte { return nil }
func (s *getUnits) ReplySize() int  { return 0 }

func (s *getUnits) Handle(c *Context) { c.handleContinuous(s) }

// unitBytes maps each parameter's unit field to its raw byte position
// in the parameter units frame.
var unitBytes = []struct {
	name string
	pos  int
}{
	{"CO2_U", 3},
	{"N2O_U", 4},
	{"A1_U", 5},
	{"A2_U", 6},
	{"O2_U", 7},
}

func (s *getUnits) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamUnits {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	for _, u := range unitBytes {
		switch v := f.Byte(u.pos); {
		case v&0x05 != 0:
			glog.Infof("%s: ATPS mmHg", u.name)
		case v == 0x00:
			glog.Infof("%s: ATS Vol", u.name)
		default:
			glog.Infof("%s: unknown unit 0x%02X", u.name, v)
		}
	}
	c.TransitionTo(newConnectionEstablished())
}

// connectionEstablished marks the point where the module is fully
// configured and streaming; the next frame of any kind moves the driver
// into its steady supervision of host-selectable parameters.
type connectionEstablished struct {
	baseState
}

func newConnectionEstablished() *connectionEstablished { return &connectionEstablished{} }

func (s *connectionEstablished) ID() uint32      { return idConnectionEstablished }
func (s *connectionEstablished) Name() string    { return "EvaluateConnectionEstablished" }
func (s *connectionEstablished) Kind() Kind      { return Continuous }
func (s *connectionEstablished) Command() []byte { return nil }
func (s *connectionEstablished) ReplySize() int  { return 0 }

func (s *connectionEstablished) Handle(c *Context) { c.handleContinuous(s) }

func (s *connectionEstablished) OnFrame(c *Context, f *mga.Frame) {
	if !c.IsCurrent(s) {
		return
	}
	glog.Info("module connection established")
	c.TransitionTo(newHostSelectableParams())
}

// hostSelectableParams watches the HSP byte. While the module keeps
// asking for host-supplied parameter data the condition is surfaced as
// a warning; once clear, parameter availability is evaluated.
type hostSelectableParams struct {
	baseState
}

func newHostSelectableParams() *hostSelectableParams { return &hostSelectableParams{} }

func (s *hostSelectableParams) ID() uint32      { return idHostSelectableParams }
func (s *hostSelectableParams) Name() string    { return "HostSelectableParameters" }
func (s *hostSelectableParams) Kind() Kind      { return Continuous }
func (s *hostSelectableParams) Command() []byte { return nil }
func (s *hostSelectableParams) ReplySize() int  { return 0 }

func (s *hostSelectableParams) Handle(c *Context) { c.handleContinuous(s) }

func (s *hostSelectableParams) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if hsp := f.Byte(7); hsp&hspMask != 0 {
		glog.Warningf("host-selectable parameters 0x%02X: not measured by the sensor module, must be provided by the host", hsp)
		return
	}
	c.TransitionTo(newParamAvailability())
}

// paramAvailability reads the PAI byte: which parameters the module has
// installed.
type paramAvailability struct {
	baseState
}

func newParamAvailability() *paramAvailability { return &paramAvailability{} }

func (s *paramAvailability) ID() uint32      { return idParamAvailability }
func (s *paramAvailability) Name() string    { return "ParameterAvailabilityInformation" }
func (s *paramAvailability) Kind() Kind      { return Continuous }
func (s *paramAvailability) Command() []byte { return nil }
func (s *paramAvailability) ReplySize() int  { return 0 }

func (s *paramAvailability) Handle(c *Context) { c.handleContinuous(s) }

func (s *paramAvailability) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(4)&paiMask != 0 {
		c.SetPAIAvailable(true)
		glog.V(1).Info("PAI is available")
	} else {
		glog.Warning("parameter is not available: not installed in the module")
	}
	c.TransitionTo(newParamMode(paramModeCO2))
}

// paramMode identifies one parameter's mode-check probe: the continuous
// frame carrying the parameter status and the raw byte whose bits {0,1}
// report standby.
type paramMode int

const (
	paramModeCO2 paramMode = iota
	paramModeN2O
	paramModeO2
	paramModeA1
	paramModeA2
)

var paramModes = [...]struct {
	id       uint32
	label    string
	selector byte
	pos      int
}{
	paramModeCO2: {idParamModeCO2, "CO2_PS", mga.SelCO2, 11},
	paramModeN2O: {idParamModeN2O, "N2O_PS", mga.SelCO2, 12},
	paramModeO2:  {idParamModeO2, "O2_PS", mga.SelO2, 11},
	paramModeA1:  {idParamModeA1, "A1_PS", mga.SelAgent1, 12},
	paramModeA2:  {idParamModeA2, "A2_PS", mga.SelAgent2, 12},
}

// parameterMode checks one parameter's mode bits. Standby holds the
// probe in place until the mode changes; otherwise the next parameter
// is checked, ending at the INOP evaluation.
type parameterMode struct {
	baseState
	mode paramMode
}

func newParamMode(mode paramMode) *parameterMode { return &parameterMode{mode: mode} }

func (s *parameterMode) ID() uint32      { return paramModes[s.mode].id }
func (s *parameterMode) Name() string    { return "ParameterMode(" + paramModes[s.mode].label + ")" }
func (s *parameterMode) Kind() Kind      { return Continuous }
func (s *parameterMode) Command() []byte { return nil }
func (s *parameterMode) ReplySize() int  { return 0 }

func (s *parameterMode) Handle(c *Context) { c.handleContinuous(s) }

func (s *parameterMode) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	spec := paramModes[s.mode]
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != spec.selector {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(spec.pos)&0x03 == 0x03 {
		glog.Warningf("%s is not available: module is in standby mode", spec.label)
		return
	}
	if s.mode+1 < paramMode(len(paramModes)) {
		c.TransitionTo(newParamMode(s.mode + 1))
		return
	}
	c.TransitionTo(newParamInop())
}

// paramInop reads the PII byte: parameters that are installed but have
// a non-recoverable technical failure.
type paramInop struct {
	baseState
}

func newParamInop() *paramInop { return &paramInop{} }

func (s *paramInop) ID() uint32      { return idParamInop }
func (s *paramInop) Name() string    { return "ParameterInopInformation" }
func (s *paramInop) Kind() Kind      { return Continuous }
func (s *paramInop) Command() []byte { return nil }
func (s *paramInop) ReplySize() int  { return 0 }

func (s *paramInop) Handle(c *Context) { c.handleContinuous(s) }

func (s *paramInop) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if pii := f.Byte(6); pii&0x1f != 0 {
		glog.Warningf("parameter INOP 0x%02X: installed but has a technical failure and needs maintenance", pii)
		return
	}
	c.TransitionTo(newMeasurementModeOMS())
}

// measurementModeOMS confirms the module is still measuring before the
// occlusion monitor takes over.
type measurementModeOMS struct {
	baseState
}

func newMeasurementModeOMS() *measurementModeOMS { return &measurementModeOMS{} }

func (s *measurementModeOMS) ID() uint32      { return idMeasurementModeOMS }
func (s *measurementModeOMS) Name() string    { return "MeasurementModeStatus" }
func (s *measurementModeOMS) Kind() Kind      { return Continuous }
func (s *measurementModeOMS) Command() []byte { return nil }
func (s *measurementModeOMS) ReplySize() int  { return 0 }

func (s *measurementModeOMS) Handle(c *Context) { c.handleContinuous(s) }

func (s *measurementModeOMS) OnFrame(c *Context, f *mga.Frame) {
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
		c.TransitionTo(newOcclusion())
		return
	}
	glog.V(1).Info("module is in standby mode")
}
