// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"github.com/golang/glog"

	"github.com/shamexln/capno/pkg/mga"
)

// paiMask covers the agent-slot bits {2,3} of the PAI byte.
const paiMask = 0x0c

// selectAnestheticAgent inspects the PAI byte of the detailed status
// frame. When the module carries agent measurement hardware, agent
// identification is evaluated; otherwise the host provides the data.
type selectAnestheticAgent struct {
	baseState
}

func newSelectAnestheticAgent() *selectAnestheticAgent { return &selectAnestheticAgent{} }

func (s *selectAnestheticAgent) ID() uint32      { return idSelectAnesthetic }
func (s *selectAnestheticAgent) Name() string    { return "SelectTheAnestheticAgent" }
func (s *selectAnestheticAgent) Kind() Kind      { return Continuous }
func (s *selectAnestheticAgent) Command() []byte { return nil }
func (s *selectAnestheticAgent) ReplySize() int  { return 0 }

func (s *selectAnestheticAgent) Handle(c *Context) { c.handleContinuous(s) }

func (s *selectAnestheticAgent) OnFrame(c *Context, f *mga.Frame) {
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
		glog.Info("PAI is available")
		c.TransitionTo(newEvaluateAgent1())
		return
	}
	c.TransitionTo(newProvideSensorData())
}

// evaluateAgent1 reads the agent identification flags from the agent 1
// status frame. NAIF (no agent identified) means the host selects the
// agent type; DAIF (agent detected) means the module only needs the
// external data it asked for.
type evaluateAgent1 struct {
	baseState
}

func newEvaluateAgent1() *evaluateAgent1 { return &evaluateAgent1{} }

func (s *evaluateAgent1) ID() uint32      { return idEvaluateAgent1 }
func (s *evaluateAgent1) Name() string    { return "EvaluateAgent1Status" }
func (s *evaluateAgent1) Kind() Kind      { return Continuous }
func (s *evaluateAgent1) Command() []byte { return nil }
func (s *evaluateAgent1) ReplySize() int  { return 0 }

func (s *evaluateAgent1) Handle(c *Context) { c.handleContinuous(s) }

func (s *evaluateAgent1) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelAgent1 {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	switch {
	case f.Byte(9)&0x03 == 0x00:
		glog.V(1).Info("no anesthetic agent identified, selecting agent type")
		c.TransitionTo(newSelectAgentType())
	case f.Byte(9)&0x02 != 0:
		glog.V(1).Info("anesthetic agent identified by the module")
		c.TransitionTo(newProvideSensorData())
	}
}

// selectAgentType tells the module which anesthetic agent to measure.
type selectAgentType struct {
	baseState
}

func newSelectAgentType() *selectAgentType { return &selectAgentType{} }

func (s *selectAgentType) ID() uint32      { return idSelectAgentType }
func (s *selectAgentType) Name() string    { return "SelectAnestheticAgentType" }
func (s *selectAgentType) Kind() Kind      { return SingleShot }
func (s *selectAgentType) Command() []byte { return mga.Request(mga.CmdSelectAgentType, 0x01, 0x00) }
func (s *selectAgentType) ReplySize() int  { return 4 }

func (s *selectAgentType) Handle(c *Context) { c.handleSingleShot(s) }

func (s *selectAgentType) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdSelectAgentType && f.Length() == 0:
		glog.V(1).Info("anesthetic agent type selected")
		c.TransitionTo(newProvideSensorData())
	case f.IsNAK() && f.Command == mga.CmdSelectAgentType:
		logNAK(s, f)
		c.TransitionTo(newStopContinuousData())
	}
}

// provideSensorData re-checks the HSP byte: when the module still asks
// for host-supplied parameter data, it is delivered next; otherwise the
// sequence moves on to module supervision.
type provideSensorData struct {
	baseState
}

func newProvideSensorData() *provideSensorData { return &provideSensorData{} }

func (s *provideSensorData) ID() uint32      { return idProvideSensorData }
func (s *provideSensorData) Name() string    { return "ProvideSensorModuleWithRequiredData" }
func (s *provideSensorData) Kind() Kind      { return Continuous }
func (s *provideSensorData) Command() []byte { return nil }
func (s *provideSensorData) ReplySize() int  { return 0 }

func (s *provideSensorData) Handle(c *Context) { c.handleContinuous(s) }

func (s *provideSensorData) OnFrame(c *Context, f *mga.Frame) {
	if nakContinuous(c, s, f) {
		return
	}
	if !f.IsACK() || f.Command != mga.OpContinuous || f.Selector() != mga.SelParamDetailed {
		return
	}
	if !c.IsCurrent(s) {
		return
	}
	if f.Byte(7)&hspMask != 0 {
		glog.V(1).Info("module needs external parameter data")
		c.TransitionTo(newAcceptExternalData())
		return
	}
	c.TransitionTo(newWatertrapCheck())
}

// acceptExternalData hands the module the host-supplied parameter data
// it asked for, tagged with unknown accuracy.
type acceptExternalData struct {
	baseState
}

func newAcceptExternalData() *acceptExternalData { return &acceptExternalData{} }

func (s *acceptExternalData) ID() uint32   { return idAcceptExternalData }
func (s *acceptExternalData) Name() string { return "AcceptExternalParameterData" }
func (s *acceptExternalData) Kind() Kind   { return SingleShot }

func (s *acceptExternalData) Command() []byte {
	// The handbook fixes this request's byte string, length byte
	// included, so it is not assembled through Request.
	return []byte{0x10, 0x06, 0x1c, 0xdf, 0x0a, 0x02, 0xe3}
}

func (s *acceptExternalData) ReplySize() int    { return 4 }
func (s *acceptExternalData) Handle(c *Context) { c.handleSingleShot(s) }

func (s *acceptExternalData) OnFrame(c *Context, f *mga.Frame) {
	switch {
	case f.IsACK() && f.Command == mga.CmdAcceptExternalData && f.Length() == 0:
		glog.V(1).Info("external parameter data accepted")
		c.TransitionTo(newWatertrapCheck())
	case f.IsNAK() && f.Command == mga.CmdAcceptExternalData:
		logNAK(s, f)
	}
}

// nakContinuous reports whether f is a failure response on the
// continuous stream, logging it when s is the active state so a NAK is
// rendered once rather than by every subscriber.
func nakContinuous(c *Context, s State, f *mga.Frame) bool {
	if f.IsNAK() && f.Command == mga.OpContinuous {
		if c.IsCurrent(s) {
			logNAK(s, f)
		}
		return true
	}
	return false
}
