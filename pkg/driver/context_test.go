// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shamexln/capno/pkg/mga"
)

func TestContext_InitialState(t *testing.T) {
	c, _ := newTestContext()
	cur := c.Current()
	require.NotNil(t, cur)
	require.Equal(t, uint32(idStopContinuousData), cur.ID(),
		"a session starts by silencing a possibly streaming module")
	require.Equal(t, State(cur), c.Dispatcher().Awaiting(),
		"the initial single-shot state is armed for its reply")
}

// For any sequence of transitions, the registry holds exactly one
// instance per distinct identifier.
func TestContext_RegistryUniqueness(t *testing.T) {
	c, _ := newTestContext()

	first := install(c, newSwitchValves())
	require.Equal(t, 2, c.registrySize())

	// A fresh instance with the same identifier rebinds to the prior
	// one instead of inserting a duplicate.
	again := install(c, newSwitchValves())
	require.Same(t, first, again)
	require.Equal(t, 2, c.registrySize())

	install(c, newSwitchPump())
	install(c, newSwitchPump())
	install(c, newSwitchValves())
	require.Equal(t, 3, c.registrySize())
}

func TestContext_AllCommandIdentifiersUnique(t *testing.T) {
	c, _ := newTestContext()

	states := []State{
		newStopContinuousData(),
		newGetIntervalBaseTime(),
		newDeviceComponentInfo(mga.ComponentVendorCode),
		newDeviceComponentInfo(mga.ComponentSerialNumber),
		newDeviceComponentInfo(mga.ComponentHardwareRevision),
		newDeviceComponentInfo(mga.ComponentSoftwareRevision),
		newDeviceComponentInfo(mga.ComponentProductName),
		newDeviceComponentInfo(mga.ComponentPartNumber),
		newAdjustTime(),
		newModuleFeatures(),
		newSwitchBreathDetection(0),
		newSwitchBreathDetection(1),
		newSwitchBreathDetection(2),
		newSwitchBreathDetection(3),
		newSwitchBreathDetection(4),
		newSwitchBreathDetection(5),
		newSwitchBreathDetection(6),
		newTransmitPatientData(),
		newMeasurementMode(),
		newOperatingMode(),
		newSwitchValves(),
		newSwitchPump(),
		newSelectAnestheticAgent(),
		newEvaluateAgent1(),
		newSelectAgentType(),
		newProvideSensorData(),
		newAcceptExternalData(),
		newWatertrapCheck(),
		newWatertrapDisconnected(),
		newWatertrapFull(),
		newWatertrapWarning(),
		newComponentFail(),
		newBreathPhase(),
		newApnea(),
		newOcclusion(),
		newSuperviseZeroRequest(),
		newZeroInProgress(zeroCheckCO2),
		newZeroInProgress(zeroCheckO2),
		newZeroInProgress(zeroCheckA1),
		newZeroInProgress(zeroCheckA2),
		newZeroRequest(),
		newHandleZeroRequest(),
		newInitiateZero(),
		newGetUnits(),
		newConnectionEstablished(),
		newHostSelectableParams(),
		newParamAvailability(),
		newParamMode(paramModeCO2),
		newParamMode(paramModeN2O),
		newParamMode(paramModeO2),
		newParamMode(paramModeA1),
		newParamMode(paramModeA2),
		newParamInop(),
		newMeasurementModeOMS(),
	}

	seen := make(map[uint32]string, len(states))
	for _, s := range states {
		prev, dup := seen[s.ID()]
		require.Falsef(t, dup, "identifier 0x%X of %s collides with %s", s.ID(), s.Name(), prev)
		seen[s.ID()] = s.Name()
	}

	for _, s := range states {
		c.TransitionTo(s)
	}
	require.Equal(t, len(states), c.registrySize())
}

// The awaiting-reply slot holds at most one state after any sequence of
// transitions.
func TestContext_AtMostOneAwaitingReply(t *testing.T) {
	c, _ := newTestContext()

	install(c, newSwitchValves())
	require.Equal(t, uint32(idSwitchValves), c.Dispatcher().Awaiting().ID())

	install(c, newSwitchPump())
	require.Equal(t, uint32(idSwitchPump), c.Dispatcher().Awaiting().ID())

	// A continuous state disarms the slot entirely.
	install(c, newOcclusion())
	require.Nil(t, c.Dispatcher().Awaiting())
}

func TestContext_TransitionContinuousAttaches(t *testing.T) {
	c, _ := newTestContext()
	s := install(c, newOcclusion())
	subs := c.Dispatcher().Subscribers()
	require.Len(t, subs, 1)
	require.Equal(t, State(s), subs[0])

	// Coming back to the same continuous state does not duplicate the
	// subscription.
	install(c, newSwitchValves())
	install(c, newOcclusion())
	require.Len(t, c.Dispatcher().Subscribers(), 1)
}

func TestContext_ReusedSingleShotNotRearmedWhenSent(t *testing.T) {
	c, _ := newTestContext()
	s := install(c, newSwitchValves())
	s.SetAlreadySent(true)

	install(c, newOcclusion())
	require.Nil(t, c.Dispatcher().Awaiting())

	// The registry returns the sent instance; since it already ran, it
	// is not re-armed and nothing retransmits.
	install(c, newSwitchValves())
	require.Nil(t, c.Dispatcher().Awaiting())

	// A not-yet-sent instance is re-armed on rebind.
	s.SetAlreadySent(false)
	install(c, newOcclusion())
	install(c, newSwitchValves())
	require.Equal(t, State(s), c.Dispatcher().Awaiting())
}

// Calling Handle repeatedly on a single-shot state transmits exactly
// once until a transition installs something else.
func TestContext_IdempotentSend(t *testing.T) {
	c, conn := newTestContext()
	install(c, newSwitchValves())

	for i := 0; i < 5; i++ {
		c.Tick()
	}
	require.Equal(t, 1, conn.writeCount())
	require.Equal(t, mga.Request(mga.CmdSwitchValves, 0x00), conn.writes[0])
}

func TestContext_SessionFlags(t *testing.T) {
	c, _ := newTestContext()

	require.False(t, c.PneumaticsEnabled())
	require.False(t, c.AutoZeroCondition())
	require.False(t, c.PAIAvailable())
	require.False(t, c.NeedsExternalData())
	require.EqualValues(t, 0, c.HSPByte())

	c.SetPneumaticsEnabled(true)
	c.SetAutoZeroCondition(true)
	c.SetPAIAvailable(true)
	c.SetNeedsExternalData(true)
	c.SetHSPByte(0xde)

	require.True(t, c.PneumaticsEnabled())
	require.True(t, c.AutoZeroCondition())
	require.True(t, c.PAIAvailable())
	require.True(t, c.NeedsExternalData())
	require.EqualValues(t, 0xde, c.HSPByte())
}
