// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

// Registry keys. These are internal labels, not on-wire values: each
// combines the opcode with up to three selector bytes so that states
// sharing an opcode (the device-component selectors, the continuous
// sub-frame matchers) map to distinct registry entries. Every key in
// this block is unique.
const (
	idGetIntervalBaseTime = 0x02
	idStopContinuousData  = 0x19

	idDeviceComponentBase = 0x0a00 // + component selector

	idMeasurementMode = 0x0300
	idOperatingMode   = 0x0301

	idBreathDetectBase = 0x1e00 // + detection mode

	idAdjustTime     = 0x2b
	idModuleFeatures = 0x2c12

	idTransmitPatientData = 0x120e00

	idSwitchValves = 0x6100
	idSwitchPump   = 0x6202

	idSelectAnesthetic   = 0x120e0401
	idEvaluateAgent1     = 0x121009
	idSelectAgentType    = 0x1d01
	idProvideSensorData  = 0x120e07
	idAcceptExternalData = 0x1c02

	idWatertrapCheck        = 0x120e02
	idWatertrapDisconnected = 0x120b05
	idWatertrapFull         = 0x120b06
	idWatertrapWarning      = 0x120b07
	idComponentFail         = 0x120e06
	idBreathPhase           = 0x120e05
	idApnea                 = 0x120e0402
	idOcclusion             = 0x120e01

	idSuperviseZeroRequest = 0x120e1201
	idZeroInProgressCO2    = 0x120305
	idZeroInProgressO2     = 0x120405
	idZeroInProgressA1     = 0x121005
	idZeroInProgressA2     = 0x121105
	idZeroRequest          = 0x120e1200
	idHandleZeroRequest    = 0x2c06
	idInitiateZero         = 0x20010100

	idGetUnits              = 0x1212
	idConnectionEstablished = 0x2c0601
	idHostSelectableParams  = 0x120e0701
	idParamAvailability     = 0x120e0403
	idParamModeCO2          = 0x12031106
	idParamModeN2O          = 0x12031206
	idParamModeO2           = 0x12041106
	idParamModeA1           = 0x12101206
	idParamModeA2           = 0x12111206
	idParamInop             = 0x120e0501
	idMeasurementModeOMS    = 0x120e1202
)
