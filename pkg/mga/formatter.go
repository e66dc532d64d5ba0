// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mga

import (
	"fmt"
	"strings"
)

// FormatFrame renders a frame in human-readable form: timestamp, status,
// command name, selector name for continuous frames, and a hex dump of
// the payload.
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s (0x%02X) len=%d\n", timestamp, statusName(f.Status), CommandName(f.Command), f.Command, f.Length())

	if f.IsNAK() {
		fmt.Fprintf(&b, "  Error: %s (0x%02X)\n", ErrorMessage(f.ErrCode()), f.ErrCode())
	} else if f.Command == OpContinuous && f.Length() > selectorIndex-headerSize {
		fmt.Fprintf(&b, "  Frame: %s (0x%02X)\n", SelectorName(f.Selector()), f.Selector())
	}

	if f.Length() > 0 {
		b.WriteString(formatPayload(f.Payload))
	}
	return b.String()
}

// HexDump renders raw frame bytes as space-separated hex, the form the
// session log records for every received frame.
func HexDump(data []byte) string {
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", v)
	}
	return b.String()
}

func formatPayload(payload []byte) string {
	var b strings.Builder
	b.WriteString("  Payload: ")
	for i, v := range payload {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n           ")
		}
		fmt.Fprintf(&b, "%02X ", v)
	}
	b.WriteByte('\n')
	return b.String()
}

func statusName(status byte) string {
	switch status {
	case StatusACK:
		return "ACK"
	case StatusNAK:
		return "NAK"
	case StatusSOH:
		return "REQ"
	default:
		return "???"
	}
}

// CommandName returns the handbook name of a command opcode.
func CommandName(opcode byte) string {
	switch opcode {
	case CmdGetIntervalBaseTime:
		return "GET_INTERVAL_BASE_TIME"
	case CmdModeCheck:
		return "MODE_CHECK"
	case CmdDeviceComponentInfo:
		return "DEVICE_COMPONENT_INFO"
	case CmdTransmitPatientData:
		return "TRANSMIT_PATIENT_DATA"
	case CmdStopContinuousData:
		return "STOP_CONTINUOUS_DATA"
	case CmdAcceptExternalData:
		return "ACCEPT_EXTERNAL_DATA"
	case CmdSelectAgentType:
		return "SELECT_AGENT_TYPE"
	case CmdSwitchBreathDetect:
		return "SWITCH_BREATH_DETECTION"
	case CmdInitiateZero:
		return "INITIATE_ZERO"
	case CmdAdjustTime:
		return "ADJUST_TIME"
	case CmdModuleFeatures:
		return "MODULE_FEATURES"
	case CmdSwitchValves:
		return "SWITCH_VALVES"
	case CmdSwitchPump:
		return "SWITCH_PUMP"
	default:
		return "UNKNOWN"
	}
}

// SelectorName returns the handbook name of a continuous frame selector.
func SelectorName(sel byte) string {
	switch sel {
	case SelCO2:
		return "CO2_N2O_STATUS"
	case SelO2:
		return "O2_STATUS"
	case SelModuleStatusWarn:
		return "MODULE_STATUS_WARNING"
	case SelParamDetailed:
		return "PARAM_DETAILED_STATUS"
	case SelAgent1:
		return "AGENT1_STATUS"
	case SelAgent2:
		return "AGENT2_STATUS"
	case SelParamUnits:
		return "PARAM_UNITS"
	default:
		return "UNKNOWN"
	}
}
