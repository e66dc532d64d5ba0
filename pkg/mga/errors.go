// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mga

// ErrorMessage translates a NAK error code to the text documented in the
// module handbook. Operators read these strings in the log, so the
// wording is part of the external contract. Codes without a documented
// meaning render as "No Error".
func ErrorMessage(code byte) string {
	switch code {
	case 0x01:
		return "Zero Or Span Of Any Component In Progress"
	case 0x02:
		return "Wrong Parameter"
	case 0x03:
		return "Wrong Unit"
	case 0x04:
		return "Agent Not Supported"
	case 0x08:
		return "Span Invalid Tag"
	case 0x10:
		return "Parameter Not Supported"
	case 0x11:
		return "Not Allowed At This Moment"
	case 0x12:
		return "Frame Not Supported"
	case 0x13:
		return "Rt Not Supported"
	case 0x14:
		return "Wrong Interval Base Time"
	case 0x15:
		return "Data Not Available Yet"
	case 0x20:
		return "Eeprom Access Failed"
	case 0x22:
		return "Non Volatile Memory Access Failed"
	case 0x31:
		return "Watertrap Is Full"
	case 0x60:
		return "Tpu Timeout"
	case 0x70:
		return "Wrong Parameter Set Order"
	case 0x71:
		return "Wrong Parameter Set Type"
	case 0x72:
		return "Wrong Parameter Set Value"
	case 0x73:
		return "Wrong Parameter Set Non-Zero"
	case 0x74:
		return "Checksum Failure"
	case 0x75:
		return "Verification Of New Parameter In Eeprom Failed"
	case 0x76:
		return "Wrong Parameter Number"
	case 0x77:
		return "Calibration Value Can Not Be Stored With This Command"
	case 0x78:
		return "Data Amount Out Of Range"
	case 0x79:
		return "Calibration Value Storage Failed Old Value Ok"
	case 0x7A:
		return "Calibration Value Storage Failed Old Corrupted"
	case 0x7B:
		return "Hardware Supervision Eeprom Access Failed"
	case 0x7C:
		return "Get Fail Software Error"
	case 0x90:
		return "Calibration Cancelled"
	case 0x91:
		return "No Calibration Data Available"
	case 0x92:
		return "Just Collecting Calibration Data"
	case 0x93:
		return "Calibration Data Transmitted"
	case 0xA0:
		return "Delay Time Is Zero"
	case 0xA1:
		return "Invalid Amount Of Parameters"
	case 0xA2:
		return "Factory Calibration Hardware Error"
	case 0xA3:
		return "Factory Calibration Warm-Up"
	case 0xA4:
		return "Data Not Available"
	case 0xA5:
		return "Parameter Error Zero Gas Type"
	case 0xA6:
		return "Parameter Error For Limit"
	case 0xA7:
		return "Parameter Error For Zero Mode"
	case 0xB0:
		return "Failed"
	case 0xC0:
		return "Subcomponent Not Available For This Purpose"
	case 0xC1:
		return "Sub Component Does Not Support This Mode"
	case 0xCE:
		return "Write Access Not Allowed"
	case 0xCF:
		return "Does Not Exist"
	case 0xFF:
		return "Unknown Command"
	default:
		return "No Error"
	}
}
