// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mga

import (
	"strings"
	"testing"
)

func TestStatistics_Counts(t *testing.T) {
	s := NewStatistics()

	ack := mustFrame(t, []byte{0x06, 0x19, 0x00, 0xe1})
	nak := mustFrame(t, []byte{0x15, 0x02, 0x01, 0x12, 0xd6})

	payload := make([]byte, 24)
	payload[10] = SelParamDetailed
	raw := append([]byte{0x06, 0x12, byte(len(payload))}, payload...)
	raw = append(raw, Checksum(raw))
	cont := mustFrame(t, raw)

	s.Update(ack)
	s.Update(nak)
	s.Update(cont)
	s.Update(cont)
	s.AddDropped(3)

	if s.TotalFrames != 4 {
		t.Errorf("total: %d", s.TotalFrames)
	}
	if s.AckFrames != 3 {
		t.Errorf("ack: %d", s.AckFrames)
	}
	if s.NakFrames != 1 {
		t.Errorf("nak: %d", s.NakFrames)
	}
	if s.DroppedBytes != 3 {
		t.Errorf("dropped: %d", s.DroppedBytes)
	}
	if s.bySelector[SelParamDetailed] != 2 {
		t.Errorf("selector count: %d", s.bySelector[SelParamDetailed])
	}

	out := s.String()
	for _, want := range []string{"Total Frames", "PARAM_DETAILED_STATUS", "Dropped Bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(mustFrame(t, []byte{0x06, 0x19, 0x00, 0xe1}))
	s.Reset()
	if s.TotalFrames != 0 || s.AckFrames != 0 || len(s.bySelector) != 0 {
		t.Error("reset did not clear counters")
	}
}
