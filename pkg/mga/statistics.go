// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mga

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Statistics tracks frame counts and error rates for a session.
type Statistics struct {
	StartTime time.Time

	TotalFrames  uint64
	AckFrames    uint64
	NakFrames    uint64
	DroppedBytes uint64

	bySelector map[byte]uint64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:  time.Now(),
		bySelector: make(map[byte]uint64),
	}
}

// Update records one reassembled frame.
func (s *Statistics) Update(f *Frame) {
	s.TotalFrames++
	if f.IsNAK() {
		s.NakFrames++
	} else {
		s.AckFrames++
	}
	if f.IsACK() && f.Command == OpContinuous && f.Length() > selectorIndex-headerSize {
		s.bySelector[f.Selector()]++
	}
}

// AddDropped records bytes discarded during desync recovery.
func (s *Statistics) AddDropped(n uint64) {
	s.DroppedBytes += n
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	elapsed := time.Since(s.StartTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(s.TotalFrames) / elapsed
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", elapsed)
	fmt.Fprintf(&b, "Total Frames:    %8d\n", s.TotalFrames)
	fmt.Fprintf(&b, "ACK Frames:      %8d\n", s.AckFrames)
	fmt.Fprintf(&b, "NAK Frames:      %8d\n", s.NakFrames)
	if s.DroppedBytes > 0 {
		fmt.Fprintf(&b, "Dropped Bytes:   %8d\n", s.DroppedBytes)
	}
	if len(s.bySelector) > 0 {
		b.WriteString("Continuous frames by selector:\n")
		sels := make([]int, 0, len(s.bySelector))
		for sel := range s.bySelector {
			sels = append(sels, int(sel))
		}
		sort.Ints(sels)
		for _, sel := range sels {
			fmt.Fprintf(&b, "  %s (0x%02X): %6d\n", SelectorName(byte(sel)), sel, s.bySelector[byte(sel)])
		}
	}
	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", rate)
	b.WriteString("================================\n")
	return b.String()
}

// Reset clears all counters and restarts the clock.
func (s *Statistics) Reset() {
	s.StartTime = time.Now()
	s.TotalFrames = 0
	s.AckFrames = 0
	s.NakFrames = 0
	s.DroppedBytes = 0
	s.bySelector = make(map[byte]uint64)
}
