// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package driver

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shamexln/capno/pkg/mga"
)

// waitForRequest consumes transmissions until want appears, tolerating
// retries of the previous request in between.
func waitForRequest(t *testing.T, conn *scriptConn, want, retryOK []byte) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case w := <-conn.writeCh:
			if bytes.Equal(w, want) {
				return
			}
			require.Truef(t, bytes.Equal(w, retryOK), "unexpected transmission % X", w)
		case <-deadline:
			t.Fatalf("timed out waiting for transmission % X", want)
		}
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.FailNow(t, msg)
}

// Cold start against a silent module: the stop-continuous-data request
// goes out repeatedly, paced at the documented 150 ms, and the driver
// never advances past that state.
func TestScenario_ColdStartModuleIdle(t *testing.T) {
	conn := newScriptConn()
	drv := New(conn, Options{TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	time.Sleep(600 * time.Millisecond)
	cancel()

	n := conn.writeCount()
	require.GreaterOrEqual(t, n, 2, "the stop request is retried")
	require.LessOrEqual(t, n, 5, "retries respect the 150 ms pacing")

	stop := mga.Request(mga.CmdStopContinuousData)
	conn.mu.Lock()
	for i, w := range conn.writes {
		require.Truef(t, bytes.Equal(stop, w), "write %d is not the stop request: % X", i, w)
	}
	conn.mu.Unlock()

	require.Equal(t, uint32(idStopContinuousData), drv.Current().ID(),
		"a silent module never advances the sequence")
}

// The stop acknowledgment moves the driver to the interval-base-time
// query, and a NAK on that query skips ahead to the identification
// sequence.
func TestScenario_StopAcknowledgedThenIntervalRejected(t *testing.T) {
	conn := newScriptConn()
	drv := New(conn, Options{TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	stop := mga.Request(mga.CmdStopContinuousData)
	interval := mga.Request(mga.CmdGetIntervalBaseTime, 0xff)
	vendor := mga.Request(mga.CmdDeviceComponentInfo, 0, 0, 0, 0, 0, 0, 0, 0, mga.ComponentVendorCode)

	// First transmission is the stop request.
	require.Equal(t, stop, conn.waitWrite(t, time.Second))

	// The module acknowledges; the driver must query the interval base
	// time next. An unanswered request may be retried before the
	// acknowledgment is picked up, so scan until the query appears.
	conn.inject([]byte{0x06, 0x19, 0x00, 0xe1})
	waitForRequest(t, conn, interval, stop)
	require.Equal(t, []byte{0x10, 0x02, 0x02, 0xff, 0xed}, interval)
	require.Equal(t, uint32(idGetIntervalBaseTime), drv.Current().ID())

	// The module rejects the query with "Frame Not Supported"; the
	// driver skips to the vendor-code read.
	conn.inject([]byte{0x15, 0x02, 0x01, 0x12, 0xd8})
	waitForRequest(t, conn, vendor, interval)
	require.Equal(t, uint32(idDeviceComponentBase|mga.ComponentVendorCode), drv.Current().ID())
}

// A parameter-detailed-status frame reaches the armed state through the
// reader path and updates the session flags.
func TestScenario_DetailedStatusUpdatesSessionFlags(t *testing.T) {
	conn := newScriptConn()
	drv := New(conn, Options{TickInterval: 10 * time.Millisecond})
	drv.TransitionTo(newTransmitPatientData())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	// Wait out the subscription request, then stream the 0x0E frame.
	conn.waitWrite(t, time.Second)
	f := contFrame(t, mga.SelParamDetailed, map[int]byte{7: 0xde, 12: 0x01})
	conn.inject(f.Raw())

	waitFor(t, time.Second, func() bool { return drv.NeedsExternalData() },
		"needsExternalData not set from the streamed frame")
	require.EqualValues(t, 0xde, drv.HSPByte())
	waitFor(t, time.Second, func() bool { return drv.Current().ID() == idMeasurementMode },
		"driver did not choose the measurement-mode branch")
}

// Desync garbage ahead of a valid frame is dropped on the live reader
// path as well.
func TestScenario_ReaderRecoversFromDesync(t *testing.T) {
	conn := newScriptConn()
	drv := New(conn, Options{TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go drv.Run(ctx)

	conn.waitWrite(t, time.Second)
	conn.inject([]byte{0xff, 0xff, 0x06, 0x19, 0x00, 0xe1})

	waitFor(t, time.Second, func() bool { return drv.Current().ID() == idGetIntervalBaseTime },
		"stop acknowledgment behind garbage was not recovered")
}

// A fatal transport error terminates the session through Run.
func TestScenario_TransportErrorFatal(t *testing.T) {
	conn := &failingConn{}
	drv := New(conn, Options{TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := drv.Run(ctx)
	require.Error(t, err)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "the read failure must end the session")
}

type failingConn struct{}

func (f *failingConn) Read(p []byte) (int, error)  { return 0, errReadBroken }
func (f *failingConn) Write(p []byte) (int, error) { return len(p), nil }

var errReadBroken = errTransport("serial line gone")

type errTransport string

func (e errTransport) Error() string { return string(e) }
