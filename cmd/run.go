// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/shamexln/capno/pkg/driver"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the sensor module through its operating sequence",
	Long: `Run the full driver session: silence any stale continuous stream, read
module identification, configure breath detection and features,
subscribe to the continuous status stream, and supervise the module
until interrupted.

Everything the driver decides is observable in the log; raise -v for
per-state detail and received frame dumps.`,
	RunE: runDriver,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDriver(cmd *cobra.Command, args []string) error {
	defer glog.Flush()

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	glog.Infof("session start: %s", connInfo)

	drv := driver.New(conn, driver.Options{
		Confirm: confirmOnStdin,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = drv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		glog.Info("session stopped")
		return nil
	}
	return err
}

// confirmOnStdin blocks until the operator acknowledges that the
// mainstream sensor is ready for zeroing.
func confirmOnStdin() {
	fmt.Fprintln(os.Stderr, "Prepare the mainstream sensor for zeroing, then press enter (y):")
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if answer := strings.TrimSpace(line); answer != "n" {
			return
		}
		fmt.Fprintln(os.Stderr, "Waiting for confirmation (y):")
	}
}
