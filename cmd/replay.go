// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shamexln/capno/pkg/capture"
	"github.com/shamexln/capno/pkg/mga"
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Render a recorded frame capture",
	Long: `Decode a capture file recorded with "capno watch --capture" and print
every frame in the same human-readable form, for offline diagnostics.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open capture file: %w", err)
	}
	defer f.Close()

	stats := mga.NewStatistics()
	r := capture.NewReader(f)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		frame, err := mga.FrameFromBytes(rec.Raw)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}
		stats.Update(frame)
		fmt.Printf("[%s]\n%s", rec.Time.Format("15:04:05.000"), mga.FormatFrame(frame))
	}
	fmt.Print(stats.String())
	return nil
}
