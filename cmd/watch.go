// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shamexln/capno/pkg/capture"
	"github.com/shamexln/capno/pkg/mga"
)

var capturePath string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Display received frames in human-readable format",
	Long: `Continuously reassemble and display protocol frames as they arrive,
without driving the module. Useful for eavesdropping on a link driven by
another host, or for checking what a module left streaming.

With --capture, every reassembled frame is also recorded to a CBOR
capture file that "capno replay" can render later. A statistics summary
prints on exit.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&capturePath, "capture", "", "Record frames to a capture file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	var rec *capture.Writer
	if capturePath != "" {
		f, err := os.Create(capturePath)
		if err != nil {
			return fmt.Errorf("create capture file: %w", err)
		}
		defer f.Close()
		rec = capture.NewWriter(f)
	}

	fmt.Printf("Capno - Frame Watch\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := mga.NewStatistics()
	defer func() { fmt.Print(stats.String()) }()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	asm := mga.NewReassembler()
	buf := make([]byte, 128)
	var dropped uint64

	for {
		select {
		case <-interrupt:
			return nil
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}
		if n == 0 {
			continue
		}

		for _, frame := range asm.Push(buf[:n]) {
			stats.Update(frame)
			fmt.Print(mga.FormatFrame(frame))
			if rec != nil {
				if err := rec.Write(frame.Timestamp(), frame.Raw()); err != nil {
					return err
				}
			}
		}
		if d := asm.Dropped(); d > dropped {
			stats.AddDropped(d - dropped)
			dropped = d
		}
	}
}
