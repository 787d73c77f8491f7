// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/pkg/referee"
)

var packetTestTimeout int

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid referee frame",
	Long: `Wait for a valid referee frame on the connection until timeout.

Invalid bytes are skipped; only a frame that passes both the header CRC8 and
the frame CRC16 counts.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(packetTestTimeout)*time.Second)
	defer cancel()

	var got *referee.Frame
	l, err := openLink(ctx, nil, referee.WithObserver(func(f *referee.Frame, _ referee.Record, _ error) {
		if got == nil {
			got = f
		}
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer l.Close()

	fmt.Printf("Refstat - Packet Test\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid referee frame...\n\n")

	err = l.run(ctx, func() error {
		if got != nil {
			return errStop
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	if got == nil {
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", packetTestTimeout)
		os.Exit(1)
	}

	if skipped := l.session.Stats().SkippedBytes; skipped > 0 {
		fmt.Printf("(skipped %d invalid bytes before sync)\n", skipped)
	}
	fmt.Printf("SUCCESS: Received valid frame\n")
	fmt.Printf("  Command: %s (0x%04X)\n", referee.FormatCmdID(got.CmdID()), got.CmdID())
	fmt.Printf("  Sequence: %d\n", got.Seq())
	fmt.Printf("  Length: %d bytes\n", got.Length())
	fmt.Printf("  CRC: 0x%04X\n", got.CRC())
	return nil
}
