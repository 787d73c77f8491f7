// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

var (
	linkCheckDuration int
	linkCheckHex      bool
)

var linkCheckCmd = &cobra.Command{
	Use:   "link_check",
	Short: "Test raw connection stability",
	Long: `Hold the connection open without decoding and report what arrives.

Counts bytes, reads, referee start bytes (0xA5) and power manager headers
(0x55 0xAA). Useful for debugging baud rate mismatches, a flaky UART or a
WebSocket bridge that drops the connection.

Exit codes:
  0 - Test completed normally
  1 - Connection dropped during the test
  2 - Connection error`,
	RunE: runLinkCheck,
}

func init() {
	rootCmd.AddCommand(linkCheckCmd)
	linkCheckCmd.Flags().IntVar(&linkCheckDuration, "duration", 30, "Test duration in seconds")
	linkCheckCmd.Flags().BoolVar(&linkCheckHex, "hex", false, "Dump every read as hex")
}

func runLinkCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	conn, connInfo, err := OpenConnection(ctx, appConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Refstat - Link Check\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkCheckDuration)

	start := time.Now()
	endTime := start.Add(time.Duration(linkCheckDuration) * time.Second)
	nextHeartbeat := start.Add(time.Second)

	var bytesReceived, reads, sofs, powerHeaders int
	var prev byte
	report := func(result string) {
		fmt.Printf("\n--- Test Results ---\n")
		fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Reads: %d\n", reads)
		fmt.Printf("Bytes received: %d\n", bytesReceived)
		fmt.Printf("Referee start bytes: %d\n", sofs)
		fmt.Printf("Power manager headers: %d\n", powerHeaders)
		fmt.Printf("Result: %s\n", result)
	}

	fmt.Printf("Listening for data...\n\n")
	buf := make([]byte, referee.RxBufferSize)
	for time.Now().Before(endTime) {
		if ctx.Err() != nil {
			report("INTERRUPTED")
			return nil
		}

		// returns 0, nil after the read timeout on a quiet link
		n, err := conn.Read(buf)
		if err != nil {
			fmt.Printf("\n[%s] Connection error: %v\n", time.Now().Format("15:04:05.000"), err)
			report("FAILED (connection error)")
			os.Exit(1)
		}
		if n > 0 {
			data := buf[:n]
			reads++
			bytesReceived += n
			sofs += bytes.Count(data, []byte{referee.StartByte})
			for _, b := range data {
				if prev == powermgr.Header0 && b == powermgr.Header1 {
					powerHeaders++
				}
				prev = b
			}
			if linkCheckHex {
				fmt.Printf("[%s] Received %d bytes: %x\n", time.Now().Format("15:04:05.000"), n, data)
			}
		}

		if now := time.Now(); !now.Before(nextHeartbeat) {
			fmt.Printf("[%s] Still connected... %d bytes (%.0fs remaining)\n",
				now.Format("15:04:05.000"), bytesReceived, endTime.Sub(now).Seconds())
			nextHeartbeat = now.Add(time.Second)
		}
	}

	report("PASSED (connection stable)")
	return nil
}
