// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/pkg/referee"
)

var (
	showAll       bool
	statsInterval int
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze malformed frames and anomalous values",
	Long: `Track framing errors, dispatch failures and anomalous telemetry with statistics.

This command validates each frame and detects:
  - Header CRC8 and frame CRC16 failures, impossible lengths
  - Payloads whose length does not match the command table
  - Anomalous telemetry values (HP above max, unknown robot ids, bullet
    speeds above 40 m/s, chassis power out of range)
  - Statistics and trends (frame rate, error rate, skipped bytes)

By default, only errors are displayed. Use --show-all to display valid frames too.
Statistics summaries are printed at a configurable interval.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var stats *referee.Statistics
	lastFraming := uint64(0)

	l, err := openLink(ctx, nil, referee.WithObserver(func(f *referee.Frame, rec referee.Record, err error) {
		if err != nil {
			printDispatchError(f, err)
			return
		}
		if anomalies := referee.ValidateRecord(rec); len(anomalies) > 0 {
			printValidationErrors(f, anomalies)
			return
		}
		if showAll {
			fmt.Print(referee.FormatFrame(f, rec, nil))
		}
	}))
	if err != nil {
		return err
	}
	defer l.Close()
	stats = l.session.Stats()

	fmt.Printf("Refstat - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	synchronized := false
	nextStats := time.Now().Add(time.Duration(statsInterval) * time.Second)

	err = l.run(ctx, func() error {
		if !synchronized && stats.ValidFrames > 0 {
			synchronized = true
			if stats.SkippedBytes > 0 {
				fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", stats.SkippedBytes)
			} else {
				fmt.Printf("[SYNC] Synchronized\n\n")
			}
			lastFraming = stats.FramingErrors()
		}

		// Framing errors before the first valid frame are sync noise
		if framing := stats.FramingErrors(); synchronized && framing > lastFraming {
			printFramingErrors(framing - lastFraming)
			lastFraming = framing
		}

		if now := time.Now(); now.After(nextStats) {
			nextStats = now.Add(time.Duration(statsInterval) * time.Second)
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
		return nil
	})

	fmt.Println()
	fmt.Print(stats.String())
	return err
}

// printFramingErrors prints rejected frame candidates since the last poll
func printFramingErrors(n uint64) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mFRAMING ERROR:\033[0m %d candidate(s) rejected\n", timestamp, n)
	fmt.Printf("  >>> DECODE FAILED <<<\n\n")
}

// printDispatchError prints a checksummed frame whose payload did not decode
func printDispatchError(f *referee.Frame, err error) {
	timestamp := f.Timestamp().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDISPATCH ERROR:\033[0m %s (0x%04X)\n", timestamp, referee.FormatCmdID(f.CmdID()), f.CmdID())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m\n")
	fmt.Printf("  %v\n", err)
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// printValidationErrors prints the anomalies of one record
func printValidationErrors(f *referee.Frame, anomalies []referee.ValidationError) {
	timestamp := f.Timestamp().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (0x%04X)\n", timestamp, referee.FormatCmdID(f.CmdID()), f.CmdID())
	fmt.Printf("  CRC: \033[1;32mOK\033[0m\n")

	for i, a := range anomalies {
		switch a.Type {
		case referee.AnomalyHPOverMax:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
			fmt.Printf("    remain_hp=%v max_hp=%v\n", a.Details["remain_hp"], a.Details["max_hp"])

		case referee.AnomalyBulletSpeed, referee.AnomalyInvalidPower:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, a.Message)
		}
	}
	fmt.Printf("  >>> RECORD APPLIED <<<\n\n")
}
