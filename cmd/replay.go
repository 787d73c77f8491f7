// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/internal/journal"
	"github.com/Thermoquad/refstat/pkg/referee"
)

var (
	replayPath  string
	replayCmdID uint16
	replayLimit int
	replayPower bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Decode frames from a recorded journal",
	Long: `Decode the frames stored by 'record' with the current command table and
print them like raw_log, followed by the last recorded snapshot.

No connection is opened.`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayPath, "input", "i", "", "Journal database path (default from config, refstat.db)")
	replayCmd.Flags().Uint16Var(&replayCmdID, "cmd", 0, "Only replay this command id")
	replayCmd.Flags().IntVar(&replayLimit, "limit", 1000, "Maximum frames to print")
	replayCmd.Flags().BoolVar(&replayPower, "power", false, "Also list power manager readings")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := appConfig.Record.Path
	if cmd.Flags().Changed("input") {
		path = replayPath
	}

	db, err := journal.OpenExisting(ctx, path)
	if err != nil {
		return err
	}
	j, err := journal.New(db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer j.Close()

	stats := referee.NewStatistics()
	err = j.Replay(ctx, referee.DefaultRegistry(), replayCmdID, replayLimit, func(e journal.FrameEntry, rec referee.Record, derr error) {
		var anomalies []referee.ValidationError
		if derr == nil {
			anomalies = referee.ValidateRecord(rec)
		}
		stats.TotalFrames++
		stats.RecordDispatch(rec, derr, anomalies)

		fmt.Printf("[%s] %s (0x%04X) seq=%d len=%d\n",
			e.ReceivedAt.Format("15:04:05.000"), referee.FormatCmdID(e.CmdID), e.CmdID, e.Seq, len(e.Payload))
		if derr != nil {
			fmt.Printf("  dispatch error: %v\n", derr)
			return
		}
		fmt.Print(referee.FormatRecord(rec))
	})
	if err != nil {
		return err
	}

	if replayPower {
		readings, err := j.ListPower(ctx, replayLimit)
		if err != nil {
			return err
		}
		for _, p := range readings {
			fmt.Printf("[%s] POWER %s\n", p.State.UpdatedAt.Format("15:04:05.000"), p.State)
		}
	}

	snap, err := j.LatestSnapshot(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fmt.Printf("\nNo snapshots recorded\n")
	case err != nil:
		return err
	default:
		fmt.Printf("\nLast snapshot at %s\n", snap.TakenAt.Format("2006-01-02 15:04:05.000"))
		if snap.Snapshot.Has(referee.CmdGameRobotStatus) {
			fmt.Print(referee.FormatRecord(snap.Snapshot.GameRobotStatus))
		}
		if snap.Snapshot.Has(referee.CmdGameStatus) {
			fmt.Print(referee.FormatRecord(snap.Snapshot.GameStatus))
		}
	}

	fmt.Println()
	fmt.Print(stats.String())
	return nil
}
