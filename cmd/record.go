// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/internal/journal"
	"github.com/Thermoquad/refstat/internal/logging"
	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

var (
	recordPath     string
	recordInterval time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record frames and snapshots to a SQLite journal",
	Long: `Write every checksummed frame, power manager reading and a periodic
telemetry snapshot to a SQLite database.

Frames are stored raw with their dispatch error, if any, so a session can be
replayed through a newer command table later. Snapshots are stored as CBOR.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordPath, "output", "o", "", "Journal database path (default from config, refstat.db)")
	recordCmd.Flags().DurationVar(&recordInterval, "snapshot-interval", 0, "Snapshot interval (default from config, 1s)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	path := appConfig.Record.Path
	if cmd.Flags().Changed("output") {
		path = recordPath
	}
	interval := appConfig.Record.SnapshotInterval
	if cmd.Flags().Changed("snapshot-interval") {
		if recordInterval <= 0 {
			return fmt.Errorf("snapshot interval must be positive")
		}
		interval = recordInterval
	}

	db, err := journal.Open(ctx, path)
	if err != nil {
		return err
	}
	j, err := journal.New(db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer j.Close()

	writer := journal.NewWriter(logging.Component(logger, "journal"), 1024)
	writerCtx, stopWriter := context.WithCancel(context.Background())
	writer.Start(writerCtx)

	var frames, snapshots, powerStates uint64
	onPower := func(st powermgr.State) {
		powerStates++
		writer.Enqueue("power", func(ctx context.Context) error {
			return j.InsertPower(ctx, st)
		})
	}
	l, err := openLink(ctx, onPower, referee.WithObserver(func(f *referee.Frame, _ referee.Record, dispatchErr error) {
		frames++
		writer.Enqueue("frame", func(ctx context.Context) error {
			return j.InsertFrame(ctx, f, dispatchErr)
		})
	}))
	if err != nil {
		stopWriter()
		return err
	}
	defer l.Close()

	fmt.Printf("Refstat - Recorder\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Journal: %s (snapshot every %s)\n", path, interval)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	lastSnapshot := time.Now()
	err = l.run(ctx, func() error {
		now := time.Now()
		if now.Sub(lastSnapshot) < interval {
			return nil
		}
		lastSnapshot = now
		snap := l.session.Snapshot()
		if snap.LastUpdate.IsZero() {
			return nil
		}
		snapshots++
		writer.Enqueue("snapshot", func(ctx context.Context) error {
			return j.InsertSnapshot(ctx, now, snap)
		})
		return nil
	})

	stopWriter()
	writer.Flush(context.Background())
	dropped, failed := writer.Stats()

	logger.Info().
		Uint64("frames", frames).
		Uint64("snapshots", snapshots).
		Uint64("power", powerStates).
		Uint64("dropped", dropped).
		Uint64("failed", failed).
		Msg("recording finished")
	return err
}
