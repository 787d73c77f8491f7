// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

var rawLogPower bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded frames in human-readable format",
	Long: `Continuously decode and display referee frames as they arrive.

Each frame is shown with its timestamp, command name, sequence number and
decoded fields. Frames whose payload does not match the command table are
shown with the dispatch error.

With --power, power manager readings from the shared link are printed too.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogPower, "power", false, "Also print power manager readings")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var onPower func(powermgr.State)
	if rawLogPower {
		onPower = func(st powermgr.State) {
			fmt.Printf("[%s] POWER %s\n", st.UpdatedAt.Format("15:04:05.000"), st)
		}
	}

	l, err := openLink(ctx, onPower, referee.WithObserver(func(f *referee.Frame, rec referee.Record, err error) {
		fmt.Print(referee.FormatFrame(f, rec, err))
	}))
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Printf("Refstat - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	start := time.Now()
	err = l.run(ctx, nil)
	logger.Info().Dur("elapsed", time.Since(start)).Uint64("frames", l.session.Stats().ValidFrames).Msg("raw log finished")
	return err
}
