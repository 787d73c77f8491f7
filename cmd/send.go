// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/pkg/referee"
)

var (
	sendDataCmd  uint16
	sendTo       uint8
	sendData     uint8
	sendRobot    uint8
	sendWait     time.Duration
	sendRepeat   int
	sendInterval time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send interaction data to another robot",
	Long: `Send one byte of robot-to-robot interaction data (command 0x0301).

The data command id must be in 0x0200-0x02FF and the receiver must be a
known robot id. The sender is the robot id reported by the referee, or
--robot when the referee box is not yet reporting.

Examples:
  # Red standard 3 tells the red sentry "1"
  refstat send --to 7 --data 1

  # Explicit sender and data channel
  refstat send --robot 103 --to 107 --data-cmd 0x0201 --data 0x10`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Uint16Var(&sendDataCmd, "data-cmd", referee.DataCmdRobotMin, "Data command id (0x0200-0x02FF)")
	sendCmd.Flags().Uint8Var(&sendTo, "to", 0, "Receiver robot id")
	sendCmd.Flags().Uint8Var(&sendData, "data", 0, "Data byte")
	sendCmd.Flags().Uint8Var(&sendRobot, "robot", 0, "Sender robot id (default from robot status)")
	sendCmd.Flags().DurationVar(&sendWait, "wait", 5*time.Second, "How long to wait for robot status")
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of times to send")
	sendCmd.Flags().DurationVar(&sendInterval, "interval", 100*time.Millisecond, "Delay between repeats")
	_ = sendCmd.MarkFlagRequired("to")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	l, err := openLink(ctx, nil)
	if err != nil {
		return err
	}
	defer l.Close()

	ident, err := resolveIdentity(ctx, l, sendRobot, sendWait)
	if err != nil {
		return err
	}
	commander := referee.NewCommander(nil, ident)

	for i := 0; i < max(sendRepeat, 1); i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(sendInterval):
			}
		}
		frame, err := commander.SendInteractiveData(sendDataCmd, referee.RobotID(sendTo), sendData)
		if err != nil {
			return err
		}
		if err := referee.WriteFrames(l.conn, [][]byte{frame}); err != nil {
			return err
		}
		logger.Info().
			Uint8("from", uint8(ident.RobotID)).
			Uint8("to", sendTo).
			Uint16("data_cmd", sendDataCmd).
			Uint8("data", sendData).
			Msg("interaction data sent")
	}
	return nil
}
