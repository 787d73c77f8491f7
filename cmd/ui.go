// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

var (
	uiRobot      uint8
	uiWait       time.Duration
	uiInterval   time.Duration
	uiOnce       bool
	uiClear      bool
	uiYaw        float64
	uiCapacitor  float64
	uiChassis    uint8
	uiGimbal     uint8
	uiShooter    uint8
	uiUnlimited  bool
	uiBurst      bool
	uiAttackBase bool
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Draw the operator status panel on the client",
	Long: `Draw the operator status panel: four armor plate circles around the
screen center, plus capacitor, chassis, gimbal, shooter and attack target
labels.

The first pass adds every figure; later passes modify them so armor plates
flash while they are being hit and the capacitor label follows the power
manager's capacity channel when it is reported. Use --once to draw a single
pass and --clear to remove the panel on exit.

Mode values:
  chassis: 0 raw, 1 follow, 2 gyro, 3 twist
  gimbal:  0 rate, 1 track, 2 direct
  shooter: 0 stop, 1 ready, 2 push`,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
	f := uiCmd.Flags()
	f.Uint8Var(&uiRobot, "robot", 0, "Own robot id (default from robot status)")
	f.DurationVar(&uiWait, "wait", 5*time.Second, "How long to wait for robot status")
	f.DurationVar(&uiInterval, "interval", 100*time.Millisecond, "Refresh interval")
	f.BoolVar(&uiOnce, "once", false, "Draw once and exit")
	f.BoolVar(&uiClear, "clear", false, "Delete the panel on exit")
	f.Float64Var(&uiYaw, "yaw", 0, "Gimbal yaw relative to the chassis (degrees)")
	f.Float64Var(&uiCapacitor, "capacitor", 0, "Capacitor charge (percent) when not reported by the power manager")
	f.Uint8Var(&uiChassis, "chassis", referee.ChassisFollow, "Chassis mode")
	f.Uint8Var(&uiGimbal, "gimbal", referee.GimbalRate, "Gimbal mode")
	f.Uint8Var(&uiShooter, "shooter", referee.ShooterStop, "Shooter mode")
	f.BoolVar(&uiUnlimited, "unlimited", false, "Chassis power limit lifted")
	f.BoolVar(&uiBurst, "burst", false, "Shooter in burst fire")
	f.BoolVar(&uiAttackBase, "attack-base", false, "Aim assist targets the base")
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var power powermgr.State
	l, err := openLink(ctx, func(st powermgr.State) { power = st })
	if err != nil {
		return err
	}
	defer l.Close()

	ident, err := resolveIdentity(ctx, l, uiRobot, uiWait)
	if err != nil {
		return err
	}
	commander := referee.NewCommander(nil, ident)
	logger.Info().Uint8("robot_id", uint8(ident.RobotID)).Uint16("client_id", ident.ClientID).Msg("drawing status panel")

	draw := func(op referee.GraphicOperate) error {
		snap := l.session.Snapshot()
		st := referee.PanelState{
			Yaw:         uiYaw * math.Pi / 180,
			ArmorHit:    snap.ArmorHit,
			Now:         time.Now(),
			Capacitor:   uiCapacitor,
			ChassisMode: uiChassis,
			Unlimited:   uiUnlimited,
			GimbalMode:  uiGimbal,
			ShooterMode: uiShooter,
			Burst:       uiBurst,
			AttackBase:  uiAttackBase,
		}
		if capacity, ok := power.Capacity(); ok {
			st.Capacitor = capacity
		}
		frames, err := commander.StatusPanel(st, op)
		if err != nil {
			return err
		}
		return referee.WriteFrames(l.conn, frames)
	}

	if err := draw(referee.OperateAdd); err != nil {
		return err
	}

	if !uiOnce {
		next := time.Now().Add(uiInterval)
		err = l.run(ctx, func() error {
			if now := time.Now(); now.After(next) {
				next = now.Add(uiInterval)
				return draw(referee.OperateModify)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	if uiClear {
		return draw(referee.OperateDelete)
	}
	return nil
}
