// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame and its dispatch result into a human-readable
// string
func FormatFrame(f *Frame, rec Record, dispatchErr error) string {
	timestamp := f.Timestamp().Format("15:04:05.000")
	name := FormatCmdID(f.CmdID())

	result := fmt.Sprintf("[%s] %s (0x%04X) seq=%d len=%d\n", timestamp, name, f.CmdID(), f.Seq(), f.Length())

	switch {
	case dispatchErr != nil:
		result += fmt.Sprintf("  dispatch error: %v\n", dispatchErr)
	case rec != nil:
		result += FormatRecord(rec)
	}

	return result
}

// FormatCmdID returns the human-readable name for a cmd id
func FormatCmdID(cmdID uint16) string {
	for _, k := range defaultKinds {
		if k.CmdID == cmdID {
			return k.Name
		}
	}
	return "UNKNOWN"
}

// FormatRecord formats the fields of a decoded record, one indented line per
// group
func FormatRecord(rec Record) string {
	switch r := rec.(type) {
	case GameStatus:
		return fmt.Sprintf("  type=%d progress=%s remaining=%s sync=%d\n",
			r.GameType, formatProgress(r.GameProgress), formatDuration(uint64(r.StageRemainTime)), r.SyncTimestamp)

	case GameResult:
		return fmt.Sprintf("  winner=%s\n", formatWinner(r.Winner))

	case GameRobotHP:
		return fmt.Sprintf("  red:  hero=%d eng=%d std=%d/%d/%d sentry=%d outpost=%d base=%d\n"+
			"  blue: hero=%d eng=%d std=%d/%d/%d sentry=%d outpost=%d base=%d\n",
			r.RedHero, r.RedEngineer, r.RedStandard3, r.RedStandard4, r.RedStandard5, r.RedSentry, r.RedOutpost, r.RedBase,
			r.BlueHero, r.BlueEngineer, r.BlueStandard3, r.BlueStandard4, r.BlueStandard5, r.BlueSentry, r.BlueOutpost, r.BlueBase)

	case DartStatus:
		return fmt.Sprintf("  belong=%d remaining=%ds\n", r.DartBelong, r.StageRemainingTime)

	case ICRABuffDebuffZoneStatus:
		zones := make([]string, len(r.Zones))
		for i, z := range r.Zones {
			state := "off"
			if z.Active {
				state = fmt.Sprintf("on(%d)", z.BuffDebuff)
			}
			zones[i] = fmt.Sprintf("F%d=%s", i+1, state)
		}
		return fmt.Sprintf("  zones: %s\n  bullets: red=%d/%d blue=%d/%d\n", strings.Join(zones, " "),
			r.Red1BulletLeft, r.Red2BulletLeft, r.Blue1BulletLeft, r.Blue2BulletLeft)

	case EventData:
		return fmt.Sprintf("  event=0x%08X\n", r.Event)

	case SupplyProjectileAction:
		return fmt.Sprintf("  supply=%d robot=%d step=%d num=%d\n", r.SupplyProjectileID, r.SupplyRobotID, r.Step, r.Num)

	case RefereeWarning:
		return fmt.Sprintf("  level=%d foul_robot=%d\n", r.Level, r.FoulRobotID)

	case DartRemainingTime:
		return fmt.Sprintf("  remaining=%ds\n", r.Seconds)

	case GameRobotStatus:
		ident := IdentityOf(r.RobotID)
		return fmt.Sprintf("  robot=%d (%s) level=%d hp=%d/%d power_limit=%dW\n"+
			"  17mm#1: cool=%d/%d speed=%dm/s  17mm#2: cool=%d/%d speed=%dm/s  42mm: cool=%d/%d speed=%dm/s\n"+
			"  output: gimbal=%t chassis=%t shooter=%t\n",
			r.RobotID, ident.Alliance, r.RobotLevel, r.RemainHP, r.MaxHP, r.ChassisPowerLimit,
			r.Shooter17mm1.CoolingRate, r.Shooter17mm1.CoolingLimit, r.Shooter17mm1.SpeedLimit,
			r.Shooter17mm2.CoolingRate, r.Shooter17mm2.CoolingLimit, r.Shooter17mm2.SpeedLimit,
			r.Shooter42mm.CoolingRate, r.Shooter42mm.CoolingLimit, r.Shooter42mm.SpeedLimit,
			r.GimbalOutput, r.ChassisOutput, r.ShooterOutput)

	case PowerHeatData:
		return fmt.Sprintf("  chassis: %.2fV %.2fA %.1fW buffer=%dJ\n  heat: 17mm#1=%d 17mm#2=%d 42mm=%d\n",
			float64(r.ChassisVolt)/1000, float64(r.ChassisCurrent)/1000, r.ChassisPower, r.ChassisPowerBuffer,
			r.Shooter17mm1Heat, r.Shooter17mm2Heat, r.Shooter42mmHeat)

	case GameRobotPos:
		return fmt.Sprintf("  x=%.2f y=%.2f z=%.2f yaw=%.1f\n", r.X, r.Y, r.Z, r.Yaw)

	case Buff:
		return fmt.Sprintf("  buff=0x%02X\n", r.PowerRuneBuff)

	case AerialRobotEnergy:
		return fmt.Sprintf("  attack_time=%ds\n", r.AttackTime)

	case RobotHurt:
		return fmt.Sprintf("  armor=%d type=%s\n", r.ArmorID, formatHurtType(r.HurtType))

	case ShootData:
		return fmt.Sprintf("  bullet_type=%d shooter=%d freq=%dHz speed=%.2fm/s\n", r.BulletType, r.ShooterID, r.BulletFreq, r.BulletSpeed)

	case BulletRemaining:
		return fmt.Sprintf("  17mm=%d 42mm=%d coin=%d\n", r.Bullet17mm, r.Bullet42mm, r.Coin)

	case RFIDStatus:
		return fmt.Sprintf("  status=0x%08X\n", r.Status)

	case DartClientCmd:
		return fmt.Sprintf("  opening=%d target=%d target_change=%ds launch_cmd=%ds\n",
			r.LaunchOpeningStatus, r.AttackTarget, r.TargetChangeTime, r.OperateLaunchCmdTime)

	case InteractiveData:
		return fmt.Sprintf("  data_cmd=0x%04X sender=%d receiver=%d data=% X\n", r.DataCmdID, r.SenderID, r.ReceiverID, r.Data)

	case CustomControllerData:
		return fmt.Sprintf("  data=% X\n", r.Data)

	case MapCommand:
		return fmt.Sprintf("  target=(%.2f, %.2f, %.2f) key=%q robot=%d\n", r.TargetX, r.TargetY, r.TargetZ, r.Key, r.TargetRobotID)

	case Unrecognized:
		return fmt.Sprintf("  payload=% X\n", r.Payload)

	default:
		return fmt.Sprintf("  %+v\n", rec)
	}
}

func formatProgress(p GameProgress) string {
	switch p {
	case ProgressNotStarted:
		return "NOT_STARTED"
	case ProgressPreparing:
		return "PREPARING"
	case ProgressSelfCheck:
		return "SELF_CHECK"
	case ProgressCountdown:
		return "COUNTDOWN"
	case ProgressRunning:
		return "RUNNING"
	case ProgressSettling:
		return "SETTLING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", p)
	}
}

func formatWinner(w uint8) string {
	switch w {
	case 0:
		return "DRAW"
	case 1:
		return "RED"
	case 2:
		return "BLUE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", w)
	}
}

func formatHurtType(t uint8) string {
	switch t {
	case HurtArmor:
		return "ARMOR"
	case HurtModuleOffline:
		return "MODULE_OFFLINE"
	case HurtOverSpeed:
		return "OVER_SPEED"
	case HurtOverHeat:
		return "OVER_HEAT"
	case HurtOverPower:
		return "OVER_POWER"
	case HurtCollision:
		return "COLLISION"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

// formatDuration converts seconds to a m:ss countdown
func formatDuration(seconds uint64) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func (p GameProgress) String() string {
	return formatProgress(p)
}

// FormatHurtType returns the name of a RobotHurt damage source
func FormatHurtType(t uint8) string {
	return formatHurtType(t)
}

// FormatWinner returns the name of a GameResult winner
func FormatWinner(w uint8) string {
	return formatWinner(w)
}

// FormatCountdown converts seconds to m:ss
func FormatCountdown(seconds uint64) string {
	return formatDuration(seconds)
}
