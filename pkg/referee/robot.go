// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

// Client id offset for operator clients (client id = ClientIDBase + robot id)
const ClientIDBase = 0x0100

// Identity is the robot this session runs on, as reported by the referee
type Identity struct {
	RobotID  RobotID
	Alliance Alliance
	ClientID uint16 // 0 when the robot has no operator client
}

// AllianceOf returns the side of a robot id
func AllianceOf(id RobotID) Alliance {
	switch {
	case id >= RedHero && id <= RedRadar:
		return AllianceRed
	case id >= BlueHero && id <= BlueRadar:
		return AllianceBlue
	default:
		return AllianceUnknown
	}
}

// HasClient reports whether the robot has an operator client. Sentry, dart
// and radar stations do not.
func HasClient(id RobotID) bool {
	return (id >= RedHero && id <= RedAerial) || (id >= BlueHero && id <= BlueAerial)
}

// IdentityOf derives alliance and client id from a robot id
func IdentityOf(id RobotID) Identity {
	ident := Identity{RobotID: id, Alliance: AllianceOf(id)}
	if HasClient(id) {
		ident.ClientID = ClientIDBase + uint16(id)
	}
	return ident
}

// IsHero reports whether the robot carries the 42mm launcher
func IsHero(id RobotID) bool {
	return id == RedHero || id == BlueHero
}

// ShootSpeedLimit clamps a requested speed grade to the referee's current
// limit. A limit the table does not know leaves the request unchanged.
func ShootSpeedLimit(status GameRobotStatus, requested ShootSpeed) ShootSpeed {
	if IsHero(status.RobotID) {
		switch status.Shooter42mm.SpeedLimit {
		case 10:
			return Speed10MPerSecond
		case 16:
			return Speed16MPerSecond
		}
		return requested
	}

	switch status.Shooter17mm1.SpeedLimit {
	case 15:
		return Speed15MPerSecond
	case 18:
		return Speed18MPerSecond
	case 30:
		return Speed30MPerSecond
	}
	return requested
}

func (s ShootSpeed) String() string {
	switch s {
	case SpeedZero:
		return "0m/s"
	case Speed10MPerSecond:
		return "10m/s"
	case Speed15MPerSecond:
		return "15m/s"
	case Speed16MPerSecond:
		return "16m/s"
	case Speed18MPerSecond:
		return "18m/s"
	case Speed30MPerSecond:
		return "30m/s"
	default:
		return "UNKNOWN"
	}
}
