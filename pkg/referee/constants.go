// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package referee implements the client side of the referee system serial
// protocol.
//
// The referee box streams checksummed telemetry frames (game state, robot
// status, damage, shooting data) and accepts command frames (client UI
// graphics, robot-to-robot interactive data). This package provides CRC
// helpers, the frame codec, typed telemetry records, a snapshot model, command
// builders and a Session that ties them together.
package referee

// Protocol framing
const (
	StartByte = 0xA5

	HeaderLength    = 5 // SOF(1) + data_length(2) + sequence(1) + crc8(1)
	CmdIDLength     = 2
	TailLength      = 2
	FrameOverhead   = HeaderLength + CmdIDLength + TailLength
	MaxFrameSize    = 128
	MaxPayloadSize  = MaxFrameSize - FrameOverhead // 119
	RxBufferSize    = 256
	payloadOffset   = HeaderLength + CmdIDLength
	headerCRCOffset = 4
)

// CRC configuration
const (
	CRC8Seed  = 0xFF
	CRC16Seed = 0xFFFF
)

// Command ids - game state (referee → all robots) 0x00xx
const (
	CmdGameStatus           uint16 = 0x0001
	CmdGameResult           uint16 = 0x0002
	CmdGameRobotHP          uint16 = 0x0003
	CmdDartStatus           uint16 = 0x0004
	CmdICRABuffDebuffStatus uint16 = 0x0005
)

// Command ids - field events 0x01xx
const (
	CmdEventData              uint16 = 0x0101
	CmdSupplyProjectileAction uint16 = 0x0102
	CmdRefereeWarning         uint16 = 0x0104
	CmdDartRemainingTime      uint16 = 0x0105
)

// Command ids - robot state 0x02xx
const (
	CmdGameRobotStatus   uint16 = 0x0201
	CmdPowerHeatData     uint16 = 0x0202
	CmdGameRobotPos      uint16 = 0x0203
	CmdBuff              uint16 = 0x0204
	CmdAerialRobotEnergy uint16 = 0x0205
	CmdRobotHurt         uint16 = 0x0206
	CmdShootData         uint16 = 0x0207
	CmdBulletRemaining   uint16 = 0x0208
	CmdRFIDStatus        uint16 = 0x0209
	CmdDartClientCmd     uint16 = 0x020A
)

// Command ids - interaction 0x03xx
const (
	CmdInteractiveData      uint16 = 0x0301
	CmdCustomControllerData uint16 = 0x0302
	CmdMapCommand           uint16 = 0x0303
)

// Data command ids carried inside an InteractiveData (0x0301) payload
const (
	DataCmdDeleteLayer   uint16 = 0x0100
	DataCmdDrawGraphic1  uint16 = 0x0101
	DataCmdDrawGraphic2  uint16 = 0x0102
	DataCmdDrawGraphic5  uint16 = 0x0103
	DataCmdDrawGraphic7  uint16 = 0x0104
	DataCmdDrawCharacter uint16 = 0x0110

	// Robot-to-robot data commands occupy 0x0200-0x02FF.
	DataCmdRobotMin uint16 = 0x0200
	DataCmdRobotMax uint16 = 0x02FF
)

// Interactive payload sizes
const (
	InteractiveHeaderLength = 6
	GraphicLength           = 15
	CharacterDataLength     = 30
	CustomControllerMax     = 30
)

// RobotID identifies a robot on the field
type RobotID uint8

// Robot id values
const (
	RedHero      RobotID = 1
	RedEngineer  RobotID = 2
	RedStandard3 RobotID = 3
	RedStandard4 RobotID = 4
	RedStandard5 RobotID = 5
	RedAerial    RobotID = 6
	RedSentry    RobotID = 7
	RedDart      RobotID = 8
	RedRadar     RobotID = 9

	BlueHero      RobotID = 101
	BlueEngineer  RobotID = 102
	BlueStandard3 RobotID = 103
	BlueStandard4 RobotID = 104
	BlueStandard5 RobotID = 105
	BlueAerial    RobotID = 106
	BlueSentry    RobotID = 107
	BlueDart      RobotID = 108
	BlueRadar     RobotID = 109
)

// Alliance is the side a robot plays for
type Alliance int

// Alliance values
const (
	AllianceUnknown Alliance = iota
	AllianceRed
	AllianceBlue
)

func (a Alliance) String() string {
	switch a {
	case AllianceRed:
		return "RED"
	case AllianceBlue:
		return "BLUE"
	default:
		return "UNKNOWN"
	}
}

// GameProgress is the stage reported in GameStatus
type GameProgress uint8

// Game progress values
const (
	ProgressNotStarted GameProgress = iota
	ProgressPreparing
	ProgressSelfCheck
	ProgressCountdown
	ProgressRunning
	ProgressSettling
)

// ShootSpeed is a muzzle speed grade requested from the shooter
type ShootSpeed int

// Shoot speed grades
const (
	SpeedZero ShootSpeed = iota
	Speed10MPerSecond
	Speed15MPerSecond
	Speed16MPerSecond
	Speed18MPerSecond
	Speed30MPerSecond
)

// Chassis, gimbal and shooter modes shown on the operator status panel
const (
	ChassisRaw uint8 = iota
	ChassisFollow
	ChassisGyro
	ChassisTwist
)

const (
	GimbalRate uint8 = iota
	GimbalTrack
	GimbalDirect
)

const (
	ShooterStop uint8 = iota
	ShooterReady
	ShooterPush
)
