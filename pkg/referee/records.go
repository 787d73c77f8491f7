// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"encoding/binary"
	"math"
)

// Record is one decoded telemetry message
type Record interface {
	CmdID() uint16
}

// GameStatus (0x0001)
type GameStatus struct {
	GameType        uint8
	GameProgress    GameProgress
	StageRemainTime uint16 // seconds
	SyncTimestamp   uint64 // unix seconds
}

// GameResult (0x0002)
type GameResult struct {
	Winner uint8 // 0 draw, 1 red, 2 blue
}

// GameRobotHP (0x0003)
type GameRobotHP struct {
	RedHero      uint16
	RedEngineer  uint16
	RedStandard3 uint16
	RedStandard4 uint16
	RedStandard5 uint16
	RedSentry    uint16
	RedOutpost   uint16
	RedBase      uint16

	BlueHero      uint16
	BlueEngineer  uint16
	BlueStandard3 uint16
	BlueStandard4 uint16
	BlueStandard5 uint16
	BlueSentry    uint16
	BlueOutpost   uint16
	BlueBase      uint16
}

// DartStatus (0x0004)
type DartStatus struct {
	DartBelong         uint8
	StageRemainingTime uint16
}

// ZoneStatus is one buff/debuff zone of the ICRA field
type ZoneStatus struct {
	Active     bool
	BuffDebuff uint8 // 3-bit zone effect
}

// ICRABuffDebuffZoneStatus (0x0005)
type ICRABuffDebuffZoneStatus struct {
	Zones           [6]ZoneStatus
	Red1BulletLeft  uint16
	Red2BulletLeft  uint16
	Blue1BulletLeft uint16
	Blue2BulletLeft uint16
}

// EventData (0x0101)
type EventData struct {
	Event uint32 // bit field of field occupation and base state
}

// SupplyProjectileAction (0x0102)
type SupplyProjectileAction struct {
	SupplyProjectileID uint8
	SupplyRobotID      uint8
	Step               uint8
	Num                uint8
}

// RefereeWarning (0x0104)
type RefereeWarning struct {
	Level       uint8
	FoulRobotID uint8
}

// DartRemainingTime (0x0105)
type DartRemainingTime struct {
	Seconds uint8
}

// ShooterLimits are the referee-enforced limits of one launcher
type ShooterLimits struct {
	CoolingRate  uint16
	CoolingLimit uint16
	SpeedLimit   uint16 // m/s
}

// GameRobotStatus (0x0201)
type GameRobotStatus struct {
	RobotID           RobotID
	RobotLevel        uint8
	RemainHP          uint16
	MaxHP             uint16
	Shooter17mm1      ShooterLimits
	Shooter17mm2      ShooterLimits
	Shooter42mm       ShooterLimits
	ChassisPowerLimit uint16
	GimbalOutput      bool
	ChassisOutput     bool
	ShooterOutput     bool
}

// PowerHeatData (0x0202)
type PowerHeatData struct {
	ChassisVolt        uint16 // mV
	ChassisCurrent     uint16 // mA
	ChassisPower       float32
	ChassisPowerBuffer uint16 // J
	Shooter17mm1Heat   uint16
	Shooter17mm2Heat   uint16
	Shooter42mmHeat    uint16
}

// GameRobotPos (0x0203)
type GameRobotPos struct {
	X, Y, Z float32
	Yaw     float32
}

// Buff (0x0204)
type Buff struct {
	PowerRuneBuff uint8
}

// AerialRobotEnergy (0x0205)
type AerialRobotEnergy struct {
	AttackTime uint8
}

// Hurt types reported in RobotHurt
const (
	HurtArmor uint8 = iota
	HurtModuleOffline
	HurtOverSpeed
	HurtOverHeat
	HurtOverPower
	HurtCollision
)

// RobotHurt (0x0206)
type RobotHurt struct {
	ArmorID  uint8 // 0-3
	HurtType uint8
}

// ShootData (0x0207)
type ShootData struct {
	BulletType  uint8
	ShooterID   uint8
	BulletFreq  uint8 // Hz
	BulletSpeed float32
}

// BulletRemaining (0x0208)
type BulletRemaining struct {
	Bullet17mm uint16
	Bullet42mm uint16
	Coin       uint16
}

// RFIDStatus (0x0209)
type RFIDStatus struct {
	Status uint32
}

// DartClientCmd (0x020A)
type DartClientCmd struct {
	LaunchOpeningStatus  uint8
	AttackTarget         uint8
	TargetChangeTime     uint16
	OperateLaunchCmdTime uint16
}

// InteractiveData (0x0301)
type InteractiveData struct {
	DataCmdID  uint16
	SenderID   uint16
	ReceiverID uint16
	Data       []byte
}

// CustomControllerData (0x0302)
type CustomControllerData struct {
	Data []byte
}

// MapCommand (0x0303)
type MapCommand struct {
	TargetX, TargetY, TargetZ float32
	Key                       uint8
	TargetRobotID             uint16
}

// Unrecognized holds a checksummed frame whose cmd id has no registered kind
type Unrecognized struct {
	ID      uint16
	Payload []byte
}

func (GameStatus) CmdID() uint16               { return CmdGameStatus }
func (GameResult) CmdID() uint16               { return CmdGameResult }
func (GameRobotHP) CmdID() uint16              { return CmdGameRobotHP }
func (DartStatus) CmdID() uint16               { return CmdDartStatus }
func (ICRABuffDebuffZoneStatus) CmdID() uint16 { return CmdICRABuffDebuffStatus }
func (EventData) CmdID() uint16                { return CmdEventData }
func (SupplyProjectileAction) CmdID() uint16   { return CmdSupplyProjectileAction }
func (RefereeWarning) CmdID() uint16           { return CmdRefereeWarning }
func (DartRemainingTime) CmdID() uint16        { return CmdDartRemainingTime }
func (GameRobotStatus) CmdID() uint16          { return CmdGameRobotStatus }
func (PowerHeatData) CmdID() uint16            { return CmdPowerHeatData }
func (GameRobotPos) CmdID() uint16             { return CmdGameRobotPos }
func (Buff) CmdID() uint16                     { return CmdBuff }
func (AerialRobotEnergy) CmdID() uint16        { return CmdAerialRobotEnergy }
func (RobotHurt) CmdID() uint16                { return CmdRobotHurt }
func (ShootData) CmdID() uint16                { return CmdShootData }
func (BulletRemaining) CmdID() uint16          { return CmdBulletRemaining }
func (RFIDStatus) CmdID() uint16               { return CmdRFIDStatus }
func (DartClientCmd) CmdID() uint16            { return CmdDartClientCmd }
func (InteractiveData) CmdID() uint16          { return CmdInteractiveData }
func (CustomControllerData) CmdID() uint16     { return CmdCustomControllerData }
func (MapCommand) CmdID() uint16               { return CmdMapCommand }
func (u Unrecognized) CmdID() uint16           { return u.ID }

// Decoders. The registry checks the payload length before calling any of
// these, so they index the payload directly.

func u16(p []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(p[off:])
}

func u32(p []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(p[off:])
}

func f32(p []byte, off int) float32 {
	return math.Float32frombits(u32(p, off))
}

func decodeGameStatus(p []byte) Record {
	return GameStatus{
		GameType:        p[0] & 0x0F,
		GameProgress:    GameProgress(p[0] >> 4),
		StageRemainTime: u16(p, 1),
		SyncTimestamp:   binary.LittleEndian.Uint64(p[3:]),
	}
}

func decodeGameResult(p []byte) Record {
	return GameResult{Winner: p[0]}
}

func decodeGameRobotHP(p []byte) Record {
	return GameRobotHP{
		RedHero:       u16(p, 0),
		RedEngineer:   u16(p, 2),
		RedStandard3:  u16(p, 4),
		RedStandard4:  u16(p, 6),
		RedStandard5:  u16(p, 8),
		RedSentry:     u16(p, 10),
		RedOutpost:    u16(p, 12),
		RedBase:       u16(p, 14),
		BlueHero:      u16(p, 16),
		BlueEngineer:  u16(p, 18),
		BlueStandard3: u16(p, 20),
		BlueStandard4: u16(p, 22),
		BlueStandard5: u16(p, 24),
		BlueSentry:    u16(p, 26),
		BlueOutpost:   u16(p, 28),
		BlueBase:      u16(p, 30),
	}
}

func decodeDartStatus(p []byte) Record {
	return DartStatus{DartBelong: p[0], StageRemainingTime: u16(p, 1)}
}

func decodeICRABuffDebuffZoneStatus(p []byte) Record {
	var r ICRABuffDebuffZoneStatus
	bitsField := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	for i := range r.Zones {
		nibble := uint8((bitsField >> (4 * i)) & 0x0F)
		r.Zones[i] = ZoneStatus{Active: nibble&0x01 != 0, BuffDebuff: nibble >> 1}
	}
	r.Red1BulletLeft = u16(p, 3)
	r.Red2BulletLeft = u16(p, 5)
	r.Blue1BulletLeft = u16(p, 7)
	r.Blue2BulletLeft = u16(p, 9)
	return r
}

func decodeEventData(p []byte) Record {
	return EventData{Event: u32(p, 0)}
}

func decodeSupplyProjectileAction(p []byte) Record {
	return SupplyProjectileAction{
		SupplyProjectileID: p[0],
		SupplyRobotID:      p[1],
		Step:               p[2],
		Num:                p[3],
	}
}

func decodeRefereeWarning(p []byte) Record {
	return RefereeWarning{Level: p[0], FoulRobotID: p[1]}
}

func decodeDartRemainingTime(p []byte) Record {
	return DartRemainingTime{Seconds: p[0]}
}

func decodeShooterLimits(p []byte, off int) ShooterLimits {
	return ShooterLimits{
		CoolingRate:  u16(p, off),
		CoolingLimit: u16(p, off+2),
		SpeedLimit:   u16(p, off+4),
	}
}

func decodeGameRobotStatus(p []byte) Record {
	return GameRobotStatus{
		RobotID:           RobotID(p[0]),
		RobotLevel:        p[1],
		RemainHP:          u16(p, 2),
		MaxHP:             u16(p, 4),
		Shooter17mm1:      decodeShooterLimits(p, 6),
		Shooter17mm2:      decodeShooterLimits(p, 12),
		Shooter42mm:       decodeShooterLimits(p, 18),
		ChassisPowerLimit: u16(p, 24),
		GimbalOutput:      p[26]&0x01 != 0,
		ChassisOutput:     p[26]&0x02 != 0,
		ShooterOutput:     p[26]&0x04 != 0,
	}
}

func decodePowerHeatData(p []byte) Record {
	return PowerHeatData{
		ChassisVolt:        u16(p, 0),
		ChassisCurrent:     u16(p, 2),
		ChassisPower:       f32(p, 4),
		ChassisPowerBuffer: u16(p, 8),
		Shooter17mm1Heat:   u16(p, 10),
		Shooter17mm2Heat:   u16(p, 12),
		Shooter42mmHeat:    u16(p, 14),
	}
}

func decodeGameRobotPos(p []byte) Record {
	return GameRobotPos{X: f32(p, 0), Y: f32(p, 4), Z: f32(p, 8), Yaw: f32(p, 12)}
}

func decodeBuff(p []byte) Record {
	return Buff{PowerRuneBuff: p[0]}
}

func decodeAerialRobotEnergy(p []byte) Record {
	return AerialRobotEnergy{AttackTime: p[0]}
}

func decodeRobotHurt(p []byte) Record {
	return RobotHurt{ArmorID: p[0] & 0x0F, HurtType: p[0] >> 4}
}

func decodeShootData(p []byte) Record {
	return ShootData{
		BulletType:  p[0],
		ShooterID:   p[1],
		BulletFreq:  p[2],
		BulletSpeed: f32(p, 3),
	}
}

func decodeBulletRemaining(p []byte) Record {
	return BulletRemaining{Bullet17mm: u16(p, 0), Bullet42mm: u16(p, 2), Coin: u16(p, 4)}
}

func decodeRFIDStatus(p []byte) Record {
	return RFIDStatus{Status: u32(p, 0)}
}

func decodeDartClientCmd(p []byte) Record {
	return DartClientCmd{
		LaunchOpeningStatus:  p[0],
		AttackTarget:         p[1],
		TargetChangeTime:     u16(p, 2),
		OperateLaunchCmdTime: u16(p, 4),
	}
}

func decodeInteractiveData(p []byte) Record {
	data := make([]byte, len(p)-InteractiveHeaderLength)
	copy(data, p[InteractiveHeaderLength:])
	return InteractiveData{
		DataCmdID:  u16(p, 0),
		SenderID:   u16(p, 2),
		ReceiverID: u16(p, 4),
		Data:       data,
	}
}

func decodeCustomControllerData(p []byte) Record {
	data := make([]byte, len(p))
	copy(data, p)
	return CustomControllerData{Data: data}
}

func decodeMapCommand(p []byte) Record {
	return MapCommand{
		TargetX:       f32(p, 0),
		TargetY:       f32(p, 4),
		TargetZ:       f32(p, 8),
		Key:           p[12],
		TargetRobotID: u16(p, 13),
	}
}
