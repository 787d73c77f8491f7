// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import "time"

// Snapshot is the latest decoded value of every telemetry kind.
//
// Fields hold the zero value until the first record of that kind arrives;
// Updated tells the two apart.
type Snapshot struct {
	GameStatus               GameStatus
	GameResult               GameResult
	GameRobotHP              GameRobotHP
	DartStatus               DartStatus
	ICRABuffDebuffZoneStatus ICRABuffDebuffZoneStatus
	EventData                EventData
	SupplyProjectileAction   SupplyProjectileAction
	RefereeWarning           RefereeWarning
	DartRemainingTime        DartRemainingTime
	GameRobotStatus          GameRobotStatus
	PowerHeatData            PowerHeatData
	GameRobotPos             GameRobotPos
	Buff                     Buff
	AerialRobotEnergy        AerialRobotEnergy
	RobotHurt                RobotHurt
	ShootData                ShootData
	BulletRemaining          BulletRemaining
	RFIDStatus               RFIDStatus
	DartClientCmd            DartClientCmd
	InteractiveData          InteractiveData
	CustomControllerData     CustomControllerData
	MapCommand               MapCommand

	// Other holds records of kinds registered beyond the built-in table.
	Other map[uint16]Record

	// Updated is the decode time of the last record per cmd id.
	Updated    map[uint16]time.Time
	LastUpdate time.Time

	// ArmorHit is the time of the last armor damage per armor plate.
	ArmorHit [4]time.Time
}

// NewSnapshot returns an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Other:   make(map[uint16]Record),
		Updated: make(map[uint16]time.Time),
	}
}

// Apply stores rec as the latest value of its kind. It returns false for
// Unrecognized records, which never touch the snapshot.
func (s *Snapshot) Apply(rec Record, now time.Time) bool {
	if s.Updated == nil {
		s.Updated = make(map[uint16]time.Time)
	}

	switch r := rec.(type) {
	case Unrecognized, *Unrecognized, nil:
		return false
	case GameStatus:
		s.GameStatus = r
	case GameResult:
		s.GameResult = r
	case GameRobotHP:
		s.GameRobotHP = r
	case DartStatus:
		s.DartStatus = r
	case ICRABuffDebuffZoneStatus:
		s.ICRABuffDebuffZoneStatus = r
	case EventData:
		s.EventData = r
	case SupplyProjectileAction:
		s.SupplyProjectileAction = r
	case RefereeWarning:
		s.RefereeWarning = r
	case DartRemainingTime:
		s.DartRemainingTime = r
	case GameRobotStatus:
		s.GameRobotStatus = r
	case PowerHeatData:
		s.PowerHeatData = r
	case GameRobotPos:
		s.GameRobotPos = r
	case Buff:
		s.Buff = r
	case AerialRobotEnergy:
		s.AerialRobotEnergy = r
	case RobotHurt:
		s.RobotHurt = r
		if r.HurtType == HurtArmor && int(r.ArmorID) < len(s.ArmorHit) {
			s.ArmorHit[r.ArmorID] = now
		}
	case ShootData:
		s.ShootData = r
	case BulletRemaining:
		s.BulletRemaining = r
	case RFIDStatus:
		s.RFIDStatus = r
	case DartClientCmd:
		s.DartClientCmd = r
	case InteractiveData:
		s.InteractiveData = r
	case CustomControllerData:
		s.CustomControllerData = r
	case MapCommand:
		s.MapCommand = r
	default:
		if s.Other == nil {
			s.Other = make(map[uint16]Record)
		}
		s.Other[rec.CmdID()] = rec
	}

	s.Updated[rec.CmdID()] = now
	s.LastUpdate = now
	return true
}

// Has reports whether a record of cmdID has been applied
func (s *Snapshot) Has(cmdID uint16) bool {
	_, ok := s.Updated[cmdID]
	return ok
}

// Clone returns a deep copy that shares no memory with s
func (s *Snapshot) Clone() *Snapshot {
	c := *s

	c.Updated = make(map[uint16]time.Time, len(s.Updated))
	for k, v := range s.Updated {
		c.Updated[k] = v
	}
	c.Other = make(map[uint16]Record, len(s.Other))
	for k, v := range s.Other {
		c.Other[k] = v
	}
	if s.InteractiveData.Data != nil {
		c.InteractiveData.Data = append([]byte(nil), s.InteractiveData.Data...)
	}
	if s.CustomControllerData.Data != nil {
		c.CustomControllerData.Data = append([]byte(nil), s.CustomControllerData.Data...)
	}
	return &c
}
