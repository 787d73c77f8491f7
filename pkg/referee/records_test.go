// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"
)

// robotStatusPayload builds a GAME_ROBOT_STATUS payload
func robotStatusPayload(id RobotID, speed17, speed42 uint16) []byte {
	p := make([]byte, 27)
	p[0] = byte(id)
	p[1] = 1
	binary.LittleEndian.PutUint16(p[2:], 150)
	binary.LittleEndian.PutUint16(p[4:], 200)
	binary.LittleEndian.PutUint16(p[6:], 10)
	binary.LittleEndian.PutUint16(p[8:], 100)
	binary.LittleEndian.PutUint16(p[10:], speed17)
	binary.LittleEndian.PutUint16(p[18:], 20)
	binary.LittleEndian.PutUint16(p[20:], 100)
	binary.LittleEndian.PutUint16(p[22:], speed42)
	binary.LittleEndian.PutUint16(p[24:], 60)
	p[26] = 0x05
	return p
}

func putF32(p []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(p[off:], math.Float32bits(v))
}

// ============================================================
// Registry Tests
// ============================================================

func TestDefaultRegistry_Table(t *testing.T) {
	r := DefaultRegistry()
	if r.Len() != 22 {
		t.Errorf("registry has %d kinds, expected 22", r.Len())
	}

	sizes := map[uint16]int{
		CmdGameStatus: 11, CmdGameResult: 1, CmdGameRobotHP: 32, CmdDartStatus: 3,
		CmdICRABuffDebuffStatus: 11, CmdEventData: 4, CmdSupplyProjectileAction: 4,
		CmdRefereeWarning: 2, CmdDartRemainingTime: 1, CmdGameRobotStatus: 27,
		CmdPowerHeatData: 16, CmdGameRobotPos: 16, CmdBuff: 1, CmdAerialRobotEnergy: 1,
		CmdRobotHurt: 1, CmdShootData: 7, CmdBulletRemaining: 6, CmdRFIDStatus: 4,
		CmdDartClientCmd: 6, CmdMapCommand: 15,
	}
	for cmd, size := range sizes {
		k, ok := r.Lookup(cmd)
		if !ok {
			t.Errorf("cmd 0x%04X not registered", cmd)
			continue
		}
		if !k.Fixed() || k.Size != size {
			t.Errorf("cmd 0x%04X size = %d (fixed=%v), expected fixed %d", cmd, k.Size, k.Fixed(), size)
		}
	}
}

func TestDefaultRegistry_EveryKindDecodes(t *testing.T) {
	r := DefaultRegistry()
	for _, k := range defaultKinds {
		rec, err := r.Decode(k.CmdID, make([]byte, k.Size))
		if err != nil {
			t.Errorf("%s: decode failed: %v", k.Name, err)
			continue
		}
		if rec.CmdID() != k.CmdID {
			t.Errorf("%s: record cmd id = 0x%04X", k.Name, rec.CmdID())
		}
	}
}

func TestRegistry_LengthMismatch(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name  string
		cmdID uint16
		size  int
	}{
		{"fixed too short", CmdGameRobotStatus, 26},
		{"fixed too long", CmdGameRobotStatus, 28},
		{"empty", CmdGameResult, 0},
		{"interactive below header", CmdInteractiveData, 5},
		{"custom controller empty", CmdCustomControllerData, 0},
		{"custom controller too long", CmdCustomControllerData, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := r.Decode(tt.cmdID, make([]byte, tt.size))
			if !errors.Is(err, ErrPayloadLength) {
				t.Errorf("expected ErrPayloadLength, got %v", err)
			}
			if rec != nil {
				t.Errorf("expected no record, got %T", rec)
			}
		})
	}
}

func TestRegistry_Unrecognized(t *testing.T) {
	payload := []byte{0x01, 0x02}
	rec, err := DefaultRegistry().Decode(0x0999, payload)
	if err != nil {
		t.Fatalf("unknown cmd should not error, got %v", err)
	}
	u, ok := rec.(Unrecognized)
	if !ok {
		t.Fatalf("expected Unrecognized, got %T", rec)
	}
	if u.CmdID() != 0x0999 || !reflect.DeepEqual(u.Payload, payload) {
		t.Errorf("unexpected record %+v", u)
	}
}

func TestRegistry_RegisterCustomKind(t *testing.T) {
	r := NewRegistry()
	r.Register(Kind{
		CmdID: 0x0400,
		Name:  "CUSTOM",
		Size:  1,
		Decode: func(p []byte) Record {
			return Unrecognized{ID: 0x0400, Payload: []byte{p[0] + 1}}
		},
	})

	rec, err := r.Decode(0x0400, []byte{0x41})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rec.(Unrecognized).Payload[0] != 0x42 {
		t.Error("custom decode function not used")
	}
}

// ============================================================
// Record Layout Tests
// ============================================================

func TestDecode_GameRobotStatus(t *testing.T) {
	rec, err := DefaultRegistry().Decode(CmdGameRobotStatus, robotStatusPayload(BlueStandard3, 18, 0))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	expected := GameRobotStatus{
		RobotID:           BlueStandard3,
		RobotLevel:        1,
		RemainHP:          150,
		MaxHP:             200,
		Shooter17mm1:      ShooterLimits{CoolingRate: 10, CoolingLimit: 100, SpeedLimit: 18},
		Shooter42mm:       ShooterLimits{CoolingRate: 20, CoolingLimit: 100},
		ChassisPowerLimit: 60,
		GimbalOutput:      true,
		ChassisOutput:     false,
		ShooterOutput:     true,
	}
	if !reflect.DeepEqual(rec, expected) {
		t.Errorf("got %+v\nexpected %+v", rec, expected)
	}
}

func TestDecode_GameStatus(t *testing.T) {
	p := make([]byte, 11)
	p[0] = 0x41 // progress 4, type 1
	binary.LittleEndian.PutUint16(p[1:], 299)
	binary.LittleEndian.PutUint64(p[3:], 1620000000)

	rec, _ := DefaultRegistry().Decode(CmdGameStatus, p)
	gs := rec.(GameStatus)
	if gs.GameType != 1 || gs.GameProgress != ProgressRunning || gs.StageRemainTime != 299 || gs.SyncTimestamp != 1620000000 {
		t.Errorf("unexpected game status %+v", gs)
	}
}

func TestDecode_RobotHurt(t *testing.T) {
	rec, _ := DefaultRegistry().Decode(CmdRobotHurt, []byte{0x12})
	hurt := rec.(RobotHurt)
	if hurt.ArmorID != 2 || hurt.HurtType != HurtModuleOffline {
		t.Errorf("got armor=%d type=%d, expected armor=2 type=1", hurt.ArmorID, hurt.HurtType)
	}
}

func TestDecode_PowerHeatData(t *testing.T) {
	p := make([]byte, 16)
	binary.LittleEndian.PutUint16(p[0:], 24000)
	binary.LittleEndian.PutUint16(p[2:], 2500)
	putF32(p, 4, 60.5)
	binary.LittleEndian.PutUint16(p[8:], 60)
	binary.LittleEndian.PutUint16(p[10:], 120)
	binary.LittleEndian.PutUint16(p[14:], 50)

	rec, _ := DefaultRegistry().Decode(CmdPowerHeatData, p)
	expected := PowerHeatData{
		ChassisVolt:        24000,
		ChassisCurrent:     2500,
		ChassisPower:       60.5,
		ChassisPowerBuffer: 60,
		Shooter17mm1Heat:   120,
		Shooter42mmHeat:    50,
	}
	if !reflect.DeepEqual(rec, expected) {
		t.Errorf("got %+v\nexpected %+v", rec, expected)
	}
}

func TestDecode_ShootData(t *testing.T) {
	p := []byte{1, 1, 20, 0, 0, 0, 0}
	putF32(p, 3, 14.5)

	rec, _ := DefaultRegistry().Decode(CmdShootData, p)
	sd := rec.(ShootData)
	if sd.BulletType != 1 || sd.ShooterID != 1 || sd.BulletFreq != 20 || sd.BulletSpeed != 14.5 {
		t.Errorf("unexpected shoot data %+v", sd)
	}
}

func TestDecode_ICRAZones(t *testing.T) {
	p := make([]byte, 11)
	// zone 0: active, effect 3 -> nibble 0x7; zone 5: active, effect 1 -> nibble 0x3
	p[0] = 0x07
	p[2] = 0x30
	binary.LittleEndian.PutUint16(p[3:], 50)
	binary.LittleEndian.PutUint16(p[9:], 40)

	rec, _ := DefaultRegistry().Decode(CmdICRABuffDebuffStatus, p)
	z := rec.(ICRABuffDebuffZoneStatus)

	if !z.Zones[0].Active || z.Zones[0].BuffDebuff != 3 {
		t.Errorf("zone 0 = %+v", z.Zones[0])
	}
	if !z.Zones[5].Active || z.Zones[5].BuffDebuff != 1 {
		t.Errorf("zone 5 = %+v", z.Zones[5])
	}
	for i := 1; i < 5; i++ {
		if z.Zones[i].Active {
			t.Errorf("zone %d should be inactive", i)
		}
	}
	if z.Red1BulletLeft != 50 || z.Blue2BulletLeft != 40 {
		t.Errorf("bullets = %d/%d, expected 50/40", z.Red1BulletLeft, z.Blue2BulletLeft)
	}
}

func TestDecode_InteractiveData(t *testing.T) {
	p := AppendInteractiveHeader(nil, 0x0201, uint16(RedHero), uint16(RedStandard3))
	p = append(p, 0xAB, 0xCD)

	rec, err := DefaultRegistry().Decode(CmdInteractiveData, p)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	d := rec.(InteractiveData)
	if d.DataCmdID != 0x0201 || d.SenderID != 1 || d.ReceiverID != 3 {
		t.Errorf("unexpected header %+v", d)
	}
	p[6] = 0x00
	if d.Data[0] != 0xAB || len(d.Data) != 2 {
		t.Errorf("data = % X, expected AB CD (copied)", d.Data)
	}
}

func TestDecode_MapCommand(t *testing.T) {
	p := make([]byte, 15)
	putF32(p, 0, 1.5)
	putF32(p, 4, 2.5)
	p[12] = 'Q'
	binary.LittleEndian.PutUint16(p[13:], 103)

	rec, _ := DefaultRegistry().Decode(CmdMapCommand, p)
	m := rec.(MapCommand)
	if m.TargetX != 1.5 || m.TargetY != 2.5 || m.Key != 'Q' || m.TargetRobotID != 103 {
		t.Errorf("unexpected map command %+v", m)
	}
}
