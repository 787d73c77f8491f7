// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// ============================================================
// Validator Tests
// ============================================================

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name     string
		rec      Record
		expected []AnomalyType
	}{
		{"plausible robot status", GameRobotStatus{RobotID: RedHero, RemainHP: 100, MaxHP: 200}, nil},
		{"hp over max", GameRobotStatus{RobotID: RedHero, RemainHP: 300, MaxHP: 200}, []AnomalyType{AnomalyHPOverMax}},
		{"unknown robot", GameRobotStatus{RobotID: 50, RemainHP: 1, MaxHP: 1}, []AnomalyType{AnomalyUnknownRobot}},
		{"bad progress", GameStatus{GameProgress: 9}, []AnomalyType{AnomalyInvalidProgress}},
		{"armor id", RobotHurt{ArmorID: 5, HurtType: HurtArmor}, []AnomalyType{AnomalyInvalidArmor}},
		{"armor id ignored for collisions", RobotHurt{ArmorID: 5, HurtType: HurtCollision}, nil},
		{"hurt type", RobotHurt{HurtType: 9}, []AnomalyType{AnomalyInvalidHurtType}},
		{"bullet speed", ShootData{BulletSpeed: 55}, []AnomalyType{AnomalyBulletSpeed}},
		{"bullet speed NaN", ShootData{BulletSpeed: float32(math.NaN())}, []AnomalyType{AnomalyBulletSpeed}},
		{"negative power", PowerHeatData{ChassisPower: -1}, []AnomalyType{AnomalyInvalidPower}},
		{"unchecked kind", Buff{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRecord(tt.rec)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d anomalies (%v), expected %d", len(got), got, len(tt.expected))
			}
			for i, a := range got {
				if a.Type != tt.expected[i] {
					t.Errorf("anomaly %d type = %d, expected %d", i, a.Type, tt.expected[i])
				}
				if a.Error() == "" {
					t.Error("anomaly without message")
				}
			}
		})
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Counters(t *testing.T) {
	s := NewStatistics()

	s.RecordResult(Result{Status: StatusInvalid, Skipped: 3, Err: ErrHeaderCRC})
	s.RecordResult(Result{Status: StatusInvalid, Err: ErrFrameCRC})
	s.RecordResult(Result{Status: StatusInvalid, Err: fmt.Errorf("wrapped: %w", ErrLengthOverflow)})
	s.RecordResult(Result{Status: StatusComplete})
	s.RecordResult(Result{Status: StatusComplete})
	s.RecordResult(Result{Status: StatusComplete})
	s.RecordResult(Result{Status: StatusIncomplete, Skipped: 2})

	s.RecordDispatch(Buff{}, nil, nil)
	s.RecordDispatch(nil, ErrPayloadLength, nil)
	s.RecordDispatch(GameStatus{GameProgress: 9}, nil, ValidateRecord(GameStatus{GameProgress: 9}))
	s.RecordDispatch(Unrecognized{ID: 1}, nil, nil)

	checks := []struct {
		name     string
		got      uint64
		expected uint64
	}{
		{"HeaderCRCErrors", s.HeaderCRCErrors, 1},
		{"FrameCRCErrors", s.FrameCRCErrors, 1},
		{"LengthOverflows", s.LengthOverflows, 1},
		{"SkippedBytes", s.SkippedBytes, 5},
		{"TotalFrames", s.TotalFrames, 3},
		{"ValidFrames", s.ValidFrames, 1},
		{"DispatchErrors", s.DispatchErrors, 1},
		{"UnknownCommands", s.UnknownCommands, 1},
		{"AnomalousValues", s.AnomalousValues, 1},
		{"InvalidProgress", s.InvalidProgress, 1},
		{"FramingErrors", s.FramingErrors(), 3},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s = %d, expected %d", c.name, c.got, c.expected)
		}
	}
}

func TestStatistics_StringAndReset(t *testing.T) {
	s := NewStatistics()
	s.RecordResult(Result{Status: StatusInvalid, Err: ErrFrameCRC})
	s.RecordDispatch(nil, ErrPayloadLength, nil)

	out := s.String()
	for _, want := range []string{"Frame CRC Errs:", "Dispatch Errors:", "Frame Rate:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Header CRC Errs:") {
		t.Error("zero counters should be omitted")
	}

	s.Reset()
	if s.FrameCRCErrors != 0 || s.DispatchErrors != 0 {
		t.Error("Reset should clear counters")
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatCmdID(t *testing.T) {
	if got := FormatCmdID(CmdGameRobotStatus); got != "GAME_ROBOT_STATUS" {
		t.Errorf("FormatCmdID(0x0201) = %q", got)
	}
	if got := FormatCmdID(0x0999); got != "UNKNOWN" {
		t.Errorf("FormatCmdID(0x0999) = %q", got)
	}
}

func TestFormatFrame(t *testing.T) {
	frame := mustEncode(t, 5, CmdGameRobotStatus, robotStatusPayload(RedStandard4, 18, 0))
	res := DecodeOne(frame)
	rec, err := DefaultRegistry().Decode(res.Frame.CmdID(), res.Frame.Payload())

	out := FormatFrame(res.Frame, rec, err)
	for _, want := range []string{"GAME_ROBOT_STATUS (0x0201)", "seq=5", "robot=4 (RED)", "hp=150/200", "speed=18m/s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = FormatFrame(res.Frame, nil, ErrPayloadLength)
	if !strings.Contains(out, "dispatch error") {
		t.Errorf("dispatch error not shown:\n%s", out)
	}
}

func TestFormatRecord_EveryKind(t *testing.T) {
	r := DefaultRegistry()
	for _, k := range defaultKinds {
		rec, _ := r.Decode(k.CmdID, make([]byte, k.Size))
		if out := FormatRecord(rec); !strings.HasPrefix(out, "  ") {
			t.Errorf("%s: unexpected format %q", k.Name, out)
		}
	}
}
