// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"fmt"
	"testing"
)

func TestIdentityOf(t *testing.T) {
	tests := []struct {
		id       RobotID
		alliance Alliance
		client   uint16
	}{
		{RedHero, AllianceRed, 0x0101},
		{RedStandard3, AllianceRed, 0x0103},
		{RedAerial, AllianceRed, 0x0106},
		{RedSentry, AllianceRed, 0},
		{RedRadar, AllianceRed, 0},
		{BlueHero, AllianceBlue, 0x0165},
		{BlueEngineer, AllianceBlue, 0x0166},
		{BlueAerial, AllianceBlue, 0x016A},
		{BlueDart, AllianceBlue, 0},
		{0, AllianceUnknown, 0},
		{10, AllianceUnknown, 0},
		{100, AllianceUnknown, 0},
		{110, AllianceUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("robot_%d", tt.id), func(t *testing.T) {
			got := IdentityOf(tt.id)
			if got.RobotID != tt.id || got.Alliance != tt.alliance || got.ClientID != tt.client {
				t.Errorf("IdentityOf(%d) = %+v, expected alliance=%s client=0x%04X", tt.id, got, tt.alliance, tt.client)
			}
		})
	}
}

func TestShootSpeedLimit(t *testing.T) {
	status := func(id RobotID, speed17, speed42 uint16) GameRobotStatus {
		return GameRobotStatus{
			RobotID:      id,
			Shooter17mm1: ShooterLimits{SpeedLimit: speed17},
			Shooter42mm:  ShooterLimits{SpeedLimit: speed42},
		}
	}

	tests := []struct {
		name      string
		status    GameRobotStatus
		requested ShootSpeed
		expected  ShootSpeed
	}{
		{"hero 10", status(RedHero, 30, 10), Speed16MPerSecond, Speed10MPerSecond},
		{"hero 16", status(BlueHero, 15, 16), Speed10MPerSecond, Speed16MPerSecond},
		{"hero ignores 17mm limit", status(RedHero, 30, 0), Speed15MPerSecond, Speed15MPerSecond},
		{"standard 15", status(RedStandard3, 15, 0), Speed30MPerSecond, Speed15MPerSecond},
		{"standard 18", status(BlueStandard4, 18, 16), Speed15MPerSecond, Speed18MPerSecond},
		{"sentry 30", status(RedSentry, 30, 0), Speed15MPerSecond, Speed30MPerSecond},
		{"unknown limit", status(RedStandard5, 22, 0), Speed18MPerSecond, Speed18MPerSecond},
		{"no status yet", GameRobotStatus{}, SpeedZero, SpeedZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShootSpeedLimit(tt.status, tt.requested); got != tt.expected {
				t.Errorf("ShootSpeedLimit() = %s, expected %s", got, tt.expected)
			}
		})
	}
}
