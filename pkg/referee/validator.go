// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"fmt"
	"math"
)

// AnomalyType represents different types of telemetry anomalies
type AnomalyType int

const (
	AnomalyHPOverMax AnomalyType = iota
	AnomalyUnknownRobot
	AnomalyInvalidProgress
	AnomalyInvalidArmor
	AnomalyInvalidHurtType
	AnomalyBulletSpeed
	AnomalyInvalidPower
)

// Plausibility limits
const (
	MaxBulletSpeed  = 40.0  // m/s, above the highest referee limit
	MaxChassisPower = 500.0 // W
)

// ValidationError represents a record that decoded but carries implausible
// values
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateRecord checks a decoded record for anomalies.
// Returns a slice of validation errors (empty if the record is plausible)
func ValidateRecord(rec Record) []ValidationError {
	errors := []ValidationError{}

	switch r := rec.(type) {
	case GameStatus:
		errors = append(errors, validateGameStatus(r)...)
	case GameRobotStatus:
		errors = append(errors, validateGameRobotStatus(r)...)
	case PowerHeatData:
		errors = append(errors, validatePowerHeatData(r)...)
	case RobotHurt:
		errors = append(errors, validateRobotHurt(r)...)
	case ShootData:
		errors = append(errors, validateShootData(r)...)
	}

	return errors
}

func validateGameStatus(r GameStatus) []ValidationError {
	if r.GameProgress > ProgressSettling {
		return []ValidationError{{
			Type:    AnomalyInvalidProgress,
			Message: fmt.Sprintf("Invalid game progress %d (max %d)", r.GameProgress, ProgressSettling),
			Details: map[string]interface{}{"progress": r.GameProgress},
		}}
	}
	return nil
}

func validateGameRobotStatus(r GameRobotStatus) []ValidationError {
	errors := []ValidationError{}

	if AllianceOf(r.RobotID) == AllianceUnknown {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownRobot,
			Message: fmt.Sprintf("Unknown robot id %d", r.RobotID),
			Details: map[string]interface{}{"robot_id": r.RobotID},
		})
	}

	if r.RemainHP > r.MaxHP {
		errors = append(errors, ValidationError{
			Type:    AnomalyHPOverMax,
			Message: fmt.Sprintf("Remaining HP above max (%d > %d)", r.RemainHP, r.MaxHP),
			Details: map[string]interface{}{"remain_hp": r.RemainHP, "max_hp": r.MaxHP},
		})
	}

	return errors
}

func validatePowerHeatData(r PowerHeatData) []ValidationError {
	p := float64(r.ChassisPower)
	if math.IsNaN(p) || p < 0 || p > MaxChassisPower {
		return []ValidationError{{
			Type:    AnomalyInvalidPower,
			Message: fmt.Sprintf("Chassis power out of range (%.1fW, valid: 0 to %.0fW)", p, MaxChassisPower),
			Details: map[string]interface{}{"power": p, "max": MaxChassisPower},
		}}
	}
	return nil
}

func validateRobotHurt(r RobotHurt) []ValidationError {
	errors := []ValidationError{}

	if r.HurtType > HurtCollision {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidHurtType,
			Message: fmt.Sprintf("Invalid hurt type %d", r.HurtType),
			Details: map[string]interface{}{"hurt_type": r.HurtType},
		})
	}

	if r.HurtType == HurtArmor && r.ArmorID > 3 {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidArmor,
			Message: fmt.Sprintf("Invalid armor id %d (max 3)", r.ArmorID),
			Details: map[string]interface{}{"armor_id": r.ArmorID},
		})
	}

	return errors
}

func validateShootData(r ShootData) []ValidationError {
	v := float64(r.BulletSpeed)
	if math.IsNaN(v) || v < 0 || v > MaxBulletSpeed {
		return []ValidationError{{
			Type:    AnomalyBulletSpeed,
			Message: fmt.Sprintf("Bullet speed out of range (%.1fm/s, valid: 0 to %.0fm/s)", v, MaxBulletSpeed),
			Details: map[string]interface{}{"speed": v, "max": MaxBulletSpeed},
		}}
	}
	return nil
}
