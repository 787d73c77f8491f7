// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks framing, dispatch and validation counters
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Framing
	BytesReceived   uint64
	TotalFrames     uint64
	HeaderCRCErrors uint64
	FrameCRCErrors  uint64
	LengthOverflows uint64
	SkippedBytes    uint64
	BufferResets    uint64

	// Dispatch
	ValidFrames     uint64
	DispatchErrors  uint64
	UnknownCommands uint64

	// Validation
	AnomalousValues uint64
	HPOverMax       uint64
	UnknownRobot    uint64
	InvalidProgress uint64
	InvalidArmor    uint64
	InvalidHurtType uint64
	BulletSpeed     uint64
	InvalidPower    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// RecordResult counts the framing outcome of one DecodeOne call
func (s *Statistics) RecordResult(r Result) {
	s.SkippedBytes += uint64(r.Skipped)

	switch r.Status {
	case StatusComplete:
		s.TotalFrames++
	case StatusInvalid:
		switch {
		case errors.Is(r.Err, ErrHeaderCRC):
			s.HeaderCRCErrors++
		case errors.Is(r.Err, ErrFrameCRC):
			s.FrameCRCErrors++
		case errors.Is(r.Err, ErrLengthOverflow):
			s.LengthOverflows++
		}
	}
}

// RecordDispatch counts the outcome of dispatching one complete frame
func (s *Statistics) RecordDispatch(rec Record, err error, anomalies []ValidationError) {
	s.LastUpdateTime = time.Now()

	if err != nil {
		s.DispatchErrors++
		return
	}
	if _, ok := rec.(Unrecognized); ok {
		s.UnknownCommands++
		return
	}

	if len(anomalies) == 0 {
		s.ValidFrames++
		return
	}

	s.AnomalousValues++
	for _, a := range anomalies {
		switch a.Type {
		case AnomalyHPOverMax:
			s.HPOverMax++
		case AnomalyUnknownRobot:
			s.UnknownRobot++
		case AnomalyInvalidProgress:
			s.InvalidProgress++
		case AnomalyInvalidArmor:
			s.InvalidArmor++
		case AnomalyInvalidHurtType:
			s.InvalidHurtType++
		case AnomalyBulletSpeed:
			s.BulletSpeed++
		case AnomalyInvalidPower:
			s.InvalidPower++
		}
	}
}

// FramingErrors is the total of rejected frame candidates
func (s *Statistics) FramingErrors() uint64 {
	return s.HeaderCRCErrors + s.FrameCRCErrors + s.LengthOverflows
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.FramingErrors() + s.DispatchErrors + s.AnomalousValues
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100.0 / float64(total)
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Bytes Received:  %8d\n", s.BytesReceived)
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, percent(s.ValidFrames, s.TotalFrames))

	if s.HeaderCRCErrors > 0 {
		result += fmt.Sprintf("Header CRC Errs: %8d\n", s.HeaderCRCErrors)
	}
	if s.FrameCRCErrors > 0 {
		result += fmt.Sprintf("Frame CRC Errs:  %8d\n", s.FrameCRCErrors)
	}
	if s.LengthOverflows > 0 {
		result += fmt.Sprintf("Length Overflow: %8d\n", s.LengthOverflows)
	}
	if s.SkippedBytes > 0 {
		result += fmt.Sprintf("Skipped Bytes:   %8d\n", s.SkippedBytes)
	}
	if s.BufferResets > 0 {
		result += fmt.Sprintf("Buffer Resets:   %8d\n", s.BufferResets)
	}
	if s.DispatchErrors > 0 {
		result += fmt.Sprintf("Dispatch Errors: %8d (%.1f%%)\n", s.DispatchErrors, percent(s.DispatchErrors, s.TotalFrames))
	}
	if s.UnknownCommands > 0 {
		result += fmt.Sprintf("Unknown Cmds:    %8d (%.1f%%)\n", s.UnknownCommands, percent(s.UnknownCommands, s.TotalFrames))
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, percent(s.AnomalousValues, s.TotalFrames))
		if s.HPOverMax > 0 {
			result += fmt.Sprintf("  HP Over Max:      %5d\n", s.HPOverMax)
		}
		if s.UnknownRobot > 0 {
			result += fmt.Sprintf("  Unknown Robot:    %5d\n", s.UnknownRobot)
		}
		if s.InvalidProgress > 0 {
			result += fmt.Sprintf("  Invalid Progress: %5d\n", s.InvalidProgress)
		}
		if s.InvalidArmor > 0 {
			result += fmt.Sprintf("  Invalid Armor:    %5d\n", s.InvalidArmor)
		}
		if s.InvalidHurtType > 0 {
			result += fmt.Sprintf("  Invalid Hurt:     %5d\n", s.InvalidHurtType)
		}
		if s.BulletSpeed > 0 {
			result += fmt.Sprintf("  Bullet Speed:     %5d\n", s.BulletSpeed)
		}
		if s.InvalidPower > 0 {
			result += fmt.Sprintf("  Chassis Power:    %5d\n", s.InvalidPower)
		}
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
