// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package powermgr

import (
	"fmt"
	"strings"
)

// Channel order on the stock power manager firmware
const (
	ChannelChassisPower = 0 // W
	ChannelCapVoltage   = 1 // V
	ChannelPowerLimit   = 2 // W
	ChannelCapacity     = 3 // percent of full charge
)

var channelNames = [MaxParameters]string{"power", "cap_v", "limit", "capacity"}

// Has reports whether the last package carried channel ch
func (s State) Has(ch int) bool {
	return ch >= 0 && ch < s.Samples && ch < MaxParameters
}

// Capacity returns the capacitor charge in percent, if reported
func (s State) Capacity() (float64, bool) {
	if !s.Has(ChannelCapacity) {
		return 0, false
	}
	return s.Parameters[ChannelCapacity], true
}

func (s State) String() string {
	if s.Samples == 0 {
		return "no data"
	}
	parts := make([]string, 0, s.Samples)
	for i := 0; i < s.Samples && i < MaxParameters; i++ {
		parts = append(parts, fmt.Sprintf("%s=%.2f", channelNames[i], s.Parameters[i]))
	}
	return strings.Join(parts, " ")
}
