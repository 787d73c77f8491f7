// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Refstat - Referee System Serial Protocol Client
//
// A CLI tool for decoding referee system telemetry, recording it, and
// sending operator UI commands back over the same link.

package main

import (
	"os"

	"github.com/Thermoquad/refstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
