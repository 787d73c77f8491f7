// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Thermoquad/refstat/internal/config"
	"github.com/Thermoquad/refstat/internal/journal"
)

func TestReplay_MissingJournal(t *testing.T) {
	saved := appConfig
	t.Cleanup(func() { appConfig = saved })

	appConfig = config.Default()
	appConfig.Record.Path = filepath.Join(t.TempDir(), "refstat-typo.db")

	err := runReplay(replayCmd, nil)
	if !errors.Is(err, journal.ErrNoJournal) {
		t.Fatalf("expected ErrNoJournal, got %v", err)
	}
	if _, err := os.Stat(appConfig.Record.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("replay created a journal at the missing path")
	}
}
