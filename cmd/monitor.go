// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/internal/bus"
	"github.com/Thermoquad/refstat/internal/logging"
	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

var monitorShowAll bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal view of referee telemetry",
	Long: `Show game state, robot status, power and heat, the power manager side
channel and link statistics in a terminal UI.

Damage, referee warnings, interaction data and errors are listed in the
event log. Use --show-all to list every frame. Scroll the log with the
arrow keys; press 'q' to quit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "List every frame in the event log")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	// Console logs would tear the alt screen
	logger = logger.Level(max(logger.GetLevel(), zerolog.ErrorLevel))

	b := bus.New(logging.Component(logger, "bus"))
	defer b.Close()

	l, err := openLink(ctx, b.PublishPower,
		referee.WithPublisher(b),
		referee.WithObserver(b.ObserveFrame),
	)
	if err != nil {
		return err
	}
	defer l.Close()

	p := tea.NewProgram(newMonitorModel(l.info, monitorShowAll))

	sub := b.Subscribe(bus.TopicSnapshot, bus.TopicPower, bus.TopicStats, bus.TopicFrame)
	go forwardToProgram(sub, p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		lastStats := time.Time{}
		err := l.run(ctx, func() error {
			if now := time.Now(); now.Sub(lastStats) >= time.Second {
				lastStats = now
				st := l.session.Stats()
				st.CalculateRates()
				b.PublishStats(*st)
			}
			return nil
		})
		p.Send(linkDoneMsg{err: err})
	}()

	_, err = p.Run()
	cancel()
	<-done
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// forwardToProgram hands bus messages to the TUI event loop. It drains sub
// until the bus closes it so publishers never block on a full channel.
func forwardToProgram(sub bus.Subscription, p *tea.Program) {
	for msg := range sub {
		switch v := msg.(type) {
		case *referee.Snapshot:
			p.Send(snapshotMsg(v))
		case powermgr.State:
			p.Send(powerMsg(v))
		case referee.Statistics:
			p.Send(statsMsg(v))
		case bus.FrameEvent:
			p.Send(frameMsg(v))
		}
	}
}
