// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/refstat/internal/bus"
	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages
type tickMsg time.Time
type snapshotMsg *referee.Snapshot
type powerMsg powermgr.State
type statsMsg referee.Statistics
type frameMsg bus.FrameEvent
type linkDoneMsg struct{ err error }

// Styles
var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("12")).
	Background(lipgloss.Color("235")).
	Padding(0, 1)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	blueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// monitorModel is the live telemetry view
type monitorModel struct {
	connInfo string
	showAll  bool

	snap     *referee.Snapshot
	power    powermgr.State
	hasPower bool
	stats    referee.Statistics

	events        []eventLogEntry
	maxLogEntries int
	log           viewport.Model

	width    int
	height   int
	now      time.Time
	linkErr  error
	quitting bool
}

func newMonitorModel(connInfo string, showAll bool) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		showAll:       showAll,
		snap:          referee.NewSnapshot(),
		maxLogEntries: 200,
		log:           viewport.New(76, 8),
		width:         80,
		height:        24,
		now:           time.Now(),
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(monitorTick(), tea.EnterAltScreen)
}

func monitorTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.log.Width = max(msg.Width-4, 20)
		m.log.Height = max(msg.Height-22, 5)
		m.refreshLog()

	case tickMsg:
		m.now = time.Time(msg)
		return m, monitorTick()

	case snapshotMsg:
		if msg != nil {
			m.snap = (*referee.Snapshot)(msg)
		}

	case powerMsg:
		m.power = powermgr.State(msg)
		m.hasPower = true

	case statsMsg:
		m.stats = referee.Statistics(msg)

	case frameMsg:
		m.logFrame(bus.FrameEvent(msg))

	case linkDoneMsg:
		m.linkErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("link error: %v", msg.err), true)
		} else {
			m.addLogEntry("connection closed", false)
		}
	}

	return m, nil
}

// logFrame turns interesting frames into event log lines
func (m *monitorModel) logFrame(ev bus.FrameEvent) {
	name := referee.FormatCmdID(ev.Frame.CmdID())
	if ev.Err != nil {
		m.addLogEntry(fmt.Sprintf("%s: %v", name, ev.Err), true)
		return
	}
	if anomalies := referee.ValidateRecord(ev.Record); len(anomalies) > 0 {
		for _, a := range anomalies {
			m.addLogEntry(fmt.Sprintf("%s: %s", name, a.Message), true)
		}
		return
	}

	switch r := ev.Record.(type) {
	case referee.RobotHurt:
		m.addLogEntry(fmt.Sprintf("hurt: armor %d (%s)", r.ArmorID, referee.FormatHurtType(r.HurtType)), true)
	case referee.RefereeWarning:
		m.addLogEntry(fmt.Sprintf("referee warning: level %d robot %d", r.Level, r.FoulRobotID), true)
	case referee.GameResult:
		m.addLogEntry(fmt.Sprintf("game over: winner %s", referee.FormatWinner(r.Winner)), false)
	case referee.InteractiveData:
		m.addLogEntry(fmt.Sprintf("interactive 0x%04X from %d: % X", r.DataCmdID, r.SenderID, r.Data), false)
	default:
		if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s (seq %d)", name, ev.Frame.Seq()), false)
		}
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.events = append(m.events, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.events) > m.maxLogEntries {
		m.events = m.events[len(m.events)-m.maxLogEntries:]
	}
	m.refreshLog()
}

func (m *monitorModel) refreshLog() {
	if len(m.events) == 0 {
		m.log.SetContent(headerStyle.Render("  (no events yet)"))
		return
	}
	var b strings.Builder
	for _, e := range m.events {
		ts := headerStyle.Render(e.timestamp.Format("15:04:05.000"))
		if e.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", ts, errorStyle.Render("✗ "+e.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", ts, warningStyle.Render("ℹ "+e.message)))
		}
	}
	m.log.SetContent(b.String())
	m.log.GotoBottom()
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("REFSTAT - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.gameView()),
		boxStyle.Render(m.robotView()),
	))
	s.WriteString("\n")
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.powerView()),
		boxStyle.Render(m.statsView()),
	))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.log.View()))

	return s.String()
}

func (m monitorModel) gameView() string {
	snap := m.snap
	if !snap.Has(referee.CmdGameStatus) {
		return headerStyle.Render("waiting for game status...")
	}
	gs := snap.GameStatus
	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Stage:"), valueStyle.Render(gs.GameProgress.String())),
		fmt.Sprintf("%s %s", labelStyle.Render("Remaining:"), valueStyle.Render(referee.FormatCountdown(uint64(gs.StageRemainTime)))),
	}
	if snap.Has(referee.CmdGameRobotHP) {
		hp := snap.GameRobotHP
		lines = append(lines,
			redStyle.Render(fmt.Sprintf("red  base=%d outpost=%d", hp.RedBase, hp.RedOutpost)),
			blueStyle.Render(fmt.Sprintf("blue base=%d outpost=%d", hp.BlueBase, hp.BlueOutpost)),
		)
	}
	if snap.Has(referee.CmdGameResult) {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Winner:"), valueStyle.Render(referee.FormatWinner(snap.GameResult.Winner))))
	}
	return strings.Join(lines, "\n")
}

func (m monitorModel) robotView() string {
	snap := m.snap
	if !snap.Has(referee.CmdGameRobotStatus) {
		return headerStyle.Render("waiting for robot status...")
	}
	st := snap.GameRobotStatus
	ident := referee.IdentityOf(st.RobotID)

	side := valueStyle
	switch ident.Alliance {
	case referee.AllianceRed:
		side = redStyle
	case referee.AllianceBlue:
		side = blueStyle
	}

	hpStyle := valueStyle
	if st.MaxHP > 0 && st.RemainHP*4 < st.MaxHP {
		hpStyle = errorStyle
	}

	lines := []string{
		fmt.Sprintf("%s %s (client 0x%04X)", labelStyle.Render("Robot:"), side.Render(fmt.Sprintf("%d %s", st.RobotID, ident.Alliance)), ident.ClientID),
		fmt.Sprintf("%s %d   %s %s", labelStyle.Render("Level:"), st.RobotLevel, labelStyle.Render("HP:"), hpStyle.Render(fmt.Sprintf("%d/%d", st.RemainHP, st.MaxHP))),
		fmt.Sprintf("%s %s", labelStyle.Render("Speed limit:"), valueStyle.Render(referee.ShootSpeedLimit(st, referee.Speed30MPerSecond).String())),
	}

	armor := make([]string, len(snap.ArmorHit))
	for i, hit := range snap.ArmorHit {
		if !hit.IsZero() && m.now.Sub(hit) < referee.ArmorHitHighlight {
			armor[i] = errorStyle.Render(fmt.Sprintf("[%d]", i))
		} else {
			armor[i] = headerStyle.Render(fmt.Sprintf("[%d]", i))
		}
	}
	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Armor:"), strings.Join(armor, " ")))

	if snap.Has(referee.CmdBulletRemaining) {
		b := snap.BulletRemaining
		lines = append(lines, fmt.Sprintf("%s 17mm=%d 42mm=%d coin=%d", labelStyle.Render("Ammo:"), b.Bullet17mm, b.Bullet42mm, b.Coin))
	}
	return strings.Join(lines, "\n")
}

func (m monitorModel) powerView() string {
	var lines []string
	if m.snap.Has(referee.CmdPowerHeatData) {
		ph := m.snap.PowerHeatData
		lines = append(lines,
			fmt.Sprintf("%s %s of %dW", labelStyle.Render("Chassis:"), valueStyle.Render(fmt.Sprintf("%.1fW", ph.ChassisPower)), m.snap.GameRobotStatus.ChassisPowerLimit),
			fmt.Sprintf("%s %dJ", labelStyle.Render("Buffer:"), ph.ChassisPowerBuffer),
			fmt.Sprintf("%s %d/%d/%d", labelStyle.Render("Heat:"), ph.Shooter17mm1Heat, ph.Shooter17mm2Heat, ph.Shooter42mmHeat),
		)
	}
	if m.hasPower {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Power mgr:"), valueStyle.Render(m.power.String())))
	}
	if len(lines) == 0 {
		return headerStyle.Render("waiting for power data...")
	}
	return strings.Join(lines, "\n")
}

func (m monitorModel) statsView() string {
	st := m.stats
	errs := st.FramingErrors() + st.DispatchErrors
	errRender := valueStyle
	if errs > 0 {
		errRender = errorStyle
	}
	return strings.Join([]string{
		fmt.Sprintf("%s %s   %s %s", labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", st.ValidFrames)),
			labelStyle.Render("Errors:"), errRender.Render(fmt.Sprintf("%d", errs))),
		fmt.Sprintf("%s %d   %s %d", labelStyle.Render("Skipped:"), st.SkippedBytes, labelStyle.Render("Anomalous:"), st.AnomalousValues),
		fmt.Sprintf("%s %.1f/s   %s %.1f/s", labelStyle.Render("Rate:"), st.FrameRate, labelStyle.Render("Err:"), st.ErrorRate),
	}, "\n")
}
