// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/refstat/internal/logging"
	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

// link is an open connection with the session that owns its byte stream
type link struct {
	conn    Connection
	info    string
	session *referee.Session
	power   *powermgr.Decoder
}

// openLink opens the configured connection and primes a session on it.
// onPower, if set, receives every power manager state; it runs on the
// session goroutine.
func openLink(ctx context.Context, onPower func(powermgr.State), opts ...referee.Option) (*link, error) {
	conn, info, err := OpenConnection(ctx, appConfig)
	if err != nil {
		return nil, err
	}

	l := &link{conn: conn, info: info}
	sessionOpts := []referee.Option{
		referee.WithLogger(logging.Component(logger, "referee")),
	}
	if appConfig.Power.Enabled {
		powerOpts := []powermgr.Option{
			powermgr.WithConfig(appConfig.Power.Decoder),
			powermgr.WithLogger(logging.Component(logger, "powermgr")),
		}
		if onPower != nil {
			powerOpts = append(powerOpts, powermgr.WithStateHandler(onPower))
		}
		l.power = powermgr.NewDecoder(powerOpts...)
		sessionOpts = append(sessionOpts, referee.WithPowerDecoder(l.power))
	}
	l.session = referee.NewSession(append(sessionOpts, opts...)...)

	logger.Info().Str("connection", info).Bool("power", l.power != nil).Msg("link open")
	return l, nil
}

// run polls the session until ctx ends or the connection fails. Each poll
// waits at most the connection's read timeout, so ctx is checked at least
// once per session.poll_interval. afterPoll runs after every poll; returning
// errStop ends the loop without error.
func (l *link) run(ctx context.Context, afterPoll func() error) error {
	for {
		_, err := l.session.Poll(l.conn)
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				logger.Info().Msg("connection closed")
				return nil
			}
			return err
		}
		if afterPoll != nil {
			if err := afterPoll(); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (l *link) Close() error {
	return l.conn.Close()
}

var errStop = errors.New("stop")

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
