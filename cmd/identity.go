// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/refstat/pkg/referee"
)

// resolveIdentity returns the identity for robotID, or waits for the referee
// to report one in a robot status frame
func resolveIdentity(ctx context.Context, l *link, robotID uint8, timeout time.Duration) (referee.Identity, error) {
	if robotID != 0 {
		id := referee.RobotID(robotID)
		if referee.AllianceOf(id) == referee.AllianceUnknown {
			return referee.Identity{}, fmt.Errorf("unknown robot id %d", robotID)
		}
		return referee.IdentityOf(id), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info().Dur("timeout", timeout).Msg("waiting for robot status")
	err := l.run(waitCtx, func() error {
		if l.session.Identity().RobotID != 0 {
			return errStop
		}
		return nil
	})
	if err != nil {
		return referee.Identity{}, err
	}

	ident := l.session.Identity()
	if ident.RobotID == 0 {
		return referee.Identity{}, fmt.Errorf("no robot status received within %s (use --robot)", timeout)
	}
	return ident, nil
}
