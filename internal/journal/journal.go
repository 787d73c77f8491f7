// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

// FrameEntry is one journaled frame
type FrameEntry struct {
	ID            int64
	ReceivedAt    time.Time
	Seq           uint8
	CmdID         uint16
	Payload       []byte
	DispatchError string
}

// SnapshotEntry is one journaled snapshot
type SnapshotEntry struct {
	ID       int64
	TakenAt  time.Time
	RobotID  referee.RobotID
	Snapshot *referee.Snapshot
}

// PowerEntry is one journaled power manager reading
type PowerEntry struct {
	ID    int64
	State powermgr.State
}

// Journal stores frames, snapshots and power readings
type Journal struct {
	db  *sql.DB
	enc cbor.EncMode
}

// New wraps an opened database
func New(db *sql.DB) (*Journal, error) {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("snapshot encoder: %w", err)
	}
	return &Journal{db: db, enc: enc}, nil
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}

// InsertFrame stores a frame and the error its dispatch produced, if any
func (j *Journal) InsertFrame(ctx context.Context, f *referee.Frame, dispatchErr error) error {
	msg := ""
	if dispatchErr != nil {
		msg = dispatchErr.Error()
	}
	payload := f.Payload()
	if payload == nil {
		payload = []byte{}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO frames(received_at, seq, cmd_id, payload, dispatch_error)
		VALUES(?, ?, ?, ?, ?)
	`, unixMicros(f.Timestamp()), f.Seq(), f.CmdID(), payload, msg)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}

	return nil
}

// InsertSnapshot stores a CBOR encoding of snap. Records of kinds outside
// the built-in table are not journaled.
func (j *Journal) InsertSnapshot(ctx context.Context, at time.Time, snap *referee.Snapshot) error {
	c := snap.Clone()
	c.Other = nil
	body, err := j.enc.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO snapshots(taken_at, robot_id, body) VALUES(?, ?, ?)
	`, unixMicros(at), uint8(snap.GameRobotStatus.RobotID), body)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// InsertPower stores a power manager reading
func (j *Journal) InsertPower(ctx context.Context, st powermgr.State) error {
	p := st.Parameters
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO power_samples(updated_at, samples, p0, p1, p2, p3)
		VALUES(?, ?, ?, ?, ?, ?)
	`, unixMicros(st.UpdatedAt), st.Samples, p[0], p[1], p[2], p[3])
	if err != nil {
		return fmt.Errorf("insert power sample: %w", err)
	}

	return nil
}

// ListFrames returns up to limit frames, oldest first. A cmdID of 0 matches
// every command.
func (j *Journal) ListFrames(ctx context.Context, cmdID uint16, limit int) ([]FrameEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, received_at, seq, cmd_id, payload, dispatch_error
		FROM frames
		WHERE ? = 0 OR cmd_id = ?
		ORDER BY id ASC
		LIMIT ?
	`, cmdID, cmdID, limit)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var out []FrameEntry
	for rows.Next() {
		var (
			e          FrameEntry
			receivedAt int64
		)
		if err := rows.Scan(&e.ID, &receivedAt, &e.Seq, &e.CmdID, &e.Payload, &e.DispatchError); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		e.ReceivedAt = fromUnixMicros(receivedAt)
		out = append(out, e)
	}

	return out, rows.Err()
}

// Replay decodes journaled frames back into records with reg. cmdID and
// limit filter as in ListFrames.
func (j *Journal) Replay(ctx context.Context, reg *referee.Registry, cmdID uint16, limit int, fn func(FrameEntry, referee.Record, error)) error {
	frames, err := j.ListFrames(ctx, cmdID, limit)
	if err != nil {
		return err
	}
	for _, e := range frames {
		rec, derr := reg.Decode(e.CmdID, e.Payload)
		fn(e, rec, derr)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot, or sql.ErrNoRows
func (j *Journal) LatestSnapshot(ctx context.Context) (SnapshotEntry, error) {
	var (
		e       SnapshotEntry
		takenAt int64
		robotID uint8
		body    []byte
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT id, taken_at, robot_id, body FROM snapshots ORDER BY id DESC LIMIT 1
	`).Scan(&e.ID, &takenAt, &robotID, &body)
	if err != nil {
		return SnapshotEntry{}, err
	}

	snap := referee.NewSnapshot()
	if err := cbor.Unmarshal(body, snap); err != nil {
		return SnapshotEntry{}, fmt.Errorf("decode snapshot %d: %w", e.ID, err)
	}
	e.TakenAt = fromUnixMicros(takenAt)
	e.RobotID = referee.RobotID(robotID)
	e.Snapshot = snap

	return e, nil
}

// ListPower returns up to limit power readings, oldest first
func (j *Journal) ListPower(ctx context.Context, limit int) ([]PowerEntry, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, updated_at, samples, p0, p1, p2, p3
		FROM power_samples ORDER BY id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list power samples: %w", err)
	}
	defer rows.Close()

	var out []PowerEntry
	for rows.Next() {
		var (
			e         PowerEntry
			updatedAt int64
		)
		p := &e.State.Parameters
		if err := rows.Scan(&e.ID, &updatedAt, &e.State.Samples, &p[0], &p[1], &p[2], &p[3]); err != nil {
			return nil, fmt.Errorf("scan power sample: %w", err)
		}
		e.State.UpdatedAt = fromUnixMicros(updatedAt)
		out = append(out, e)
	}

	return out, rows.Err()
}

// Times are stored as unix microseconds so frames read in one burst keep
// their order. Zero is an unset time.
func unixMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromUnixMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v)
}
