// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Publisher receives a snapshot after every poll. The snapshot is a private
// copy and must be treated as read-only.
type Publisher interface {
	PublishSnapshot(snap *Snapshot)
}

// StreamDecoder is a side-channel decoder fed with the same raw bytes as the
// frame codec
type StreamDecoder interface {
	Feed(data []byte) int
}

// FrameObserver is called for every checksummed frame with its dispatch
// result
type FrameObserver func(f *Frame, rec Record, err error)

// Option configures a Session
type Option func(*Session)

// WithRegistry replaces the default cmd id table
func WithRegistry(r *Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithPowerDecoder feeds every received byte to d as well
func WithPowerDecoder(d StreamDecoder) Option {
	return func(s *Session) { s.power = d }
}

// WithPublisher sets the publish boundary
func WithPublisher(p Publisher) Option {
	return func(s *Session) { s.publisher = p }
}

// WithObserver sets a frame observer
func WithObserver(o FrameObserver) Option {
	return func(s *Session) { s.observer = o }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock replaces time.Now for snapshot timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session owns the receive buffer and the telemetry snapshot of one referee
// link.
//
// A Session is single-writer: Feed and Poll must not be called concurrently.
// Snapshot returns copies that are safe to hand to other goroutines.
type Session struct {
	registry  *Registry
	power     StreamDecoder
	publisher Publisher
	observer  FrameObserver
	logger    zerolog.Logger
	now       func() time.Time

	buf     []byte
	readBuf []byte
	snap    *Snapshot
	stats   *Statistics
	ident   Identity
}

// NewSession primes a session. It opens no resources.
func NewSession(opts ...Option) *Session {
	s := &Session{
		registry: DefaultRegistry(),
		logger:   zerolog.Nop(),
		now:      time.Now,
		buf:      make([]byte, 0, RxBufferSize),
		readBuf:  make([]byte, RxBufferSize),
		snap:     NewSnapshot(),
		stats:    NewStatistics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed appends received bytes and dispatches every complete frame. It
// returns the number of records applied to the snapshot. Framing and dispatch
// errors are counted in Stats, never returned.
func (s *Session) Feed(data []byte) int {
	s.stats.BytesReceived += uint64(len(data))
	if s.power != nil && len(data) > 0 {
		s.power.Feed(data)
	}

	applied := 0
	for len(data) > 0 {
		// drain leaves less than MaxFrameSize buffered, so room is never
		// zero in practice; the reset is a backstop
		room := RxBufferSize - len(s.buf)
		if room == 0 {
			s.logger.Warn().Int("buffered", len(s.buf)).Msg("receive buffer full, resetting")
			s.stats.BufferResets++
			s.buf = s.buf[:0]
			room = RxBufferSize
		}
		n := min(room, len(data))
		s.buf = append(s.buf, data[:n]...)
		data = data[n:]
		applied += s.drain()
	}
	return applied
}

// Poll performs one read from r, feeds the bytes and publishes the snapshot.
// A zero-byte read is not an error. The read error, if any, is returned after
// the bytes that came with it have been processed.
func (s *Session) Poll(r io.Reader) (int, error) {
	n, err := r.Read(s.readBuf)
	if n > 0 {
		s.Feed(s.readBuf[:n])
	}
	if s.publisher != nil {
		s.publisher.PublishSnapshot(s.snap.Clone())
	}
	return n, err
}

func (s *Session) drain() int {
	applied := 0
	for {
		res := DecodeOne(s.buf)
		s.stats.RecordResult(res)
		s.consume(res.Consumed)

		switch res.Status {
		case StatusIncomplete:
			return applied
		case StatusInvalid:
			s.logger.Debug().Err(res.Err).Int("skipped", res.Skipped).Msg("frame candidate rejected")
		case StatusComplete:
			if s.dispatch(res.Frame) {
				applied++
			}
		}
	}
}

func (s *Session) consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(s.buf) {
		s.buf = s.buf[:0]
		return
	}
	rest := copy(s.buf, s.buf[n:])
	s.buf = s.buf[:rest]
}

func (s *Session) dispatch(f *Frame) bool {
	rec, err := s.registry.Decode(f.CmdID(), f.Payload())
	var anomalies []ValidationError
	if err == nil {
		anomalies = ValidateRecord(rec)
	}
	s.stats.RecordDispatch(rec, err, anomalies)
	if s.observer != nil {
		s.observer(f, rec, err)
	}

	if err != nil {
		s.logger.Debug().Err(err).Uint16("cmd_id", f.CmdID()).Msg("dispatch failed")
		return false
	}
	for _, a := range anomalies {
		s.logger.Debug().Str("cmd", FormatCmdID(f.CmdID())).Msg(a.Message)
	}

	if !s.snap.Apply(rec, s.now()) {
		return false
	}
	if st, ok := rec.(GameRobotStatus); ok && st.RobotID != s.ident.RobotID {
		s.ident = IdentityOf(st.RobotID)
		s.logger.Info().
			Uint8("robot_id", uint8(st.RobotID)).
			Str("alliance", s.ident.Alliance.String()).
			Uint16("client_id", s.ident.ClientID).
			Msg("robot identity")
	}
	return true
}

// Snapshot returns a copy of the current telemetry
func (s *Session) Snapshot() *Snapshot {
	return s.snap.Clone()
}

// Identity returns the robot identity from the last robot status record
func (s *Session) Identity() Identity {
	return s.ident
}

// ShootSpeedLimit maps a requested speed onto the current referee limit
func (s *Session) ShootSpeedLimit(requested ShootSpeed) ShootSpeed {
	return ShootSpeedLimit(s.snap.GameRobotStatus, requested)
}

// Stats returns the live counters. Read them from the session's goroutine.
func (s *Session) Stats() *Statistics {
	return s.stats
}

// Buffered returns the number of bytes waiting for the rest of a frame
func (s *Session) Buffered() int {
	return len(s.buf)
}
