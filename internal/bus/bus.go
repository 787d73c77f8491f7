// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package bus fans telemetry out to the TUI, the journal and any other
// consumer running next to the poll loop.
package bus

import (
	"reflect"

	"github.com/cskr/pubsub"
	"github.com/rs/zerolog"

	"github.com/Thermoquad/refstat/pkg/powermgr"
	"github.com/Thermoquad/refstat/pkg/referee"
)

// Topics
const (
	TopicSnapshot = "referee.snapshot"
	TopicPower    = "power.state"
	TopicFrame    = "referee.frame"
	TopicStats    = "referee.stats"
)

// Subscription receives published values
type Subscription chan any

// FrameEvent is one checksummed frame with its dispatch outcome
type FrameEvent struct {
	Frame  *referee.Frame
	Record referee.Record
	Err    error
}

// MessageBus is the publish boundary of the poll loop
type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topics ...string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus is a MessageBus over cskr/pubsub
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger zerolog.Logger
}

// New creates a bus whose subscriber channels hold up to 128 values
func New(logger zerolog.Logger) *PubSubBus {
	return &PubSubBus{
		ps:     pubsub.New(128),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.logger.Trace().Str("topic", topic).Str("payload_type", payloadType(msg)).Msg("publish")
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	ch := b.ps.Sub(topics...)
	b.logger.Debug().Strs("topics", topics).Msg("subscribe")
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug().Str("mode", "all").Msg("unsubscribe")
		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug().Strs("topics", topics).Msg("unsubscribe")
}

func (b *PubSubBus) Close() {
	b.ps.Shutdown()
}

// PublishSnapshot implements referee.Publisher
func (b *PubSubBus) PublishSnapshot(snap *referee.Snapshot) {
	b.Publish(TopicSnapshot, snap)
}

// PublishPower forwards a power manager reading
func (b *PubSubBus) PublishPower(st powermgr.State) {
	b.Publish(TopicPower, st)
}

// PublishStats forwards a copy of the session counters
func (b *PubSubBus) PublishStats(st referee.Statistics) {
	b.Publish(TopicStats, st)
}

// ObserveFrame is a referee.FrameObserver that publishes every frame
func (b *PubSubBus) ObserveFrame(f *referee.Frame, rec referee.Record, err error) {
	b.Publish(TopicFrame, FrameEvent{Frame: f, Record: rec, Err: err})
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
