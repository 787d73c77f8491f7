// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package powermgr decodes the power manager telemetry that shares the
// referee serial link.
//
// Packages are framed as
//
//	0x55 0xAA | package_id | length | data[length] | sum8
//
// where sum8 is the 8-bit sum of package_id, length and data. Package id 1
// carries up to four big-endian 16-bit samples (chassis power, capacitor
// voltage, limit, capacity on the stock firmware).
package powermgr

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/x448/float16"
)

// Framing
const (
	Header0 = 0x55
	Header1 = 0xAA

	headerLength   = 4 // header(2) + package_id(1) + length(1)
	checksumLength = 1

	BufferSize = 128
)

// Package ids
const (
	PackageHeartbeat uint8 = 0
	PackageSamples   uint8 = 1
)

// Sample limits
const (
	MaxParameters = 4
	MinSamples    = 2
)

// Decode errors
var (
	ErrChecksum       = errors.New("powermgr: package checksum mismatch")
	ErrSampleCount    = errors.New("powermgr: invalid sample count")
	ErrUnknownPackage = errors.New("powermgr: unknown package id")
	ErrOverflow       = errors.New("powermgr: buffer overflow")
)

// Encoding selects how 16-bit samples become floats
type Encoding int

const (
	// EncodingFixed treats samples as signed fixed point: raw*Scale + Offset
	EncodingFixed Encoding = iota
	// EncodingHalf treats samples as IEEE 754 half precision floats
	EncodingHalf
)

func (e Encoding) String() string {
	switch e {
	case EncodingFixed:
		return "fixed"
	case EncodingHalf:
		return "half"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding parses "fixed" or "half"
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "fixed", "":
		return EncodingFixed, nil
	case "half":
		return EncodingHalf, nil
	default:
		return 0, fmt.Errorf("powermgr: unknown sample encoding %q", s)
	}
}

// Config holds the sample conversion. Scale and Offset apply per channel to
// fixed point samples only.
type Config struct {
	Encoding Encoding
	Scale    [MaxParameters]float64
	Offset   [MaxParameters]float64
}

// DefaultConfig returns fixed point samples in hundredths
func DefaultConfig() Config {
	return Config{
		Encoding: EncodingFixed,
		Scale:    [MaxParameters]float64{0.01, 0.01, 0.01, 0.01},
	}
}

// State is the last valid power manager reading
type State struct {
	Parameters [MaxParameters]float64
	Samples    int // channels carried by the last package
	UpdatedAt  time.Time
}

// Statistics counts decoder outcomes
type Statistics struct {
	Packages       uint64
	Heartbeats     uint64
	ChecksumErrors uint64
	Rejected       uint64
	Overflows      uint64
}

// Option configures a Decoder
type Option func(*Decoder)

// WithConfig sets the sample conversion
func WithConfig(cfg Config) Option {
	return func(d *Decoder) { d.cfg = cfg }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// WithClock replaces time.Now for state timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

// WithStateHandler is called with every new state
func WithStateHandler(fn func(State)) Option {
	return func(d *Decoder) { d.onState = fn }
}

// Decoder is a byte-at-a-time state machine over a pair of fixed buffers.
// Bytes accumulate in the active buffer; a completed package is decoded from
// that buffer while the other one takes new bytes. A header declaring more
// data than fits the buffer is dropped as an overflow when it arrives, so
// the active buffer never fills.
type Decoder struct {
	cfg     Config
	logger  zerolog.Logger
	now     func() time.Time
	onState func(State)

	bufs   [2][BufferSize]byte
	lens   [2]int
	active int

	state State
	stats Statistics
}

// NewDecoder creates a power decoder
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		cfg:    DefaultConfig(),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed runs every byte through the state machine and returns the number of
// packages that updated the state
func (d *Decoder) Feed(data []byte) int {
	updated := 0
	for _, b := range data {
		ok, err := d.DecodeByte(b)
		if err != nil {
			d.logger.Debug().Err(err).Msg("power package dropped")
			continue
		}
		if ok {
			updated++
		}
	}
	return updated
}

// DecodeByte adds one byte. It reports true when the byte completed a
// package that updated the state.
//
// Every 55 AA in the active buffer is a candidate. A package that starts
// inside a false header's declared length is still decoded, and a failed
// head candidate resynchronizes on the next 55 AA after it.
func (d *Decoder) DecodeByte(b byte) (bool, error) {
	n := d.lens[d.active]
	if n == 0 && b != Header0 {
		return false, nil
	}
	buf := &d.bufs[d.active]
	buf[n] = b
	n++
	d.lens[d.active] = n

	var err error
	headDead := false
	next := -1
	for k := 0; k < n; k++ {
		switch candidateAt(buf[:n], k) {
		case candidateComplete:
			return d.complete(k, n)
		case candidatePending:
			if k > 0 && next < 0 {
				next = k
			}
			continue
		case candidateChecksum:
			if k == 0 {
				d.stats.ChecksumErrors++
				err = fmt.Errorf("%w: got 0x%02X, expected 0x%02X", ErrChecksum, buf[n-1], packageSum(buf[:n]))
			}
		case candidateTooLong:
			if k == 0 {
				d.stats.Overflows++
				err = fmt.Errorf("%w: %d data bytes declared", ErrOverflow, buf[3])
			}
		}
		if k == 0 {
			headDead = true
		}
	}

	if headDead {
		if next < 0 {
			d.lens[d.active] = 0
		} else {
			d.lens[d.active] = copy(buf[:], buf[next:n])
		}
	}
	return false, err
}

type candidate int

const (
	candidateNone candidate = iota
	candidatePending
	candidateComplete
	candidateChecksum
	candidateTooLong
)

// candidateAt classifies a package starting at offset k of b, where the last
// byte of b has just arrived
func candidateAt(b []byte, k int) candidate {
	n := len(b)
	if b[k] != Header0 {
		return candidateNone
	}
	if k+1 == n {
		return candidatePending
	}
	if b[k+1] != Header1 {
		return candidateNone
	}
	if n-k < headerLength {
		return candidatePending
	}

	total := headerLength + int(b[k+3]) + checksumLength
	switch {
	case total > BufferSize:
		return candidateTooLong
	case k+total > n:
		return candidatePending
	case k+total < n:
		return candidateNone
	}
	if packageSum(b[k:]) != b[n-1] {
		return candidateChecksum
	}
	return candidateComplete
}

// packageSum is the sum8 of package_id, length and data of pkg
func packageSum(pkg []byte) uint8 {
	var sum uint8
	for _, b := range pkg[2 : len(pkg)-checksumLength] {
		sum += b
	}
	return sum
}

// complete swaps buffers and decodes the package at [k:n] of the buffer
// that was active
func (d *Decoder) complete(k, n int) (bool, error) {
	done := d.active
	d.active ^= 1
	d.lens[d.active] = 0
	return d.decodePackage(d.bufs[done][k:n])
}

func (d *Decoder) decodePackage(pkg []byte) (bool, error) {
	id := pkg[2]
	length := int(pkg[3])
	data := pkg[headerLength : headerLength+length]

	switch id {
	case PackageHeartbeat:
		d.stats.Heartbeats++
		return false, nil
	case PackageSamples:
	default:
		d.stats.Rejected++
		return false, fmt.Errorf("%w: %d", ErrUnknownPackage, id)
	}

	samples := length / 2
	if length%2 != 0 || samples < MinSamples || samples > MaxParameters {
		d.stats.Rejected++
		return false, fmt.Errorf("%w: %d bytes", ErrSampleCount, length)
	}

	for i := 0; i < samples; i++ {
		raw := uint16(data[2*i])<<8 | uint16(data[2*i+1])
		d.state.Parameters[i] = d.convert(i, raw)
	}
	d.state.Samples = samples
	d.state.UpdatedAt = d.now()
	d.stats.Packages++

	if d.onState != nil {
		d.onState(d.state)
	}
	return true, nil
}

func (d *Decoder) convert(channel int, raw uint16) float64 {
	if d.cfg.Encoding == EncodingHalf {
		return float64(float16.Frombits(raw).Float32())
	}
	return float64(int16(raw))*d.cfg.Scale[channel] + d.cfg.Offset[channel]
}

// State returns the last valid reading
func (d *Decoder) State() State {
	return d.state
}

// Stats returns the decoder counters
func (d *Decoder) Stats() Statistics {
	return d.stats
}

// Pending returns the bytes held in the active buffer
func (d *Decoder) Pending() int {
	return d.lens[d.active]
}

// EncodePackage builds a package, mostly for tests and simulators
func EncodePackage(id uint8, data []byte) ([]byte, error) {
	if headerLength+len(data)+checksumLength > BufferSize {
		return nil, fmt.Errorf("%w: %d data bytes", ErrOverflow, len(data))
	}
	pkg := make([]byte, 0, headerLength+len(data)+checksumLength)
	pkg = append(pkg, Header0, Header1, id, uint8(len(data)))
	pkg = append(pkg, data...)
	pkg = append(pkg, 0)
	pkg[len(pkg)-1] = packageSum(pkg)
	return pkg, nil
}
