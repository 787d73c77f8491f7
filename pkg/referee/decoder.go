// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

// Framing errors reported in Result.Err
var (
	ErrHeaderCRC      = errors.New("referee: header crc8 mismatch")
	ErrFrameCRC       = errors.New("referee: frame crc16 mismatch")
	ErrLengthOverflow = errors.New("referee: declared length exceeds frame capacity")
)

// Status is the outcome of a DecodeOne call
type Status int

// Decode status values
const (
	// StatusIncomplete means more bytes are needed. Consumed counts only
	// leading garbage that can be dropped.
	StatusIncomplete Status = iota
	// StatusInvalid means the candidate at the first SOF is not a frame.
	// Consumed moves one byte past that SOF.
	StatusInvalid
	// StatusComplete means Frame holds a validated frame.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "INCOMPLETE"
	case StatusInvalid:
		return "INVALID"
	case StatusComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Result describes what DecodeOne found at the front of a buffer
type Result struct {
	Status   Status
	Frame    *Frame
	Consumed int   // bytes the caller should drop from the front of the buffer
	Skipped  int   // garbage bytes before the SOF candidate (included in Consumed)
	Err      error // framing error for StatusInvalid
}

// DecodeOne looks for one frame at the front of buf.
//
// The cmd id and payload are only read after both checksums pass. Every
// rejected candidate advances by a single byte so a corrupt length field is
// never trusted as a skip distance. The returned frame owns a copy of its
// payload, so buf may be reused once the result has been handled.
func DecodeOne(buf []byte) Result {
	sof := bytes.IndexByte(buf, StartByte)
	if sof < 0 {
		return Result{Status: StatusIncomplete, Consumed: len(buf), Skipped: len(buf)}
	}
	b := buf[sof:]

	if len(b) < HeaderLength {
		return Result{Status: StatusIncomplete, Consumed: sof, Skipped: sof}
	}

	if !VerifyCRC8(b[:HeaderLength]) {
		return Result{Status: StatusInvalid, Consumed: sof + 1, Skipped: sof, Err: ErrHeaderCRC}
	}

	length := binary.LittleEndian.Uint16(b[1:3])
	if int(length) > MaxPayloadSize {
		return Result{Status: StatusInvalid, Consumed: sof + 1, Skipped: sof, Err: ErrLengthOverflow}
	}

	size := FrameOverhead + int(length)
	if len(b) < size {
		return Result{Status: StatusIncomplete, Consumed: sof, Skipped: sof}
	}

	if !VerifyCRC16(b[:size]) {
		return Result{Status: StatusInvalid, Consumed: sof + 1, Skipped: sof, Err: ErrFrameCRC}
	}

	payload := make([]byte, length)
	copy(payload, b[payloadOffset:payloadOffset+int(length)])

	frame := &Frame{
		length:    length,
		seq:       b[3],
		headerCRC: b[headerCRCOffset],
		cmdID:     binary.LittleEndian.Uint16(b[HeaderLength:payloadOffset]),
		payload:   payload,
		crc:       binary.LittleEndian.Uint16(b[size-TailLength : size]),
		timestamp: time.Now(),
	}

	return Result{Status: StatusComplete, Frame: frame, Consumed: sof + size, Skipped: sof}
}
