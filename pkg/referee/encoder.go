// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrPayloadTooLarge is returned when a payload does not fit in one frame
var ErrPayloadTooLarge = errors.New("referee: payload too large")

// Encoder builds outbound frames and owns the sequence counter.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	seq uint8
}

// NewEncoder creates a new frame encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode builds a checksummed frame for cmdID and payload. The sequence
// counter only advances when a frame is produced.
func (e *Encoder) Encode(cmdID uint16, payload []byte) ([]byte, error) {
	frame, err := EncodeFrame(e.seq, cmdID, payload)
	if err != nil {
		return nil, err
	}
	e.seq++
	return frame, nil
}

// Seq returns the sequence number the next frame will carry
func (e *Encoder) Seq() uint8 {
	return e.seq
}

// EncodeFrame builds a complete wire frame:
// SOF | data_length | seq | crc8 | cmd_id | payload | crc16.
func EncodeFrame(seq uint8, cmdID uint16, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	frame := make([]byte, FrameOverhead+len(payload))
	frame[0] = StartByte
	binary.LittleEndian.PutUint16(frame[1:3], uint16(len(payload)))
	frame[3] = seq
	AppendCRC8(frame[:HeaderLength])

	binary.LittleEndian.PutUint16(frame[HeaderLength:payloadOffset], cmdID)
	copy(frame[payloadOffset:], payload)
	AppendCRC16(frame)

	return frame, nil
}

// WriteFrames writes each frame to w in order, stopping at the first error
func WriteFrames(w io.Writer, frames [][]byte) error {
	for i, f := range frames {
		if _, err := w.Write(f); err != nil {
			return fmt.Errorf("write frame %d/%d: %w", i+1, len(frames), err)
		}
	}
	return nil
}
