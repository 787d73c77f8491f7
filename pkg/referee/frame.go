// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import "time"

// Frame is one validated referee protocol frame
type Frame struct {
	length    uint16
	seq       uint8
	headerCRC uint8
	cmdID     uint16
	payload   []byte
	crc       uint16
	timestamp time.Time
}

// NewFrame creates a frame with the given fields
func NewFrame(seq uint8, cmdID uint16, payload []byte, headerCRC uint8, crc uint16) *Frame {
	return &Frame{
		length:    uint16(len(payload)),
		seq:       seq,
		headerCRC: headerCRC,
		cmdID:     cmdID,
		payload:   payload,
		crc:       crc,
		timestamp: time.Now(),
	}
}

// Length returns the declared payload length
func (f *Frame) Length() uint16 {
	return f.length
}

// Seq returns the sender's sequence counter
func (f *Frame) Seq() uint8 {
	return f.seq
}

// HeaderCRC returns the header CRC8
func (f *Frame) HeaderCRC() uint8 {
	return f.headerCRC
}

// CmdID returns the command id
func (f *Frame) CmdID() uint16 {
	return f.cmdID
}

// Payload returns the payload bytes
func (f *Frame) Payload() []byte {
	return f.payload
}

// CRC returns the frame CRC16
func (f *Frame) CRC() uint16 {
	return f.crc
}

// Size returns the full on-wire size of the frame
func (f *Frame) Size() int {
	return FrameOverhead + int(f.length)
}

// Timestamp returns the decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}
